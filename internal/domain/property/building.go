package property

import (
	"slices"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
)

// Building is the aggregate root for a rental building and its tariff
type Building struct {
	shared.BaseAggregateRoot
	Address        valueobject.Address
	NumberOfFloors int
	Tariff         Tariff
	ManagerIDs     []uuid.UUID
}

// NewBuilding creates a new building
func NewBuilding(address valueobject.Address, numberOfFloors int, tariff Tariff, managerIDs ...uuid.UUID) (*Building, error) {
	if address.IsEmpty() {
		return nil, shared.NewValidationError("INVALID_ADDRESS", "Building address is required")
	}
	if err := validateFloors(numberOfFloors); err != nil {
		return nil, err
	}
	if err := tariff.Validate(); err != nil {
		return nil, err
	}

	b := &Building{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Address:           address,
		NumberOfFloors:    numberOfFloors,
		Tariff:            tariff,
		ManagerIDs:        make([]uuid.UUID, 0, len(managerIDs)),
	}
	for _, id := range managerIDs {
		b.AddManager(id)
	}

	b.AddDomainEvent(NewBuildingCreatedEvent(b))

	return b, nil
}

func validateFloors(n int) error {
	if n < 1 {
		return shared.NewValidationError("INVALID_FLOORS", "Number of floors must be at least 1")
	}
	return nil
}

// Relocate changes the building address
func (b *Building) Relocate(address valueobject.Address) error {
	if address.IsEmpty() {
		return shared.NewValidationError("INVALID_ADDRESS", "Building address is required")
	}
	b.Address = address
	b.IncrementVersion()
	return nil
}

// ChangeFloors sets the number of floors. highestFloor is the highest floor
// currently occupied by an apartment, or -1 when the building is empty.
func (b *Building) ChangeFloors(numberOfFloors, highestFloor int) error {
	if err := validateFloors(numberOfFloors); err != nil {
		return err
	}
	if highestFloor >= numberOfFloors {
		return shared.NewValidationError("FLOOR_OUT_OF_RANGE",
			"Number of floors cannot drop below an existing apartment's floor")
	}
	b.NumberOfFloors = numberOfFloors
	b.IncrementVersion()
	return nil
}

// UpdateTariff replaces the tariff and reports whether any value changed
func (b *Building) UpdateTariff(tariff Tariff) (bool, error) {
	if err := tariff.Validate(); err != nil {
		return false, err
	}
	if b.Tariff.Equals(tariff) {
		return false, nil
	}
	b.Tariff = tariff
	b.IncrementVersion()
	b.AddDomainEvent(NewBuildingTariffChangedEvent(b))
	return true, nil
}

// ValidateFloor checks that floor lies in [0, NumberOfFloors)
func (b *Building) ValidateFloor(floor int) error {
	if floor < 0 || floor >= b.NumberOfFloors {
		return shared.NewValidationError("FLOOR_OUT_OF_RANGE",
			"Floor must be between 0 and the building's top floor")
	}
	return nil
}

// IsManagedBy reports whether the user manages this building
func (b *Building) IsManagedBy(userID uuid.UUID) bool {
	return slices.Contains(b.ManagerIDs, userID)
}

// AddManager adds a manager; adding an existing manager is a no-op
func (b *Building) AddManager(userID uuid.UUID) {
	if b.IsManagedBy(userID) {
		return
	}
	b.ManagerIDs = append(b.ManagerIDs, userID)
}

// RemoveManager removes a manager, refusing to leave the building without one
func (b *Building) RemoveManager(userID uuid.UUID) error {
	if !b.IsManagedBy(userID) {
		return nil
	}
	if len(b.ManagerIDs) == 1 {
		return ErrLastManagerRequired
	}
	b.DetachManager(userID)
	return nil
}

// DetachManager drops a manager without the last-manager check; used when the building itself goes away
func (b *Building) DetachManager(userID uuid.UUID) {
	b.ManagerIDs = slices.DeleteFunc(b.ManagerIDs, func(id uuid.UUID) bool { return id == userID })
}

// MarkDeleted records the deletion event
func (b *Building) MarkDeleted() {
	b.AddDomainEvent(NewBuildingDeletedEvent(b))
}

// ErrLastManagerRequired is returned when a building would be left without managers
var ErrLastManagerRequired = shared.NewInvalidStateError("LAST_MANAGER_REQUIRED",
	"Building needs at least one manager")
