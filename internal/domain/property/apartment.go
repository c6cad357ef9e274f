package property

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Apartment is a unit within a building, optionally occupied by one tenant
type Apartment struct {
	shared.BaseAggregateRoot
	BuildingID uuid.UUID
	Number     string
	Area       decimal.Decimal
	Floor      int
	TenantID   *uuid.UUID
}

// NewApartment creates an apartment in the given building
func NewApartment(building *Building, number string, area decimal.Decimal, floor int) (*Apartment, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.NewValidationError("INVALID_APARTMENT_NUMBER", "Apartment number cannot be empty")
	}
	if len(number) > 20 {
		return nil, shared.NewValidationError("INVALID_APARTMENT_NUMBER", "Apartment number cannot exceed 20 characters")
	}
	if err := validateArea(area); err != nil {
		return nil, err
	}
	if err := building.ValidateFloor(floor); err != nil {
		return nil, err
	}

	a := &Apartment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BuildingID:        building.ID,
		Number:            number,
		Area:              area,
		Floor:             floor,
	}
	a.AddDomainEvent(NewApartmentCreatedEvent(a))
	return a, nil
}

// AreaScale is the number of decimal places kept for apartment areas
const AreaScale int32 = 2

func validateArea(area decimal.Decimal) error {
	if !area.IsPositive() {
		return shared.NewValidationError("INVALID_AREA", "Apartment area must be positive")
	}
	if !valueobject.FitsScale(area, AreaScale) {
		return shared.NewValidationError("INVALID_AREA",
			fmt.Sprintf("Apartment area cannot have more than %d decimal places", AreaScale))
	}
	return nil
}

// NumberKey is the case-folded apartment number used for uniqueness within a building
func (a *Apartment) NumberKey() string {
	return NumberKey(a.Number)
}

// NumberKey folds an apartment number for case-insensitive comparison
func NumberKey(number string) string {
	return valueobject.Fold(number)
}

// Renumber changes the apartment number
func (a *Apartment) Renumber(number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return shared.NewValidationError("INVALID_APARTMENT_NUMBER", "Apartment number cannot be empty")
	}
	a.Number = number
	a.IncrementVersion()
	return nil
}

// MoveToFloor changes the floor within the building's range
func (a *Apartment) MoveToFloor(building *Building, floor int) error {
	if err := building.ValidateFloor(floor); err != nil {
		return err
	}
	a.Floor = floor
	a.IncrementVersion()
	return nil
}

// Resize changes the area and reports whether it changed
func (a *Apartment) Resize(area decimal.Decimal) (bool, error) {
	if err := validateArea(area); err != nil {
		return false, err
	}
	if a.Area.Equal(area) {
		return false, nil
	}
	a.Area = area
	a.IncrementVersion()
	a.AddDomainEvent(NewApartmentResizedEvent(a))
	return true, nil
}

// IsAvailable reports whether the apartment has no tenant
func (a *Apartment) IsAvailable() bool {
	return a.TenantID == nil
}

// AssignTenant moves a tenant in
func (a *Apartment) AssignTenant(userID uuid.UUID) error {
	if a.TenantID != nil && *a.TenantID != userID {
		return shared.NewConflictError("APARTMENT_OCCUPIED", "Apartment already has a tenant")
	}
	a.TenantID = &userID
	a.IncrementVersion()
	return nil
}

// DetachTenant clears the tenant reference
func (a *Apartment) DetachTenant() {
	if a.TenantID == nil {
		return
	}
	a.TenantID = nil
	a.IncrementVersion()
}

// MarkDeleted records the deletion event
func (a *Apartment) MarkDeleted() {
	a.AddDomainEvent(NewApartmentDeletedEvent(a))
}
