package property

import (
	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeBuilding  = "Building"
	AggregateTypeApartment = "Apartment"
)

// Event type constants
const (
	EventTypeBuildingCreated       = "BuildingCreated"
	EventTypeBuildingTariffChanged = "BuildingTariffChanged"
	EventTypeBuildingDeleted       = "BuildingDeleted"
	EventTypeApartmentCreated      = "ApartmentCreated"
	EventTypeApartmentResized      = "ApartmentResized"
	EventTypeApartmentDeleted      = "ApartmentDeleted"
)

// BuildingCreatedEvent is raised when a building is registered
type BuildingCreatedEvent struct {
	shared.BaseDomainEvent
	BuildingID uuid.UUID `json:"building_id"`
	Address    string    `json:"address"`
}

// NewBuildingCreatedEvent creates a BuildingCreatedEvent
func NewBuildingCreatedEvent(b *Building) *BuildingCreatedEvent {
	return &BuildingCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBuildingCreated, AggregateTypeBuilding, b.ID),
		BuildingID:      b.ID,
		Address:         b.Address.FullAddress(),
	}
}

// BuildingTariffChangedEvent is raised when any rate or flat sum changes
type BuildingTariffChangedEvent struct {
	shared.BaseDomainEvent
	BuildingID uuid.UUID `json:"building_id"`
}

// NewBuildingTariffChangedEvent creates a BuildingTariffChangedEvent
func NewBuildingTariffChangedEvent(b *Building) *BuildingTariffChangedEvent {
	return &BuildingTariffChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBuildingTariffChanged, AggregateTypeBuilding, b.ID),
		BuildingID:      b.ID,
	}
}

// BuildingDeletedEvent is raised after a building and its apartments are removed
type BuildingDeletedEvent struct {
	shared.BaseDomainEvent
	BuildingID uuid.UUID `json:"building_id"`
	Address    string    `json:"address"`
}

// NewBuildingDeletedEvent creates a BuildingDeletedEvent
func NewBuildingDeletedEvent(b *Building) *BuildingDeletedEvent {
	return &BuildingDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBuildingDeleted, AggregateTypeBuilding, b.ID),
		BuildingID:      b.ID,
		Address:         b.Address.FullAddress(),
	}
}

// ApartmentCreatedEvent is raised when an apartment is added to a building
type ApartmentCreatedEvent struct {
	shared.BaseDomainEvent
	ApartmentID uuid.UUID `json:"apartment_id"`
	BuildingID  uuid.UUID `json:"building_id"`
	Number      string    `json:"number"`
}

// NewApartmentCreatedEvent creates an ApartmentCreatedEvent
func NewApartmentCreatedEvent(a *Apartment) *ApartmentCreatedEvent {
	return &ApartmentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApartmentCreated, AggregateTypeApartment, a.ID),
		ApartmentID:     a.ID,
		BuildingID:      a.BuildingID,
		Number:          a.Number,
	}
}

// ApartmentResizedEvent is raised when the area changes
type ApartmentResizedEvent struct {
	shared.BaseDomainEvent
	ApartmentID uuid.UUID       `json:"apartment_id"`
	Area        decimal.Decimal `json:"area"`
}

// NewApartmentResizedEvent creates an ApartmentResizedEvent
func NewApartmentResizedEvent(a *Apartment) *ApartmentResizedEvent {
	return &ApartmentResizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApartmentResized, AggregateTypeApartment, a.ID),
		ApartmentID:     a.ID,
		Area:            a.Area,
	}
}

// ApartmentDeletedEvent is raised after the apartment cascade completes
type ApartmentDeletedEvent struct {
	shared.BaseDomainEvent
	ApartmentID uuid.UUID `json:"apartment_id"`
	BuildingID  uuid.UUID `json:"building_id"`
}

// NewApartmentDeletedEvent creates an ApartmentDeletedEvent
func NewApartmentDeletedEvent(a *Apartment) *ApartmentDeletedEvent {
	return &ApartmentDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApartmentDeleted, AggregateTypeApartment, a.ID),
		ApartmentID:     a.ID,
		BuildingID:      a.BuildingID,
	}
}
