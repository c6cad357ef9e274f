package property

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
)

// BuildingRepository defines persistence for buildings and their manager sets
type BuildingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Building, error)

	// FindAll returns all buildings ordered by address
	FindAll(ctx context.Context) ([]Building, error)

	// FindByManager returns the buildings a user manages
	FindByManager(ctx context.Context, userID uuid.UUID) ([]Building, error)

	// ExistsByAddress checks address uniqueness, optionally excluding one building
	ExistsByAddress(ctx context.Context, address valueobject.Address, excludeID *uuid.UUID) (bool, error)

	// Save creates or updates a building together with its manager set
	Save(ctx context.Context, building *Building) error

	Delete(ctx context.Context, id uuid.UUID) error
}

// ApartmentRepository defines persistence for apartments
type ApartmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Apartment, error)

	FindByBuilding(ctx context.Context, buildingID uuid.UUID) ([]Apartment, error)

	// FindByTenant returns the apartment occupied by a user, or a NotFound error
	FindByTenant(ctx context.Context, userID uuid.UUID) (*Apartment, error)

	// FindAvailable returns apartments without a tenant
	FindAvailable(ctx context.Context) ([]Apartment, error)

	// ExistsByNumber checks case-insensitive number uniqueness within a building
	ExistsByNumber(ctx context.Context, buildingID uuid.UUID, number string, excludeID *uuid.UUID) (bool, error)

	Save(ctx context.Context, apartment *Apartment) error

	Delete(ctx context.Context, id uuid.UUID) error
}

// NotFound errors returned by the property repositories
var (
	ErrBuildingNotFound  = shared.NewNotFoundError("BUILDING_NOT_FOUND", "Building not found")
	ErrApartmentNotFound = shared.NewNotFoundError("APARTMENT_NOT_FOUND", "Apartment not found")
)
