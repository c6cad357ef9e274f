package metering

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
)

// ReadingRepository defines persistence for meter readings
type ReadingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Reading, error)

	// FindByApartmentAndPeriod returns the reading of an apartment for a billing period, or a NotFound error
	FindByApartmentAndPeriod(ctx context.Context, apartmentID uuid.UUID, period valueobject.BillingPeriod) (*Reading, error)

	// FindByApartment returns readings newest period first
	FindByApartment(ctx context.Context, apartmentID uuid.UUID) ([]Reading, error)

	// FindByInvoice returns the reading linked to an invoice, or a NotFound error
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) (*Reading, error)

	Save(ctx context.Context, reading *Reading) error

	Delete(ctx context.Context, id uuid.UUID) error
}

// ErrReadingNotFound is returned when no reading matches
var ErrReadingNotFound = shared.NewNotFoundError("READING_NOT_FOUND", "Reading not found")
