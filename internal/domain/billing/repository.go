package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
)

// InvoiceRepository defines persistence for invoices and their embedded snapshot
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByApartmentAndPeriod returns the apartment's invoice for a billing period, or a NotFound error
	FindByApartmentAndPeriod(ctx context.Context, apartmentID uuid.UUID, period valueobject.BillingPeriod) (*Invoice, error)

	ExistsByApartmentAndPeriod(ctx context.Context, apartmentID uuid.UUID, period valueobject.BillingPeriod) (bool, error)

	// FindByApartment returns all invoices of an apartment, newest period first
	FindByApartment(ctx context.Context, apartmentID uuid.UUID) ([]Invoice, error)

	// FindUnconfirmedByApartments returns drafts of the given apartments
	FindUnconfirmedByApartments(ctx context.Context, apartmentIDs []uuid.UUID) ([]Invoice, error)

	// FindByBuilding returns invoices of all apartments currently in a building
	FindByBuilding(ctx context.Context, buildingID uuid.UUID) ([]Invoice, error)

	// FindByTenant returns invoices referencing a user as tenant
	FindByTenant(ctx context.Context, userID uuid.UUID) ([]Invoice, error)

	Save(ctx context.Context, invoice *Invoice) error

	Delete(ctx context.Context, id uuid.UUID) error
}

// ErrInvoiceNotFound is returned when no invoice matches
var ErrInvoiceNotFound = shared.NewNotFoundError("INVOICE_NOT_FOUND", "Invoice not found")
