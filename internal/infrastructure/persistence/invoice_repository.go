package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/billing"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/rentflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, billing.ErrInvoiceNotFound, "find invoice")
	}
	return model.ToDomain()
}

// FindByApartmentAndPeriod returns the apartment's invoice for a billing period
func (r *GormInvoiceRepository) FindByApartmentAndPeriod(ctx context.Context, apartmentID uuid.UUID, period valueobject.BillingPeriod) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.byPeriod(ctx, apartmentID, period).First(&model).Error; err != nil {
		return nil, translateError(err, billing.ErrInvoiceNotFound, "find invoice by period")
	}
	return model.ToDomain()
}

// ExistsByApartmentAndPeriod checks the one-invoice-per-period rule
func (r *GormInvoiceRepository) ExistsByApartmentAndPeriod(ctx context.Context, apartmentID uuid.UUID, period valueobject.BillingPeriod) (bool, error) {
	var count int64
	if err := r.byPeriod(ctx, apartmentID, period).Model(&models.InvoiceModel{}).Count(&count).Error; err != nil {
		return false, translateError(err, billing.ErrInvoiceNotFound, "check invoice period")
	}
	return count > 0, nil
}

// FindByApartment returns all invoices of an apartment, newest period first
func (r *GormInvoiceRepository) FindByApartment(ctx context.Context, apartmentID uuid.UUID) ([]billing.Invoice, error) {
	return r.find(r.db.WithContext(ctx).
		Where("apartment_id = ?", apartmentID).
		Order("period_start DESC"), "list apartment invoices")
}

// FindUnconfirmedByApartments returns drafts of the given apartments
func (r *GormInvoiceRepository) FindUnconfirmedByApartments(ctx context.Context, apartmentIDs []uuid.UUID) ([]billing.Invoice, error) {
	if len(apartmentIDs) == 0 {
		return []billing.Invoice{}, nil
	}
	return r.find(r.db.WithContext(ctx).
		Where("apartment_id IN ? AND confirmed = ?", apartmentIDs, false).
		Order("period_start DESC"), "list draft invoices")
}

// FindByBuilding returns invoices of all apartments currently in a building
func (r *GormInvoiceRepository) FindByBuilding(ctx context.Context, buildingID uuid.UUID) ([]billing.Invoice, error) {
	apartments := r.db.Model(&models.ApartmentModel{}).Select("id").Where("building_id = ?", buildingID)
	return r.find(r.db.WithContext(ctx).
		Where("apartment_id IN (?)", apartments).
		Order("period_start DESC, info_apartment_number"), "list building invoices")
}

// FindByTenant returns invoices referencing a user as tenant
func (r *GormInvoiceRepository) FindByTenant(ctx context.Context, userID uuid.UUID) ([]billing.Invoice, error) {
	return r.find(r.db.WithContext(ctx).
		Where("tenant_id = ?", userID).
		Order("period_start DESC"), "list tenant invoices")
}

// Save creates or updates an invoice with its snapshot
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	if err := r.db.WithContext(ctx).Save(models.InvoiceModelFromDomain(invoice)).Error; err != nil {
		return translateError(err, billing.ErrInvoiceNotFound, "save invoice")
	}
	return nil
}

// Delete removes an invoice
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.InvoiceModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, billing.ErrInvoiceNotFound, "delete invoice")
	}
	if result.RowsAffected == 0 {
		return billing.ErrInvoiceNotFound
	}
	return nil
}

func (r *GormInvoiceRepository) byPeriod(ctx context.Context, apartmentID uuid.UUID, period valueobject.BillingPeriod) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("apartment_id = ? AND period_start = ? AND period_end = ?", apartmentID, period.Start(), period.End())
}

func (r *GormInvoiceRepository) find(query *gorm.DB, op string) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, translateError(err, billing.ErrInvoiceNotFound, op)
	}
	invoices := make([]billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		inv, err := invoiceModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		invoices[i] = *inv
	}
	return invoices, nil
}
