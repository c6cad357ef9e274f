package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/metering"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/rentflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReadingRepository implements ReadingRepository using GORM
type GormReadingRepository struct {
	db *gorm.DB
}

// NewGormReadingRepository creates a new GormReadingRepository
func NewGormReadingRepository(db *gorm.DB) *GormReadingRepository {
	return &GormReadingRepository{db: db}
}

// FindByID finds a reading by ID
func (r *GormReadingRepository) FindByID(ctx context.Context, id uuid.UUID) (*metering.Reading, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id), "find reading")
}

// FindByApartmentAndPeriod returns the reading of an apartment for a billing period
func (r *GormReadingRepository) FindByApartmentAndPeriod(ctx context.Context, apartmentID uuid.UUID, period valueobject.BillingPeriod) (*metering.Reading, error) {
	return r.first(r.db.WithContext(ctx).
		Where("apartment_id = ? AND period_start = ? AND period_end = ?", apartmentID, period.Start(), period.End()),
		"find reading by period")
}

// FindByApartment returns readings newest period first
func (r *GormReadingRepository) FindByApartment(ctx context.Context, apartmentID uuid.UUID) ([]metering.Reading, error) {
	var readingModels []models.ReadingModel
	if err := r.db.WithContext(ctx).
		Where("apartment_id = ?", apartmentID).
		Order("period_start DESC").
		Find(&readingModels).Error; err != nil {
		return nil, translateError(err, metering.ErrReadingNotFound, "list readings")
	}
	readings := make([]metering.Reading, len(readingModels))
	for i := range readingModels {
		reading, err := readingModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		readings[i] = *reading
	}
	return readings, nil
}

// FindByInvoice returns the reading linked to an invoice
func (r *GormReadingRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) (*metering.Reading, error) {
	return r.first(r.db.WithContext(ctx).Where("invoice_id = ?", invoiceID), "find reading by invoice")
}

// Save creates or updates a reading
func (r *GormReadingRepository) Save(ctx context.Context, reading *metering.Reading) error {
	if err := r.db.WithContext(ctx).Save(models.ReadingModelFromDomain(reading)).Error; err != nil {
		return translateError(err, metering.ErrReadingNotFound, "save reading")
	}
	return nil
}

// Delete removes a reading
func (r *GormReadingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ReadingModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, metering.ErrReadingNotFound, "delete reading")
	}
	if result.RowsAffected == 0 {
		return metering.ErrReadingNotFound
	}
	return nil
}

func (r *GormReadingRepository) first(query *gorm.DB, op string) (*metering.Reading, error) {
	var model models.ReadingModel
	if err := query.First(&model).Error; err != nil {
		return nil, translateError(err, metering.ErrReadingNotFound, op)
	}
	return model.ToDomain()
}
