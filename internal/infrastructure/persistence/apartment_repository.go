package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/rentflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormApartmentRepository implements ApartmentRepository using GORM
type GormApartmentRepository struct {
	db *gorm.DB
}

// NewGormApartmentRepository creates a new GormApartmentRepository
func NewGormApartmentRepository(db *gorm.DB) *GormApartmentRepository {
	return &GormApartmentRepository{db: db}
}

// FindByID finds an apartment by ID
func (r *GormApartmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Apartment, error) {
	var model models.ApartmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, property.ErrApartmentNotFound, "find apartment")
	}
	return model.ToDomain(), nil
}

// FindByBuilding returns the apartments of a building ordered by floor and number
func (r *GormApartmentRepository) FindByBuilding(ctx context.Context, buildingID uuid.UUID) ([]property.Apartment, error) {
	return r.find("list apartments", r.db.WithContext(ctx).
		Where("building_id = ?", buildingID).
		Order("floor, number_key"))
}

// FindByTenant returns the apartment occupied by a user
func (r *GormApartmentRepository) FindByTenant(ctx context.Context, userID uuid.UUID) (*property.Apartment, error) {
	var model models.ApartmentModel
	if err := r.db.WithContext(ctx).First(&model, "tenant_id = ?", userID).Error; err != nil {
		return nil, translateError(err, property.ErrApartmentNotFound, "find tenant apartment")
	}
	return model.ToDomain(), nil
}

// FindAvailable returns apartments without a tenant
func (r *GormApartmentRepository) FindAvailable(ctx context.Context) ([]property.Apartment, error) {
	return r.find("list available apartments", r.db.WithContext(ctx).
		Where("tenant_id IS NULL").
		Order("building_id, floor, number_key"))
}

// ExistsByNumber checks case-insensitive number uniqueness within a building
func (r *GormApartmentRepository) ExistsByNumber(ctx context.Context, buildingID uuid.UUID, number string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ApartmentModel{}).
		Where("building_id = ? AND number_key = ?", buildingID, property.NumberKey(number))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, translateError(err, property.ErrApartmentNotFound, "check apartment number")
	}
	return count > 0, nil
}

// Save creates or updates an apartment
func (r *GormApartmentRepository) Save(ctx context.Context, apartment *property.Apartment) error {
	if err := r.db.WithContext(ctx).Save(models.ApartmentModelFromDomain(apartment)).Error; err != nil {
		return translateError(err, property.ErrApartmentNotFound, "save apartment")
	}
	return nil
}

// Delete removes an apartment
func (r *GormApartmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ApartmentModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, property.ErrApartmentNotFound, "delete apartment")
	}
	if result.RowsAffected == 0 {
		return property.ErrApartmentNotFound
	}
	return nil
}

func (r *GormApartmentRepository) find(op string, query *gorm.DB) ([]property.Apartment, error) {
	var apartmentModels []models.ApartmentModel
	if err := query.Find(&apartmentModels).Error; err != nil {
		return nil, translateError(err, property.ErrApartmentNotFound, op)
	}
	apartments := make([]property.Apartment, len(apartmentModels))
	for i := range apartmentModels {
		apartments[i] = *apartmentModels[i].ToDomain()
	}
	return apartments, nil
}
