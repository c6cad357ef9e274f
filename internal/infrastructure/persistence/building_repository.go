package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/rentflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBuildingRepository implements BuildingRepository using GORM.
// It owns the building_managers join table.
type GormBuildingRepository struct {
	db *gorm.DB
}

// NewGormBuildingRepository creates a new GormBuildingRepository
func NewGormBuildingRepository(db *gorm.DB) *GormBuildingRepository {
	return &GormBuildingRepository{db: db}
}

// FindByID finds a building by ID
func (r *GormBuildingRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Building, error) {
	var model models.BuildingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, property.ErrBuildingNotFound, "find building")
	}
	buildings, err := r.toDomain(ctx, []models.BuildingModel{model})
	if err != nil {
		return nil, err
	}
	return &buildings[0], nil
}

// FindAll returns all buildings ordered by address
func (r *GormBuildingRepository) FindAll(ctx context.Context) ([]property.Building, error) {
	var buildingModels []models.BuildingModel
	if err := r.db.WithContext(ctx).
		Order("city, street, number").
		Find(&buildingModels).Error; err != nil {
		return nil, translateError(err, property.ErrBuildingNotFound, "list buildings")
	}
	return r.toDomain(ctx, buildingModels)
}

// FindByManager returns the buildings a user manages
func (r *GormBuildingRepository) FindByManager(ctx context.Context, userID uuid.UUID) ([]property.Building, error) {
	var buildingModels []models.BuildingModel
	if err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&models.BuildingManagerModel{}).Select("building_id").Where("user_id = ?", userID)).
		Order("city, street, number").
		Find(&buildingModels).Error; err != nil {
		return nil, translateError(err, property.ErrBuildingNotFound, "list managed buildings")
	}
	return r.toDomain(ctx, buildingModels)
}

// ExistsByAddress checks address uniqueness through the normalised address key
func (r *GormBuildingRepository) ExistsByAddress(ctx context.Context, address valueobject.Address, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.BuildingModel{}).
		Where("address_key = ?", address.Key())
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, translateError(err, property.ErrBuildingNotFound, "check building address")
	}
	return count > 0, nil
}

// Save creates or updates a building and replaces its manager set
func (r *GormBuildingRepository) Save(ctx context.Context, building *property.Building) error {
	db := r.db.WithContext(ctx)
	if err := db.Save(models.BuildingModelFromDomain(building)).Error; err != nil {
		return translateError(err, property.ErrBuildingNotFound, "save building")
	}
	if err := db.Where("building_id = ?", building.ID).Delete(&models.BuildingManagerModel{}).Error; err != nil {
		return translateError(err, property.ErrBuildingNotFound, "clear building managers")
	}
	if len(building.ManagerIDs) == 0 {
		return nil
	}
	links := make([]models.BuildingManagerModel, len(building.ManagerIDs))
	for i, userID := range building.ManagerIDs {
		links[i] = models.BuildingManagerModel{BuildingID: building.ID, UserID: userID}
	}
	if err := db.Create(&links).Error; err != nil {
		return translateError(err, property.ErrBuildingNotFound, "save building managers")
	}
	return nil
}

// Delete removes a building and its manager links
func (r *GormBuildingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("building_id = ?", id).Delete(&models.BuildingManagerModel{}).Error; err != nil {
		return translateError(err, property.ErrBuildingNotFound, "delete building managers")
	}
	result := db.Delete(&models.BuildingModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, property.ErrBuildingNotFound, "delete building")
	}
	if result.RowsAffected == 0 {
		return property.ErrBuildingNotFound
	}
	return nil
}

func (r *GormBuildingRepository) toDomain(ctx context.Context, buildingModels []models.BuildingModel) ([]property.Building, error) {
	if len(buildingModels) == 0 {
		return []property.Building{}, nil
	}
	ids := make([]uuid.UUID, len(buildingModels))
	for i := range buildingModels {
		ids[i] = buildingModels[i].ID
	}

	var links []models.BuildingManagerModel
	if err := r.db.WithContext(ctx).
		Where("building_id IN ?", ids).
		Order("user_id").
		Find(&links).Error; err != nil {
		return nil, translateError(err, property.ErrBuildingNotFound, "load building managers")
	}
	managers := make(map[uuid.UUID][]uuid.UUID, len(buildingModels))
	for _, link := range links {
		managers[link.BuildingID] = append(managers[link.BuildingID], link.UserID)
	}

	buildings := make([]property.Building, len(buildingModels))
	for i := range buildingModels {
		b, err := buildingModels[i].ToDomain(managers[buildingModels[i].ID])
		if err != nil {
			return nil, err
		}
		buildings[i] = *b
	}
	return buildings, nil
}
