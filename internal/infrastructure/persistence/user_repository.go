package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository implements UserRepository using GORM.
// ManagedBuildingIDs is read from building_managers; the building repository writes it.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return r.first(ctx, r.db.WithContext(ctx).Where("id = ?", id), "find user")
}

// FindByEmail finds a user by email, case-insensitively
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return nil, identity.ErrUserNotFound
	}
	return r.first(ctx, r.db.WithContext(ctx).Where("email = ?", email), "find user by email")
}

// FindAll returns all users ordered by last and first name
func (r *GormUserRepository) FindAll(ctx context.Context) ([]identity.User, error) {
	var userModels []models.UserModel
	if err := r.db.WithContext(ctx).
		Order("last_name, first_name, email").
		Find(&userModels).Error; err != nil {
		return nil, translateError(err, identity.ErrUserNotFound, "list users")
	}
	return r.toDomain(ctx, userModels)
}

// FindByIDs loads several users at once; missing ids are skipped
func (r *GormUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]identity.User, error) {
	if len(ids) == 0 {
		return []identity.User{}, nil
	}
	var userModels []models.UserModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("last_name, first_name, email").
		Find(&userModels).Error; err != nil {
		return nil, translateError(err, identity.ErrUserNotFound, "find users")
	}
	return r.toDomain(ctx, userModels)
}

// ExistsByEmail checks if an email is registered
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("email = ?", identity.NormalizeEmail(email)), "check email")
}

// ExistsByTelephone checks telephone uniqueness, optionally excluding one user
func (r *GormUserRepository) ExistsByTelephone(ctx context.Context, telephone string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.UserModel{}).Where("telephone = ?", telephone)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	return r.exists(query, "check telephone")
}

// ExistsByNationalID checks if a PESEL is registered
func (r *GormUserRepository) ExistsByNationalID(ctx context.Context, nationalID identity.NationalID) (bool, error) {
	return r.exists(r.db.WithContext(ctx).Model(&models.NationalIDModel{}).
		Where("value = ?", nationalID.String()), "check national id")
}

// Save creates or updates the user and upserts its national id record
func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	db := r.db.WithContext(ctx)
	if err := db.Save(models.UserModelFromDomain(user)).Error; err != nil {
		return translateError(err, identity.ErrUserNotFound, "save user")
	}
	record := models.NationalIDModel{UserID: user.ID, Value: user.NationalID.String()}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&record).Error; err != nil {
		return translateError(err, identity.ErrUserNotFound, "save national id")
	}
	return nil
}

// Delete removes the user and its national id record
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Delete(&models.NationalIDModel{}, "user_id = ?", id).Error; err != nil {
		return translateError(err, identity.ErrUserNotFound, "delete national id")
	}
	result := db.Delete(&models.UserModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, identity.ErrUserNotFound, "delete user")
	}
	if result.RowsAffected == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) first(ctx context.Context, query *gorm.DB, op string) (*identity.User, error) {
	var model models.UserModel
	if err := query.First(&model).Error; err != nil {
		return nil, translateError(err, identity.ErrUserNotFound, op)
	}
	users, err := r.toDomain(ctx, []models.UserModel{model})
	if err != nil {
		return nil, err
	}
	return &users[0], nil
}

func (r *GormUserRepository) exists(query *gorm.DB, op string) (bool, error) {
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, translateError(err, identity.ErrUserNotFound, op)
	}
	return count > 0, nil
}

// toDomain loads national ids and managed buildings for a page of users in two queries
func (r *GormUserRepository) toDomain(ctx context.Context, userModels []models.UserModel) ([]identity.User, error) {
	if len(userModels) == 0 {
		return []identity.User{}, nil
	}
	ids := make([]uuid.UUID, len(userModels))
	for i := range userModels {
		ids[i] = userModels[i].ID
	}

	var records []models.NationalIDModel
	if err := r.db.WithContext(ctx).Where("user_id IN ?", ids).Find(&records).Error; err != nil {
		return nil, translateError(err, identity.ErrUserNotFound, "load national ids")
	}
	nationalIDs := make(map[uuid.UUID]identity.NationalID, len(records))
	for _, rec := range records {
		nationalIDs[rec.UserID] = identity.NationalID(rec.Value)
	}

	var links []models.BuildingManagerModel
	if err := r.db.WithContext(ctx).Where("user_id IN ?", ids).Order("building_id").Find(&links).Error; err != nil {
		return nil, translateError(err, identity.ErrUserNotFound, "load managed buildings")
	}
	managed := make(map[uuid.UUID][]uuid.UUID)
	for _, link := range links {
		managed[link.UserID] = append(managed[link.UserID], link.BuildingID)
	}

	users := make([]identity.User, len(userModels))
	for i := range userModels {
		users[i] = *userModels[i].ToDomain(nationalIDs[userModels[i].ID], managed[userModels[i].ID])
	}
	return users, nil
}
