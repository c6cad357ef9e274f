package models

import (
	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User aggregate.
// The national id and managed buildings are stored in their own tables.
type UserModel struct {
	AggregateModel
	Email        string        `gorm:"type:varchar(200);not null;uniqueIndex"`
	FirstName    string        `gorm:"type:varchar(100);not null"`
	LastName     string        `gorm:"type:varchar(100);not null"`
	Telephone    string        `gorm:"type:varchar(20);not null;uniqueIndex"`
	PasswordHash string        `gorm:"type:varchar(255);not null"`
	Enabled      bool          `gorm:"not null;default:true"`
	Role         identity.Role `gorm:"type:varchar(20);not null;default:'USER'"`
	ApartmentID  *uuid.UUID    `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain(nationalID identity.NationalID, managedBuildingIDs []uuid.UUID) *identity.User {
	if managedBuildingIDs == nil {
		managedBuildingIDs = make([]uuid.UUID, 0)
	}
	return &identity.User{
		BaseAggregateRoot:  m.ToAggregateRoot(),
		Email:              m.Email,
		FirstName:          m.FirstName,
		LastName:           m.LastName,
		Telephone:          m.Telephone,
		NationalID:         nationalID,
		PasswordHash:       m.PasswordHash,
		Enabled:            m.Enabled,
		Role:               m.Role,
		ApartmentID:        m.ApartmentID,
		ManagedBuildingIDs: managedBuildingIDs,
	}
}

// UserModelFromDomain creates a persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Telephone:    u.Telephone,
		PasswordHash: u.PasswordHash,
		Enabled:      u.Enabled,
		Role:         u.Role,
		ApartmentID:  u.ApartmentID,
	}
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	return m
}

// NationalIDModel stores a user's PESEL in its own record
type NationalIDModel struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Value  string    `gorm:"type:varchar(11);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (NationalIDModel) TableName() string {
	return "national_ids"
}

// All returns every model in migration order
func All() []any {
	return []any{
		&UserModel{},
		&NationalIDModel{},
		&BuildingModel{},
		&BuildingManagerModel{},
		&ApartmentModel{},
		&ReadingModel{},
		&InvoiceModel{},
	}
}
