package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/infrastructure/auth"
)

// RegisterRequest is the input of Register
type RegisterRequest struct {
	Email      string `json:"email" binding:"required,email,max=200"`
	Password   string `json:"password" binding:"required,min=8,max=72"`
	FirstName  string `json:"first_name" binding:"required,max=100"`
	LastName   string `json:"last_name" binding:"required,max=100"`
	Telephone  string `json:"telephone" binding:"required,phone"`
	NationalID string `json:"national_id" binding:"required,pesel"`
}

func (r RegisterRequest) profile() identity.Profile {
	return identity.Profile{FirstName: r.FirstName, LastName: r.LastName, Telephone: r.Telephone}
}

// LoginRequest is the input of Authenticate
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token to rotate
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally carries the refresh token to revoke with the access token
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UpdateProfileRequest is the input of UpdateProfile
type UpdateProfileRequest struct {
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	Telephone string `json:"telephone" binding:"required,phone"`
}

// ChangeRoleRequest is the input of ChangeRole
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=USER MANAGER"`
}

// AssignApartmentRequest moves a tenant in, or out when ApartmentID is null
type AssignApartmentRequest struct {
	ApartmentID *uuid.UUID `json:"apartment_id"`
}

// UpdateManagedBuildingsRequest replaces the buildings a manager manages
type UpdateManagedBuildingsRequest struct {
	BuildingIDs []uuid.UUID `json:"building_ids"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID                 uuid.UUID   `json:"id"`
	Email              string      `json:"email"`
	FirstName          string      `json:"first_name"`
	LastName           string      `json:"last_name"`
	Telephone          string      `json:"telephone"`
	NationalID         string      `json:"national_id"`
	Role               string      `json:"role"`
	Enabled            bool        `json:"enabled"`
	ApartmentID        *uuid.UUID  `json:"apartment_id,omitempty"`
	ManagedBuildingIDs []uuid.UUID `json:"managed_building_ids"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
	Version            int         `json:"version"`
}

// ToUserResponse converts a domain User to UserResponse
func ToUserResponse(u *identity.User) UserResponse {
	managed := u.ManagedBuildingIDs
	if managed == nil {
		managed = []uuid.UUID{}
	}
	return UserResponse{
		ID:                 u.ID,
		Email:              u.Email,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Telephone:          u.Telephone,
		NationalID:         u.NationalID.String(),
		Role:               u.Role.String(),
		Enabled:            u.Enabled,
		ApartmentID:        u.ApartmentID,
		ManagedBuildingIDs: managed,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
		Version:            u.Version,
	}
}

// ToUserResponses converts a slice of users
func ToUserResponses(users []identity.User) []UserResponse {
	responses := make([]UserResponse, len(users))
	for i := range users {
		responses[i] = ToUserResponse(&users[i])
	}
	return responses
}

// LoginResponse carries the issued tokens. User is nil for administrators.
type LoginResponse struct {
	AccessToken           string        `json:"access_token"`
	RefreshToken          string        `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time     `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time     `json:"refresh_token_expires_at"`
	TokenType             string        `json:"token_type"`
	Email                 string        `json:"email"`
	Role                  string        `json:"role"`
	User                  *UserResponse `json:"user,omitempty"`
}

func toLoginResponse(pair *auth.TokenPair, subject auth.Subject, user *identity.User) *LoginResponse {
	resp := &LoginResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		Email:                 subject.Email,
		Role:                  subject.Role,
	}
	if user != nil {
		u := ToUserResponse(user)
		resp.User = &u
	}
	return resp
}
