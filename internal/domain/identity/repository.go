package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
)

// UserRepository defines persistence for users and their national id records
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail looks a user up case-insensitively, or returns shared.ErrNotFound
	FindByEmail(ctx context.Context, email string) (*User, error)

	FindAll(ctx context.Context) ([]User, error)

	// FindByIDs loads several users at once; missing ids are skipped
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByTelephone(ctx context.Context, telephone string, excludeID *uuid.UUID) (bool, error)
	ExistsByNationalID(ctx context.Context, nationalID NationalID) (bool, error)

	// Save creates or updates the user and its national id record
	Save(ctx context.Context, user *User) error

	// Delete removes the user and its national id record
	Delete(ctx context.Context, id uuid.UUID) error
}

// ErrUserNotFound is returned when no user matches
var ErrUserNotFound = shared.NewNotFoundError("USER_NOT_FOUND", "User not found")
