package identity

import (
	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
)

// AggregateTypeUser is the aggregate type of users
const AggregateTypeUser = "User"

// Event type constants for users
const (
	EventTypeUserRegistered = "UserRegistered"
	EventTypeUserDeleted    = "UserDeleted"
)

// UserRegisteredEvent is raised when an account is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// NewUserRegisteredEvent creates a UserRegisteredEvent
func NewUserRegisteredEvent(u *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, u.ID),
		UserID:          u.ID,
		Email:           u.Email,
	}
}

// UserDeletedEvent is raised after the user cascade completes
type UserDeletedEvent struct {
	shared.BaseDomainEvent
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// NewUserDeletedEvent creates a UserDeletedEvent
func NewUserDeletedEvent(u *User) *UserDeletedEvent {
	return &UserDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserDeleted, AggregateTypeUser, u.ID),
		UserID:          u.ID,
		Email:           u.Email,
	}
}

// MarkDeleted records the deletion event
func (u *User) MarkDeleted() {
	u.AddDomainEvent(NewUserDeletedEvent(u))
}
