package identity

import (
	"github.com/google/uuid"
	"github.com/toms/backend/internal/domain/shared"
)

// UserCreatedEvent is raised when a new account is provisioned
type UserCreatedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// NewUserCreatedEvent creates a new user created event
func NewUserCreatedEvent(userID uuid.UUID, username string, role Role) *UserCreatedEvent {
	return &UserCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("user.created", "User", userID),
		Username:        username,
		Role:            role,
	}
}

// UserDeactivatedEvent is raised when an account is disabled
type UserDeactivatedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
}

// NewUserDeactivatedEvent creates a new user deactivated event
func NewUserDeactivatedEvent(userID uuid.UUID, username string) *UserDeactivatedEvent {
	return &UserDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("user.deactivated", "User", userID),
		Username:        username,
	}
}
