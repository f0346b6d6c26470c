package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/toms/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role represents a user's role in the portal
type Role string

const (
	// RolePersonnel can create, edit, and submit their own travel orders
	RolePersonnel Role = "personnel"
	// RoleDirector acts on approval steps bound to them
	RoleDirector Role = "director"
	// RoleAdmin is the ICT administrator managing the user roster
	RoleAdmin Role = "ict-admin"
)

// IsValid checks if the role is one of the three portal roles
func (r Role) IsValid() bool {
	switch r {
	case RolePersonnel, RoleDirector, RoleAdmin:
		return true
	}
	return false
}

// UserStatus represents the status of a user account
type UserStatus string

const (
	UserStatusActive      UserStatus = "active"
	UserStatusDeactivated UserStatus = "deactivated"
)

// Password cost for bcrypt
const bcryptCost = 12

// User is the aggregate root for a portal account. Directors additionally
// carry a signature image reference used on printed outputs; the signature
// is unrelated to any order and may be replaced at any time.
type User struct {
	shared.BaseAggregateRoot
	Username     string
	PasswordHash string
	DisplayName  string
	Position     string
	Department   string
	Role         Role
	Status       UserStatus
	// SignatureKey is the storage key of the director's signature image,
	// empty when none is uploaded. Only meaningful for directors.
	SignatureKey string
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates a new active user with the given role
func NewUser(username, password, displayName string, role Role) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if displayName == "" {
		return nil, shared.NewValidationError("display_name", "Display name is required")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be personnel, director, or ict-admin")
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          strings.ToLower(strings.TrimSpace(username)),
		PasswordHash:      passwordHash,
		DisplayName:       displayName,
		Role:              role,
		Status:            UserStatusActive,
	}

	user.AddDomainEvent(NewUserCreatedEvent(user.ID, user.Username, user.Role))

	return user, nil
}

// CheckPassword verifies a plaintext password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ChangePassword sets a new password after validation
func (u *User) ChangePassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// SetProfile updates the display fields
func (u *User) SetProfile(displayName, position, department string) error {
	if displayName == "" {
		return shared.NewValidationError("display_name", "Display name is required")
	}
	if len(displayName) > 200 {
		return shared.NewValidationError("display_name", "Display name cannot exceed 200 characters")
	}
	u.DisplayName = displayName
	u.Position = position
	u.Department = department
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// SetSignature stores the director's signature image reference. Unlike
// order attachments this is not gated on any order status.
func (u *User) SetSignature(storageKey string) error {
	if u.Role != RoleDirector {
		return shared.NewDomainError("NOT_A_DIRECTOR", "Only directors carry a signature image")
	}
	u.SignatureKey = storageKey
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// ClearSignature removes the director's signature image reference
func (u *User) ClearSignature() error {
	if u.Role != RoleDirector {
		return shared.NewDomainError("NOT_A_DIRECTOR", "Only directors carry a signature image")
	}
	u.SignatureKey = ""
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// Activate re-enables a deactivated account
func (u *User) Activate() {
	u.Status = UserStatusActive
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// Deactivate disables the account without deleting it
func (u *User) Deactivate() {
	u.Status = UserStatusDeactivated
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	u.AddDomainEvent(NewUserDeactivatedEvent(u.ID, u.Username))
}

// IsActive returns true if the account can sign in
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// RecordLogin stamps the last successful login time
func (u *User) RecordLogin(now time.Time) {
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,50}$`)

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return shared.NewValidationError("username", "Username is required")
	}
	if !usernamePattern.MatchString(username) {
		return shared.NewValidationError("username", "Username must be 3-50 characters of letters, digits, dot, dash, or underscore")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewValidationError("password", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewValidationError("password", "Password cannot exceed 72 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
