package identity

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Username string
	Password string
	IP       string // Client IP for login tracking
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	User                  UserInfo
}

// UserInfo contains basic user information returned after login
type UserInfo struct {
	ID           uuid.UUID
	Username     string
	DisplayName  string
	Position     string
	Department   string
	Role         string
	HasSignature bool
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenResult contains the result of a token refresh
type RefreshTokenResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// LogoutInput contains the input for user logout
type LogoutInput struct {
	UserID   uuid.UUID
	TokenJTI string
	// TokenExpiresAt bounds how long the JTI stays blacklisted
	TokenExpiresAt time.Time
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// CreateUserRequest is the ICT administrator's input for adding a user
// to the roster.
type CreateUserRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=50"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	DisplayName string `json:"display_name" binding:"required,max=200"`
	Position    string `json:"position" binding:"max=200"`
	Department  string `json:"department" binding:"max=200"`
	Role        string `json:"role" binding:"required,oneof=personnel director ict-admin"`
}

// UpdateUserRequest updates a roster entry's profile fields
type UpdateUserRequest struct {
	DisplayName string `json:"display_name" binding:"required,max=200"`
	Position    string `json:"position" binding:"max=200"`
	Department  string `json:"department" binding:"max=200"`
}

// ResetPasswordRequest sets a new password for a user without knowing
// the old one. ICT administrator only.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// UserListFilter carries the roster listing parameters
type UserListFilter struct {
	Search   string `form:"search"`
	Role     string `form:"role" binding:"omitempty,oneof=personnel director ict-admin"`
	Status   string `form:"status" binding:"omitempty,oneof=active deactivated"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// UserResponse is the roster view of a single account
type UserResponse struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	DisplayName  string     `json:"display_name"`
	Position     string     `json:"position"`
	Department   string     `json:"department"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	HasSignature bool       `json:"has_signature"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SignatureUpload carries a director's signature image
type SignatureUpload struct {
	FileName    string
	FileSize    int64
	ContentType string
	Content     io.Reader
}

// SignatureResponse is returned after a signature upload or lookup
type SignatureResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
