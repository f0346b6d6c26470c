package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toms/backend/internal/domain/identity"
	"github.com/toms/backend/internal/domain/shared"
	"github.com/toms/backend/internal/domain/travel"
)

// SignatureStorage stores and serves director signature images
type SignatureStorage interface {
	PutObject(ctx context.Context, storageKey, contentType string, size int64, content io.Reader) error
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, storageKey string) error
}

const signatureURLExpiry = 1 * time.Hour

// UserService is the ICT administrator's roster management surface,
// plus the director signature image lifecycle.
type UserService struct {
	userRepo identity.UserRepository
	storage  SignatureStorage
	logger   *zap.Logger
}

// NewUserService creates a new user management service
func NewUserService(userRepo identity.UserRepository, storage SignatureStorage, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		storage:  storage,
		logger:   logger,
	}
}

// Create adds a new account to the roster
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	s.logger.Info("Creating new user",
		zap.String("username", req.Username),
		zap.String("role", req.Role))

	if _, err := s.userRepo.FindByUsername(ctx, req.Username); err == nil {
		return nil, shared.NewDomainError("USERNAME_EXISTS", "Username already exists")
	} else if !errors.Is(err, shared.ErrNotFound) {
		s.logger.Error("Failed to check username availability", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check username availability")
	}

	user, err := identity.NewUser(req.Username, req.Password, req.DisplayName, identity.Role(req.Role))
	if err != nil {
		return nil, err
	}

	if req.Position != "" || req.Department != "" {
		if err := user.SetProfile(req.DisplayName, req.Position, req.Department); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to save new user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create user")
	}

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	return toUserResponse(user), nil
}

// GetByID returns one roster entry
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.ErrNotFound
	}
	return toUserResponse(user), nil
}

// List returns a page of the roster
func (s *UserService) List(ctx context.Context, filter UserListFilter) (*shared.Paginated[*UserResponse], error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 10
	}

	repoFilter := shared.Filter{
		Page:     page,
		PageSize: pageSize,
		Search:   filter.Search,
		OrderBy:  "username",
		OrderDir: "asc",
		Filters:  map[string]interface{}{},
	}
	if filter.Role != "" {
		repoFilter.Filters["role"] = filter.Role
	}
	if filter.Status != "" {
		repoFilter.Filters["status"] = filter.Status
	}

	result, err := s.userRepo.FindAll(ctx, repoFilter)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list users")
	}

	items := make([]*UserResponse, 0, len(result.Items))
	for _, u := range result.Items {
		items = append(items, toUserResponse(u))
	}

	return &shared.Paginated[*UserResponse]{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// Update changes a roster entry's profile fields. Username and role are
// fixed at creation.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.ErrNotFound
	}

	if err := user.SetProfile(req.DisplayName, req.Position, req.Department); err != nil {
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to update user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update user")
	}

	return toUserResponse(user), nil
}

// Activate re-enables a deactivated account
func (s *UserService) Activate(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.ErrNotFound
	}

	user.Activate()

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to activate user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to activate user")
	}

	s.logger.Info("User activated", zap.String("user_id", id.String()))
	return toUserResponse(user), nil
}

// Deactivate disables an account without deleting it. The account's
// travel orders and past decisions remain on record.
func (s *UserService) Deactivate(ctx context.Context, actorID, id uuid.UUID) (*UserResponse, error) {
	if actorID == id {
		return nil, shared.NewDomainError("SELF_DEACTIVATION", "You cannot deactivate your own account")
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, shared.ErrNotFound
	}

	user.Deactivate()

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to deactivate user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to deactivate user")
	}

	s.logger.Info("User deactivated", zap.String("user_id", id.String()))
	return toUserResponse(user), nil
}

// ResetPassword sets a new password without requiring the old one
func (s *UserService) ResetPassword(ctx context.Context, id uuid.UUID, req ResetPasswordRequest) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return shared.ErrNotFound
	}

	if err := user.ChangePassword(req.NewPassword); err != nil {
		return err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to reset password", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to reset password")
	}

	s.logger.Info("Password reset", zap.String("user_id", id.String()))
	return nil
}

// UploadSignature stores a director's signature image, replacing any
// previous one. The old blob is removed after the new reference is saved.
func (s *UserService) UploadSignature(ctx context.Context, userID uuid.UUID, upload SignatureUpload) (*SignatureResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, shared.ErrNotFound
	}

	if err := travel.ValidateSignatureFile(upload.FileName, upload.FileSize, upload.ContentType); err != nil {
		return nil, err
	}

	oldKey := user.SignatureKey
	storageKey := fmt.Sprintf("signatures/%s/%s%s", userID.String(), uuid.New().String(), filepath.Ext(upload.FileName))

	if err := s.storage.PutObject(ctx, storageKey, upload.ContentType, upload.FileSize, upload.Content); err != nil {
		s.logger.Error("Failed to store signature image", zap.Error(err))
		return nil, shared.NewDomainError("STORAGE_ERROR", "Failed to store signature image")
	}

	if err := user.SetSignature(storageKey); err != nil {
		if derr := s.storage.DeleteObject(ctx, storageKey); derr != nil {
			s.logger.Warn("Failed to remove orphaned signature blob",
				zap.String("storage_key", storageKey), zap.Error(derr))
		}
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to save signature reference", zap.Error(err))
		if derr := s.storage.DeleteObject(ctx, storageKey); derr != nil {
			s.logger.Warn("Failed to remove orphaned signature blob",
				zap.String("storage_key", storageKey), zap.Error(derr))
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save signature")
	}

	if oldKey != "" {
		if err := s.storage.DeleteObject(ctx, oldKey); err != nil {
			s.logger.Warn("Failed to delete replaced signature blob",
				zap.String("storage_key", oldKey), zap.Error(err))
		}
	}

	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, storageKey, signatureURLExpiry)
	if err != nil {
		s.logger.Error("Failed to presign signature URL", zap.Error(err))
		return nil, shared.NewDomainError("STORAGE_ERROR", "Failed to generate signature URL")
	}

	s.logger.Info("Signature uploaded", zap.String("user_id", userID.String()))

	return &SignatureResponse{URL: url, ExpiresAt: expiresAt}, nil
}

// GetSignature presigns the director's current signature image
func (s *UserService) GetSignature(ctx context.Context, userID uuid.UUID) (*SignatureResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, shared.ErrNotFound
	}

	if user.SignatureKey == "" {
		return nil, shared.NewDomainError("NO_SIGNATURE", "No signature image on file")
	}

	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, user.SignatureKey, signatureURLExpiry)
	if err != nil {
		s.logger.Error("Failed to presign signature URL", zap.Error(err))
		return nil, shared.NewDomainError("STORAGE_ERROR", "Failed to generate signature URL")
	}

	return &SignatureResponse{URL: url, ExpiresAt: expiresAt}, nil
}

// DeleteSignature removes the director's signature image
func (s *UserService) DeleteSignature(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return shared.ErrNotFound
	}

	oldKey := user.SignatureKey
	if oldKey == "" {
		return nil
	}

	if err := user.ClearSignature(); err != nil {
		return err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		s.logger.Error("Failed to clear signature reference", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to remove signature")
	}

	if err := s.storage.DeleteObject(ctx, oldKey); err != nil {
		s.logger.Warn("Failed to delete signature blob",
			zap.String("storage_key", oldKey), zap.Error(err))
	}

	return nil
}

// Count returns the roster size
func (s *UserService) Count(ctx context.Context) (int64, error) {
	return s.userRepo.Count(ctx)
}

func toUserResponse(user *identity.User) *UserResponse {
	return &UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		DisplayName:  user.DisplayName,
		Position:     user.Position,
		Department:   user.Department,
		Role:         string(user.Role),
		Status:       string(user.Status),
		HasSignature: user.SignatureKey != "",
		LastLoginAt:  user.LastLoginAt,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}
