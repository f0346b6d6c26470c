package travel

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/toms/backend/internal/domain/shared"
)

// MaxAttachmentFileSize is the maximum allowed size for a travel order
// attachment (20MB)
const MaxAttachmentFileSize = 20 * 1024 * 1024

// MaxSignatureFileSize is the independent bound for a director's signature
// image (2MB)
const MaxSignatureFileSize = 2 * 1024 * 1024

// AttachmentKind classifies a travel order attachment
type AttachmentKind string

const (
	AttachmentKindItinerary  AttachmentKind = "itinerary"
	AttachmentKindMemorandum AttachmentKind = "memorandum"
	AttachmentKindInvitation AttachmentKind = "invitation"
	AttachmentKindOther      AttachmentKind = "other"
)

// IsValid checks if the attachment kind is valid
func (k AttachmentKind) IsValid() bool {
	switch k {
	case AttachmentKindItinerary, AttachmentKindMemorandum,
		AttachmentKindInvitation, AttachmentKindOther:
		return true
	default:
		return false
	}
}

// allowedContentTypes is the whitelist for travel order attachments. SVG is
// excluded because it can carry scripts.
var allowedContentTypes = map[string]bool{
	"image/jpeg":         true,
	"image/png":          true,
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/plain": true,
}

// allowedSignatureContentTypes is the whitelist for director signature images
var allowedSignatureContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Attachment is a file attached to a travel order. Attachments have no
// lifecycle of their own: they may be added or removed only while the owning
// order is in draft, and become read-only (downloadable) once the order is
// submitted.
type Attachment struct {
	ID            uuid.UUID
	TravelOrderID uuid.UUID
	Kind          AttachmentKind
	FileName      string
	FileSize      int64
	ContentType   string
	StorageKey    string
	// StagedForRemoval marks the attachment for deferred deletion; the
	// actual removal happens when the enclosing draft save commits, so an
	// unsaved edit can still be abandoned without losing the file.
	StagedForRemoval bool `gorm:"-"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (Attachment) TableName() string {
	return "attachments"
}

// NewAttachment validates and creates an attachment bound to a travel order.
// An empty kind defaults to "other".
func NewAttachment(orderID uuid.UUID, kind AttachmentKind, fileName string, fileSize int64, contentType, storageKey string) (*Attachment, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER_ID", "Travel order ID cannot be empty")
	}
	if kind == "" {
		kind = AttachmentKindOther
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_ATTACHMENT_KIND", "Invalid attachment kind")
	}
	if err := validateFileName(fileName); err != nil {
		return nil, err
	}
	if fileSize <= 0 {
		return nil, shared.NewDomainError("INVALID_FILE_SIZE", "File size must be greater than 0")
	}
	if fileSize > MaxAttachmentFileSize {
		return nil, shared.NewDomainError("FILE_TOO_LARGE", "File size cannot exceed 20MB")
	}
	if !allowedContentTypes[contentType] {
		return nil, shared.NewDomainError("UNSUPPORTED_FILE_TYPE", "File type is not allowed")
	}
	if err := validateStorageKey(storageKey); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Attachment{
		ID:            uuid.New(),
		TravelOrderID: orderID,
		Kind:          kind,
		FileName:      fileName,
		FileSize:      fileSize,
		ContentType:   contentType,
		StorageKey:    storageKey,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ValidateSignatureFile checks a director signature upload against the
// signature-specific bounds. Signatures are not tied to any order and may be
// replaced at any time.
func ValidateSignatureFile(fileName string, fileSize int64, contentType string) error {
	if err := validateFileName(fileName); err != nil {
		return err
	}
	if fileSize <= 0 {
		return shared.NewDomainError("INVALID_FILE_SIZE", "File size must be greater than 0")
	}
	if fileSize > MaxSignatureFileSize {
		return shared.NewDomainError("FILE_TOO_LARGE", "Signature image cannot exceed 2MB")
	}
	if !allowedSignatureContentTypes[contentType] {
		return shared.NewDomainError("UNSUPPORTED_FILE_TYPE", "Signature must be a JPEG or PNG image")
	}
	return nil
}

func validateFileName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot exceed 255 characters")
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return shared.NewDomainError("INVALID_FILE_NAME", "File name contains invalid characters")
		}
	}
	if strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot contain path separators")
	}
	return nil
}

func validateStorageKey(key string) error {
	if key == "" {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot be empty")
	}
	if len(key) > 500 {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot exceed 500 characters")
	}
	if strings.Contains(key, "..") {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot contain path traversal sequences")
	}
	if strings.HasPrefix(key, "/") {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key must be a relative path")
	}
	return nil
}
