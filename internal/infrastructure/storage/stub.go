package storage

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	identityapp "github.com/toms/backend/internal/application/identity"
	travelapp "github.com/toms/backend/internal/application/travel"
)

// MemoryObjectStorage is an in-memory implementation of ObjectStorageService.
// Objects live in a map for the lifetime of the process. Use it for local
// development and tests where no S3-compatible backend is available.
type MemoryObjectStorage struct {
	mu sync.RWMutex
	// BaseURL is the base URL for generated download URLs.
	// Defaults to "https://storage.example.com" if not set.
	BaseURL string
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryObjectStorage creates a new MemoryObjectStorage
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string]memoryObject),
	}
}

// Ensure MemoryObjectStorage satisfies both storage consumers
var (
	_ travelapp.ObjectStorageService = (*MemoryObjectStorage)(nil)
	_ identityapp.SignatureStorage   = (*MemoryObjectStorage)(nil)
)

// PutObject stores the object content in memory
func (s *MemoryObjectStorage) PutObject(ctx context.Context, storageKey, contentType string, size int64, content io.Reader) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = memoryObject{data: data, contentType: contentType}
	return nil
}

// GenerateDownloadURL generates a stable fake URL for the stored object
func (s *MemoryObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/download/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339)
	return url, expiresAt, nil
}

// DeleteObject removes the object; deleting a missing key is a no-op
func (s *MemoryObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}

// ObjectExists reports whether the key is stored
func (s *MemoryObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

// GetObject returns the stored content and content type, for tests
func (s *MemoryObjectStorage) GetObject(storageKey string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[storageKey]
	if !ok {
		return nil, "", false
	}
	return obj.data, obj.contentType, true
}

// Len returns the number of stored objects
func (s *MemoryObjectStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
