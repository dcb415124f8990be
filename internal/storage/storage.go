package storage

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrObjectNotFound is returned by Read when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Backend persists whole objects by key. Documents are small and always
// replaced wholesale, so objects move as byte slices rather than streams.
type Backend interface {
	EnsureBucket(ctx context.Context) error
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	Bucket() string
	Close() error
}

// Storage wraps a Backend and scopes every key under an optional prefix.
type Storage struct {
	backend Backend
	prefix  string
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend Backend) *Storage {
	return &Storage{backend: backend}
}

// WithPrefix returns a Storage sharing the backend whose keys live under
// prefix.
func (s *Storage) WithPrefix(prefix string) *Storage {
	return &Storage{
		backend: s.backend,
		prefix:  strings.Trim(strings.TrimSpace(prefix), "/"),
	}
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Read returns the contents of the object stored under key.
func (s *Storage) Read(ctx context.Context, key string) ([]byte, error) {
	return s.backend.Read(ctx, s.key(key))
}

// Write replaces the object stored under key.
func (s *Storage) Write(ctx context.Context, key string, data []byte, contentType string) error {
	return s.backend.Write(ctx, s.key(key), data, contentType)
}

// Delete removes the object stored under key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, s.key(key))
}

// Location describes where key is stored, for logs and errors.
func (s *Storage) Location(key string) string {
	return s.backend.Bucket() + "/" + s.key(key)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

// Close releases the backend.
func (s *Storage) Close() error {
	return s.backend.Close()
}

func (s *Storage) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}
