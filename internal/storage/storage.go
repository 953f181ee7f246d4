// Package storage persists uploaded files, primarily manual payment
// screenshots. Local filesystem for development, Cloudflare R2 in
// production.
package storage

import (
	"context"
	"fmt"
	"io"
)

// Storage defines the interface for file storage operations.
type Storage interface {
	// Put stores a file and returns its URL for retrieval. The key should
	// be a unique path (e.g. "payments/<order-id>/<uuid>.jpg").
	Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error)

	// Get retrieves a file by its key.
	// Returns an io.ReadCloser that must be closed by the caller.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a file by its key. Deleting a missing file is not an
	// error.
	Delete(ctx context.Context, key string) error

	// URL returns the public URL for a stored file. A relative path for
	// local storage, a full HTTPS URL for R2.
	URL(key string) string
}

// Config selects and parameterizes the storage backend.
type Config struct {
	Provider string // "local" or "r2"

	LocalPath string
	LocalURL  string

	R2AccountID   string
	R2AccessKeyID string
	R2SecretKey   string
	R2BucketName  string
	R2PublicURL   string
}

// New creates a Storage implementation based on configuration.
func New(cfg Config) (Storage, error) {
	switch cfg.Provider {
	case "local", "":
		return NewLocal(cfg.LocalPath, cfg.LocalURL)
	case "r2":
		return NewR2(R2Config{
			AccountID:   cfg.R2AccountID,
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretKey,
			BucketName:  cfg.R2BucketName,
			PublicURL:   cfg.R2PublicURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}
