// Package storage persists generated and uploaded note images behind a
// small ObjectStore interface with disk and S3 implementations.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rosieluu/simple-notes-app/core"
)

// ObjectStore stores image blobs and resolves them to URLs clients can
// fetch.
type ObjectStore interface {
	// Store writes the object. The content type travels with the object so
	// the serving side can set the right header.
	Store(ctx context.Context, objectID string, data []byte, contentType string) error

	// URL returns a fetchable URL for a stored object. Disk objects resolve
	// to a path under /media/; S3 objects resolve to a presigned GET URL.
	URL(ctx context.Context, objectID string) (string, error)

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, objectID string) error
}

// NewObjectID returns a date-prefixed object key, unique per call.
//
// Example: 2026/08/29/550e8400-e29b-41d4-a716-446655440000.png
func NewObjectID(ext string) string {
	now := time.Now().UTC()
	return fmt.Sprintf("%04d/%02d/%02d/%s%s", now.Year(), now.Month(), now.Day(), uuid.NewString(), ext)
}

// NewObjectStore selects the backend from configuration.
func NewObjectStore(cfg *core.Config) (ObjectStore, error) {
	switch cfg.StorageBackend {
	case core.StorageBackendDisk:
		return NewDiskStore(cfg.MediaDir)
	case core.StorageBackendS3:
		return NewS3Store(S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PresignExpiry:   cfg.S3PresignExpiry,
		})
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.StorageBackend)
	}
}
