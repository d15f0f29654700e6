package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps objects as files under a media root. URLs resolve to
// /media/{objectID} paths served by the web server.
type DiskStore struct {
	root string
}

// NewDiskStore creates a DiskStore, creating the media root if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	if root == "" {
		return nil, fmt.Errorf("storage: media directory is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("storage: failed to create media directory %s: %w", root, err)
	}
	return &DiskStore{root: root}, nil
}

// Store writes the object under the media root. Object keys contain date
// prefixes, so parent directories are created as needed. The content type
// is implied by the key's extension and not stored.
func (s *DiskStore) Store(ctx context.Context, objectID string, data []byte, contentType string) error {
	path, err := s.resolve(objectID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("storage: failed to create object directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("storage: failed to write object %s: %w", objectID, err)
	}
	return nil
}

// URL returns the server-relative media path for the object.
func (s *DiskStore) URL(ctx context.Context, objectID string) (string, error) {
	if _, err := s.resolve(objectID); err != nil {
		return "", err
	}
	return "/media/" + objectID, nil
}

// Delete removes the object file. A missing file is not an error.
func (s *DiskStore) Delete(ctx context.Context, objectID string) error {
	path, err := s.resolve(objectID)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: failed to delete object %s: %w", objectID, err)
	}
	return nil
}

// Open returns the filesystem path for a stored object, for the media
// serving handler. Returns os.ErrNotExist when absent.
func (s *DiskStore) Open(objectID string) (string, error) {
	path, err := s.resolve(objectID)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// resolve maps an object key to a path under the root, rejecting keys that
// would escape it.
func (s *DiskStore) resolve(objectID string) (string, error) {
	if objectID == "" {
		return "", fmt.Errorf("storage: object id is required")
	}
	cleaned := filepath.Clean(filepath.FromSlash(objectID))
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: invalid object id %q", objectID)
	}
	return filepath.Join(s.root, cleaned), nil
}
