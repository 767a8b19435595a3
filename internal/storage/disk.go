// Package storage implements the content store: opaque byte payloads on the
// local filesystem, addressed by a generated key relative to a configured
// root directory. Metadata never lives here -- only bytes.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store is the content-store contract the file service depends on. Kept
// small so tests can swap in an in-memory implementation.
type Store interface {
	// Save writes data under the given key, overwriting any previous content.
	Save(key string, data []byte) error

	// Read returns the bytes stored under key. os.IsNotExist-compatible
	// errors signal missing content.
	Read(key string) ([]byte, error)

	// Exists reports whether content is present under key.
	Exists(key string) bool

	// Path returns the absolute on-disk path for a key.
	Path(key string) string
}

// VariantKey returns the content key for a pre-generated size variant of
// the original key, e.g. "abc" -> "abc_250". The variant files themselves
// are produced by the thumbnail worker.
func VariantKey(key, size string) string {
	return key + "_" + size
}

// DiskStore stores content as flat files under a root directory.
type DiskStore struct {
	root string
}

// NewDiskStore creates a store rooted at the given directory, creating the
// directory if it does not exist. Called once at startup; per-request code
// assumes the root is present.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root %s: %w", root, err)
	}
	return &DiskStore{root: root}, nil
}

// Save writes data under key.
func (s *DiskStore) Save(key string, data []byte) error {
	if err := os.WriteFile(s.Path(key), data, 0o644); err != nil {
		return fmt.Errorf("writing content %s: %w", key, err)
	}
	return nil
}

// Read returns the bytes stored under key.
func (s *DiskStore) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		return nil, fmt.Errorf("reading content %s: %w", key, err)
	}
	return data, nil
}

// Exists reports whether content is present under key.
func (s *DiskStore) Exists(key string) bool {
	_, err := os.Stat(s.Path(key))
	return err == nil
}

// Path returns the absolute on-disk path for a key.
func (s *DiskStore) Path(key string) string {
	return filepath.Join(s.root, key)
}
