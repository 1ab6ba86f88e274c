package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore is a BlobStore backed by a local directory. Submission
// attachments live under their own subdirectory so they never collide with
// other asset categories sharing the same root.
type DiskStore struct {
	root string
}

// NewDiskStore creates the backing directory if needed and returns the store.
func NewDiskStore(root string) (*DiskStore, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root must not be empty")
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}

	return &DiskStore{root: root}, nil
}

// Save writes the stream to a temporary file and renames it into place, so a
// failed write never leaves a partially-written blob under the final name.
func (s *DiskStore) Save(_ context.Context, name string, reader io.Reader) (int64, error) {
	path, err := s.resolve(name)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(s.root, ".partial-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}

	written, err := io.Copy(tmp, reader)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to write blob: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to commit blob: %w", err)
	}

	return written, nil
}

// Open returns a reader over the named blob.
func (s *DiskStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}

	return file, nil
}

// Delete removes the named blob.
func (s *DiskStore) Delete(_ context.Context, name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotExist
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}

	return nil
}

// Exists reports whether the named blob is present.
func (s *DiskStore) Exists(_ context.Context, name string) (bool, error) {
	path, err := s.resolve(name)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat blob: %w", err)
	}

	return true, nil
}

// resolve maps a blob name to a path under the root, rejecting names that
// would escape it.
func (s *DiskStore) resolve(name string) (string, error) {
	cleaned := filepath.Clean(name)
	if cleaned == "." || cleaned == "" || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid blob name %q", name)
	}

	path := filepath.Join(s.root, cleaned)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}

	return path, nil
}
