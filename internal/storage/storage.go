// Package storage abstracts durable blob storage for submission attachments.
// The contract is deliberately narrow so the same call sites work whether the
// backing store is a local directory or an object store.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist indicates the named blob is absent from the store.
var ErrNotExist = errors.New("blob does not exist")

// BlobStore persists opaque byte streams under caller-chosen names.
type BlobStore interface {
	// Save durably writes the stream under the given name and returns the
	// number of bytes written. An existing blob with the same name is
	// replaced atomically.
	Save(ctx context.Context, name string, reader io.Reader) (int64, error)
	// Open returns a reader over the named blob, or ErrNotExist.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete removes the named blob. Deleting an absent blob returns
	// ErrNotExist so callers can decide whether that is an anomaly.
	Delete(ctx context.Context, name string) error
	// Exists reports whether the named blob is present.
	Exists(ctx context.Context, name string) (bool, error)
}
