package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open when no object exists at the path.
var ErrNotFound = errors.New("stored object not found")

// Storage stores opaque blobs under relative paths.
type Storage interface {
	// Save writes content to path, replacing any existing object.
	Save(ctx context.Context, path string, content io.Reader) error

	// Open returns a reader for the object at path, or ErrNotFound.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at path. Missing objects are not an error.
	Delete(ctx context.Context, path string) error
}
