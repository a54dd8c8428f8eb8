package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrObjectNotFound is returned by Get when nothing is stored under the path.
	ErrObjectNotFound = errors.New("storage: object not found")
	// ErrInvalidPath is returned for paths that escape the storage root.
	ErrInvalidPath = errors.New("storage: invalid path")
)

// Storage stores opaque objects under slash-separated relative paths.
type Storage interface {
	Save(ctx context.Context, path string, content io.Reader) error
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete is idempotent: removing a missing object is not an error.
	Delete(ctx context.Context, path string) error
}
