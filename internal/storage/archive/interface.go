// internal/storage/archive/interface.go
package archive

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Read when no object exists at key.
	ErrNotFound = errors.New("archive: object not found")

	// ErrInvalidKey is returned for keys that would resolve outside the store.
	ErrInvalidKey = errors.New("archive: invalid key")
)

// Storage is a flat key/value blob store for generation transcripts.
type Storage interface {
	// Write stores data at key, replacing any existing object.
	Write(ctx context.Context, key string, data []byte) error

	// Read returns the object at key, or ErrNotFound.
	Read(ctx context.Context, key string) ([]byte, error)

	// List returns all keys under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
