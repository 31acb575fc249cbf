package storage

import (
	"context"
	"io"
)

// Storage keeps recipe images addressed by key.
type Storage interface {
	// Write stores the content of r under key. size is -1 when unknown.
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the public address clients use to fetch key.
	URL(key string) string
}
