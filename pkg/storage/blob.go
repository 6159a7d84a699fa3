package storage

import (
	"context"
	"errors"
)

var ErrObjectNotFound = errors.New("object not found")

// BlobStore is the object store orders are read from and artifacts are
// written to. Implementations must be safe for concurrent use.
type BlobStore interface {
	Get(ctx context.Context, container, key string) ([]byte, error)
	Put(ctx context.Context, container, key string, data []byte) error
}
