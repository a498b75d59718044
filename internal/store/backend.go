package store

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by a Backend whose storage is full. The
// previous value of the slot is left intact.
var ErrQuotaExceeded = errors.New("store: storage quota exceeded")

// Backend is durable key/value storage for JSON-encoded slots.
//
// Get returns (nil, nil) for an absent key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
