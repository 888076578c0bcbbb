package core

import "context"

// Preferences is a small persisted key-value store.
// Get returns ErrNotFound for a missing key. Set returns once the value is durable.
type Preferences interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
