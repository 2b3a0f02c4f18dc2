package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Well-known keys. Each holds one JSON document that is overwritten as a
// whole on every save.
const (
	KeyUserProgress    = "user-progress"
	KeyRevisionSession = "revision-session"
)

// Store is a persistent key-value space. Values are opaque byte slices and
// every Set fully replaces the previous value.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Reloader is implemented by stores that serve reads from a local cache.
type Reloader interface {
	// Reload reads key from the backing store and refreshes the cache.
	Reload(ctx context.Context, key string) ([]byte, error)
}

// Fresh reads key bypassing any read cache in front of s. Read-modify-write
// callers use it so writes made by other processes are not overwritten.
func Fresh(ctx context.Context, s Store, key string) ([]byte, error) {
	if r, ok := s.(Reloader); ok {
		return r.Reload(ctx, key)
	}
	return s.Get(ctx, key)
}
