package store

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned when a key doesn't exist in the store.
var ErrKeyNotFound = errors.New("store: key not found")

// ErrUnavailable wraps transport-level failures: the backing store could
// not be reached at all. It is distinct from ErrKeyNotFound, which is an
// expected outcome of a read.
var ErrUnavailable = errors.New("store: backing store unavailable")

// Write is one entry of an atomic batch. A positive TTL makes the write
// expiring; zero or negative means the entry persists indefinitely.
type Write struct {
	Key   string
	Value []byte
	TTL   time.Duration
}

// Store is the backing key-value capability the state engine consumes.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves a value by key.
	// Returns ErrKeyNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. A positive ttl makes the entry expire; zero or
	// negative persists it indefinitely. Overwrites any existing value.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. No error if the key doesn't exist.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys matching the glob pattern.
	// Order is not guaranteed.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Batch applies all writes as a single all-or-nothing unit.
	Batch(ctx context.Context, writes []Write) error

	// SetNX stores a value only if the key is absent, reporting whether
	// the write happened. Backs the distributed lock primitive.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// CompareAndDelete removes the key only if its current value equals
	// value, reporting whether a delete happened. Backs lock release.
	CompareAndDelete(ctx context.Context, key string, value []byte) (bool, error)
}
