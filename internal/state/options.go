package state

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamware/statekv/internal/codec"
	"github.com/dreamware/statekv/internal/lock"
	"github.com/dreamware/statekv/internal/store"
)

type options struct {
	store    store.Store
	locker   lock.Locker
	fallback codec.ByteCodec
	lockTTL  time.Duration
	log      zerolog.Logger
}

// Option customizes Accessor construction.
type Option func(*options)

// WithStore sets the backing store. Defaults to an in-process MemoryStore,
// which is only useful for tests and single-process embedding.
func WithStore(s store.Store) Option {
	return func(o *options) {
		if s != nil {
			o.store = s
		}
	}
}

// WithLocker sets the distributed-lock primitive. Defaults to a
// StoreLocker on the same store used for data.
func WithLocker(l lock.Locker) Option {
	return func(o *options) {
		if l != nil {
			o.locker = l
		}
	}
}

// WithFallback sets the byte codec used for values outside the structural
// model. Without one, opaque values fail to encode.
func WithFallback(f codec.ByteCodec) Option {
	return func(o *options) {
		o.fallback = f
	}
}

// WithLockTTL sets how long an acquired namespace lock lives before
// self-expiring. Defaults to DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.lockTTL = ttl
		}
	}
}

// WithLogger attaches a logger. Defaults to zerolog.Nop().
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}
