package state

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamware/statekv/internal/cache"
	"github.com/dreamware/statekv/internal/codec"
	"github.com/dreamware/statekv/internal/lock"
	"github.com/dreamware/statekv/internal/store"
)

// Key name prefixes, scoped per namespace. These are part of the external
// contract: any conforming implementation must produce the same keys so
// that independent processes interoperate over one backing store.
const (
	statePrefix   = "STATE:"
	versionPrefix = "VERSION:"
	lockPrefix    = "LOCK:"
)

// DefaultLockTTL is the lock duration used when the caller doesn't supply
// one. A held lock self-expires after this long even if its owner crashes.
const DefaultLockTTL = 30 * time.Second

// Item is one key/value entry for BulkSet and the Items enumeration. A
// positive TTL makes the entry's store write expiring; zero persists it.
type Item struct {
	Key   string
	Value codec.Value
	TTL   time.Duration
}

// Accessor is a versioned, cached view of one namespace's keys in the
// backing store, with at-most-one-writer-at-a-time semantics enforced by
// the namespace's distributed lock.
//
// An Accessor is not safe for concurrent use by multiple goroutines; it is
// owned by one caller. Cross-process concurrency against the same namespace
// is the supported case and is serialized by the lock, not by the store's
// per-command atomicity.
type Accessor struct {
	component string
	instance  string
	lockTTL   time.Duration

	store  store.Store
	codec  *codec.Codec
	cache  *cache.Cache
	locks  *lock.Coordinator
	writer versionedWriter
	log    zerolog.Logger

	// version mirrors the durable counter as last observed by this
	// process. Authoritative only between explicit resyncs.
	version uint64

	keyPrefix  string
	versionKey string
	lockName   string
}

// New constructs an accessor for the (component, instance) namespace and
// reads the durable version counter, treating an absent counter as zero.
func New(ctx context.Context, component, instance string, opts ...Option) (*Accessor, error) {
	cfg := options{
		lockTTL: DefaultLockTTL,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.store == nil {
		cfg.store = store.NewMemoryStore()
	}
	if cfg.locker == nil {
		cfg.locker = lock.NewStoreLocker(cfg.store)
	}

	ns := component + "__" + instance
	a := &Accessor{
		component:  component,
		instance:   instance,
		lockTTL:    cfg.lockTTL,
		store:      cfg.store,
		codec:      codec.New(cfg.fallback),
		cache:      cache.New(),
		locks:      lock.NewCoordinator(cfg.locker, cfg.log),
		writer:     versionedWriter{store: cfg.store},
		log:        cfg.log.With().Str("component", component).Str("instance", instance).Logger(),
		keyPrefix:  statePrefix + ns + "/",
		versionKey: versionPrefix + ns,
		lockName:   lockPrefix + ns,
	}

	version, err := a.readVersion(ctx)
	if err != nil {
		return nil, err
	}
	a.version = version
	return a, nil
}

// Version returns the in-process copy of the namespace's version counter.
func (a *Accessor) Version() uint64 {
	return a.version
}

// Set encodes value, takes the namespace lock, and commits the write plus
// a version bump atomically. On commit failure the optimistic cache entry
// and version bump are rolled back before the error is returned. A
// positive ttl makes the entry expire.
func (a *Accessor) Set(ctx context.Context, key string, value codec.Value, ttl time.Duration) error {
	data, err := a.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("statekv: encode %q: %w", key, err)
	}

	handle, err := a.locks.Acquire(ctx, a.lockName, a.lockTTL)
	if err != nil {
		return err
	}

	fq := a.fqKey(key)
	a.cache.Put(fq, data)
	a.version++

	if err := a.writer.commit(ctx, []store.Write{{Key: fq, Value: data, TTL: ttl}}, a.versionKey, a.version); err != nil {
		a.cache.Remove(fq)
		a.version--
		a.locks.Release(ctx, handle)
		a.log.Warn().Err(err).Str("key", key).Msg("commit failed, local state rolled back")
		return fmt.Errorf("statekv: commit %q: %w", key, err)
	}

	a.locks.Release(ctx, handle)
	a.log.Debug().Str("key", key).Uint64("version", a.version).Msg("set committed")
	return nil
}

// BulkSet commits all items plus a single version bump as one atomic
// batch. Every item is encoded before the lock or store is touched, so an
// encoding error means nothing was written anywhere.
//
// skipLock bypasses lock acquisition for callers that already hold this
// namespace's lock in an outer, trusted context (a batched migration
// step); it must not be used otherwise.
func (a *Accessor) BulkSet(ctx context.Context, items []Item, skipLock bool) error {
	writes := make([]store.Write, len(items))
	for i, item := range items {
		data, err := a.codec.Encode(item.Value)
		if err != nil {
			return fmt.Errorf("statekv: encode %q: %w", item.Key, err)
		}
		writes[i] = store.Write{Key: a.fqKey(item.Key), Value: data, TTL: item.TTL}
	}

	var handle lock.Handle
	if !skipLock {
		var err error
		handle, err = a.locks.Acquire(ctx, a.lockName, a.lockTTL)
		if err != nil {
			return err
		}
	}

	for _, w := range writes {
		a.cache.Put(w.Key, w.Value)
	}
	a.version++

	if err := a.writer.commit(ctx, writes, a.versionKey, a.version); err != nil {
		for _, w := range writes {
			a.cache.Remove(w.Key)
		}
		a.version--
		if !skipLock {
			a.locks.Release(ctx, handle)
		}
		a.log.Warn().Err(err).Int("items", len(items)).Msg("bulk commit failed, local state rolled back")
		return fmt.Errorf("statekv: bulk commit: %w", err)
	}

	if !skipLock {
		a.locks.Release(ctx, handle)
	}
	a.log.Debug().Int("items", len(items)).Uint64("version", a.version).Msg("bulk set committed")
	return nil
}

// Get returns the value under key, serving from the local cache when
// possible and repopulating it on a store hit. An absent key returns an
// error satisfying errors.Is(err, store.ErrKeyNotFound).
func (a *Accessor) Get(ctx context.Context, key string) (codec.Value, error) {
	fq := a.fqKey(key)

	if data, ok := a.cache.Get(fq); ok {
		return a.decode(key, data)
	}

	data, err := a.store.Get(ctx, fq)
	if errors.Is(err, store.ErrKeyNotFound) {
		return codec.Value{}, fmt.Errorf("statekv: key %q: %w", key, store.ErrKeyNotFound)
	}
	if err != nil {
		return codec.Value{}, fmt.Errorf("statekv: get %q: %w", key, err)
	}

	a.cache.Put(fq, data)
	return a.decode(key, data)
}

// Keys enumerates the namespace's keys with the prefix stripped. It never
// consults or populates the cache.
func (a *Accessor) Keys(ctx context.Context) ([]string, error) {
	fullKeys, err := a.store.Keys(ctx, a.keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("statekv: keys: %w", err)
	}

	keys := make([]string, 0, len(fullKeys))
	for _, fk := range fullKeys {
		keys = append(keys, strings.TrimPrefix(fk, a.keyPrefix))
	}
	return keys, nil
}

// Items returns every (key, value) pair in the namespace, resolving values
// through Get so the cache is consulted and repopulated.
func (a *Accessor) Items(ctx context.Context) ([]Item, error) {
	keys, err := a.Keys(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(keys))
	for _, k := range keys {
		v, err := a.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		items = append(items, Item{Key: k, Value: v})
	}
	return items, nil
}

// Values returns every value in the namespace, cache-aware like Items.
func (a *Accessor) Values(ctx context.Context) ([]codec.Value, error) {
	keys, err := a.Keys(ctx)
	if err != nil {
		return nil, err
	}

	values := make([]codec.Value, 0, len(keys))
	for _, k := range keys {
		v, err := a.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// ClearCache drops every cached entry and resynchronizes the in-process
// version counter from the durable one, discarding any optimistic bump.
func (a *Accessor) ClearCache(ctx context.Context) error {
	a.cache.Clear()

	version, err := a.readVersion(ctx)
	if err != nil {
		return err
	}
	a.version = version
	return nil
}

// readVersion fetches the durable counter, mapping an absent key to zero.
func (a *Accessor) readVersion(ctx context.Context) (uint64, error) {
	raw, err := a.store.Get(ctx, a.versionKey)
	if errors.Is(err, store.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("statekv: read version: %w", err)
	}

	version, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("statekv: malformed version counter %q: %w", raw, err)
	}
	return version, nil
}

func (a *Accessor) fqKey(key string) string {
	return a.keyPrefix + key
}

func (a *Accessor) decode(key string, data []byte) (codec.Value, error) {
	v, err := a.codec.Decode(data)
	if err != nil {
		return codec.Value{}, fmt.Errorf("statekv: decode %q: %w", key, err)
	}
	return v, nil
}
