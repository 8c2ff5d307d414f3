package store

import (
	"bytes"
	"context"
	"path"
	"strings"
	"sync"
	"time"
)

// entry is one stored value with an optional expiration instant.
// A zero expire means the entry never expires.
type entry struct {
	value  []byte
	expire time.Time
}

func (e entry) expired() bool {
	if e.expire.IsZero() {
		return false
	}
	return time.Now().After(e.expire)
}

// MemoryStore implements Store with in-memory storage. Expired entries are
// reaped lazily, on the read or write that encounters them.
// Uses sync.RWMutex for thread-safe concurrent access.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]entry
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]entry)}
}

// Get retrieves a value by key.
// Returns a copy of the value to prevent external modification.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrKeyNotFound
	}
	if !e.expired() {
		return clone(e.value), nil
	}

	// Expired: upgrade to a write lock and re-check before reaping.
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok = m.data[key]
	if !ok || e.expired() {
		delete(m.data, key)
		return nil, ErrKeyNotFound
	}
	return clone(e.value), nil
}

// Set stores a value with the given key, overwriting any existing entry.
// Makes a copy of the value to prevent external modification.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = entry{value: clone(value), expire: expiry(ttl)}
	return nil
}

// Delete removes a key-value pair.
// No error if key doesn't exist (idempotent).
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys returns all live keys matching pattern.
//
// A trailing-star pattern with no other metacharacters is a plain prefix
// match, so separators inside keys don't terminate the wildcard the way
// they would under path.Match. Anything else goes through path.Match.
func (m *MemoryStore) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for key, e := range m.data {
		if e.expired() {
			continue
		}
		ok, err := matchPattern(pattern, key)
		if err != nil {
			return nil, err
		}
		if ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Batch applies all writes under one lock acquisition, making the batch
// atomic with respect to every other MemoryStore operation.
func (m *MemoryStore) Batch(_ context.Context, writes []Write) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range writes {
		m.data[w.Key] = entry{value: clone(w.Value), expire: expiry(w.TTL)}
	}
	return nil
}

// SetNX stores the value only if the key is absent or its entry expired.
func (m *MemoryStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.data[key]; ok {
		if !e.expired() {
			return false, nil
		}
		delete(m.data, key)
	}
	m.data[key] = entry{value: clone(value), expire: expiry(ttl)}
	return true, nil
}

// CompareAndDelete removes the key only if its live value equals value.
func (m *MemoryStore) CompareAndDelete(_ context.Context, key string, value []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok || e.expired() {
		delete(m.data, key)
		return false, nil
	}
	if !bytes.Equal(e.value, value) {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

// matchPattern implements the store's glob dialect.
func matchPattern(pattern, key string) (bool, error) {
	if strings.HasSuffix(pattern, "*") && !strings.ContainsAny(pattern[:len(pattern)-1], "*?[\\") {
		return strings.HasPrefix(key, pattern[:len(pattern)-1]), nil
	}
	return path.Match(pattern, key)
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

// clone copies src so callers can't alias the store's internal buffers.
func clone(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}
