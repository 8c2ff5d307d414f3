// Package store defines the backing key-value capability the state engine
// consumes and provides its two implementations.
//
// # Overview
//
// The state engine needs five things from its backing store: point reads,
// plain and expiring writes, glob key enumeration, an atomic multi-write
// batch, and two compare-style primitives (SetNX, CompareAndDelete) that
// let a distributed lock share the same store as the data.
//
// # Implementations
//
// MemoryStore: in-process storage with sync.RWMutex and lazily-reaped TTL
// entries. Suitable for tests and as the engine behind a single statekvd
// process. Batches are atomic because the whole batch runs under one lock
// acquisition.
//
// RemoteStore: an HTTP client for the statekvd server, speaking JSON with
// base64 value payloads. Batches are atomic because the server applies
// them against its MemoryStore in one call.
//
// # Errors
//
// ErrKeyNotFound is the expected outcome of reading an absent key and is
// safe to branch on with errors.Is. ErrUnavailable wraps transport-level
// failures and indicates the store could not be reached at all.
package store
