// Package state implements the distributed versioned state accessor: a
// namespaced, cached, at-most-one-writer view of a backing key-value store
// shared by many independent processes.
//
// # Namespaces
//
// A namespace is the (component, instance) pair. It scopes three kinds of
// store keys:
//
//	STATE:{component}__{instance}/{key}   one data entry
//	VERSION:{component}__{instance}       the namespace's version counter
//	LOCK:{component}__{instance}          the namespace's writer lock
//
// Namespaces never interact. The key formats are part of the external
// contract; other conforming implementations interoperate over the same
// store.
//
// # Write path
//
// Every write (Set, or one BulkSet call regardless of item count) acquires
// the namespace lock, optimistically applies its cache entries and a single
// version increment, then commits all data writes plus the version write as
// one atomic batch. If the commit fails, the optimistic cache entries are
// removed and the version decremented before the error propagates, so the
// in-process mirror never diverges from what this process has observed
// durably. The lock is released exactly once per successful acquire, on
// every exit path.
//
// Two writers to the same namespace are totally ordered by lock
// acquisition; the batch only guarantees that one writer's multi-key write
// is all-or-nothing, not that another writer cannot interleave between a
// release and a later read.
//
// # Read path
//
// Get serves from the local cache first and falls back to the store,
// repopulating the cache on a hit. The cache is an unbounded write-through
// mirror with no TTL of its own; ClearCache drops it entirely and resyncs
// the version counter from the store.
//
// # Concurrency
//
// An Accessor instance is single-owner: no internal goroutines, and not
// safe to share across goroutines without external synchronization. The
// only blocking is the lock coordinator's bounded retry sleep.
package state
