// Package cache provides the accessor's local write-through mirror of
// backing-store entries.
//
// The cache maps fully-qualified keys to their serialized bytes. It has no
// expiration, no size bound, and no locking of its own: every mutation is
// serialized by the accessor, either under the namespace's distributed lock
// or by the single-owner access assumption. It is bounded only by the
// namespace's own key count.
package cache

// Cache is an unbounded key → serialized-bytes map.
type Cache struct {
	entries map[string][]byte
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string][]byte)}
}

// Get returns the cached bytes for key and whether they were present.
func (c *Cache) Get(key string) ([]byte, bool) {
	data, ok := c.entries[key]
	return data, ok
}

// Put stores data under key, overwriting any previous entry.
func (c *Cache) Put(key string, data []byte) {
	c.entries[key] = data
}

// Remove drops the entry for key. Removing an absent key is a no-op.
func (c *Cache) Remove(key string) {
	delete(c.entries, key)
}

// Clear drops every entry. Callers pair this with a resynchronization read
// of the durable version counter.
func (c *Cache) Clear() {
	c.entries = make(map[string][]byte)
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}
