package sigil

import (
	"sync"
)

// Cache stores resolved artifacts keyed by string. Duplicate concurrent
// computation of the same entry is allowed; the last write wins and entries
// are treated as immutable once stored.
type Cache[V any] struct {
	store map[string]V
	mu    sync.RWMutex
}

// NewCache creates an empty cache.
func NewCache[V any]() *Cache[V] {
	return &Cache[V]{
		store: make(map[string]V),
	}
}

// Get retrieves an entry from the cache.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, exists := c.store[key]
	return value, exists
}

// Set stores an entry in the cache.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = value
}

// Clear removes all entries from the cache.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]V)
}

// Size returns the number of cached entries.
func (c *Cache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.store)
}

// Keys returns all cached keys.
func (c *Cache[V]) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.store))
	for key := range c.store {
		keys = append(keys, key)
	}
	return keys
}
