// Package cache is a small keyed cache with prefix invalidation. It replaces
// the ambient module-level maps the original duplicate/workload lookups
// leaned on with an explicit, injectable component.
package cache

import (
	"strings"
	"sync"
)

// Cache stores arbitrary values under string keys. Callers namespace keys by
// prefix (e.g. "dup:", "workload:") and invalidate a whole namespace at once.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]any
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[string]any)}
}

// Set stores value under key, replacing any previous value.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Get returns the value stored under key.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns the number removed. An empty prefix clears the whole cache.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
