// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

import "sync"

// Cache is a generic thread-safe LRU cache with a soft limit.
// When an insertion exceeds the limit, the least recently used quarter of
// the entries is evicted.
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	entries   map[K]*entry[V]
	softLimit int
	tick      int64 // monotonic access counter

	hits, misses, evictions uint64
}

type entry[V any] struct {
	value V
	atime int64
}

// Stats contains cache statistics.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns hits / (hits + misses), or zero before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// New creates a cache with the given soft limit. Zero means unlimited.
func New[K comparable, V any](softLimit int) *Cache[K, V] {
	return &Cache[K, V]{
		entries:   make(map[K]*entry[V]),
		softLimit: softLimit,
	}
}

// Get returns the cached value for key.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.tick++
	e.atime = c.tick
	return e.value, true
}

// GetOrCreate returns the cached value for key, creating it on a miss.
// create runs under the lock so a value is built at most once per key.
// A failed create stores nothing.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick++
	if e, ok := c.entries[key]; ok {
		c.hits++
		e.atime = c.tick
		return e.value, nil
	}
	c.misses++

	value, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries[key] = &entry[V]{value: value, atime: c.tick}
	if c.softLimit > 0 && len(c.entries) > c.softLimit {
		c.evictOldest()
	}
	return value, nil
}

// Clear removes all entries. Statistics are kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*entry[V])
	c.tick = 0
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:       len(c.entries),
		Capacity:  c.softLimit,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// evictOldest removes the least recently used entries until the cache is
// at three quarters of its soft limit. Caller must hold c.mu.
func (c *Cache[K, V]) evictOldest() {
	target := c.softLimit * 3 / 4
	if target < 1 {
		target = 1
	}
	for len(c.entries) > target {
		var (
			oldest K
			atime  int64 = -1
		)
		for k, e := range c.entries {
			if atime < 0 || e.atime < atime {
				oldest, atime = k, e.atime
			}
		}
		delete(c.entries, oldest)
		c.evictions++
	}
}
