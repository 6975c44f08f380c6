// Package cache provides a bounded LRU cache and a loader that collapses
// concurrent fetches for the same key into a single in-flight call.
package cache

import (
	"container/list"
	"sync"
)

// LRU is a thread-safe bounded cache with least-recently-used eviction.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	max     int
	order   *list.List
	entries map[K]*list.Element
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewLRU creates a cache holding at most max entries. A non-positive max
// defaults to 128.
func NewLRU[K comparable, V any](max int) *LRU[K, V] {
	if max <= 0 {
		max = 128
	}
	return &LRU[K, V]{
		max:     max,
		order:   list.New(),
		entries: make(map[K]*list.Element),
	}
}

// Get returns the cached value for key, marking it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry[K, V]).value, true
}

// Put stores value under key, evicting the least recently used entry when
// the cache is full.
func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*lruEntry[K, V]).value = value
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&lruEntry[K, V]{key: key, value: value})
	if c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*lruEntry[K, V]).key)
	}
}

// Remove drops key from the cache if present.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
}

// Len returns the current number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
