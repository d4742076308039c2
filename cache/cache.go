// Package cache provides the result cache for deterministic chain runs: a
// concurrent in-memory map with an optional capacity bound and a
// caller-selectable eviction policy. Entries are derived, not authoritative,
// so last-write-wins races are acceptable. Nothing persists across restarts.
package cache

import (
	"container/list"
	"sync"
)

// EvictionPolicy defines how entries are evicted once the cache is full.
type EvictionPolicy string

const (
	// EvictNone performs no eviction; when a capacity is set and reached,
	// new writes are dropped.
	EvictNone EvictionPolicy = "none"

	// EvictLRU evicts the least recently used entry to make room.
	EvictLRU EvictionPolicy = "lru"
)

// Option configures a Cache.
type Option func(*settings)

type settings struct {
	capacity int
	policy   EvictionPolicy
}

// WithCapacity bounds the cache to n entries. Zero means unbounded.
func WithCapacity(n int) Option {
	return func(s *settings) {
		s.capacity = n
	}
}

// WithEviction selects the eviction policy (default EvictLRU).
func WithEviction(p EvictionPolicy) Option {
	return func(s *settings) {
		s.policy = p
	}
}

// Cache is a concurrent key-value cache. The zero value is not usable; create
// instances with New and inject them where needed, so independent runners can
// hold isolated caches.
type Cache[V any] struct {
	mu       sync.Mutex
	data     map[string]*entry[V]
	order    *list.List // front = most recently used
	capacity int
	policy   EvictionPolicy
}

type entry[V any] struct {
	key     string
	value   V
	element *list.Element
}

// New creates a Cache.
func New[V any](opts ...Option) *Cache[V] {
	s := settings{policy: EvictLRU}
	for _, opt := range opts {
		opt(&s)
	}
	return &Cache[V]{
		data:     make(map[string]*entry[V]),
		order:    list.New(),
		capacity: s.capacity,
		policy:   s.policy,
	}
}

// Get retrieves a value by key, refreshing its recency.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.data[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.policy == EvictLRU {
		c.order.MoveToFront(ent.element)
	}
	return ent.value, true
}

// Put stores a value. Overwrites refresh recency. When the cache is at
// capacity, EvictLRU drops the least recently used entry; EvictNone drops
// the incoming write instead.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.data[key]; ok {
		ent.value = value
		c.order.MoveToFront(ent.element)
		return
	}

	if c.capacity > 0 && len(c.data) >= c.capacity {
		if c.policy != EvictLRU {
			return
		}
		c.evictOldest()
	}

	ent := &entry[V]{key: key, value: value}
	ent.element = c.order.PushFront(ent)
	c.data[key] = ent
}

// Delete removes a key if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.data[key]; ok {
		c.order.Remove(ent.element)
		delete(c.data, key)
	}
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Clear removes all entries.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]*entry[V])
	c.order.Init()
}

// evictOldest removes the back of the recency list. Callers hold the lock.
func (c *Cache[V]) evictOldest() {
	back := c.order.Back()
	if back == nil {
		return
	}
	ent := back.Value.(*entry[V])
	c.order.Remove(back)
	delete(c.data, ent.key)
}
