// Package cache provides a size-bounded LRU cache.
package cache

import (
	"sync"
	"sync/atomic"
)

// LRU maps keys to values and evicts the least recently used entries once
// the summed entry sizes exceed the limit. It is safe for concurrent use.
type LRU[K comparable, V any] struct {
	entries map[K]*entry[K, V]
	head    *entry[K, V] // most recently used
	tail    *entry[K, V]
	maxSize int64
	size    int64
	mu      sync.Mutex

	hits   atomic.Int64
	misses atomic.Int64
}

type entry[K comparable, V any] struct {
	key   K
	value V
	size  int64
	prev  *entry[K, V]
	next  *entry[K, V]
}

// Stats is a snapshot of cache usage.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
	Size    int64
}

// HitRate returns hits over lookups, or zero before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// NewLRU returns a cache holding at most maxSize units. A non-positive
// maxSize yields a cache that stores nothing.
func NewLRU[K comparable, V any](maxSize int64) *LRU[K, V] {
	return &LRU[K, V]{entries: make(map[K]*entry[K, V]), maxSize: maxSize}
}

// Get returns the value of key and marks it recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)

		var zero V

		return zero, false
	}

	c.hits.Add(1)
	c.moveToFront(e)

	return e.value, true
}

// Put stores value under key with the given size. Values larger than the
// whole cache are dropped.
func (c *LRU[K, V]) Put(key K, value V, size int64) {
	if size > c.maxSize {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.size += size - e.size
		e.value, e.size = value, size
		c.moveToFront(e)
		c.evict()

		return
	}

	e := &entry[K, V]{key: key, value: value, size: size}
	c.entries[key] = e
	c.size += size
	c.pushFront(e)
	c.evict()
}

// Stats returns current usage.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: len(c.entries), Size: c.size}
}

func (c *LRU[K, V]) evict() {
	for c.size > c.maxSize && c.tail != nil {
		victim := c.tail
		c.unlink(victim)
		delete(c.entries, victim.key)
		c.size -= victim.size
	}
}

func (c *LRU[K, V]) pushFront(e *entry[K, V]) {
	e.prev, e.next = nil, c.head
	if c.head != nil {
		c.head.prev = e
	}

	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *LRU[K, V]) unlink(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}

	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}

	e.prev, e.next = nil, nil
}

func (c *LRU[K, V]) moveToFront(e *entry[K, V]) {
	if c.head == e {
		return
	}

	c.unlink(e)
	c.pushFront(e)
}
