package cache

import (
	"sync"
	"time"
)

// Clock abstracts time so expiry can be tested deterministically.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type entry[V any] struct {
	data      V
	createdAt time.Time
	ttl       time.Duration
}

// live reports whether the entry has not yet expired at the given instant.
func (e entry[V]) live(now time.Time) bool {
	return now.Sub(e.createdAt) < e.ttl
}

// Cache is an in-memory key/value store with per-entry expiry. Expired
// entries behave as absent on Get/Has but stay physically stored until
// Delete, Clear or Cleanup removes them; Size reflects physical storage.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	clock   Clock
}

func New[V any]() *Cache[V] {
	return NewWithClock[V](realClock{})
}

func NewWithClock[V any](clock Clock) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		clock:   clock,
	}
}

// Set stores or overwrites a value, recording the creation instant.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{data: value, createdAt: c.clock.Now(), ttl: ttl}
}

// Get returns the value for key, or false if it was never set, was
// deleted, or has expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.live(c.clock.Now()) {
		var zero V
		return zero, false
	}
	return e.data, true
}

// Has follows the same liveness rule as Get.
func (c *Cache[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return ok && e.live(c.clock.Now())
}

// Delete removes the entry if present; no-op otherwise.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all entries.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

// Size returns the number of physically stored entries, including
// expired ones that have not been swept yet.
func (c *Cache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Cleanup physically removes every entry that is no longer live. Called
// by a periodic maintenance task; Get/Has are correct without it.
func (c *Cache[V]) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for key, e := range c.entries {
		if !e.live(now) {
			delete(c.entries, key)
		}
	}
}
