package cache

import (
	"sync"
	"time"
)

// DefaultFreshness is the window within which a stored value counts as
// fresh. Stale values are still returned so collectors can degrade to
// the last known data instead of failing.
const DefaultFreshness = 60 * time.Second

type slot[T any] struct {
	value    T
	storedAt time.Time
}

// Snapshot is a single-slot-per-key memo cache in front of an external
// data source. Put replaces the stored value wholesale; there is no
// eviction and no LRU behavior. Instances are injected into collectors
// so tests can use isolated caches.
type Snapshot[T any] struct {
	mu        sync.RWMutex
	freshness time.Duration
	slots     map[string]slot[T]
	now       func() time.Time
}

func NewSnapshot[T any](freshness time.Duration) *Snapshot[T] {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	return &Snapshot[T]{
		freshness: freshness,
		slots:     make(map[string]slot[T]),
		now:       time.Now,
	}
}

// Get returns the stored value for key, whether it is within the
// freshness window, and whether any value exists at all.
func (c *Snapshot[T]) Get(key string) (value T, fresh bool, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.slots[key]
	if !ok {
		var zero T
		return zero, false, false
	}
	return s.value, c.now().Sub(s.storedAt) < c.freshness, true
}

// Put replaces the value for key and resets its timestamp.
func (c *Snapshot[T]) Put(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[key] = slot[T]{value: value, storedAt: c.now()}
}
