// Package cache provides a time-boxed store for aggregated price results.
package cache

import (
	"sync"
	"time"

	"github.com/cardledger/pricefeed-go/pkg/metrics"
	"github.com/cardledger/pricefeed-go/pkg/pricing/selector"
)

// DefaultTTL is how long a computed price stays usable.
const DefaultTTL = 4 * time.Hour

// Entry is one cached result with its computation time.
type Entry struct {
	Result   selector.Result
	CachedAt time.Time
}

// Cache maps item identity to the last computed price result. Entries
// past the TTL are treated as absent and removed on lookup; there is no
// background sweep. Size is bounded only by the inventory size, so no
// eviction policy is needed.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

// New creates a cache with the given TTL. A zero ttl uses DefaultTTL.
func New(ttl time.Duration) *Cache {
	return NewWithClock(ttl, time.Now)
}

// NewWithClock creates a cache with an injectable clock for tests.
func NewWithClock(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the live entry for an item, expiring it lazily.
func (c *Cache) Get(itemID string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[itemID]
	if !ok {
		metrics.RecordCacheLookup(false)
		return Entry{}, false
	}

	if c.now().Sub(entry.CachedAt) > c.ttl {
		delete(c.entries, itemID)
		metrics.RecordCacheLookup(false)
		return Entry{}, false
	}

	metrics.RecordCacheLookup(true)
	return entry, true
}

// Set stores a freshly computed result for an item.
func (c *Cache) Set(itemID string, result selector.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[itemID] = Entry{
		Result:   result,
		CachedAt: c.now(),
	}
}

// Len returns the number of entries, including not-yet-expired ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
