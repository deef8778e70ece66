// Package cache holds recently fetched observations so repeated ingestion
// runs within the TTL window hit the cache instead of the weather provider.
//
// Eviction is purely time-based: an entry written at T is live until T+TTL
// and treated as absent afterwards. Entry count is unbounded; tracked
// locations are operator-curated and expire within minutes, so a size cap
// buys nothing here.
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-watch/internal/domain"
)

// DefaultTTL matches the upstream provider's refresh cadence.
const DefaultTTL = 5 * time.Minute

type entry struct {
	obs       domain.Observation
	fetchedAt time.Time
	expiresAt time.Time
}

// Cache is a TTL-bounded, key-addressed store of observations.
// Safe for concurrent use; concurrent writes to one key resolve
// last-writer-wins, acceptable because the payload is idempotent per key
// within the TTL window.
type Cache struct {
	ttl time.Duration
	clk clockwork.Clock

	mu      sync.RWMutex
	entries map[string]entry
	hits    uint64
	misses  uint64
}

// New creates a cache with the given TTL. Pass nil clk for the real clock.
func New(ttl time.Duration, clk clockwork.Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Cache{
		ttl:     ttl,
		clk:     clk,
		entries: make(map[string]entry),
	}
}

// Get returns the live observation for key. Expired and unknown keys report
// absent; an expired entry is removed on the way out.
func (c *Cache) Get(key string) (domain.Observation, bool) {
	now := c.clk.Now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && now.Before(e.expiresAt) {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return e.obs, true
	}

	c.mu.Lock()
	c.misses++
	if ok {
		// Re-check under the write lock; another writer may have refreshed it.
		if cur, still := c.entries[key]; still && !now.Before(cur.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
	return domain.Observation{}, false
}

// Put stores the observation under key. The TTL clock starts now.
func (c *Cache) Put(key string, obs domain.Observation) {
	now := c.clk.Now()
	c.mu.Lock()
	c.entries[key] = entry{obs: obs, fetchedAt: now, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate removes key regardless of its age.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Stats returns cumulative hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Len returns the number of stored entries, including not-yet-collected
// expired ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
