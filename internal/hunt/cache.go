package hunt

import (
	"sync"
	"time"
)

// Cache memoizes the last computed leaderboard snapshot per game. Entries
// are valid for a short TTL and are explicitly invalidated on every
// accepted scan, so a read after a scan always recomputes.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	snapshot   Snapshot
	computedAt time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached snapshot if it is still fresh.
func (c *Cache) Get(gameID string, now time.Time) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[gameID]
	if !ok || now.Sub(e.computedAt) >= c.ttl {
		return Snapshot{}, false
	}
	return e.snapshot, true
}

// Stale returns the last snapshot regardless of age. Used to degrade reads
// when recomputation fails.
func (c *Cache) Stale(gameID string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[gameID]
	return e.snapshot, ok
}

func (c *Cache) Put(gameID string, snapshot Snapshot, now time.Time) {
	c.mu.Lock()
	c.entries[gameID] = cacheEntry{snapshot: snapshot, computedAt: now}
	c.mu.Unlock()
}

// Invalidate expires the entry but keeps the snapshot around as a stale
// fallback for degraded reads.
func (c *Cache) Invalidate(gameID string) {
	c.mu.Lock()
	if e, ok := c.entries[gameID]; ok {
		e.computedAt = time.Time{}
		c.entries[gameID] = e
	}
	c.mu.Unlock()
}
