package celestrak

import (
	"sync"
	"time"
)

const defaultCacheTTL = 15 * time.Minute

type cacheEntry struct {
	record  TLE
	updated time.Time
}

// TLECache caches fetched element sets per catalog number so repeated
// refreshes inside the TTL do not hit the upstream source.
type TLECache struct {
	mu       sync.RWMutex
	entries  map[int]cacheEntry
	ttl      time.Duration
	hits     int64
	misses   int64
	invalids int64
}

// NewTLECache creates a cache with the provided TTL; zero uses a default.
func NewTLECache(ttl time.Duration) *TLECache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &TLECache{
		entries: make(map[int]cacheEntry),
		ttl:     ttl,
	}
}

func (c *TLECache) TTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.ttl
}

func (c *TLECache) Get(noradID int) (TLE, bool) {
	if c == nil || noradID <= 0 {
		return TLE{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[noradID]
	c.mu.RUnlock()
	if !ok {
		c.recordMiss()
		return TLE{}, false
	}
	if time.Since(entry.updated) > c.ttl {
		c.recordMiss()
		return TLE{}, false
	}
	c.recordHit()
	return entry.record, true
}

func (c *TLECache) Update(noradID int, rec TLE) {
	if c == nil || noradID <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[noradID] = cacheEntry{record: rec, updated: time.Now()}
	c.mu.Unlock()
}

func (c *TLECache) Invalidate(noradID int) {
	if c == nil || noradID <= 0 {
		return
	}
	c.mu.Lock()
	if _, ok := c.entries[noradID]; ok {
		c.invalids++
		delete(c.entries, noradID)
	}
	c.mu.Unlock()
}

func (c *TLECache) InvalidateAll() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[int]cacheEntry)
	c.invalids++
	c.mu.Unlock()
}

func (c *TLECache) Stats() (hits, misses, invalids int64) {
	if c == nil {
		return 0, 0, 0
	}
	c.mu.RLock()
	hits, misses, invalids = c.hits, c.misses, c.invalids
	c.mu.RUnlock()
	return
}

// HitRatio reports hits/(hits+misses), or zero before any lookup.
func (c *TLECache) HitRatio() float64 {
	hits, misses, _ := c.Stats()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func (c *TLECache) recordHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *TLECache) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}
