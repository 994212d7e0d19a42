package linkcheck

import (
	"sync"
	"time"
)

type cacheEntry struct {
	result    Result
	expiresAt time.Time
}

// resultCache remembers results by URL for a fixed TTL. Expired entries are
// dropped lazily on lookup or by prune.
type resultCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func newResultCache(ttl time.Duration, now func() time.Time) *resultCache {
	return &resultCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     now,
	}
}

// get returns a copy of the cached result for url.
func (c *resultCache) get(url string) (Result, bool) {
	if c.ttl <= 0 {
		return Result{}, false
	}

	c.mu.RLock()
	entry, ok := c.entries[url]
	c.mu.RUnlock()
	if !ok {
		return Result{}, false
	}

	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		if current, stillThere := c.entries[url]; stillThere && c.now().After(current.expiresAt) {
			delete(c.entries, url)
		}
		c.mu.Unlock()
		return Result{}, false
	}
	return entry.result, true
}

func (c *resultCache) set(url string, result Result) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[url] = cacheEntry{result: result, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *resultCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

func (c *resultCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// prune removes expired entries and returns how many were removed.
func (c *resultCache) prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for url, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, url)
			removed++
		}
	}
	return removed
}
