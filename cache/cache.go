// Package cache keeps recently fetched listing pages so a repeated job over
// the same site does not refetch every page.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/use-agent/scrapeconsole/engine"
)

// Cache is an expiring LRU of fetch results keyed by page URL.
// It is safe for concurrent use. A nil *Cache never hits.
type Cache struct {
	lru    *expirable.LRU[string, *engine.FetchResult]
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a Cache holding up to maxEntries pages for ttl each.
// It returns nil when maxEntries is not positive.
func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		return nil
	}
	return &Cache{
		lru: expirable.NewLRU[string, *engine.FetchResult](maxEntries, nil, ttl),
	}
}

// Key hashes a page URL into a cache key.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Get returns a cached copy of the page stored under key.
func (c *Cache) Get(key string) (*engine.FetchResult, bool) {
	if c == nil {
		return nil, false
	}
	res, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	cp := *res
	return &cp, true
}

// Set stores a copy of res under key.
func (c *Cache) Set(key string, res *engine.FetchResult) {
	if c == nil || res == nil {
		return
	}
	cp := *res
	c.lru.Add(key, &cp)
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}
