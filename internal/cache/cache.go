// Package cache memoizes read-only history results for a short time.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type entry struct {
	browser string
	value   any
}

// Cache is a bounded LRU whose entries expire after a fixed TTL. Entries
// are tagged with the browser they were read from so a change to that
// browser's database can drop them. A nil *Cache caches nothing.
type Cache struct {
	lru        *expirable.LRU[string, entry]
	maxEntries int
	ttl        time.Duration
	hits       atomic.Int64
	misses     atomic.Int64
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Size       int   `json:"size"`
	MaxEntries int   `json:"max_entries"`
	TTLSeconds int   `json:"ttl_seconds"`
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
}

// New creates a Cache holding at most maxEntries results for ttl each.
func New(maxEntries int, ttl time.Duration) *Cache {
	return &Cache{
		lru:        expirable.NewLRU[string, entry](maxEntries, nil, ttl),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// Key derives a cache key from an operation name and its normalized
// parameters.
func Key(op string, params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		data = []byte(err.Error())
	}
	sum := sha256.Sum256(append([]byte(op+"\x00"), data...))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached value for key.
func (c *Cache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	e, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Set stores v under key, tagged with browser.
func (c *Cache) Set(key, browser string, v any) {
	if c == nil {
		return
	}
	c.lru.Add(key, entry{browser: browser, value: v})
}

// InvalidateBrowser drops every entry read from browser and reports how
// many were removed.
func (c *Cache) InvalidateBrowser(browser string) int {
	if c == nil {
		return 0
	}
	n := 0
	for _, k := range c.lru.Keys() {
		if e, ok := c.lru.Peek(k); ok && e.browser == browser {
			if c.lru.Remove(k) {
				n++
			}
		}
	}
	return n
}

// Purge drops every entry.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}

// Stats reports the current size and hit counters.
func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		Size:       c.lru.Len(),
		MaxEntries: c.maxEntries,
		TTLSeconds: int(c.ttl / time.Second),
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
	}
}

// Do returns the cached result for key or computes, stores and returns it.
// Errors are never cached.
func Do[T any](c *Cache, key, browser string, fn func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := fn()
	if err != nil {
		return v, err
	}
	c.Set(key, browser, v)
	return v, nil
}
