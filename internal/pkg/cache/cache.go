package cache

import (
	"regexp"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is an in-process TTL cache used for hot read paths such as
// course listings. Expired entries are dropped lazily on Get; the
// cleanup job calls CleanExpired periodically to bound memory.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	defaultTTL time.Duration
	now        func() time.Time
}

func New(defaultTTL time.Duration) *Cache {
	return &Cache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key. A non-positive ttl falls back to the
// cache default.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// DeletePattern removes every key matching the regular expression.
// Invalidation after a course write uses this to drop all cached
// listing pages at once.
func (c *Cache) DeletePattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	c.mu.Lock()
	for key := range c.entries {
		if re.MatchString(key) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
	return nil
}

func (c *Cache) CleanExpired() int {
	now := c.now()
	removed := 0
	c.mu.Lock()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()
	return removed
}

func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
