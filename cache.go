package wilderblog

import (
	"context"
	"sync"
	"time"
)

// CategoryCache is an in-memory cache of category labels with TTL.
// The processor invalidates it after every successful mutation.
type CategoryCache struct {
	mu         sync.RWMutex
	categories []string
	fetched    time.Time
	ttl        time.Duration
	sessions   Sessions
}

// NewCategoryCache creates a CategoryCache backed by the given Sessions.
// A ttl of zero or less disables caching.
func NewCategoryCache(s Sessions, ttl time.Duration) *CategoryCache {
	return &CategoryCache{sessions: s, ttl: ttl}
}

func (c *CategoryCache) valid() bool {
	return c.categories != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *CategoryCache) Invalidate() {
	c.mu.Lock()
	c.categories = nil
	c.mu.Unlock()
}

// Categories returns the current category labels, loading them when stale.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *CategoryCache) Categories(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	if c.valid() {
		cats := c.categories
		c.mu.RUnlock()
		return cats, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.categories, nil
	}
	cats, err := c.sessions.Session().GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []string{}
	}
	c.categories = cats
	c.fetched = time.Now()
	return cats, nil
}
