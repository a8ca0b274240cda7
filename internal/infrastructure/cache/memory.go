package cache

import (
	"context"
	"sync"
	"time"

	"github.com/placewise/backend/internal/domain"
)

// cacheItem represents a single item in the cache with expiration
type cacheItem struct {
	Value      interface{}
	Expiration time.Time
}

// Option configures a MemoryCache
type Option func(*MemoryCache)

// WithClock overrides the time source used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(c *MemoryCache) {
		c.now = now
	}
}

// WithCleanupInterval sets how often expired entries are purged.
// Zero disables the background purge.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *MemoryCache) {
		c.cleanupInterval = d
	}
}

// MemoryCache is a thread-safe in-memory cache with TTL support.
// Values are stored as-is; a Set replaces the previous entry for the key.
type MemoryCache struct {
	data            map[string]cacheItem
	mutex           sync.RWMutex
	now             func() time.Time
	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(opts ...Option) *MemoryCache {
	cache := &MemoryCache{
		data:            make(map[string]cacheItem),
		now:             time.Now,
		cleanupInterval: 10 * time.Minute,
		stop:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(cache)
	}

	if cache.cleanupInterval > 0 {
		go cache.cleanupExpired()
	}

	return cache
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return nil, domain.ErrCacheMiss
	}

	// live only while now < expiration
	if !c.now().Before(item.Expiration) {
		return nil, domain.ErrCacheMiss
	}

	return item.Value, nil
}

// Set stores a value in the cache with TTL
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		Value:      value,
		Expiration: c.now().Add(ttl),
	}

	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return false, nil
	}

	if !c.now().Before(item.Expiration) {
		return false, nil
	}

	return true, nil
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
	return nil
}

// Size returns the current number of items in the cache, expired ones included
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// PurgeExpired drops every expired entry and returns how many were removed
func (c *MemoryCache) PurgeExpired() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	removed := 0
	for key, item := range c.data {
		if !now.Before(item.Expiration) {
			delete(c.data, key)
			removed++
		}
	}
	return removed
}

// Close stops the background purge
func (c *MemoryCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// cleanupExpired removes expired entries from the cache periodically
func (c *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.PurgeExpired()
		}
	}
}
