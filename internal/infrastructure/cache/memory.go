package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/marketlens/backend/internal/domain"
)

const cleanupInterval = 10 * time.Minute

// entry is one encoded value with its expiry
type entry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryCache is a thread-safe in-memory cache with TTL support.
// Values are stored JSON-encoded so callers never share mutable records.
type MemoryCache struct {
	data  map[string]entry
	mutex sync.RWMutex
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

var _ domain.CacheRepository = (*MemoryCache)(nil)

// NewMemoryCache creates a cache and starts its expiry sweeper
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		data: make(map[string]entry),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	go c.cleanupExpired(cleanupInterval)
	return c
}

// Get decodes the cached value for key into dest
func (c *MemoryCache) Get(ctx context.Context, key string, dest any) error {
	c.mutex.RLock()
	item, ok := c.data[key]
	c.mutex.RUnlock()

	if !ok || c.now().After(item.expiresAt) {
		return domain.ErrCacheMiss
	}
	if err := json.Unmarshal(item.payload, dest); err != nil {
		return fmt.Errorf("decode cached %q: %w", key, err)
	}
	return nil
}

// Set stores value under key for ttl
func (c *MemoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data[key] = entry{payload: payload, expiresAt: c.now().Add(ttl)}
	return nil
}

// Delete removes key
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.data, key)
	return nil
}

// Exists reports whether key holds an unexpired value
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	item, ok := c.data[key]
	return ok && !c.now().After(item.expiresAt), nil
}

// Size returns the number of stored entries, expired ones included until swept
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes every entry
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]entry)
}

// Close stops the expiry sweeper
func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep drops expired entries
func (c *MemoryCache) sweep() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	now := c.now()
	for key, item := range c.data {
		if now.After(item.expiresAt) {
			delete(c.data, key)
		}
	}
}
