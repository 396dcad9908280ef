package normcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUCache is a bounded cache that evicts the least recently used record.
type LRUCache struct {
	// mu serializes mutations with Snapshot so a snapshot never observes a
	// half-applied write or eviction.
	mu      sync.RWMutex
	lru     *lru.Cache[string, Record]
	onEvict func(key string)
	now     func() time.Time
}

var _ NormalizedCache = (*LRUCache)(nil)

// NewLRUCache creates a cache holding at most size records. onEvict, when
// non-nil, is called for every record evicted to make room.
func NewLRUCache(size int, onEvict func(key string)) (*LRUCache, error) {
	c := &LRUCache{onEvict: onEvict, now: time.Now}
	l, err := lru.NewWithEvict(size, func(key string, _ Record) {
		if c.onEvict != nil {
			c.onEvict(key)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	c.lru = l
	return c, nil
}

// Read returns a copy of the record stored under key and marks it recently
// used.
func (c *LRUCache) Read(_ context.Context, key string) (Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.lru.Get(key)
	if !ok {
		return nil, ErrRecordNotFound
	}
	return rec.Clone(), nil
}

// Write stores a copy of rec under key.
func (c *LRUCache) Write(_ context.Context, key string, rec Record) error {
	c.mu.Lock()
	c.lru.Add(key, rec.Clone())
	c.mu.Unlock()
	return nil
}

// Remove deletes key.
func (c *LRUCache) Remove(_ context.Context, key string) error {
	c.mu.Lock()
	c.lru.Remove(key)
	c.mu.Unlock()
	return nil
}

// Clear deletes every record without reporting them as evictions.
func (c *LRUCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cb := c.onEvict
	c.onEvict = nil
	c.lru.Purge()
	c.onEvict = cb
	return nil
}

// Snapshot copies the whole cache without touching recency.
func (c *LRUCache) Snapshot(_ context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records := make(map[string]Record, c.lru.Len())
	for _, key := range c.lru.Keys() {
		if rec, ok := c.lru.Peek(key); ok {
			records[key] = rec.Clone()
		}
	}
	return Snapshot{TakenAt: c.now(), Records: records}, nil
}

// Len returns the number of cached records.
func (c *LRUCache) Len() int {
	return c.lru.Len()
}
