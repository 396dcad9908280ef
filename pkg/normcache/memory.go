package normcache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an unbounded map-backed cache.
type MemoryCache struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

var _ NormalizedCache = (*MemoryCache)(nil)

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

// Read returns a copy of the record stored under key.
func (c *MemoryCache) Read(_ context.Context, key string) (Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.records[key]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return rec.Clone(), nil
}

// Write stores a copy of rec under key, replacing any previous record.
func (c *MemoryCache) Write(_ context.Context, key string, rec Record) error {
	c.mu.Lock()
	c.records[key] = rec.Clone()
	c.mu.Unlock()
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (c *MemoryCache) Remove(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.records, key)
	c.mu.Unlock()
	return nil
}

// Clear deletes every record.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.records = make(map[string]Record)
	c.mu.Unlock()
	return nil
}

// Snapshot copies the whole cache under the read lock.
func (c *MemoryCache) Snapshot(_ context.Context) (Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{TakenAt: c.now(), Records: copyRecords(c.records)}, nil
}

// Len returns the number of cached records.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
