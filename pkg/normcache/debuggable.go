package normcache

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/getmockd/gqldevkit/pkg/metrics"
)

// Stats counts operations forwarded by a DebuggableCache.
type Stats struct {
	Reads   uint64 `json:"reads"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Writes  uint64 `json:"writes"`
	Removes uint64 `json:"removes"`
	Clears  uint64 `json:"clears"`
	Errors  uint64 `json:"errors"`
}

// DebuggableCache forwards every operation to a base cache unchanged and
// lets a debugger take snapshots of it.
type DebuggableCache struct {
	base    NormalizedCache
	metrics *metrics.Metrics

	reads, hits, misses     atomic.Uint64
	writes, removes, clears atomic.Uint64
	errs                    atomic.Uint64
}

var _ NormalizedCache = (*DebuggableCache)(nil)

// NewDebuggableCache wraps base. m may be nil.
func NewDebuggableCache(base NormalizedCache, m *metrics.Metrics) *DebuggableCache {
	return &DebuggableCache{base: base, metrics: m}
}

// Base returns the wrapped cache.
func (c *DebuggableCache) Base() NormalizedCache {
	return c.base
}

// Read forwards to the base cache and counts a hit or a miss.
func (c *DebuggableCache) Read(ctx context.Context, key string) (Record, error) {
	rec, err := c.base.Read(ctx, key)
	c.reads.Add(1)
	switch {
	case err == nil:
		c.hits.Add(1)
		c.metrics.ObserveCacheOp(metrics.CacheOpRead, metrics.CacheResultHit)
	case errors.Is(err, ErrRecordNotFound):
		c.misses.Add(1)
		c.metrics.ObserveCacheOp(metrics.CacheOpRead, metrics.CacheResultMiss)
	default:
		c.observeError(metrics.CacheOpRead)
	}
	return rec, err
}

// Write forwards to the base cache.
func (c *DebuggableCache) Write(ctx context.Context, key string, rec Record) error {
	err := c.base.Write(ctx, key, rec)
	c.writes.Add(1)
	c.observe(metrics.CacheOpWrite, err)
	return err
}

// Remove forwards to the base cache.
func (c *DebuggableCache) Remove(ctx context.Context, key string) error {
	err := c.base.Remove(ctx, key)
	c.removes.Add(1)
	c.observe(metrics.CacheOpRemove, err)
	return err
}

// Clear forwards to the base cache.
func (c *DebuggableCache) Clear(ctx context.Context) error {
	err := c.base.Clear(ctx)
	c.clears.Add(1)
	c.observe(metrics.CacheOpClear, err)
	return err
}

// Snapshot returns the base cache's current content. It is not counted in
// Stats, so inspecting the cache does not change what is reported about it.
func (c *DebuggableCache) Snapshot(ctx context.Context) (Snapshot, error) {
	snap, err := c.base.Snapshot(ctx)
	if err != nil {
		c.observeError(metrics.CacheOpDump)
	}
	return snap, err
}

// Stats returns the operation counters.
func (c *DebuggableCache) Stats() Stats {
	return Stats{
		Reads:   c.reads.Load(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Writes:  c.writes.Load(),
		Removes: c.removes.Load(),
		Clears:  c.clears.Load(),
		Errors:  c.errs.Load(),
	}
}

func (c *DebuggableCache) observe(op string, err error) {
	if err != nil {
		c.observeError(op)
		return
	}
	c.metrics.ObserveCacheOp(op, metrics.CacheResultOK)
}

func (c *DebuggableCache) observeError(op string) {
	c.errs.Add(1)
	c.metrics.ObserveCacheOp(op, metrics.CacheResultError)
}
