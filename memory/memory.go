package memory

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/tiercache/cache"
	"github.com/IvanBrykalov/tiercache/internal/util"
	"github.com/IvanBrykalov/tiercache/policy/lru"
)

// Cache is a sharded in-process tier. It implements cache.Cache with
// callbacks that fire synchronously on the calling goroutine, and also offers
// a direct synchronous API (Load/Store/Delete/Purge).
// All methods are safe for concurrent use.
type Cache[V any] struct {
	shards   []*shard[V]
	resident atomic.Int64
	closed   atomic.Bool

	opt Options[V]
}

// New builds a memory tier. See Options for defaults.
func New[V any](opt Options[V]) *Cache[V] {
	if opt.Metrics == nil {
		opt.Metrics = cache.NoopMetrics{}
	}
	if opt.Policy == nil {
		opt.Policy = lru.New[V]()
	}

	c := &Cache[V]{opt: opt}
	n := util.ShardCount(opt.Shards)
	perShard := 0
	if opt.MaxEntries > 0 {
		perShard = (opt.MaxEntries + n - 1) / n // ceil
	}
	c.shards = make([]*shard[V], n)
	for i := range c.shards {
		c.shards[i] = newShard(perShard, &c.opt, &c.resident)
	}
	return c
}

// ---- cache.Cache ----

// Get implements cache.Cache.
func (c *Cache[V]) Get(key string, done func(v V, ok bool)) {
	v, ok := c.Load(key)
	cache.Complete(done, v, ok)
}

// Set implements cache.Cache.
func (c *Cache[V]) Set(key string, v V, done func()) {
	c.Store(key, v)
	cache.Done(done)
}

// Remove implements cache.Cache.
func (c *Cache[V]) Remove(key string, done func()) {
	c.Delete(key)
	cache.Done(done)
}

// Clear implements cache.Cache.
func (c *Cache[V]) Clear(done func()) {
	c.Purge()
	cache.Done(done)
}

// ---- synchronous API ----

// Load returns the value for key and promotes it according to the policy.
func (c *Cache[V]) Load(key string) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	return c.shard(key).Get(key)
}

// Store inserts or updates key→v using DefaultTTL.
func (c *Cache[V]) Store(key string, v V) {
	c.StoreWithTTL(key, v, c.opt.DefaultTTL)
}

// StoreWithTTL inserts or updates key→v with a per-key TTL.
// A non-positive ttl disables expiration for this entry.
func (c *Cache[V]) StoreWithTTL(key string, v V, ttl time.Duration) {
	if c.closed.Load() {
		return
	}
	c.shard(key).Set(key, v, c.deadline(ttl))
	c.opt.Metrics.Size(c.Len())
}

// Delete removes key and reports whether it was present.
func (c *Cache[V]) Delete(key string) bool {
	if c.closed.Load() {
		return false
	}
	ok := c.shard(key).Remove(key)
	c.opt.Metrics.Size(c.Len())
	return ok
}

// Purge drops every entry.
func (c *Cache[V]) Purge() {
	for _, s := range c.shards {
		s.Clear()
	}
	c.opt.Metrics.Size(c.Len())
}

// Len returns the number of resident entries across all shards.
func (c *Cache[V]) Len() int { return int(c.resident.Load()) }

// Close marks the tier closed: lookups miss and writes are ignored.
func (c *Cache[V]) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return cache.ErrClosed
	}
	return nil
}

// ClearOnSignal purges the tier every time one of sigs arrives, until ctx is
// done. It is the hook for "memory pressure" style notifications (e.g. an
// operator sending SIGUSR1). The returned channel is closed on exit.
func (c *Cache[V]) ClearOnSignal(ctx context.Context, sigs ...os.Signal) <-chan struct{} {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		defer signal.Stop(ch)
		for {
			select {
			case <-ch:
				c.Purge()
			case <-ctx.Done():
				return
			}
		}
	}()
	return stopped
}

// ---- helpers ----

func (c *Cache[V]) shard(key string) *shard[V] {
	return c.shards[util.ShardIndex(util.HashString(key), len(c.shards))]
}

// deadline converts a relative TTL into an absolute UnixNano deadline.
func (c *Cache[V]) deadline(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	now := time.Now().UnixNano()
	if c.opt.Clock != nil {
		now = c.opt.Clock.NowUnixNano()
	}
	return now + int64(ttl)
}

var _ cache.Cache[int] = (*Cache[int])(nil)
