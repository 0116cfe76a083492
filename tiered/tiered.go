package tiered

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/IvanBrykalov/tiercache/cache"
	"github.com/IvanBrykalov/tiercache/internal/singleflight"
)

// ErrNoLoader is returned by GetOrLoad when no loader was configured.
var ErrNoLoader = errors.New("tiered: no loader configured")

// Cache is the coordinator. It implements cache.Cache and is safe for
// concurrent use; it holds no per-call state.
type Cache[V any] struct {
	tiers []cache.Cache[V]

	log     logrus.FieldLogger
	metrics Metrics
	loader  Loader[V]
	loads   singleflight.Group[V]
}

// New builds a coordinator over tiers, fastest first. The slice is copied;
// the tier list is fixed for the coordinator's lifetime. Zero tiers is valid:
// every Get misses and every mutation completes immediately.
func New[V any](tiers []cache.Cache[V], opts ...Option[V]) *Cache[V] {
	o := buildOptions(opts)
	return &Cache[V]{
		tiers:   append([]cache.Cache[V](nil), tiers...),
		log:     o.logger,
		metrics: o.metrics,
		loader:  o.loader,
	}
}

// Tiers returns the number of tiers.
func (c *Cache[V]) Tiers() int { return len(c.tiers) }

// Get implements cache.Cache.
func (c *Cache[V]) Get(key string, done func(v V, ok bool)) {
	c.probe(key, 0, nil, done)
}

// probe asks tier i and continues with i+1 only from inside tier i's
// callback. missed holds the indexes of tiers that reported absent so far; it
// belongs to this lookup alone.
func (c *Cache[V]) probe(key string, i int, missed []int, done func(v V, ok bool)) {
	if i == len(c.tiers) {
		c.metrics.Miss()
		var zero V
		cache.Complete(done, zero, false)
		return
	}

	c.tiers[i].Get(key, onceLookup(func(v V, ok bool) {
		if !ok {
			c.probe(key, i+1, append(missed, i), done)
			return
		}

		c.metrics.TierHit(i)
		cache.Complete(done, v, true)

		for _, m := range missed {
			c.metrics.Fill(m)
			c.log.WithFields(logrus.Fields{
				"action": "fill",
				"key":    key,
				"tier":   m,
				"from":   i,
			}).Debug("fill-back")
			c.tiers[m].Set(key, v, nil)
		}
	}))
}

// Set implements cache.Cache. done fires once every tier has applied the
// write.
func (c *Cache[V]) Set(key string, v V, done func()) {
	c.fanOut(done, func(t cache.Cache[V], finish func()) { t.Set(key, v, finish) })
}

// Remove implements cache.Cache.
func (c *Cache[V]) Remove(key string, done func()) {
	c.fanOut(done, func(t cache.Cache[V], finish func()) { t.Remove(key, finish) })
}

// Clear implements cache.Cache.
func (c *Cache[V]) Clear(done func()) {
	c.fanOut(done, func(t cache.Cache[V], finish func()) { t.Clear(finish) })
}

// GetOrLoad returns the cached value for key or, when every tier misses,
// the value produced by the loader. Concurrent loads of the same key share
// one loader call. A loaded value is written to every tier before it is
// returned. Loader errors are returned as is and nothing is stored.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string) (V, error) {
	v, ok, err := cache.Load[V](ctx, c, key)
	if err != nil || ok {
		return v, err
	}
	if c.loader == nil {
		var zero V
		return zero, ErrNoLoader
	}

	v, err, _ = c.loads.Do(ctx, key, func() (V, error) {
		v, err := c.loader(ctx, key)
		if err != nil {
			return v, err
		}
		if err := cache.Store[V](ctx, c, key, v); err != nil {
			// The write still lands; only the wait was cut short.
			c.log.WithFields(logrus.Fields{"action": "load", "key": key}).Debug(err.Error())
		}
		return v, nil
	})
	return v, err
}

// fanOut runs op on every tier, each from its own goroutine, and calls done
// when the last tier finishes. A tier that completes twice counts once.
func (c *Cache[V]) fanOut(done func(), op func(t cache.Cache[V], finish func())) {
	if len(c.tiers) == 0 {
		cache.Done(done)
		return
	}

	var remaining atomic.Int64
	remaining.Store(int64(len(c.tiers)))
	finish := func() {
		if remaining.Add(-1) == 0 {
			cache.Done(done)
		}
	}

	for _, t := range c.tiers {
		go op(t, once(finish))
	}
}

func once(fn func()) func() {
	var fired atomic.Bool
	return func() {
		if fired.CompareAndSwap(false, true) {
			fn()
		}
	}
}

func onceLookup[V any](fn func(V, bool)) func(V, bool) {
	var fired atomic.Bool
	return func(v V, ok bool) {
		if fired.CompareAndSwap(false, true) {
			fn(v, ok)
		}
	}
}

var _ cache.Cache[int] = (*Cache[int])(nil)
