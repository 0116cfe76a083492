package disk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync/atomic"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/IvanBrykalov/tiercache/cache"
	"github.com/IvanBrykalov/tiercache/codec"
	"github.com/IvanBrykalov/tiercache/internal/lane"
	"github.com/IvanBrykalov/tiercache/internal/singleflight"
)

const filePerm = 0o644

// Cache is a disk-backed tier. It implements cache.Cache.
type Cache[V any] struct {
	fs    billy.Filesystem
	dir   string
	codec codec.Codec[V]

	lane   *lane.Lane
	reads  singleflight.Group[lookup[V]]
	closed atomic.Bool

	log     logrus.FieldLogger
	metrics cache.Metrics
}

type lookup[V any] struct {
	v  V
	ok bool
}

// New opens a tier rooted at dir, creating the directory (and parents) if
// needed. It fails only when dir cannot be created or exists and is not a
// directory.
func New[V any](dir string, c codec.Codec[V], opts ...Option) (*Cache[V], error) {
	if dir == "" {
		return nil, errors.New("disk: directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("disk: create directory %q: %w", dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("disk: stat directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("disk: %q is not a directory", dir)
	}

	d := NewFS(osfs.New(dir, osfs.WithBoundOS()), c, opts...)
	d.dir = dir
	return d, nil
}

// NewFS builds a tier over an existing filesystem; entries live at its root.
// Use osfs for real directories and memfs in tests.
func NewFS[V any](fsys billy.Filesystem, c codec.Codec[V], opts ...Option) *Cache[V] {
	o := buildOptions(opts)
	return &Cache[V]{
		fs:      fsys,
		dir:     fsys.Root(),
		codec:   c,
		lane:    lane.New(o.maxReaders),
		log:     o.logger.WithField("tier", "disk"),
		metrics: o.metrics,
	}
}

// Dir returns the root directory.
func (c *Cache[V]) Dir() string { return c.dir }

// Close waits for queued operations and stops the tier. Operations issued
// afterwards complete immediately: Get reports a miss, mutations do nothing.
// Closing twice returns cache.ErrClosed.
func (c *Cache[V]) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return cache.ErrClosed
	}
	c.lane.Close()
	return nil
}

// Get implements cache.Cache.
func (c *Cache[V]) Get(key string, done func(v V, ok bool)) {
	var zero V
	name, err := c.fileName(cache.OpGet, key)
	if err != nil {
		c.metrics.Miss()
		cache.Complete(done, zero, false)
		return
	}

	submitted := c.lane.Go(func() func() {
		r := c.read(name)
		if r.ok {
			c.metrics.Hit()
		} else {
			c.metrics.Miss()
		}
		if done == nil {
			return nil
		}
		return func() { done(r.v, r.ok) }
	})
	if !submitted {
		cache.Complete(done, zero, false)
	}
}

// Set implements cache.Cache. The value is written to a temp file which then
// replaces the current entry.
func (c *Cache[V]) Set(key string, v V, done func()) {
	name, err := c.fileName(cache.OpSet, key)
	if err != nil {
		cache.Done(done)
		return
	}
	c.exclusive(done, func() { c.write(name, v) })
}

// Remove implements cache.Cache.
func (c *Cache[V]) Remove(key string, done func()) {
	name, err := c.fileName(cache.OpRemove, key)
	if err != nil {
		cache.Done(done)
		return
	}
	c.exclusive(done, func() {
		if err := util.RemoveAll(c.fs, name); err != nil {
			c.fault(cache.OpRemove, name, err)
		}
	})
}

// Clear implements cache.Cache. Every direct child of the root is deleted,
// directories included.
func (c *Cache[V]) Clear(done func()) {
	c.exclusive(done, c.clear)
}

// Keys lists the keys currently stored, sorted. It runs as a read and done
// must not be nil. A closed tier reports no keys.
func (c *Cache[V]) Keys(done func(keys []string)) {
	submitted := c.lane.Go(func() func() {
		keys := c.keys()
		return func() { done(keys) }
	})
	if !submitted {
		done(nil)
	}
}

// -------------------- internals --------------------

func (c *Cache[V]) exclusive(done func(), fn func()) {
	submitted := c.lane.Exclusive(func() func() {
		fn()
		return done
	})
	if !submitted {
		cache.Done(done)
	}
}

func (c *Cache[V]) fileName(op cache.Op, key string) (string, error) {
	name, err := fileName(key)
	if err != nil {
		c.log.WithFields(logrus.Fields{"action": op.String(), "key": key}).Debug(err.Error())
	}
	return name, err
}

// read loads name, coalescing concurrent reads of the same file. Reads never
// overlap a write, so a joined result is as fresh as a private one.
func (c *Cache[V]) read(name string) lookup[V] {
	r, _, _ := c.reads.Do(context.Background(), name, func() (lookup[V], error) {
		return c.load(name), nil
	})
	return r
}

func (c *Cache[V]) load(name string) lookup[V] {
	info, err := c.fs.Stat(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.fault(cache.OpGet, name, err)
		}
		return lookup[V]{}
	}
	if info.IsDir() {
		return lookup[V]{}
	}

	b, err := util.ReadFile(c.fs, name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.fault(cache.OpGet, name, err)
		}
		return lookup[V]{}
	}
	v, err := c.codec.Decode(b)
	if err != nil {
		c.fault(cache.OpGet, name, err)
		return lookup[V]{}
	}
	return lookup[V]{v: v, ok: true}
}

func (c *Cache[V]) write(name string, v V) {
	b, err := c.codec.Encode(v)
	if err != nil {
		c.fault(cache.OpSet, name, err)
		return
	}

	tmp := tempPrefix + uuid.NewString()
	if err := util.WriteFile(c.fs, tmp, b, filePerm); err != nil {
		_ = c.fs.Remove(tmp)
		c.fault(cache.OpSet, name, fmt.Errorf("write temp file: %w", err))
		return
	}
	if err := util.RemoveAll(c.fs, name); err != nil {
		_ = c.fs.Remove(tmp)
		c.fault(cache.OpSet, name, fmt.Errorf("remove previous entry: %w", err))
		return
	}
	if err := c.fs.Rename(tmp, name); err != nil {
		_ = c.fs.Remove(tmp)
		c.fault(cache.OpSet, name, fmt.Errorf("rename temp file: %w", err))
	}
}

func (c *Cache[V]) clear() {
	infos, err := c.fs.ReadDir(".")
	if err != nil {
		// Nothing we can enumerate, nothing to clear.
		if !errors.Is(err, fs.ErrNotExist) {
			c.fault(cache.OpClear, ".", err)
		}
		return
	}
	failed := false
	for _, info := range infos {
		if err := util.RemoveAll(c.fs, info.Name()); err != nil {
			c.fault(cache.OpClear, info.Name(), err)
			failed = true
			continue
		}
		c.metrics.Evict(cache.EvictClear)
	}
	if !failed {
		c.metrics.Size(0)
	}
}

func (c *Cache[V]) keys() []string {
	infos, err := c.fs.ReadDir(".")
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		if k, ok := keyOf(info.Name()); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (c *Cache[V]) fault(op cache.Op, name string, err error) {
	c.metrics.Fault(op)
	c.log.WithFields(logrus.Fields{
		"action": op.String(),
		"path":   name,
	}).Warn(err.Error())
}

var _ cache.Cache[int] = (*Cache[int])(nil)
