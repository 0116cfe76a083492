package memory

import (
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IvanBrykalov/tiercache/cache"
	"github.com/IvanBrykalov/tiercache/policy/twoq"
)

type fakeClock struct{ t int64 }

func (f *fakeClock) NowUnixNano() int64  { return f.t }
func (f *fakeClock) add(d time.Duration) { f.t += int64(d) }

// countingMetrics records hook calls.
type countingMetrics struct {
	hits, misses, evicts atomic.Int64
	size                 atomic.Int64
}

func (m *countingMetrics) Hit()                    { m.hits.Add(1) }
func (m *countingMetrics) Miss()                   { m.misses.Add(1) }
func (m *countingMetrics) Evict(cache.EvictReason) { m.evicts.Add(1) }
func (m *countingMetrics) Size(n int)              { m.size.Store(int64(n)) }
func (m *countingMetrics) Fault(cache.Op)          {}

// Store/Load/Delete semantics of the synchronous surface.
func TestMemory_StoreLoadDelete(t *testing.T) {
	t.Parallel()

	c := New(Options[int]{MaxEntries: 8})
	t.Cleanup(func() { _ = c.Close() })

	c.Store("a", 1)
	c.Store("a", 11)
	if v, ok := c.Load("a"); !ok || v != 11 {
		t.Fatalf("Load a want 11, got %v ok=%v", v, ok)
	}
	if !c.Delete("a") {
		t.Fatal("Delete a must be true")
	}
	if c.Delete("a") {
		t.Fatal("second Delete must be false")
	}
	if _, ok := c.Load("a"); ok {
		t.Fatal("a must be absent after Delete")
	}
}

// The cache.Cache surface completes synchronously and exactly once.
func TestMemory_CallbacksFireInline(t *testing.T) {
	t.Parallel()

	c := New(Options[string]{})
	var fired int

	c.Set("k", "v", func() { fired++ })
	c.Get("k", func(v string, ok bool) {
		fired++
		if !ok || v != "v" {
			t.Errorf("Get k want v, got %q ok=%v", v, ok)
		}
	})
	c.Remove("k", func() { fired++ })
	c.Get("k", func(_ string, ok bool) {
		fired++
		if ok {
			t.Error("k must be gone")
		}
	})
	c.Clear(func() { fired++ })
	c.Set("k", "v", nil)

	if fired != 5 {
		t.Fatalf("want 5 callbacks, got %d", fired)
	}
}

// Deterministic LRU eviction: single shard, small capacity.
// Reading "a" promotes it; inserting "c" evicts "b".
func TestMemory_EvictionLRU(t *testing.T) {
	t.Parallel()

	var evicted []string
	c := New(Options[int]{
		MaxEntries: 2,
		Shards:     1,
		OnEvict:    func(k string, _ int, _ cache.EvictReason) { evicted = append(evicted, k) },
	})

	c.Store("a", 1)
	c.Store("b", 2)
	if _, ok := c.Load("a"); !ok {
		t.Fatal("expect hit for a")
	}
	c.Store("c", 3)

	if _, ok := c.Load("b"); ok {
		t.Fatal("b must be evicted")
	}
	if _, ok := c.Load("a"); !ok {
		t.Fatal("a must survive (promoted)")
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Fatalf("want [b] evicted, got %v", evicted)
	}
	if c.Len() != 2 {
		t.Fatalf("Len want 2, got %d", c.Len())
	}
}

// MaxEntries == 0 means no limit.
func TestMemory_Unbounded(t *testing.T) {
	t.Parallel()

	c := New(Options[int]{Shards: 1})
	for i := 0; i < 5000; i++ {
		c.Store("k"+strconv.Itoa(i), i)
	}
	if c.Len() != 5000 {
		t.Fatalf("want 5000 resident, got %d", c.Len())
	}
}

// Per-entry TTL with a fake clock.
func TestMemory_TTL_FakeClock(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{}
	c := New(Options[string]{MaxEntries: 4, Clock: clk, DefaultTTL: time.Second})

	c.StoreWithTTL("x", "v", 100*time.Millisecond)
	c.Store("y", "w")
	if _, ok := c.Load("x"); !ok {
		t.Fatal("fresh miss")
	}
	clk.add(200 * time.Millisecond)
	if _, ok := c.Load("x"); ok {
		t.Fatal("expired hit")
	}
	if _, ok := c.Load("y"); !ok {
		t.Fatal("y lives for DefaultTTL")
	}
	clk.add(time.Second)
	if _, ok := c.Load("y"); ok {
		t.Fatal("y must expire after DefaultTTL")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entries must be dropped, Len=%d", c.Len())
	}
}

// Purge empties every shard and reports EvictClear.
func TestMemory_Purge(t *testing.T) {
	t.Parallel()

	m := &countingMetrics{}
	c := New(Options[int]{MaxEntries: 64, Shards: 4, Metrics: m})
	for i, k := range []string{"a", "b", "c", "d", "e"} {
		c.Store(k, i)
	}
	if m.size.Load() != 5 {
		t.Fatalf("size gauge want 5, got %d", m.size.Load())
	}

	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("Len after Purge = %d", c.Len())
	}
	if m.evicts.Load() != 5 || m.size.Load() != 0 {
		t.Fatalf("want 5 evictions and size 0, got %d / %d", m.evicts.Load(), m.size.Load())
	}
	if _, ok := c.Load("a"); ok {
		t.Fatal("a must be gone")
	}
	c.Store("a", 1)
	if v, ok := c.Load("a"); !ok || v != 1 {
		t.Fatal("tier must be usable after Purge")
	}
}

// 2Q keeps re-read entries when a scan floods probation.
func TestMemory_TwoQResistsScan(t *testing.T) {
	t.Parallel()

	c := New(Options[int]{
		MaxEntries: 4,
		Shards:     1,
		Policy:     twoq.New[int](1, 4),
	})

	c.Store("hot", 1)
	c.Load("hot") // graduate to protected
	for _, k := range []string{"s1", "s2", "s3", "s4", "s5"} {
		c.Store(k, 0)
	}
	if _, ok := c.Load("hot"); !ok {
		t.Fatal("hot entry must survive a scan under 2Q")
	}
}

// Hit/miss hooks.
func TestMemory_Metrics(t *testing.T) {
	t.Parallel()

	m := &countingMetrics{}
	c := New(Options[int]{Metrics: m})
	c.Store("a", 1)
	c.Load("a")
	c.Load("b")

	if m.hits.Load() != 1 || m.misses.Load() != 1 {
		t.Fatalf("want 1 hit / 1 miss, got %d / %d", m.hits.Load(), m.misses.Load())
	}
}

// A closed tier misses and ignores writes.
func TestMemory_Closed(t *testing.T) {
	t.Parallel()

	c := New(Options[int]{})
	c.Store("a", 1)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); !errors.Is(err, cache.ErrClosed) {
		t.Fatalf("second Close: got %v, want ErrClosed", err)
	}

	if _, ok := c.Load("a"); ok {
		t.Fatal("closed tier must miss")
	}
	c.Store("b", 2)
	if c.Delete("a") {
		t.Fatal("closed tier must ignore Delete")
	}
}
