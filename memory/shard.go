package memory

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/tiercache/cache"
	"github.com/IvanBrykalov/tiercache/policy"
)

// shard is an independent partition of the tier with its own lock, map and
// intrusive recency list (head=MRU, tail=LRU).
type shard[V any] struct {
	// ---- guarded by mu ----
	mu   sync.Mutex
	m    map[string]*entry[V]
	head *entry[V]
	tail *entry[V]
	len  int
	cap  int // 0 = unbounded

	pol policy.ShardPolicy[V]
	opt *Options[V]

	// resident is shared by all shards of a tier.
	resident *atomic.Int64
}

// preallocLimit caps the initial map size so large (or unbounded) limits do
// not reserve memory up front.
const preallocLimit = 1024

func newShard[V any](capacity int, opt *Options[V], resident *atomic.Int64) *shard[V] {
	s := &shard[V]{
		m:        make(map[string]*entry[V], min(max(capacity, 0), preallocLimit)),
		cap:      capacity,
		opt:      opt,
		resident: resident,
	}
	s.pol = opt.Policy.New(shardHooks[V]{s: s})
	return s
}

// Set inserts or updates key→v with an absolute expiry (0 = none).
func (s *shard[V]) Set(k string, v V, exp int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.m[k]; ok {
		e.val = v
		e.exp = exp
		s.pol.OnUpdate(e)
		return
	}

	e := &entry[V]{key: k, val: v, exp: exp}
	s.m[k] = e
	if victim := s.pol.OnAdd(e); victim != nil {
		s.evict(victim.(*entry[V]), cache.EvictPolicy)
	}
	s.trimLocked()
}

// Get returns the value and promotes the entry. Expired entries are evicted
// and reported as a miss.
func (s *shard[V]) Get(k string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.m[k]
	if ok && e.exp != 0 && s.now() > e.exp {
		s.evict(e, cache.EvictTTL)
		ok = false
	}
	if !ok {
		s.opt.Metrics.Miss()
		var zero V
		return zero, false
	}

	s.pol.OnGet(e)
	s.opt.Metrics.Hit()
	return e.val, true
}

// Remove deletes k. Explicit removals are not counted as evictions.
func (s *shard[V]) Remove(k string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.m[k]
	if !ok {
		return false
	}
	s.pol.OnRemove(e)
	s.unlink(e)
	delete(s.m, k)
	return true
}

// Clear drops every entry and resets policy state.
func (s *shard[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for e := s.head; e != nil; e = e.next {
		s.opt.Metrics.Evict(cache.EvictClear)
		if cb := s.opt.OnEvict; cb != nil {
			cb(e.key, e.val, cache.EvictClear)
		}
	}
	s.resident.Add(-int64(s.len))
	s.m = make(map[string]*entry[V], min(max(s.cap, 0), preallocLimit))
	s.head, s.tail, s.len = nil, nil, 0
	s.pol.OnReset()
}

func (s *shard[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.len
}

// -------------------- internals (mu held) --------------------

func (s *shard[V]) now() int64 {
	if s.opt.Clock != nil {
		return s.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

func (s *shard[V]) pushFront(e *entry[V]) {
	e.prev = nil
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
	s.len++
	s.resident.Add(1)
}

func (s *shard[V]) moveToFront(e *entry[V]) {
	if e == s.head {
		return
	}
	s.detach(e)
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *shard[V]) detach(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if s.head == e {
		s.head = e.next
	}
	if s.tail == e {
		s.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (s *shard[V]) unlink(e *entry[V]) {
	s.detach(e)
	s.len--
	s.resident.Add(-1)
}

func (s *shard[V]) evict(e *entry[V], reason cache.EvictReason) {
	s.pol.OnRemove(e)
	s.unlink(e)
	delete(s.m, e.key)
	s.opt.Metrics.Evict(reason)
	if cb := s.opt.OnEvict; cb != nil {
		cb(e.key, e.val, reason)
	}
}

// trimLocked evicts from the LRU end until the shard is within its limit.
func (s *shard[V]) trimLocked() {
	if s.cap <= 0 {
		return
	}
	for s.len > s.cap && s.tail != nil {
		s.evict(s.tail, cache.EvictCapacity)
	}
}

// -------------------- policy hooks --------------------

// shardHooks adapts the shard's list operations to policy.Hooks.
type shardHooks[V any] struct{ s *shard[V] }

func (h shardHooks[V]) MoveToFront(e policy.Entry[V]) { h.s.moveToFront(e.(*entry[V])) }
func (h shardHooks[V]) PushFront(e policy.Entry[V])   { h.s.pushFront(e.(*entry[V])) }
func (h shardHooks[V]) Remove(e policy.Entry[V])      { h.s.unlink(e.(*entry[V])) }
func (h shardHooks[V]) Back() policy.Entry[V] {
	if h.s.tail == nil {
		return nil
	}
	return h.s.tail
}
func (h shardHooks[V]) Len() int { return h.s.len }
