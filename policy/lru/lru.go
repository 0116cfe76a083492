// Package lru implements the least-recently-used eviction policy.
package lru

import "github.com/IvanBrykalov/tiercache/policy"

// lru is a move-to-front policy. It never proposes evictions itself: the
// shard trims the list tail when it exceeds its entry limit.
type lru[V any] struct {
	h policy.Hooks[V]
}

type factory[V any] struct{}

// New returns a Policy that builds one LRU instance per shard.
func New[V any]() policy.Policy[V] { return factory[V]{} }

func (factory[V]) New(h policy.Hooks[V]) policy.ShardPolicy[V] {
	return &lru[V]{h: h}
}

// OnAdd links the new entry at MRU.
func (p *lru[V]) OnAdd(e policy.Entry[V]) policy.Entry[V] {
	p.h.PushFront(e)
	return nil
}

func (p *lru[V]) OnGet(e policy.Entry[V])    { p.h.MoveToFront(e) }
func (p *lru[V]) OnUpdate(e policy.Entry[V]) { p.h.MoveToFront(e) }
func (p *lru[V]) OnRemove(policy.Entry[V])   {}
func (p *lru[V]) OnReset()                   {}
