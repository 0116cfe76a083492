// Package twoq implements the 2Q eviction policy, which keeps one-shot scans
// from flushing frequently used entries out of a memory tier.
package twoq

import (
	"container/list"

	"github.com/IvanBrykalov/tiercache/policy"
)

// twoQ splits residents into two classes:
//
//   - probation (A1in): first-time entries, bounded by capIn, FIFO-ordered
//     in its own list;
//   - protected (Am): entries that were read again while on probation,
//     ordered by the shard's recency list.
//
// Keys dropped from probation are remembered in a ghost list (A1out) so a
// quick re-admission goes straight to the protected class.
//
// All methods run under the shard lock.
type twoQ[V any] struct {
	h policy.Hooks[V]

	capIn    int
	capGhost int

	probation *list.List // MRU at Front
	onProb    map[policy.Entry[V]]*list.Element

	ghosts  *list.List // of string keys, MRU at Front
	ghostOf map[string]*list.Element
}

type factory[V any] struct {
	capIn    int
	capGhost int
}

// New returns a 2Q policy factory with per-shard probation and ghost sizes.
// Reasonable choices: capIn ≈ 25% of the shard limit, capGhost ≈ 50–100%.
func New[V any](capIn, capGhost int) policy.Policy[V] {
	return factory[V]{capIn: max(capIn, 1), capGhost: max(capGhost, 1)}
}

func (f factory[V]) New(h policy.Hooks[V]) policy.ShardPolicy[V] {
	q := &twoQ[V]{h: h, capIn: f.capIn, capGhost: f.capGhost}
	q.OnReset()
	return q
}

// OnAdd admits remembered keys directly into the protected class; everything
// else goes on probation. A full probation queue nominates its oldest entry.
func (q *twoQ[V]) OnAdd(e policy.Entry[V]) policy.Entry[V] {
	q.h.PushFront(e)

	if g, ok := q.ghostOf[e.Key()]; ok {
		q.ghosts.Remove(g)
		delete(q.ghostOf, e.Key())
		return nil
	}

	q.onProb[e] = q.probation.PushFront(e)
	if q.probation.Len() > q.capIn {
		return q.probation.Back().Value.(policy.Entry[V])
	}
	return nil
}

// OnGet graduates a probation entry to protected and refreshes its recency.
func (q *twoQ[V]) OnGet(e policy.Entry[V]) {
	if el, ok := q.onProb[e]; ok {
		q.probation.Remove(el)
		delete(q.onProb, e)
	}
	q.h.MoveToFront(e)
}

func (q *twoQ[V]) OnUpdate(e policy.Entry[V]) { q.OnGet(e) }

// OnRemove turns a departing probation entry into a ghost. Protected entries
// leave no trace.
func (q *twoQ[V]) OnRemove(e policy.Entry[V]) {
	el, ok := q.onProb[e]
	if !ok {
		return
	}
	q.probation.Remove(el)
	delete(q.onProb, e)

	k := e.Key()
	if old, ok := q.ghostOf[k]; ok {
		q.ghosts.Remove(old)
	}
	q.ghostOf[k] = q.ghosts.PushFront(k)

	for q.ghosts.Len() > q.capGhost {
		tail := q.ghosts.Back()
		delete(q.ghostOf, tail.Value.(string))
		q.ghosts.Remove(tail)
	}
}

// OnReset forgets probation membership and ghosts.
func (q *twoQ[V]) OnReset() {
	q.probation = list.New()
	q.onProb = make(map[policy.Entry[V]]*list.Element)
	q.ghosts = list.New()
	q.ghostOf = make(map[string]*list.Element)
}
