// Package policy defines how a memory tier shard delegates eviction decisions.
package policy

// Entry is the minimal view of a resident cache entry a policy may inspect.
// Value returns a pointer so policies can tag entries in place.
type Entry[V any] interface {
	Key() string
	Value() *V
}

// Hooks expose O(1) operations on a shard's recency list (head=MRU, tail=LRU).
// Implementations are provided by the shard.
//
// Concurrency: all hook calls happen under the shard lock.
// Hooks manage only the list; the shard owns the key->entry map.
type Hooks[V any] interface {
	// MoveToFront promotes the entry to MRU.
	MoveToFront(Entry[V])
	// PushFront links a newly admitted entry at MRU.
	PushFront(Entry[V])
	// Remove unlinks the entry from the list.
	Remove(Entry[V])
	// Back returns the current LRU entry (or nil if empty).
	Back() Entry[V]
	// Len returns the number of resident entries in the shard.
	Len() int
}

// ShardPolicy is a per-shard eviction policy bound to shard hooks.
// All methods are invoked under the shard lock.
//
//   - OnAdd may return an eviction candidate; the shard evicts it and then
//     calls OnRemove for it.
//   - OnGet/OnUpdate typically promote the entry.
//   - OnRemove lets the policy drop its own bookkeeping. The shard performs
//     the actual deletion.
//   - OnReset discards all policy state when the shard is cleared.
type ShardPolicy[V any] interface {
	OnAdd(Entry[V]) (evict Entry[V])
	OnGet(Entry[V])
	OnUpdate(Entry[V])
	OnRemove(Entry[V])
	OnReset()
}

// Policy creates shard-local policy instances.
type Policy[V any] interface {
	New(Hooks[V]) ShardPolicy[V]
}
