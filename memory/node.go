package memory

// entry is an intrusive list element owned by a shard (head=MRU, tail=LRU).
type entry[V any] struct {
	key string
	val V

	prev, next *entry[V]

	// Absolute expiry in UnixNano; zero means no TTL.
	exp int64
}

// Key implements policy.Entry.
func (e *entry[V]) Key() string { return e.key }

// Value implements policy.Entry. Only touch the value under the shard lock.
func (e *entry[V]) Value() *V { return &e.val }
