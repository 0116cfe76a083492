// Package memory provides the in-process tier of tiercache: a sharded,
// bounded key/value store with pluggable eviction.
//
// Design
//
//   - Concurrency: keys are spread over a power-of-two number of shards, each
//     with its own mutex, map and intrusive MRU↔LRU list. Operations are O(1)
//     expected.
//
//   - Eviction: delegated to a policy.Policy (LRU by default, 2Q available).
//     MaxEntries, when set, is split evenly across shards and enforced by
//     trimming the LRU end.
//
//   - TTL: DefaultTTL or StoreWithTTL set per-entry deadlines; expiry is lazy
//     on read.
//
//   - Clearing: Purge (or Clear through the cache.Cache interface) empties
//     every shard; ClearOnSignal wires that to OS signals.
//
// As a tier, entries may silently disappear; callers that stack it in front
// of a disk tier get them back through fill-back.
//
// Usage
//
//	mem := memory.New(memory.Options[[]byte]{MaxEntries: 10_000})
//	mem.Store("a", []byte("1"))
//	if v, ok := mem.Load("a"); ok {
//	    _ = v
//	}
//
//	// 2Q, with probation ≈ 25% of a shard.
//	mem = memory.New(memory.Options[[]byte]{
//	    MaxEntries: 50_000,
//	    Shards:     8,
//	    Policy:     twoq.New[[]byte](50_000/8/4, 50_000/8/2),
//	})
package memory
