// Package cache defines the capability shared by every tier of tiercache and
// by the tiered coordinator itself: an asynchronous get/set/remove/clear
// contract over string keys, generic in the value type.
//
// Implementations in this module:
//
//   - memory: sharded in-process store with pluggable eviction (LRU, 2Q).
//   - disk:   one file per key under a directory; concurrent reads,
//     exclusive writes.
//   - tiered: an ordered list of tiers presented as one Cache, with
//     read-through fill-back and fan-out mutations.
//
// The callback style lets tiers complete on whatever goroutine suits them.
// Load, Store, Delete and Purge wrap the callbacks for callers that prefer to
// block:
//
//	v, ok, err := cache.Load(ctx, c, "user:42")
//
// Funcs adapts plain functions (or any Cache via Erase) into a Cache value.
package cache
