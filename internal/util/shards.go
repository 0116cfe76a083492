// Package util contains internal helpers for sharding string-keyed stores.
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import "runtime"

const (
	fnvOffset64 = 1469598103934665603
	fnvPrime64  = 1099511628211

	maxShards = 256
)

// HashString is 64-bit FNV-1a over the bytes of s, without allocating.
func HashString(s string) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime64
	}
	return h
}

// NextPow2 returns the smallest power of two >= x (1 for x <= 1).
// Results that would overflow are clamped to 1<<63.
func NextPow2(x uint64) uint64 {
	if x <= 1 {
		return 1
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	x++
	if x == 0 {
		return 1 << 63
	}
	return x
}

// ShardCount normalises a requested shard count to a power of two in
// [1..256]. A non-positive request picks 2×GOMAXPROCS.
func ShardCount(requested int) int {
	n := requested
	if n <= 0 {
		n = 2 * runtime.GOMAXPROCS(0)
	}
	n = int(NextPow2(uint64(n)))
	return min(n, maxShards)
}

// ShardIndex maps a hash onto one of n shards; n must be a power of two.
func ShardIndex(hash uint64, n int) int {
	return int(hash & uint64(n-1))
}
