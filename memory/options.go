package memory

import (
	"time"

	"github.com/IvanBrykalov/tiercache/cache"
	"github.com/IvanBrykalov/tiercache/policy"
)

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// Options configures a memory tier. Zero values are safe; New applies:
//   - MaxEntries <= 0 => unbounded
//   - Shards <= 0     => auto (2×GOMAXPROCS, power of two, at most 256)
//   - nil Policy      => LRU
//   - nil Metrics     => cache.NoopMetrics
type Options[V any] struct {
	// MaxEntries is the optional entry count limit, split evenly across shards.
	MaxEntries int

	Shards int

	// Policy decides promotion and, for policies like 2Q, early eviction.
	Policy policy.Policy[V]

	// DefaultTTL applies to Set/Store (0 = entries never expire).
	DefaultTTL time.Duration

	// OnEvict runs under the shard lock for every eviction; keep it cheap.
	OnEvict func(key string, v V, reason cache.EvictReason)
	Metrics cache.Metrics

	// Clock overrides the time source (tests). Nil => time.Now().
	Clock Clock
}
