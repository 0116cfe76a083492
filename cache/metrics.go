package cache

import "errors"

var (
	// ErrInvalidKey is reported (via logs and Metrics.Fault) when a tier
	// cannot map a key onto its storage, e.g. the empty key on disk.
	ErrInvalidKey = errors.New("cache: invalid key")

	// ErrClosed is returned by Close on a tier that is already closed.
	ErrClosed = errors.New("cache: closed")
)

// EvictReason explains why an entry left a tier without an explicit Remove.
type EvictReason int

const (
	// EvictPolicy means removed by the active eviction policy (e.g., LRU/2Q).
	EvictPolicy EvictReason = iota
	// EvictTTL means expired by TTL (lazy eviction on access).
	EvictTTL
	// EvictCapacity means removed to satisfy the entry count limit.
	EvictCapacity
	// EvictClear means dropped by Clear or an external clear trigger.
	EvictClear
)

func (r EvictReason) String() string {
	switch r {
	case EvictTTL:
		return "ttl"
	case EvictCapacity:
		return "capacity"
	case EvictClear:
		return "clear"
	default:
		return "policy"
	}
}

// Op names a Cache operation in metrics and logs.
type Op int

const (
	OpGet Op = iota
	OpSet
	OpRemove
	OpClear
)

func (o Op) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpRemove:
		return "remove"
	case OpClear:
		return "clear"
	default:
		return "get"
	}
}

// Metrics exposes tier-level observability hooks.
// Implementations must be safe for concurrent use.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int)
	// Fault records a medium failure the tier swallowed.
	Fault(op Op)
}

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// It is the default when no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()              {}
func (NoopMetrics) Miss()             {}
func (NoopMetrics) Evict(EvictReason) {}
func (NoopMetrics) Size(int)          {}
func (NoopMetrics) Fault(Op)          {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}
