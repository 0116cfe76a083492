// Package prom exports tier and coordinator metrics to Prometheus.
package prom

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/tiercache/cache"
	"github.com/IvanBrykalov/tiercache/tiered"
)

// Adapter implements cache.Metrics and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits    prometheus.Counter
	misses  prometheus.Counter
	evicts  *prometheus.CounterVec
	faults  *prometheus.CounterVec
	sizeEnt prometheus.Gauge
}

// New constructs a Prometheus metrics adapter for one tier.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem (use the tier name as sub)
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Cache hits",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Cache misses",
			ConstLabels: constLabels,
		}),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "evictions_total",
				Help:        "Cache evictions by reason",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		faults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "faults_total",
				Help:        "Storage failures swallowed by the tier, by operation",
				ConstLabels: constLabels,
			},
			[]string{"op"},
		),
		sizeEnt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_entries",
			Help:        "Number of resident entries",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.evicts, a.faults, a.sizeEnt)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Evict increments the eviction counter with a reason label.
func (a *Adapter) Evict(r cache.EvictReason) {
	a.evicts.WithLabelValues(r.String()).Inc()
}

// Size updates the resident entries gauge.
func (a *Adapter) Size(entries int) { a.sizeEnt.Set(float64(entries)) }

// Fault increments the fault counter with an op label.
func (a *Adapter) Fault(op cache.Op) {
	a.faults.WithLabelValues(op.String()).Inc()
}

// TieredAdapter implements tiered.Metrics.
type TieredAdapter struct {
	hits   *prometheus.CounterVec
	misses prometheus.Counter
	fills  *prometheus.CounterVec
}

// NewTiered constructs a Prometheus adapter for a coordinator. Arguments
// follow New.
func NewTiered(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *TieredAdapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &TieredAdapter{
		hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "tier_hits_total",
				Help:        "Lookups served, by tier index",
				ConstLabels: constLabels,
			},
			[]string{"tier"},
		),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Lookups no tier could serve",
			ConstLabels: constLabels,
		}),
		fills: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "fills_total",
				Help:        "Fill-back writes, by tier index",
				ConstLabels: constLabels,
			},
			[]string{"tier"},
		),
	}
	reg.MustRegister(a.hits, a.misses, a.fills)
	return a
}

// TierHit increments the hit counter of tier.
func (a *TieredAdapter) TierHit(tier int) { a.hits.WithLabelValues(strconv.Itoa(tier)).Inc() }

// Miss increments the miss counter.
func (a *TieredAdapter) Miss() { a.misses.Inc() }

// Fill increments the fill-back counter of tier.
func (a *TieredAdapter) Fill(tier int) { a.fills.WithLabelValues(strconv.Itoa(tier)).Inc() }

// Compile-time checks.
var (
	_ cache.Metrics  = (*Adapter)(nil)
	_ tiered.Metrics = (*TieredAdapter)(nil)
)
