package prom

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/tiercache/cache"
	"github.com/IvanBrykalov/tiercache/memory"
)

func TestAdapter_WiredIntoMemoryTier(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := New(reg, "tiercache", "memory", nil)

	c := memory.New(memory.Options[int]{MaxEntries: 1, Shards: 1, Metrics: a})
	c.Store("a", 1)
	c.Load("a")
	c.Load("b")
	c.Store("b", 2) // evicts a
	a.Fault(cache.OpGet)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.misses))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.evicts.WithLabelValues("capacity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.faults.WithLabelValues("get")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.sizeEnt))

	c.Purge()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.evicts.WithLabelValues("clear")))
	assert.Equal(t, 0.0, testutil.ToFloat64(a.sizeEnt))
}

func TestTieredAdapter(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewTiered(reg, "tiercache", "tiered", prometheus.Labels{"app": "test"})

	a.TierHit(1)
	a.TierHit(1)
	a.Fill(0)
	a.Miss()

	expected := `
# HELP tiercache_tiered_fills_total Fill-back writes, by tier index
# TYPE tiercache_tiered_fills_total counter
tiercache_tiered_fills_total{app="test",tier="0"} 1
# HELP tiercache_tiered_tier_hits_total Lookups served, by tier index
# TYPE tiercache_tiered_tier_hits_total counter
tiercache_tiered_tier_hits_total{app="test",tier="1"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"tiercache_tiered_fills_total", "tiercache_tiered_tier_hits_total"))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.misses))
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg, "tiercache", "disk", nil)
	assert.Panics(t, func() { New(reg, "tiercache", "disk", nil) })
}
