package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapTier is a synchronous map-backed tier used to check pass-through.
type mapTier struct {
	m     map[string]int
	calls []string
}

func (t *mapTier) Get(key string, done func(int, bool)) {
	t.calls = append(t.calls, "get:"+key)
	v, ok := t.m[key]
	done(v, ok)
}

func (t *mapTier) Set(key string, v int, done func()) {
	t.calls = append(t.calls, "set:"+key)
	t.m[key] = v
	Done(done)
}

func (t *mapTier) Remove(key string, done func()) {
	t.calls = append(t.calls, "remove:"+key)
	delete(t.m, key)
	Done(done)
}

func (t *mapTier) Clear(done func()) {
	t.calls = append(t.calls, "clear")
	t.m = map[string]int{}
	Done(done)
}

func TestFuncs_ZeroValueIsEmptyTier(t *testing.T) {
	t.Parallel()

	var f Funcs[string]

	var got string
	var ok, fired bool
	f.Get("k", func(v string, found bool) { got, ok, fired = v, found, true })
	require.True(t, fired, "Get must complete")
	assert.False(t, ok)
	assert.Empty(t, got)

	n := 0
	f.Set("k", "v", func() { n++ })
	f.Remove("k", func() { n++ })
	f.Clear(func() { n++ })
	f.Set("k", "v", nil)
	assert.Equal(t, 3, n)
}

func TestErase_PassesThroughInOrder(t *testing.T) {
	t.Parallel()

	inner := &mapTier{m: map[string]int{}}
	h := Erase[int](inner)

	h.Set("a", 1, nil)
	h.Get("a", func(v int, ok bool) {
		assert.True(t, ok)
		assert.Equal(t, 1, v)
	})
	h.Remove("a", nil)
	h.Clear(nil)

	assert.Equal(t, []string{"set:a", "get:a", "remove:a", "clear"}, inner.calls)
}

func TestBlockingHelpers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := &mapTier{m: map[string]int{}}

	require.NoError(t, Store[int](ctx, c, "a", 7))
	v, ok, err := Load[int](ctx, c, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	require.NoError(t, Delete[int](ctx, c, "a"))
	_, ok, err = Load[int](ctx, c, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, Store[int](ctx, c, "b", 1))
	require.NoError(t, Purge[int](ctx, c))
	assert.Empty(t, c.m)
}

func TestLoad_ContextCancelStopsWaiting(t *testing.T) {
	t.Parallel()

	// A tier that never answers.
	stuck := Funcs[int]{GetFunc: func(string, func(int, bool)) {}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok, err := Load[int](ctx, stuck, "k")
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEnumStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ttl", EvictTTL.String())
	assert.Equal(t, "capacity", EvictCapacity.String())
	assert.Equal(t, "clear", EvictClear.String())
	assert.Equal(t, "policy", EvictPolicy.String())
	assert.Equal(t, "get", OpGet.String())
	assert.Equal(t, "set", OpSet.String())
	assert.Equal(t, "remove", OpRemove.String())
	assert.Equal(t, "clear", OpClear.String())
}
