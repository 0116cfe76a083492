package cache

import "context"

// Load issues c.Get and waits for the result or for ctx to be done.
// Cancelling ctx abandons the wait only; the lookup itself still completes.
func Load[V any](ctx context.Context, c Cache[V], key string) (V, bool, error) {
	type result struct {
		v  V
		ok bool
	}
	ch := make(chan result, 1)
	c.Get(key, func(v V, ok bool) { ch <- result{v, ok} })

	select {
	case r := <-ch:
		return r.v, r.ok, nil
	case <-ctx.Done():
		var zero V
		return zero, false, ctx.Err()
	}
}

// Store issues c.Set and waits for its completion or for ctx to be done.
func Store[V any](ctx context.Context, c Cache[V], key string, v V) error {
	return wait(ctx, func(done func()) { c.Set(key, v, done) })
}

// Delete issues c.Remove and waits for its completion or for ctx to be done.
func Delete[V any](ctx context.Context, c Cache[V], key string) error {
	return wait(ctx, func(done func()) { c.Remove(key, done) })
}

// Purge issues c.Clear and waits for its completion or for ctx to be done.
func Purge[V any](ctx context.Context, c Cache[V]) error {
	return wait(ctx, c.Clear)
}

func wait(ctx context.Context, op func(done func())) error {
	ch := make(chan struct{}, 1)
	op(func() { ch <- struct{}{} })

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
