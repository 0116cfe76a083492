package cache

// Cache is the contract implemented by every storage tier and by the tiered
// coordinator. Keys are opaque strings compared for exact equality.
//
// Every method returns immediately and reports through its callback, which may
// run on any goroutine. Callbacks fire exactly once. Mutation callbacks are
// optional and may be nil.
//
// A Get on a key that is not present reports ok == false; tiers never report
// errors through this interface. Medium failures (I/O, decoding) are swallowed
// by the tier and look like a miss to the caller.
type Cache[V any] interface {
	// Get looks up key and calls done with the value and a presence flag.
	Get(key string, done func(v V, ok bool))

	// Set stores key→v and calls done once the write has been applied
	// (or given up on).
	Set(key string, v V, done func())

	// Remove deletes key if present. A missing key is not an error.
	Remove(key string, done func())

	// Clear drops every entry held by the cache.
	Clear(done func())
}

// Funcs is a type-erased Cache built from plain functions. It lets callers
// hold heterogeneous tier implementations behind one value and adapt ad-hoc
// stores (or test doubles) without declaring a type.
//
// A nil function field behaves like an empty tier: Get reports a miss and
// mutations complete immediately.
type Funcs[V any] struct {
	GetFunc    func(key string, done func(v V, ok bool))
	SetFunc    func(key string, v V, done func())
	RemoveFunc func(key string, done func())
	ClearFunc  func(done func())
}

// Erase wraps c into a Funcs handle. Calls pass straight through to c.
func Erase[V any](c Cache[V]) Funcs[V] {
	return Funcs[V]{
		GetFunc:    c.Get,
		SetFunc:    c.Set,
		RemoveFunc: c.Remove,
		ClearFunc:  c.Clear,
	}
}

// Get implements Cache.
func (f Funcs[V]) Get(key string, done func(v V, ok bool)) {
	if f.GetFunc == nil {
		var zero V
		Complete(done, zero, false)
		return
	}
	f.GetFunc(key, done)
}

// Set implements Cache.
func (f Funcs[V]) Set(key string, v V, done func()) {
	if f.SetFunc == nil {
		Done(done)
		return
	}
	f.SetFunc(key, v, done)
}

// Remove implements Cache.
func (f Funcs[V]) Remove(key string, done func()) {
	if f.RemoveFunc == nil {
		Done(done)
		return
	}
	f.RemoveFunc(key, done)
}

// Clear implements Cache.
func (f Funcs[V]) Clear(done func()) {
	if f.ClearFunc == nil {
		Done(done)
		return
	}
	f.ClearFunc(done)
}

// Done invokes an optional mutation callback.
func Done(done func()) {
	if done != nil {
		done()
	}
}

// Complete invokes an optional lookup callback.
func Complete[V any](done func(v V, ok bool), v V, ok bool) {
	if done != nil {
		done(v, ok)
	}
}

var _ Cache[int] = Funcs[int]{}
