package reactive

import (
	"sync"

	"github.com/ValentinKolb/rKV/lib/fault"
	"github.com/ValentinKolb/rKV/lib/kvstore"
	"github.com/ValentinKolb/rKV/lib/logging"
	"github.com/ValentinKolb/rKV/lib/medium"
	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger(logging.NameReactive)

// Listener receives the value of a Value after every change.
type Listener[T any] func(value T)

type subscriber[T any] struct {
	id uint64
	fn Listener[T]
}

// Value is an in-memory value of type T mirrored to a kvstore.Store under a
// logical name.
//
// Set and Update persist before they notify. Changes made by other contexts
// of the medium replace the in-memory value and notify, but are never
// written back.
//
// Thread-safety: Value is safe for concurrent use. Listeners are called
// without holding internal locks. Concurrent Set calls on the same Value may
// reach the medium in a different order than they reached memory.
type Value[T any] struct {
	store   *kvstore.Store
	name    string
	initial T

	mu      sync.Mutex
	current T
	raw     string // encoded form of current, used to detect external changes
	pending int    // local writes not yet persisted
	stale   bool   // an external change arrived while writes were pending
	subs    []subscriber[T]
	nextID  uint64
	unwatch func()
}

// New reads name from the store (falling back to initial on any failure) and
// starts listening for external changes.
func New[T any](store *kvstore.Store, name string, initial T) *Value[T] {
	v := &Value[T]{
		store:   store,
		name:    name,
		initial: initial,
	}
	v.current, v.raw = v.read()
	v.unwatch = store.Watch(name, v.onExternal)
	return v
}

// Name returns the logical name the value is stored under.
func (v *Value[T]) Name() string {
	return v.name
}

// Get returns the current in-memory value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Set replaces the value, persists it and notifies all listeners.
// A failed write is logged and does not prevent the notification.
func (v *Value[T]) Set(value T) {
	v.Update(func(T) T { return value })
}

// Update replaces the value with fn applied to the latest in-memory value.
// fn must not call methods of v.
func (v *Value[T]) Update(fn func(current T) T) {
	v.mu.Lock()
	next := fn(v.current)
	v.current = next
	v.raw = v.encode(next)
	v.pending++
	v.mu.Unlock()

	v.store.Set(v.name, next)
	v.notify(next)
	v.settle()
}

// settle finishes a local write. External changes deferred while writes were
// pending are reconciled with the store once the last write has landed.
func (v *Value[T]) settle() {
	v.mu.Lock()
	v.pending--
	if v.pending > 0 || !v.stale {
		v.mu.Unlock()
		return
	}
	v.stale = false
	next, changed := v.refreshLocked()
	v.mu.Unlock()

	if changed {
		v.notify(next)
	}
}

// Subscribe registers fn, calls it once with the current value and returns
// a function removing the registration. When the last listener is removed
// the external change listener is detached; the next Subscribe re-reads the
// store and attaches it again.
func (v *Value[T]) Subscribe(fn Listener[T]) (unsubscribe func()) {
	v.mu.Lock()
	if v.unwatch == nil {
		v.current, v.raw = v.read()
		v.unwatch = v.store.Watch(v.name, v.onExternal)
		plog.Debugf("re-attached external listener of %q", v.name)
	}
	id := v.nextID
	v.nextID++
	v.subs = append(v.subs, subscriber[T]{id: id, fn: fn})
	current := v.current
	v.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() { v.unsubscribe(id) })
	}
}

// Subscribers returns the number of registered listeners.
func (v *Value[T]) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

func (v *Value[T]) unsubscribe(id uint64) {
	var detach func()

	v.mu.Lock()
	for i, s := range v.subs {
		if s.id == id {
			v.subs = append(v.subs[:i:i], v.subs[i+1:]...)
			break
		}
	}
	if len(v.subs) == 0 && v.unwatch != nil {
		detach, v.unwatch = v.unwatch, nil
	}
	v.mu.Unlock()

	if detach != nil {
		detach()
		plog.Debugf("detached external listener of %q", v.name)
	}
}

// --------------------------------------------------------------------------
// External changes
// --------------------------------------------------------------------------

func (v *Value[T]) onExternal(medium.Event) {
	v.mu.Lock()
	if v.pending > 0 {
		// the store may not hold our own write yet
		v.stale = true
		v.mu.Unlock()
		return
	}
	next, changed := v.refreshLocked()
	v.mu.Unlock()

	if changed {
		plog.Debugf("%q changed in another context", v.name)
		v.notify(next)
	}
}

// refreshLocked re-reads the store and replaces the in-memory value if its
// representation differs. v.mu must be held.
func (v *Value[T]) refreshLocked() (T, bool) {
	next, raw := v.read()
	if raw == v.raw {
		return next, false
	}
	v.current, v.raw = next, raw
	return next, true
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// read loads the persisted value (or the initial one) and its encoding.
func (v *Value[T]) read() (T, string) {
	value := kvstore.Get(v.store, v.name, v.initial)
	return value, v.encode(value)
}

func (v *Value[T]) encode(value T) string {
	return fault.InMute(v.store.Boundary(), func() (string, error) {
		return v.store.Encode(value)
	}, nil)
}

func (v *Value[T]) notify(value T) {
	v.mu.Lock()
	subs := make([]subscriber[T], len(v.subs))
	copy(subs, v.subs)
	v.mu.Unlock()

	for _, s := range subs {
		s.fn(value)
	}
}
