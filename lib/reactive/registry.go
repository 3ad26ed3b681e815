package reactive

import (
	"github.com/ValentinKolb/rKV/lib/fault"
	"github.com/ValentinKolb/rKV/lib/kvstore"
	"github.com/puzpuzpuz/xsync/v3"
)

// Registry is the single registration point of Values bound to one store.
// It guarantees at most one Value per logical name.
type Registry struct {
	store  *kvstore.Store
	values *xsync.MapOf[string, any]
}

// NewRegistry creates an empty registry for store.
func NewRegistry(store *kvstore.Store) *Registry {
	return &Registry{
		store:  store,
		values: xsync.NewMapOf[string, any](),
	}
}

// Store returns the store all values of the registry are bound to.
func (r *Registry) Store() *kvstore.Store {
	return r.store
}

// Names returns the names of all registered values, in no particular order.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.values.Size())
	r.values.Range(func(name string, _ any) bool {
		names = append(names, name)
		return true
	})
	return names
}

// Shared returns the Value registered under name, creating it with initial
// on first use. Later calls ignore initial. Requesting an existing name with
// a different type fails with fault.CodeDomain.
func Shared[T any](r *Registry, name string, initial T) (*Value[T], error) {
	entry, _ := r.values.LoadOrCompute(name, func() any {
		return New(r.store, name, initial)
	})

	v, ok := entry.(*Value[T])
	if !ok {
		return nil, fault.Newf(fault.CodeDomain, "value %q is registered with type %T", name, entry)
	}
	return v, nil
}
