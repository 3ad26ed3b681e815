package collection

import (
	"slices"

	"github.com/ValentinKolb/rKV/lib/codec"
	"github.com/ValentinKolb/rKV/lib/fault"
	"github.com/ValentinKolb/rKV/lib/kvstore"
	"github.com/ValentinKolb/rKV/lib/logging"
	"github.com/ValentinKolb/rKV/lib/reactive"
	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger(logging.NameCollection)

// Entity is a record with a stable identity within its collection.
type Entity[ID comparable] interface {
	EntityID() ID
}

// Changes is a partial entity keyed by JSON field name.
type Changes map[string]any

// Cloner is implemented by entities sharing memory between copies (maps,
// pointers). Edit merges into the clone so earlier lists stay unchanged.
type Cloner[E any] interface {
	Clone() E
}

// Store is a list of entities persisted as one reactive value.
//
// Every mutation is a read-modify-write of the latest in-memory list, is
// persisted and then notified to all subscribers. Lists passed to
// subscribers and returned by All must be treated as read-only.
type Store[E Entity[ID], ID comparable] struct {
	value    *reactive.Value[[]E]
	boundary *fault.Boundary
	merger   codec.ICodec
}

// New creates a collection persisted under name in store.
func New[E Entity[ID], ID comparable](store *kvstore.Store, name string) *Store[E, ID] {
	return wrap[E, ID](reactive.New(store, name, []E{}), store.Boundary())
}

// NewShared creates a collection on the Value registered under name, so all
// collections of the same name in a process share one list.
func NewShared[E Entity[ID], ID comparable](reg *reactive.Registry, name string) (*Store[E, ID], error) {
	v, err := reactive.Shared(reg, name, []E{})
	if err != nil {
		return nil, err
	}
	return wrap[E, ID](v, reg.Store().Boundary()), nil
}

func wrap[E Entity[ID], ID comparable](v *reactive.Value[[]E], b *fault.Boundary) *Store[E, ID] {
	return &Store[E, ID]{
		value:    v,
		boundary: b,
		merger:   codec.NewJSONCodec(),
	}
}

// Name returns the logical name the collection is stored under.
func (s *Store[E, ID]) Name() string {
	return s.value.Name()
}

// Subscribe registers fn for every change of the list. fn is called once
// immediately with the current list.
func (s *Store[E, ID]) Subscribe(fn reactive.Listener[[]E]) (unsubscribe func()) {
	return s.value.Subscribe(fn)
}

// --------------------------------------------------------------------------
// Mutations
// --------------------------------------------------------------------------

// Add appends e. Entities with the same identity are not replaced.
func (s *Store[E, ID]) Add(e E) {
	s.value.Update(func(list []E) []E {
		return append(slices.Clip(list), e)
	})
}

// Edit shallow-merges changes into every entity with identity id. If no
// entity matches, the list is persisted and notified unchanged.
func (s *Store[E, ID]) Edit(id ID, changes Changes) {
	s.EditFunc(id, func(e E) E {
		merged, err := s.merge(e, changes)
		if err != nil {
			s.boundary.Handle(err)
			return e
		}
		return merged
	})
}

// EditFunc replaces every entity with identity id by fn's result.
func (s *Store[E, ID]) EditFunc(id ID, fn func(E) E) {
	s.value.Update(func(list []E) []E {
		next := make([]E, len(list))
		for i, e := range list {
			if e.EntityID() == id {
				e = fn(e)
			}
			next[i] = e
		}
		return next
	})
}

// Remove deletes every entity with identity id.
func (s *Store[E, ID]) Remove(id ID) {
	s.value.Update(func(list []E) []E {
		next := make([]E, 0, len(list))
		for _, e := range list {
			if e.EntityID() != id {
				next = append(next, e)
			}
		}
		return next
	})
}

// Clear empties the collection.
func (s *Store[E, ID]) Clear() {
	s.value.Set([]E{})
}

// --------------------------------------------------------------------------
// Reads
// --------------------------------------------------------------------------

// Get returns the first entity with identity id.
func (s *Store[E, ID]) Get(id ID) (E, bool) {
	for _, e := range s.value.Get() {
		if e.EntityID() == id {
			return e, true
		}
	}
	var zero E
	return zero, false
}

// All returns the current list.
func (s *Store[E, ID]) All() []E {
	return s.value.Get()
}

// Len returns the number of entities.
func (s *Store[E, ID]) Len() int {
	return len(s.value.Get())
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// merge decodes changes onto a copy of e, so fields not named in changes
// keep their value even if they are not visible to JSON.
func (s *Store[E, ID]) merge(e E, changes Changes) (E, error) {
	patch, err := s.merger.Marshal(changes)
	if err != nil {
		return e, fault.Newf(fault.CodeDomain, "cannot encode changes for entity %v: %s", e.EntityID(), err)
	}

	merged := e
	if c, ok := any(e).(Cloner[E]); ok {
		merged = c.Clone()
	}
	if err := s.merger.Unmarshal(patch, &merged); err != nil {
		return e, fault.Newf(fault.CodeDomain, "cannot apply changes to entity %v: %s", e.EntityID(), err)
	}
	plog.Debugf("merged %d field(s) into entity %v of %q", len(changes), e.EntityID(), s.Name())
	return merged, nil
}
