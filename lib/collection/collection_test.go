package collection

import (
	"testing"

	"github.com/ValentinKolb/rKV/lib/fault"
	"github.com/ValentinKolb/rKV/lib/kvstore"
	"github.com/ValentinKolb/rKV/lib/logging"
	"github.com/ValentinKolb/rKV/lib/medium"
	"github.com/ValentinKolb/rKV/lib/medium/memory"
	"github.com/ValentinKolb/rKV/lib/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type place struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Note string `json:"note,omitempty"`
}

func (p place) EntityID() int { return p.ID }

func newStore(t *testing.T, m medium.IMedium) (*kvstore.Store, *logging.Recorder) {
	t.Helper()
	rec := &logging.Recorder{}
	b := fault.NewBoundary(fault.WithLogger(rec), fault.WithAlert(func(string) {}))
	return kvstore.New(m, kvstore.WithBoundary(b)), rec
}

func seeded(t *testing.T) (*Store[place, int], *kvstore.Store) {
	t.Helper()
	s, _ := newStore(t, memory.New())
	places := New[place, int](s, "places")
	places.Add(place{ID: 1, Name: "a"})
	places.Add(place{ID: 2, Name: "b"})
	return places, s
}

func TestCRUD(t *testing.T) {
	places, s := seeded(t)

	places.Edit(2, Changes{"name": "B"})
	assert.Equal(t, []place{{ID: 1, Name: "a"}, {ID: 2, Name: "B"}}, places.All())

	places.Remove(1)
	assert.Equal(t, []place{{ID: 2, Name: "B"}}, places.All())

	_, found := places.Get(1)
	assert.False(t, found)
	p, found := places.Get(2)
	assert.True(t, found)
	assert.Equal(t, "B", p.Name)

	places.Clear()
	assert.Equal(t, []place{}, places.All())
	assert.Zero(t, places.Len())

	raw, ok := s.Raw("places")
	require.True(t, ok)
	assert.Equal(t, "[]", raw)
}

func TestPersistedAcrossStores(t *testing.T) {
	places, s := seeded(t)
	places.Edit(1, Changes{"note": "corner"})

	reopened := New[place, int](s, "places")
	assert.Equal(t, []place{{ID: 1, Name: "a", Note: "corner"}, {ID: 2, Name: "b"}}, reopened.All())
}

func TestAddKeepsDuplicates(t *testing.T) {
	places, _ := seeded(t)
	places.Add(place{ID: 1, Name: "again"})

	assert.Equal(t, 3, places.Len())
	first, _ := places.Get(1)
	assert.Equal(t, "a", first.Name)

	places.Edit(1, Changes{"note": "dup"})
	for _, p := range places.All() {
		if p.ID == 1 {
			assert.Equal(t, "dup", p.Note)
		}
	}

	places.Remove(1)
	assert.Equal(t, []place{{ID: 2, Name: "b"}}, places.All())
}

func TestEditWithoutMatchStillNotifies(t *testing.T) {
	places, _ := seeded(t)

	var calls [][]place
	defer places.Subscribe(func(list []place) { calls = append(calls, list) })()

	places.Edit(99, Changes{"name": "ghost"})

	require.Len(t, calls, 2)
	assert.Equal(t, calls[0], calls[1])
}

func TestEditInvalidChangesKeepsEntity(t *testing.T) {
	s, rec := newStore(t, memory.New())
	places := New[place, int](s, "places")
	places.Add(place{ID: 1, Name: "a"})

	places.Edit(1, Changes{"name": 5})

	p, _ := places.Get(1)
	assert.Equal(t, "a", p.Name)
	assert.Equal(t, 2, rec.Count("ERROR"))
}

func TestEditFunc(t *testing.T) {
	places, _ := seeded(t)

	places.EditFunc(2, func(p place) place {
		p.Name += "!"
		return p
	})

	p, _ := places.Get(2)
	assert.Equal(t, "b!", p.Name)
}

func TestSnapshotsAreNotMutated(t *testing.T) {
	places, _ := seeded(t)
	before := places.All()

	places.Edit(1, Changes{"name": "changed"})
	places.Add(place{ID: 3, Name: "c"})
	places.Remove(2)

	assert.Equal(t, []place{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}, before)
}

func TestSubscribe(t *testing.T) {
	places, _ := seeded(t)

	var lengths []int
	unsubscribe := places.Subscribe(func(list []place) { lengths = append(lengths, len(list)) })

	places.Add(place{ID: 3})
	places.Remove(3)
	unsubscribe()
	places.Clear()

	assert.Equal(t, []int{2, 3, 2}, lengths)
}

func TestNewShared(t *testing.T) {
	s, _ := newStore(t, memory.New())
	reg := reactive.NewRegistry(s)

	a, err := NewShared[place, int](reg, "places")
	require.NoError(t, err)
	b, err := NewShared[place, int](reg, "places")
	require.NoError(t, err)

	a.Add(place{ID: 1, Name: "shared"})
	assert.Equal(t, 1, b.Len())

	_, err = NewShared[Record, string](reg, "places")
	assert.Equal(t, fault.CodeDomain, fault.CodeOf(err))
}

func TestCrossContext(t *testing.T) {
	origin := memory.NewOrigin()
	ctxB := origin.NewContext()
	storeA, _ := newStore(t, origin.NewContext())
	storeB, _ := newStore(t, ctxB)

	a := New[place, int](storeA, "places")
	b := New[place, int](storeB, "places")
	defer b.Subscribe(func([]place) {})()

	a.Add(place{ID: 1, Name: "remote"})

	p, found := b.Get(1)
	assert.True(t, found)
	assert.Equal(t, "remote", p.Name)
	assert.Zero(t, ctxB.Writes())
}

type ratedPlace struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Rating int    `json:"-"`
	visits int
}

func (p ratedPlace) EntityID() int { return p.ID }

func TestEditKeepsFieldsHiddenFromJSON(t *testing.T) {
	s, _ := newStore(t, memory.New())
	places := New[ratedPlace, int](s, "rated")
	places.Add(ratedPlace{ID: 1, Name: "a", Rating: 5, visits: 3})

	places.Edit(1, Changes{"name": "A"})

	p, found := places.Get(1)
	require.True(t, found)
	assert.Equal(t, ratedPlace{ID: 1, Name: "A", Rating: 5, visits: 3}, p)
}

func TestEditRecordDoesNotAliasSnapshot(t *testing.T) {
	s, _ := newStore(t, memory.New())
	records := New[Record, string](s, "records")
	records.Add(Record{"id": "r1", "name": "a", "city": "Ulm"})
	before := records.All()

	records.Edit("r1", Changes{"name": "A"})

	assert.Equal(t, "a", before[0]["name"])
	r, _ := records.Get("r1")
	assert.Equal(t, Record{"id": "r1", "name": "A", "city": "Ulm"}, r)
}
