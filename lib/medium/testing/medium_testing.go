package testing

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/lib/medium"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// OriginFactory prepares a fresh origin for one test and returns a function
// creating contexts on it. Implementations register their cleanup with t.
type OriginFactory func(t *testing.T) (newContext func() medium.IMedium)

// eventTimeout bounds how long a test waits for an asynchronous change event.
const eventTimeout = 5 * time.Second

// RunMediumTests runs the conformance suite for a medium.IMedium implementation.
func RunMediumTests(t *testing.T, name string, factory OriginFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory(t)())
		})

		t.Run("Remove", func(t *testing.T) {
			testRemove(t, factory(t)())
		})

		t.Run("Keys", func(t *testing.T) {
			testKeys(t, factory(t)())
		})

		t.Run("SpecialValues", func(t *testing.T) {
			testSpecialValues(t, factory(t)())
		})

		t.Run("SharedAcrossContexts", func(t *testing.T) {
			newContext := factory(t)
			testSharedAcrossContexts(t, newContext(), newContext())
		})

		t.Run("ExternalEvents", func(t *testing.T) {
			newContext := factory(t)
			testExternalEvents(t, newContext(), newContext())
		})

		t.Run("RemoveEvents", func(t *testing.T) {
			newContext := factory(t)
			testRemoveEvents(t, newContext(), newContext())
		})

		t.Run("CancelWatch", func(t *testing.T) {
			newContext := factory(t)
			testCancelWatch(t, newContext(), newContext())
		})

		t.Run("Close", func(t *testing.T) {
			testClose(t, factory(t)())
		})
	})
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// Recorder collects events delivered to a watcher.
type Recorder struct {
	mu     sync.Mutex
	events []medium.Event
}

// Record is the watch callback.
func (r *Recorder) Record(ev medium.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []medium.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]medium.Event(nil), r.events...)
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// WaitFor waits until an event matching match was recorded.
func (r *Recorder) WaitFor(t testing.TB, match func(medium.Event) bool) medium.Event {
	t.Helper()
	var found medium.Event
	require.Eventually(t, func() bool {
		for _, ev := range r.Events() {
			if match(ev) {
				found = ev
				return true
			}
		}
		return false
	}, eventTimeout, 5*time.Millisecond)
	return found
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, m medium.IMedium) {
	require.NoError(t, m.SetItem("test-key", "value-1"))

	value, found, err := m.GetItem("test-key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value-1", value)

	require.NoError(t, m.SetItem("test-key", "value-2"))
	value, found, err = m.GetItem("test-key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "value-2", value)

	_, found, err = m.GetItem("nonexistent-key")
	require.NoError(t, err)
	assert.False(t, found, "nonexistent key should not be found")
}

func testRemove(t *testing.T, m medium.IMedium) {
	require.NoError(t, m.SetItem("test-key", "value"))
	require.NoError(t, m.RemoveItem("test-key"))

	_, found, err := m.GetItem("test-key")
	require.NoError(t, err)
	assert.False(t, found, "removed key should not be found")

	assert.NoError(t, m.RemoveItem("test-key"), "removing a missing key is a no-op")
	assert.NoError(t, m.RemoveItem("never-set"))
}

func testKeys(t *testing.T, m medium.IMedium) {
	keys, err := m.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	want := []string{"a", "b/c", "cw-user_points", "with space"}
	for i, key := range want {
		require.NoError(t, m.SetItem(key, fmt.Sprintf("v%d", i)))
	}
	require.NoError(t, m.SetItem("removed", "x"))
	require.NoError(t, m.RemoveItem("removed"))

	keys, err = m.Keys()
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, want, keys)
}

func testSpecialValues(t *testing.T, m medium.IMedium) {
	values := map[string]string{
		"empty":     "",
		"multiline": "line-1\nline-2\n",
		"json":      `{"id":1,"name":"a"}`,
		"unicode":   "кофе с собой ☕",
		".dotted":   "hidden?",
	}
	for key, value := range values {
		require.NoError(t, m.SetItem(key, value))
	}
	for key, want := range values {
		got, found, err := m.GetItem(key)
		require.NoError(t, err)
		assert.True(t, found, "key %q should be found", key)
		assert.Equal(t, want, got, "value of %q", key)
	}
}

func testSharedAcrossContexts(t *testing.T, a, b medium.IMedium) {
	assert.NotEqual(t, a.Origin(), b.Origin(), "contexts must have distinct origins")

	require.NoError(t, a.SetItem("shared", "from-a"))
	value, found, err := b.GetItem("shared")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "from-a", value)

	require.NoError(t, b.RemoveItem("shared"))
	_, found, err = a.GetItem("shared")
	require.NoError(t, err)
	assert.False(t, found)
}

func testExternalEvents(t *testing.T, a, b medium.IMedium) {
	var recA, recB Recorder
	defer a.Watch(recA.Record)()
	defer b.Watch(recB.Record)()

	require.NoError(t, a.SetItem("watched", "v1"))

	ev := recB.WaitFor(t, func(ev medium.Event) bool { return ev.Key == "watched" })
	assert.Equal(t, "v1", ev.Value)
	assert.False(t, ev.Deleted)
	assert.Equal(t, a.Origin(), ev.Origin)

	// writes of a context are never reported back to itself
	require.NoError(t, b.SetItem("marker", "done"))
	recA.WaitFor(t, func(ev medium.Event) bool { return ev.Key == "marker" })
	for _, ev := range recA.Events() {
		assert.NotEqual(t, "watched", ev.Key, "context received its own write")
	}
	for _, ev := range recB.Events() {
		assert.NotEqual(t, "marker", ev.Key, "context received its own write")
	}
}

func testRemoveEvents(t *testing.T, a, b medium.IMedium) {
	require.NoError(t, a.SetItem("doomed", "v"))

	var recB Recorder
	defer b.Watch(recB.Record)()

	require.NoError(t, a.RemoveItem("doomed"))
	ev := recB.WaitFor(t, func(ev medium.Event) bool { return ev.Key == "doomed" && ev.Deleted })
	assert.Empty(t, ev.Value)
}

func testCancelWatch(t *testing.T, a, b medium.IMedium) {
	var recB, keepB Recorder
	cancel := b.Watch(recB.Record)
	defer b.Watch(keepB.Record)()

	require.NoError(t, a.SetItem("k", "1"))
	recB.WaitFor(t, func(ev medium.Event) bool { return ev.Key == "k" })

	cancel()
	cancel()

	require.NoError(t, a.SetItem("k", "2"))
	keepB.WaitFor(t, func(ev medium.Event) bool { return ev.Key == "k" && ev.Value == "2" })
	for _, ev := range recB.Events() {
		assert.NotEqual(t, "2", ev.Value, "cancelled watcher received an event")
	}
}

func testClose(t *testing.T, m medium.IMedium) {
	require.NoError(t, m.SetItem("k", "v"))
	require.NoError(t, m.Close())
	assert.NoError(t, m.Close(), "closing twice is safe")

	assert.ErrorIs(t, m.SetItem("k", "v2"), medium.ErrClosed)
	_, _, err := m.GetItem("k")
	assert.ErrorIs(t, err, medium.ErrClosed)
}
