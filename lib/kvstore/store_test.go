package kvstore

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ValentinKolb/rKV/lib/codec"
	"github.com/ValentinKolb/rKV/lib/fault"
	"github.com/ValentinKolb/rKV/lib/logging"
	"github.com/ValentinKolb/rKV/lib/medium"
	"github.com/ValentinKolb/rKV/lib/medium/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settings struct {
	Theme string `json:"theme"`
	Size  int    `json:"size"`
}

func newTestStore(t *testing.T, m medium.IMedium, opts ...Option) (*Store, *logging.Recorder) {
	t.Helper()
	rec := &logging.Recorder{}
	b := fault.NewBoundary(
		fault.WithLogger(rec),
		fault.WithAlert(func(string) { t.Errorf("unexpected alert") }),
	)
	return New(m, append([]Option{WithBoundary(b)}, opts...)...), rec
}

func TestRoundTrip(t *testing.T) {
	m := memory.New()
	s, rec := newTestStore(t, m)

	s.Set("settings", settings{Theme: "dark", Size: 3})
	s.Set("count", 42)
	s.Set("tags", []string{"a", "b"})

	// a fresh store on the same medium sees the same values
	fresh, _ := newTestStore(t, m)
	assert.Equal(t, settings{Theme: "dark", Size: 3}, Get(fresh, "settings", settings{}))
	assert.Equal(t, 42, Get(fresh, "count", 0))
	assert.Equal(t, []string{"a", "b"}, Get[[]string](fresh, "tags", nil))

	raw, ok := fresh.Raw("count")
	require.True(t, ok)
	assert.Equal(t, "42", raw)
	assert.Empty(t, rec.Lines())
}

func TestGetFallback(t *testing.T) {
	m := memory.New()
	s, rec := newTestStore(t, m)

	t.Run("Missing", func(t *testing.T) {
		assert.Equal(t, "default", Get(s, "missing", "default"))
	})

	t.Run("Corrupted", func(t *testing.T) {
		require.NoError(t, m.SetItem(s.Key("broken"), "{not json"))
		assert.Equal(t, 7, Get(s, "broken", 7))
	})

	t.Run("Empty", func(t *testing.T) {
		require.NoError(t, m.SetItem(s.Key("empty"), ""))
		assert.Equal(t, "x", Get(s, "empty", "x"))
		_, ok := s.Raw("empty")
		assert.False(t, ok)
	})

	t.Run("Null", func(t *testing.T) {
		require.NoError(t, m.SetItem(s.Key("zoom"), "null"))
		assert.Equal(t, 16, Get(s, "zoom", 16))
		assert.Equal(t, []string{"fallback"}, Get(s, "zoom", []string{"fallback"}))

		var out int
		found, err := s.Load("zoom", &out)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("ReadFailure", func(t *testing.T) {
		s.Set("ok", 1)
		m.FailReads(errors.New("unavailable"))
		defer m.FailReads(nil)
		assert.Equal(t, -1, Get(s, "ok", -1))
		assert.Empty(t, s.Names())
	})

	// none of the above is worth a log line
	assert.Empty(t, rec.Lines())
}

func TestLoad(t *testing.T) {
	m := memory.New()
	s, _ := newTestStore(t, m)

	var out settings
	found, err := s.Load("settings", &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, m.SetItem(s.Key("settings"), "[1,2]"))
	found, err = s.Load("settings", &out)
	assert.False(t, found)
	assert.Equal(t, fault.CodeSerialization, fault.CodeOf(err))
}

func TestWriteFailureIsContained(t *testing.T) {
	m := memory.New()
	s, rec := newTestStore(t, m)
	m.FailWrites(errors.New("quota exceeded"))

	assert.NotPanics(t, func() {
		s.Set("big", "value")
		s.Remove("big")
		s.Clear()
	})
	assert.NotZero(t, rec.Count("ERROR"))

	err := s.Put("big", "value")
	require.Error(t, err)
	assert.Equal(t, fault.CodeStorageUnavailable, fault.CodeOf(err))
	assert.Equal(t, "quota exceeded", err.Error())

	m.FailWrites(nil)
	require.NoError(t, s.Put("big", "value"))
	assert.Equal(t, "value", Get(s, "big", ""))
}

func TestUnencodableValue(t *testing.T) {
	s, rec := newTestStore(t, memory.New())

	err := s.Put("fn", func() {})
	assert.Equal(t, fault.CodeSerialization, fault.CodeOf(err))

	s.Set("ch", make(chan int))
	assert.Equal(t, 2, rec.Count("ERROR"))
	_, ok := s.Raw("ch")
	assert.False(t, ok)
}

func TestClearOnlyTouchesPrefix(t *testing.T) {
	m := memory.New()
	s, _ := newTestStore(t, m)
	require.NoError(t, m.SetItem("foreign", "keep"))
	require.NoError(t, m.SetItem("cw", "keep"))

	s.Set("a", 1)
	s.Set("b", 2)
	assert.Equal(t, []string{"a", "b"}, s.Names())

	s.Clear()

	assert.Empty(t, s.Names())
	v, found, err := m.GetItem("foreign")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "keep", v)
	_, found, _ = m.GetItem("cw")
	assert.True(t, found)
}

func TestRemove(t *testing.T) {
	s, _ := newTestStore(t, memory.New())

	s.Set("a", 1)
	s.Remove("a")
	s.Remove("never-existed")

	assert.Equal(t, 0, Get(s, "a", 0))
	assert.Empty(t, s.Names())
}

func TestPrefixAndCodecOptions(t *testing.T) {
	m := memory.New()
	s, _ := newTestStore(t, m, WithPrefix("app:"), WithCodec(codec.NewGOBCodec()))

	s.Set("n", settings{Theme: "light"})

	assert.Equal(t, "app:n", s.Key("n"))
	name, ok := s.Name("app:n")
	assert.True(t, ok)
	assert.Equal(t, "n", name)
	_, ok = s.Name("cw-n")
	assert.False(t, ok)

	assert.Equal(t, settings{Theme: "light"}, Get(s, "n", settings{}))
	assert.Equal(t, "gob", s.Codec().Name())
}

func TestInstance(t *testing.T) {
	ResetInstance()
	t.Cleanup(ResetInstance)

	first := Instance(memory.New())
	second := Instance(memory.New(), WithPrefix("other-"))

	assert.Same(t, first, second)
	assert.Equal(t, DefaultPrefix, second.Prefix())

	ResetInstance()
	assert.NotSame(t, first, Instance(memory.New()))
}

func TestWatch(t *testing.T) {
	origin := memory.NewOrigin()
	a, _ := newTestStore(t, origin.NewContext())
	b, _ := newTestStore(t, origin.NewContext())

	var events []medium.Event
	cancel := a.Watch("watched", func(ev medium.Event) { events = append(events, ev) })

	a.Set("watched", 1) // own writes are not reported
	b.Set("other", 2)   // other names are filtered
	b.Set("watched", 3)
	b.Remove("watched")

	require.Len(t, events, 2)
	assert.Equal(t, "3", events[0].Value)
	assert.True(t, events[1].Deleted)

	cancel()
	b.Set("watched", 4)
	assert.Len(t, events, 2)
	assert.Equal(t, uint64(2), a.Stats().ExternalEvents)
}

func TestStats(t *testing.T) {
	m := memory.New()
	s, _ := newTestStore(t, m)

	s.Set("a", "12345")
	s.Set("b", 1)
	Get(s, "a", "")
	s.Remove("a")
	s.Clear()

	m.FailWrites(errors.New("full"))
	s.Set("c", 1)

	stats := s.Stats()
	assert.Equal(t, uint64(2), stats.Ops["set"])
	assert.Equal(t, uint64(1), stats.Ops["get"])
	assert.Equal(t, uint64(1), stats.Ops["remove"])
	assert.Equal(t, uint64(1), stats.Failures["set"])
	assert.Equal(t, int64(2), stats.ValueSize.Count)
	assert.Equal(t, int64(7), stats.ValueSize.Max)

	var buf bytes.Buffer
	s.WriteMetrics(&buf)
	assert.Contains(t, buf.String(), `rkv_kvstore_ops_total{op="set"} 2`)
	assert.Contains(t, buf.String(), "rkv_kvstore_value_size_bytes_count 2")
}
