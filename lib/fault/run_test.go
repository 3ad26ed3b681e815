package fault

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		b, s := newTestBoundary(t, true)
		finally := 0

		got := Run(b, func() (int, error) { return 7, nil }, Guard[int]{
			Fallback: func() (int, error) { return -1, nil },
			Finally:  func() { finally++ },
		})

		assert.Equal(t, 7, got)
		assert.Equal(t, 1, finally)
		s.silent(t)
	})

	t.Run("MutedPanic", func(t *testing.T) {
		b, s := newTestBoundary(t, true)
		finally := 0

		got := Run(b, func() (int, error) { panic("x") }, Guard[int]{
			Handler: Mute[int],
			Finally: func() { finally++ },
		})

		assert.Equal(t, 0, got)
		assert.Equal(t, 1, finally)
		s.silent(t)
	})

	t.Run("FallbackWins", func(t *testing.T) {
		b, s := newTestBoundary(t, true)
		handled := false

		got := Run(b, func() (string, error) { return "", errors.New("primary") }, Guard[string]{
			Fallback: func() (string, error) { return "cached", nil },
			Handler:  func(any) string { handled = true; return "handler" },
		})

		assert.Equal(t, "cached", got)
		assert.False(t, handled)
		s.silent(t)
	})

	t.Run("FallbackFails", func(t *testing.T) {
		b, _ := newTestBoundary(t, true)
		var seen any

		got := Run(b, func() (string, error) { return "", errors.New("primary") }, Guard[string]{
			Fallback: func() (string, error) { panic("secondary") },
			Handler:  func(f any) string { seen = f; return "handled" },
		})

		assert.Equal(t, "handled", got)
		assert.Equal(t, "secondary", seen)
	})

	t.Run("DefaultHandlerLogs", func(t *testing.T) {
		b, s := newTestBoundary(t, true)

		got := Run(b, func() (int, error) { return 5, errors.New("boom") }, Guard[int]{})

		assert.Equal(t, 0, got)
		assert.Equal(t, 2, s.log.Count("ERROR"))
		assert.Empty(t, s.notes)
	})

	t.Run("FinallyOrder", func(t *testing.T) {
		b, _ := newTestBoundary(t, true)
		var order []string

		Run(b, func() (int, error) {
			order = append(order, "op")
			return 0, errors.New("fail")
		}, Guard[int]{
			Fallback: func() (int, error) { order = append(order, "fallback"); return 0, errors.New("fail") },
			Handler:  func(any) int { order = append(order, "handler"); return 0 },
			Finally:  func() { order = append(order, "finally") },
		})

		assert.Equal(t, []string{"op", "fallback", "handler", "finally"}, order)
	})

	t.Run("HandlerMayRethrow", func(t *testing.T) {
		b, _ := newTestBoundary(t, true)
		finally := false
		domain := New(CodeDomain, "escape")

		require.PanicsWithValue(t, domain, func() {
			Run(b, func() (int, error) { return 0, domain }, Guard[int]{
				Handler: func(f any) int { Rethrow(f); return 0 },
				Finally: func() { finally = true },
			})
		})
		assert.True(t, finally)
	})
}

func TestInMute(t *testing.T) {
	b, s := newTestBoundary(t, true)

	got := InMute(b, func() ([]string, error) { return nil, errors.New("unreadable") },
		func() ([]string, error) { return []string{"default"}, nil })
	assert.Equal(t, []string{"default"}, got)

	assert.Nil(t, InMute(b, func() ([]string, error) { panic("broken") }, nil))
	s.silent(t)
}

func TestInNotification(t *testing.T) {
	b, s := newTestBoundary(t, true)

	got := InNotification(b, func() (int, error) { return 0, errors.New("save failed") }, nil, "")

	assert.Equal(t, 0, got)
	require.Len(t, s.notes, 1)
	assert.Equal(t, "save failed", s.notes[0].Message)
	assert.True(t, s.notes[0].Autohide)
}
