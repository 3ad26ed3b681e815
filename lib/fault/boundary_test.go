package fault

import (
	"errors"
	"sync"
	"testing"

	"github.com/ValentinKolb/rKV/lib/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sinks records everything a Boundary emits.
type sinks struct {
	log *logging.Recorder

	mu     sync.Mutex
	alerts []string
	notes  []Notification
}

func newTestBoundary(t *testing.T, withNotifier bool) (*Boundary, *sinks) {
	t.Helper()
	s := &sinks{log: &logging.Recorder{}}
	opts := []Option{
		WithLogger(s.log),
		WithAlert(func(msg string) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.alerts = append(s.alerts, msg)
		}),
	}
	if withNotifier {
		opts = append(opts, WithNotifier(NotifierFunc(func(n Notification) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.notes = append(s.notes, n)
		})))
	}
	return NewBoundary(opts...), s
}

func (s *sinks) silent(t *testing.T) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.log.Lines(), "log")
	assert.Empty(t, s.alerts, "alerts")
	assert.Empty(t, s.notes, "notifications")
}

func TestHandle(t *testing.T) {
	b, s := newTestBoundary(t, true)

	e := b.Handle(errors.New("boom"))
	require.NotNil(t, e)
	assert.Equal(t, CodeUnknown, e.Code)
	assert.Equal(t, "boom", e.Msg)
	assert.Equal(t, 2, s.log.Count("ERROR"))
	assert.Empty(t, s.notes)

	// classified failures keep their code
	domain := New(CodeDomain, "bad input")
	assert.Same(t, domain, b.Handle(domain))
}

func TestNotifyUser(t *testing.T) {
	t.Run("OwnMessage", func(t *testing.T) {
		b, s := newTestBoundary(t, true)

		b.NotifyUser(errors.New("quota exceeded"), "", true)

		require.Len(t, s.notes, 1)
		n := s.notes[0]
		assert.Equal(t, "quota exceeded", n.Message)
		assert.Equal(t, SeverityError, n.Severity)
		assert.Equal(t, NotificationTimeout, n.Timeout)
		assert.True(t, n.Autohide)
		assert.True(t, n.Hoverable)
		assert.True(t, n.Dismissible)
		assert.Empty(t, s.log.Lines())
	})

	t.Run("OverrideIsLogged", func(t *testing.T) {
		b, s := newTestBoundary(t, true)

		e := b.NotifyUser(errors.New("ENOSPC"), "Could not save", false)

		require.Len(t, s.notes, 1)
		assert.Equal(t, "Could not save", s.notes[0].Message)
		assert.False(t, s.notes[0].Autohide)
		assert.False(t, s.notes[0].Hoverable)
		assert.True(t, s.notes[0].Dismissible, "messages stay dismissible without autohide")
		assert.Equal(t, "ENOSPC", e.Msg)
		assert.Equal(t, 2, s.log.Count("ERROR"))
	})

	t.Run("NoNotifierFallsBackToAlert", func(t *testing.T) {
		b, s := newTestBoundary(t, false)

		b.NotifyUser("offline", "", true)

		assert.Equal(t, []string{"offline"}, s.alerts)
		assert.Equal(t, 1, s.log.Count("WARN"))

		// a notifier registered later takes over
		var got []string
		b.SetNotifier(NotifierFunc(func(n Notification) { got = append(got, n.Message) }))
		b.NotifyUser("online again", "", true)
		assert.Equal(t, []string{"online again"}, got)
		assert.Len(t, s.alerts, 1)
	})
}

func TestDo(t *testing.T) {
	b, s := newTestBoundary(t, true)

	assert.NoError(t, b.Do(func() error { return nil }))
	s.silent(t)

	err := b.Do(func() error { return errors.New("write failed") })
	require.Error(t, err)
	assert.Equal(t, "write failed", err.Error())
	assert.Equal(t, 2, s.log.Count("ERROR"))

	err = b.Do(func() error { panic("crash") })
	require.Error(t, err)
	assert.Equal(t, "crash", err.Error())
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestNilClassifiedError(t *testing.T) {
	b, s := newTestBoundary(t, true)
	var typedNil *Error
	var failure error = typedNil

	var e *Error
	require.NotPanics(t, func() { e = b.NotifyUser(failure, "", true) })
	require.NotNil(t, e)
	assert.Equal(t, DefaultMessage, e.Msg)
	require.Len(t, s.notes, 1)
	assert.Equal(t, DefaultMessage, s.notes[0].Message)

	require.NotPanics(t, func() { e = b.Handle(failure) })
	assert.Equal(t, CodeUnknown, e.Code)

	err := b.Do(func() error { return failure })
	require.Error(t, err)
	assert.Equal(t, DefaultMessage, err.Error())
}
