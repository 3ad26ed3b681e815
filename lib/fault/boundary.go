package fault

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ValentinKolb/rKV/lib/logging"
	"github.com/lni/dragonboat/v4/logger"
)

// NotificationTimeout is how long an auto-hiding notification stays visible.
const NotificationTimeout = 10 * time.Second

// Severity of a user-facing notification.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Notification is what a Notifier receives.
type Notification struct {
	Message     string
	Severity    Severity
	Timeout     time.Duration
	Dismissible bool
	Autohide    bool
	Hoverable   bool // hovering keeps an auto-hiding notification visible
}

// Notifier is the user-facing notification sink (toast, status line, ...).
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// AlertFunc is the blocking fallback used while no Notifier is registered.
type AlertFunc func(message string)

func stderrAlert(message string) {
	fmt.Fprintf(os.Stderr, "ALERT: %s\n", message)
}

// --------------------------------------------------------------------------
// Boundary
// --------------------------------------------------------------------------

// Boundary captures failures of wrapped operations, classifies them and
// dispatches them to the log and, on request, to the user.
//
// Thread-safety: A Boundary is safe for concurrent use. The Notifier may be
// registered after the Boundary is already in use.
type Boundary struct {
	mu       sync.RWMutex
	notifier Notifier
	alert    AlertFunc
	log      logger.ILogger
}

// Option configures a Boundary.
type Option func(*Boundary)

// WithNotifier registers the notification sink up front.
func WithNotifier(n Notifier) Option {
	return func(b *Boundary) { b.notifier = n }
}

// WithAlert replaces the fallback used while no Notifier is registered.
func WithAlert(fn AlertFunc) Option {
	return func(b *Boundary) { b.alert = fn }
}

// WithLogger replaces the log sink.
func WithLogger(l logger.ILogger) Option {
	return func(b *Boundary) { b.log = l }
}

// NewBoundary creates a Boundary logging to the "fault" package logger.
func NewBoundary(opts ...Option) *Boundary {
	b := &Boundary{
		alert: stderrAlert,
		log:   logger.GetLogger(logging.NameFault),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var (
	defaultOnce     sync.Once
	defaultBoundary *Boundary
)

// Default returns the process-wide Boundary.
func Default() *Boundary {
	defaultOnce.Do(func() {
		defaultBoundary = NewBoundary()
	})
	return defaultBoundary
}

// SetNotifier registers (or replaces) the notification sink.
func (b *Boundary) SetNotifier(n Notifier) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifier = n
}

// Handle is the default failure handler: it classifies the failure and logs it.
// Failures that are already classified keep their code.
func (b *Boundary) Handle(failure any) *Error {
	e := normalize(failure)
	b.report(e)
	return e
}

// NotifyUser classifies the failure and shows it to the user.
// An empty message shows the failure's own message. The failure is logged
// only when message overrides it, since otherwise the user already sees it.
func (b *Boundary) NotifyUser(failure any, message string, autohide bool) *Error {
	e := normalize(failure)
	if message != "" {
		b.report(e)
	} else {
		message = e.Msg
	}

	b.dispatch(Notification{
		Message:     message,
		Severity:    SeverityError,
		Timeout:     NotificationTimeout,
		Dismissible: true,
		Autohide:    autohide,
		Hoverable:   autohide,
	})
	return e
}

// Do runs op and routes a failure (returned error or panic) to Handle.
// It returns the classified failure, or nil on success.
func (b *Boundary) Do(op func() error) error {
	_, failure := attempt(func() (struct{}, error) {
		return struct{}{}, op()
	})
	if failure == nil {
		return nil
	}
	return b.Handle(failure)
}

func (b *Boundary) report(e *Error) {
	b.log.Errorf("error occurred: %s", e)
	b.log.Errorf("%+v", e)
}

func (b *Boundary) dispatch(n Notification) {
	b.mu.RLock()
	notifier, alert := b.notifier, b.alert
	b.mu.RUnlock()

	if notifier != nil {
		notifier.Notify(n)
		return
	}
	// the notifier may be registered later than the first failure
	if alert != nil {
		alert(n.Message)
	}
	b.log.Warningf("notification sink not set yet")
}

func normalize(failure any) *Error {
	if e, ok := failure.(*Error); ok && e != nil {
		return e
	}
	var classified *Error
	if err, ok := failure.(error); ok && errors.As(err, &classified) && classified != nil {
		return classified
	}
	return Classify(failure, CodeUnknown)
}
