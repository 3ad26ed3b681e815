package medium

import "errors"

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Factory creates a new medium context. Used by the conformance suite and
// the CLI to abstract the backend from its users.
type Factory func() (IMedium, error)

// IMedium is one execution context's view of a persistent key-value medium
// shared by all contexts of the same origin.
//
// Values written by one context are visible to every other context of the
// origin. Writes are reported to the other contexts through Watch, never to
// the writing context itself.
type IMedium interface {
	// SetItem inserts or updates a key–value pair.
	SetItem(key, value string) (err error)
	// GetItem returns the value for a key. The boolean return value indicates whether a value for the key was found.
	GetItem(key string) (value string, found bool, err error)
	// RemoveItem deletes a key. Removing a missing key is not an error.
	RemoveItem(key string) (err error)
	// Keys lists all keys currently present in the medium, in no particular order.
	Keys() (keys []string, err error)
	// Watch registers fn for changes made by other contexts and returns a
	// function that removes the registration. Calling it more than once is safe.
	Watch(fn func(Event)) (cancel func())
	// Origin returns the unique id of this context.
	Origin() string
	// Close releases the context. Watchers are removed.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Change Events
// --------------------------------------------------------------------------

// Event describes a change made by another context.
type Event struct {
	Key     string // The changed key
	Value   string // The new value, empty if Deleted
	Deleted bool   // Whether the key was removed
	Origin  string // The context that made the change
}

// ErrClosed is returned by operations on a closed medium.
var ErrClosed = errors.New("medium: closed")
