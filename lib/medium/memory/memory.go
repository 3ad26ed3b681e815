package memory

import (
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/rKV/lib/medium"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Origin (the shared storage)
// --------------------------------------------------------------------------

// Origin holds the items shared by all of its contexts.
type Origin struct {
	items *xsync.MapOf[string, string]

	mu       sync.RWMutex
	contexts map[string]*Context
}

// NewOrigin creates an empty origin without contexts.
func NewOrigin() *Origin {
	return &Origin{
		items:    xsync.NewMapOf[string, string](),
		contexts: make(map[string]*Context),
	}
}

// New creates a fresh origin and returns its first context.
func New() *Context {
	return NewOrigin().NewContext()
}

// NewContext attaches a new context to the origin.
func (o *Origin) NewContext() *Context {
	c := &Context{
		origin:   o,
		id:       uuid.NewString(),
		watchers: make(map[uint64]func(medium.Event)),
	}
	o.mu.Lock()
	o.contexts[c.id] = c
	o.mu.Unlock()
	return c
}

// Len returns the number of items in the origin.
func (o *Origin) Len() int {
	return o.items.Size()
}

// broadcast delivers ev to every context except the writer.
// It is called after the write is visible and without holding locks.
func (o *Origin) broadcast(ev medium.Event) {
	o.mu.RLock()
	targets := make([]*Context, 0, len(o.contexts))
	for id, c := range o.contexts {
		if id != ev.Origin {
			targets = append(targets, c)
		}
	}
	o.mu.RUnlock()

	for _, c := range targets {
		c.deliver(ev)
	}
}

func (o *Origin) detach(id string) {
	o.mu.Lock()
	delete(o.contexts, id)
	o.mu.Unlock()
}

// --------------------------------------------------------------------------
// Context (implements medium.IMedium)
// --------------------------------------------------------------------------

// Context is one execution context of an Origin.
type Context struct {
	origin *Origin
	id     string
	writes atomic.Uint64
	closed atomic.Bool

	mu        sync.RWMutex
	watchers  map[uint64]func(medium.Event)
	nextWatch uint64
	failRead  error
	failWrite error
}

// Writes returns how many SetItem and RemoveItem calls this context performed.
func (c *Context) Writes() uint64 {
	return c.writes.Load()
}

// FailWrites makes every following SetItem and RemoveItem return err
// (e.g. to simulate an exceeded quota). A nil err restores normal operation.
func (c *Context) FailWrites(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failWrite = err
}

// FailReads makes every following GetItem and Keys return err.
func (c *Context) FailReads(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failRead = err
}

func (c *Context) writeErr() error {
	if c.closed.Load() {
		return medium.ErrClosed
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failWrite
}

func (c *Context) readErr() error {
	if c.closed.Load() {
		return medium.ErrClosed
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failRead
}

// --------------------------------------------------------------------------
// Interface Methods (docu see medium.IMedium)
// --------------------------------------------------------------------------

func (c *Context) SetItem(key, value string) error {
	if err := c.writeErr(); err != nil {
		return err
	}
	c.origin.items.Store(key, value)
	c.writes.Add(1)
	c.origin.broadcast(medium.Event{Key: key, Value: value, Origin: c.id})
	return nil
}

func (c *Context) GetItem(key string) (string, bool, error) {
	if err := c.readErr(); err != nil {
		return "", false, err
	}
	value, ok := c.origin.items.Load(key)
	return value, ok, nil
}

func (c *Context) RemoveItem(key string) error {
	if err := c.writeErr(); err != nil {
		return err
	}
	c.writes.Add(1)
	if _, existed := c.origin.items.LoadAndDelete(key); existed {
		c.origin.broadcast(medium.Event{Key: key, Deleted: true, Origin: c.id})
	}
	return nil
}

func (c *Context) Keys() ([]string, error) {
	if err := c.readErr(); err != nil {
		return nil, err
	}
	keys := make([]string, 0, c.origin.items.Size())
	c.origin.items.Range(func(key string, _ string) bool {
		keys = append(keys, key)
		return true
	})
	return keys, nil
}

func (c *Context) Watch(fn func(medium.Event)) func() {
	c.mu.Lock()
	id := c.nextWatch
	c.nextWatch++
	c.watchers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.watchers, id)
			c.mu.Unlock()
		})
	}
}

func (c *Context) Origin() string {
	return c.id
}

func (c *Context) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.origin.detach(c.id)
	c.mu.Lock()
	c.watchers = make(map[uint64]func(medium.Event))
	c.mu.Unlock()
	return nil
}

func (c *Context) deliver(ev medium.Event) {
	c.mu.RLock()
	fns := make([]func(medium.Event), 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
