package badgermedium

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ValentinKolb/rKV/lib/logging"
	"github.com/ValentinKolb/rKV/lib/medium"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/pb"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger(logging.NameMedium)

const (
	itemPrefix  = "item/"
	readyPrefix = "ready/"

	kindValue     byte = 'v'
	kindTombstone byte = 't'
	originLen          = 36 // length of a uuid string

	readyTimeout = 5 * time.Second
)

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// Config holds configuration for the BadgerDB backing an Origin.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// TombstoneTTL is how long a removal marker is kept so that the change
	// feed can attribute the removal to its context.
	TombstoneTTL time.Duration
}

// DefaultConfig returns the configuration for a persistent database at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:         path,
		SyncWrites:   true,
		TombstoneTTL: time.Minute,
	}
}

// InMemoryConfig returns a configuration for tests.
func InMemoryConfig() Config {
	return Config{
		InMemory:     true,
		TombstoneTTL: time.Minute,
	}
}

// quietLogger adapts the package logger to badger.Logger and drops
// BadgerDB's informational chatter.
type quietLogger struct {
	log logger.ILogger
}

func (l quietLogger) Errorf(format string, args ...interface{})   { l.log.Errorf(format, args...) }
func (l quietLogger) Warningf(format string, args ...interface{}) { l.log.Warningf(format, args...) }
func (l quietLogger) Infof(string, ...interface{})                {}
func (l quietLogger) Debugf(string, ...interface{})               {}

// --------------------------------------------------------------------------
// Origin
// --------------------------------------------------------------------------

// Origin owns one BadgerDB. BadgerDB locks its directory, so all contexts of
// a database must live in the same process and share the Origin.
type Origin struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens the BadgerDB described by cfg.
func Open(cfg Config) (*Origin, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(quietLogger{plog})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	ttl := cfg.TombstoneTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Origin{db: db, ttl: ttl}, nil
}

// Close closes the database. Contexts must be closed first.
func (o *Origin) Close() error {
	return o.db.Close()
}

// NewContext creates a context and waits until its change feed is live.
func (o *Origin) NewContext() (medium.IMedium, error) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &badgerContext{
		origin:   o,
		id:       uuid.NewString(),
		cancel:   cancel,
		watchers: make(map[uint64]func(medium.Event)),
		ready:    make(chan struct{}),
	}

	matches := []pb.Match{
		{Prefix: []byte(itemPrefix)},
		{Prefix: []byte(readyPrefix + c.id)},
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := o.db.Subscribe(ctx, c.onChanges, matches)
		if err != nil && !errors.Is(err, context.Canceled) {
			plog.Errorf("change feed of context %s stopped: %v", c.id, err)
		}
	}()

	if err := c.awaitReady(); err != nil {
		cancel()
		c.wg.Wait()
		return nil, err
	}
	return c, nil
}

// --------------------------------------------------------------------------
// Context (implements medium.IMedium)
// --------------------------------------------------------------------------

type badgerContext struct {
	origin *Origin
	id     string
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	watchers  map[uint64]func(medium.Event)
	nextWatch uint64
	closed    bool

	ready     chan struct{}
	readyOnce sync.Once
}

// awaitReady writes a probe key matched only by this context's subscription
// and waits for it to come back through the feed, so no change written after
// NewContext returns can be missed.
func (c *badgerContext) awaitReady() error {
	probe := []byte(readyPrefix + c.id)
	deadline := time.After(readyTimeout)
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for {
		if err := c.origin.db.Update(func(txn *badger.Txn) error {
			return txn.Set(probe, []byte{kindValue})
		}); err != nil {
			return fmt.Errorf("probe change feed: %w", err)
		}
		select {
		case <-c.ready:
			return c.origin.db.Update(func(txn *badger.Txn) error {
				return txn.Delete(probe)
			})
		case <-deadline:
			return errors.New("badgermedium: change feed did not start")
		case <-tick.C:
		}
	}
}

func (c *badgerContext) encode(kind byte, value string) []byte {
	buf := make([]byte, 0, 1+originLen+len(value))
	buf = append(buf, kind)
	buf = append(buf, c.id...)
	return append(buf, value...)
}

func decode(b []byte) (kind byte, origin, value string, err error) {
	if len(b) < 1+originLen {
		return 0, "", "", errors.New("badgermedium: malformed item")
	}
	return b[0], string(b[1 : 1+originLen]), string(b[1+originLen:]), nil
}

func (c *badgerContext) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// --------------------------------------------------------------------------
// Interface Methods (docu see medium.IMedium)
// --------------------------------------------------------------------------

func (c *badgerContext) SetItem(key, value string) error {
	if c.isClosed() {
		return medium.ErrClosed
	}
	return c.origin.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(itemPrefix+key), c.encode(kindValue, value))
	})
}

func (c *badgerContext) GetItem(key string) (value string, found bool, err error) {
	if c.isClosed() {
		return "", false, medium.ErrClosed
	}
	err = c.origin.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(itemPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		kind, _, v, err := decode(raw)
		if err != nil {
			return err
		}
		if kind == kindValue {
			value, found = v, true
		}
		return nil
	})
	return value, found, err
}

func (c *badgerContext) RemoveItem(key string) error {
	if c.isClosed() {
		return medium.ErrClosed
	}
	k := []byte(itemPrefix + key)
	return c.origin.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if kind, _, _, err := decode(raw); err == nil && kind == kindTombstone {
			return nil
		}
		// the tombstone carries the origin through the change feed and expires afterwards
		return txn.SetEntry(badger.NewEntry(k, c.encode(kindTombstone, "")).WithTTL(c.origin.ttl))
	})
}

func (c *badgerContext) Keys() ([]string, error) {
	if c.isClosed() {
		return nil, medium.ErrClosed
	}
	var keys []string
	err := c.origin.db.View(func(txn *badger.Txn) error {
		prefix := []byte(itemPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if kind, _, _, err := decode(raw); err != nil || kind != kindValue {
				continue
			}
			keys = append(keys, string(item.Key()[len(prefix):]))
		}
		return nil
	})
	return keys, err
}

func (c *badgerContext) Watch(fn func(medium.Event)) func() {
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

func (c *badgerContext) Origin() string {
	return c.id
}

func (c *badgerContext) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.watchers = make(map[uint64]func(medium.Event))
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	return nil
}

// --------------------------------------------------------------------------
// Change feed
// --------------------------------------------------------------------------

func (c *badgerContext) onChanges(list *badger.KVList) error {
	for _, kv := range list.Kv {
		key := string(kv.Key)
		if len(key) > len(readyPrefix) && key[:len(readyPrefix)] == readyPrefix {
			c.readyOnce.Do(func() { close(c.ready) })
			continue
		}
		if len(key) < len(itemPrefix) || key[:len(itemPrefix)] != itemPrefix {
			continue
		}

		kind, origin, value, err := decode(kv.Value)
		if err != nil || origin == c.id {
			continue
		}
		c.emit(medium.Event{
			Key:     key[len(itemPrefix):],
			Value:   value,
			Deleted: kind == kindTombstone,
			Origin:  origin,
		})
	}
	return nil
}

func (c *badgerContext) emit(ev medium.Event) {
	c.mu.Lock()
	fns := make([]func(medium.Event), 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
