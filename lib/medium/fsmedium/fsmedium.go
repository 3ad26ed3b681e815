package fsmedium

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ValentinKolb/rKV/lib/logging"
	"github.com/ValentinKolb/rKV/lib/medium"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger(logging.NameMedium)

const tempPattern = ".tmp-*"

// fsMedium implements medium.IMedium on top of a directory.
type fsMedium struct {
	dir     string
	id      string
	watcher *fsnotify.Watcher

	mu        sync.Mutex
	watchers  map[uint64]func(medium.Event)
	nextWatch uint64
	removing  map[string]int // own removals whose fsnotify event is still pending

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Open opens (and creates, if needed) the directory as a medium context.
// Every Open of the same directory is a separate context of the same origin.
//
// Thread-safety: the returned medium is safe for concurrent use. Watch
// callbacks are invoked from a single background goroutine.
func Open(dir string) (medium.IMedium, error) {
	if dir == "" {
		return nil, errors.New("fsmedium: directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create medium directory %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	m := &fsMedium{
		dir:      dir,
		id:       uuid.NewString(),
		watcher:  watcher,
		watchers: make(map[uint64]func(medium.Event)),
		removing: make(map[string]int),
		done:     make(chan struct{}),
	}

	m.wg.Add(1)
	go m.loop()
	return m, nil
}

// --------------------------------------------------------------------------
// File layout
// --------------------------------------------------------------------------

// fileName escapes a key into a single path element that never starts with a dot.
func fileName(key string) string {
	name := url.PathEscape(key)
	if strings.HasPrefix(name, ".") {
		name = "%2E" + name[1:]
	}
	return name
}

func keyOf(name string) (string, bool) {
	if strings.HasPrefix(name, ".") {
		return "", false
	}
	key, err := url.PathUnescape(name)
	if err != nil {
		return "", false
	}
	return key, true
}

// encode lays out an item file as "<origin>\n<value>".
func (m *fsMedium) encode(value string) []byte {
	buf := make([]byte, 0, len(m.id)+1+len(value))
	buf = append(buf, m.id...)
	buf = append(buf, '\n')
	return append(buf, value...)
}

func decode(b []byte) (origin, value string, err error) {
	idx := bytes.IndexByte(b, '\n')
	if idx < 0 {
		return "", "", errors.New("fsmedium: malformed item file")
	}
	return string(b[:idx]), string(b[idx+1:]), nil
}

func (m *fsMedium) read(key string) (origin, value string, found bool, err error) {
	b, err := os.ReadFile(filepath.Join(m.dir, fileName(key)))
	if errors.Is(err, os.ErrNotExist) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	origin, value, err = decode(b)
	if err != nil {
		return "", "", false, fmt.Errorf("read %q: %w", key, err)
	}
	return origin, value, true, nil
}

func (m *fsMedium) isClosed() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see medium.IMedium)
// --------------------------------------------------------------------------

func (m *fsMedium) SetItem(key, value string) error {
	if m.isClosed() {
		return medium.ErrClosed
	}

	tmp, err := os.CreateTemp(m.dir, tempPattern)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	if _, err := tmp.Write(m.encode(value)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("set %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("set %q: %w", key, err)
	}
	// rename is atomic, readers never observe a partially written item
	if err := os.Rename(tmp.Name(), filepath.Join(m.dir, fileName(key))); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (m *fsMedium) GetItem(key string) (string, bool, error) {
	if m.isClosed() {
		return "", false, medium.ErrClosed
	}
	_, value, found, err := m.read(key)
	return value, found, err
}

func (m *fsMedium) RemoveItem(key string) error {
	if m.isClosed() {
		return medium.ErrClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	err := os.Remove(filepath.Join(m.dir, fileName(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	m.removing[key]++
	return nil
}

func (m *fsMedium) Keys() ([]string, error) {
	if m.isClosed() {
		return nil, medium.ErrClosed
	}
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", m.dir, err)
	}
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if key, ok := keyOf(entry.Name()); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *fsMedium) Watch(fn func(medium.Event)) func() {
	m.mu.Lock()
	id := m.nextWatch
	m.nextWatch++
	m.watchers[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.watchers, id)
			m.mu.Unlock()
		})
	}
}

func (m *fsMedium) Origin() string {
	return m.id
}

func (m *fsMedium) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.done)
		err = m.watcher.Close()
		m.wg.Wait()

		m.mu.Lock()
		m.watchers = make(map[uint64]func(medium.Event))
		m.mu.Unlock()
	})
	return err
}

// --------------------------------------------------------------------------
// Event loop
// --------------------------------------------------------------------------

func (m *fsMedium) loop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handle(ev)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			plog.Warningf("watcher error in %s: %v", m.dir, err)
		}
	}
}

func (m *fsMedium) handle(ev fsnotify.Event) {
	key, ok := keyOf(filepath.Base(ev.Name))
	if !ok {
		return
	}

	switch {
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		if m.consumeRemoval(key) {
			return
		}
		m.emit(medium.Event{Key: key, Deleted: true})
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		origin, value, found, err := m.read(key)
		if err != nil {
			plog.Debugf("skipping unreadable item %q: %v", key, err)
			return
		}
		if !found || origin == m.id {
			return
		}
		m.emit(medium.Event{Key: key, Value: value, Origin: origin})
	}
}

func (m *fsMedium) consumeRemoval(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.removing[key]
	if n == 0 {
		return false
	}
	if n == 1 {
		delete(m.removing, key)
	} else {
		m.removing[key] = n - 1
	}
	return true
}

func (m *fsMedium) emit(ev medium.Event) {
	m.mu.Lock()
	fns := make([]func(medium.Event), 0, len(m.watchers))
	for _, fn := range m.watchers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
