package kvstore

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/ValentinKolb/rKV/lib/codec"
	"github.com/ValentinKolb/rKV/lib/fault"
	"github.com/ValentinKolb/rKV/lib/logging"
	"github.com/ValentinKolb/rKV/lib/medium"
	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger(logging.NameKVStore)

// DefaultPrefix namespaces all keys written by rKV.
const DefaultPrefix = "cw-"

// nullValue is the JSON representation of an absent value.
const nullValue = "null"

// Store is the namespaced wrapper over a medium. All persistent reads and
// writes of rKV pass through it.
//
// Thread-safety: Store is safe for concurrent use if the medium is.
type Store struct {
	medium   medium.IMedium
	prefix   string
	codec    codec.ICodec
	boundary *fault.Boundary
	stats    *statistics
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithCodec replaces the default JSON codec.
func WithCodec(c codec.ICodec) Option {
	return func(s *Store) { s.codec = c }
}

// WithBoundary replaces fault.Default as the boundary for storage failures.
func WithBoundary(b *fault.Boundary) Option {
	return func(s *Store) { s.boundary = b }
}

// New creates a store over m.
func New(m medium.IMedium, opts ...Option) *Store {
	s := &Store{
		medium:   m,
		prefix:   DefaultPrefix,
		codec:    codec.NewJSONCodec(),
		boundary: fault.Default(),
		stats:    newStatistics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	instanceMu sync.Mutex
	instance   *Store
)

// Instance returns the process-wide store. The first call constructs it from
// m and opts; every later call returns that same store and ignores its
// arguments, so there is exactly one owner of the namespace per process.
func Instance(m medium.IMedium, opts ...Option) *Store {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance == nil {
		instance = New(m, opts...)
		plog.Debugf("process store created with prefix %q on medium %s", instance.prefix, m.Origin())
	}
	return instance
}

// ResetInstance forgets the process-wide store. Intended for tests only.
func ResetInstance() {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	instance = nil
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// Key returns the namespaced key of a logical name.
func (s *Store) Key(name string) string {
	return s.prefix + name
}

// Name returns the logical name of a namespaced key.
func (s *Store) Name(key string) (string, bool) {
	if !strings.HasPrefix(key, s.prefix) {
		return "", false
	}
	return key[len(s.prefix):], true
}

func (s *Store) Prefix() string            { return s.prefix }
func (s *Store) Medium() medium.IMedium    { return s.medium }
func (s *Store) Codec() codec.ICodec       { return s.codec }
func (s *Store) Boundary() *fault.Boundary { return s.boundary }

// --------------------------------------------------------------------------
// Writes
// --------------------------------------------------------------------------

// Set persists value under name. Failures are logged through the boundary
// and never returned: persistence is best-effort.
func (s *Store) Set(name string, value any) {
	_ = s.boundary.Do(func() error {
		return s.Put(name, value)
	})
}

// Put persists value under name and returns the classified failure, if any.
func (s *Store) Put(name string, value any) error {
	raw, err := s.Encode(value)
	if err == nil {
		err = s.PutRaw(name, raw)
	} else {
		s.stats.failure(opSet)
	}
	return err
}

// PutRaw persists an already encoded representation under name.
func (s *Store) PutRaw(name, raw string) error {
	if err := s.medium.SetItem(s.Key(name), raw); err != nil {
		s.stats.failure(opSet)
		return fault.Classify(err, fault.CodeStorageUnavailable)
	}
	s.stats.success(opSet)
	s.stats.valueSize(len(raw))
	return nil
}

// Remove deletes name. Removing a missing name is a no-op.
func (s *Store) Remove(name string) {
	_ = s.boundary.Do(func() error {
		if err := s.medium.RemoveItem(s.Key(name)); err != nil {
			s.stats.failure(opRemove)
			return fault.Classify(err, fault.CodeStorageUnavailable)
		}
		s.stats.success(opRemove)
		return nil
	})
}

// Clear deletes every key under the prefix and leaves all other keys untouched.
func (s *Store) Clear() {
	_ = s.boundary.Do(func() error {
		keys, err := s.medium.Keys()
		if err != nil {
			s.stats.failure(opClear)
			return fault.Classify(err, fault.CodeStorageUnavailable)
		}

		var errs []error
		for _, key := range keys {
			if _, ok := s.Name(key); !ok {
				continue
			}
			if err := s.medium.RemoveItem(key); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			s.stats.failure(opClear)
			return fault.Classify(errors.Join(errs...), fault.CodeStorageUnavailable)
		}
		s.stats.success(opClear)
		return nil
	})
}

// --------------------------------------------------------------------------
// Reads
// --------------------------------------------------------------------------

// Get returns the value stored under name, or fallback if it is absent,
// unreadable or malformed. Get never fails and never logs.
func Get[T any](s *Store, name string, fallback T) T {
	return fault.InMute(s.boundary, func() (T, error) {
		var out T
		found, err := s.Load(name, &out)
		if err != nil || !found {
			return fallback, err
		}
		return out, nil
	}, func() (T, error) {
		return fallback, nil
	})
}

// Load decodes the value stored under name into out. The boolean reports
// whether a value was present. Failures are classified but not handled.
func (s *Store) Load(name string, out any) (bool, error) {
	raw, found, err := s.read(name)
	if err != nil || !found {
		return false, err
	}
	if err := s.Decode(raw, out); err != nil {
		s.stats.failure(opGet)
		return false, err
	}
	return true, nil
}

// Raw returns the persisted representation of name. Failures count as absence.
func (s *Store) Raw(name string) (string, bool) {
	type result struct {
		raw   string
		found bool
	}
	r := fault.InMute(s.boundary, func() (result, error) {
		raw, found, err := s.read(name)
		return result{raw, found}, err
	}, nil)
	return r.raw, r.found
}

// Names returns the sorted logical names currently stored under the prefix.
func (s *Store) Names() []string {
	keys := fault.InMute(s.boundary, func() ([]string, error) {
		return s.medium.Keys()
	}, nil)

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if name, ok := s.Name(key); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (s *Store) read(name string) (string, bool, error) {
	raw, found, err := s.medium.GetItem(s.Key(name))
	if err != nil {
		s.stats.failure(opGet)
		return "", false, fault.Classify(err, fault.CodeStorageUnavailable)
	}
	s.stats.success(opGet)
	// empty and null representations are treated like a missing one
	if !found || raw == "" || raw == nullValue {
		return "", false, nil
	}
	return raw, true, nil
}

// --------------------------------------------------------------------------
// Serialization
// --------------------------------------------------------------------------

// Encode returns the persisted representation of v.
func (s *Store) Encode(v any) (string, error) {
	b, err := s.codec.Marshal(v)
	if err != nil {
		return "", fault.Classify(err, fault.CodeSerialization)
	}
	return string(b), nil
}

// Decode parses a persisted representation into out.
func (s *Store) Decode(raw string, out any) error {
	if err := s.codec.Unmarshal([]byte(raw), out); err != nil {
		return fault.Classify(err, fault.CodeSerialization)
	}
	return nil
}

// --------------------------------------------------------------------------
// External changes
// --------------------------------------------------------------------------

// Watch calls fn for every change another context makes to name.
// The returned function removes the registration.
func (s *Store) Watch(name string, fn func(ev medium.Event)) (cancel func()) {
	key := s.Key(name)
	return s.medium.Watch(func(ev medium.Event) {
		if ev.Key != key {
			return
		}
		s.stats.external()
		fn(ev)
	})
}
