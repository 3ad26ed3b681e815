package sqlmedium

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ValentinKolb/rKV/lib/logging"
	"github.com/ValentinKolb/rKV/lib/medium"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

var plog = logger.GetLogger(logging.NameMedium)

// pruneEvery is the number of polls between two prunes of the change log.
const pruneEvery = 100

// Config configures a SQLite medium context.
type Config struct {
	// Path of the database file. Required.
	Path string

	// PollInterval is how often the change log is polled for external changes.
	PollInterval time.Duration

	// Retention is how long entries are kept in the change log.
	Retention time.Duration
}

// DefaultConfig returns the default configuration for the database at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:         path,
		PollInterval: 50 * time.Millisecond,
		Retention:    time.Hour,
	}
}

// sqlMedium implements medium.IMedium on a SQLite database.
type sqlMedium struct {
	db   *sql.DB
	id   string
	conf Config

	mu        sync.Mutex
	watchers  map[uint64]func(medium.Event)
	nextWatch uint64
	lastSeq   int64

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	closed    chan struct{}
}

// Open creates or opens the SQLite database described by conf and returns a
// new context on it. Any number of contexts, also from different processes,
// may open the same database.
func Open(conf Config) (medium.IMedium, error) {
	if conf.Path == "" {
		return nil, errors.New("sqlmedium: path is required")
	}
	if conf.PollInterval <= 0 {
		conf.PollInterval = DefaultConfig(conf.Path).PollInterval
	}
	if conf.Retention <= 0 {
		conf.Retention = DefaultConfig(conf.Path).Retention
	}

	db, err := sql.Open("sqlite", conf.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	m := &sqlMedium{
		db:       db,
		id:       uuid.NewString(),
		conf:     conf,
		watchers: make(map[uint64]func(medium.Event)),
		closed:   make(chan struct{}),
	}

	// only changes made after this point are reported
	if err := db.QueryRow("SELECT COALESCE(MAX(seq), 0) FROM changes").Scan(&m.lastSeq); err != nil {
		db.Close()
		return nil, fmt.Errorf("read change log position: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.wg.Add(1)
	go m.poll(ctx)
	return m, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func (m *sqlMedium) isClosed() bool {
	select {
	case <-m.closed:
		return true
	default:
		return false
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see medium.IMedium)
// --------------------------------------------------------------------------

func (m *sqlMedium) SetItem(key, value string) error {
	if m.isClosed() {
		return medium.ErrClosed
	}
	return m.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`INSERT INTO items (key, value, origin) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, origin = excluded.origin`,
			key, value, m.id,
		); err != nil {
			return fmt.Errorf("set %q: %w", key, err)
		}
		return m.logChange(tx, key, value, false)
	})
}

func (m *sqlMedium) GetItem(key string) (string, bool, error) {
	if m.isClosed() {
		return "", false, medium.ErrClosed
	}
	var value string
	err := m.db.QueryRow("SELECT value FROM items WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (m *sqlMedium) RemoveItem(key string) error {
	if m.isClosed() {
		return medium.ErrClosed
	}
	return m.inTx(func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM items WHERE key = ?", key)
		if err != nil {
			return fmt.Errorf("remove %q: %w", key, err)
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return err
		}
		return m.logChange(tx, key, "", true)
	})
}

func (m *sqlMedium) Keys() ([]string, error) {
	if m.isClosed() {
		return nil, medium.ErrClosed
	}
	rows, err := m.db.Query("SELECT key FROM items")
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (m *sqlMedium) Watch(fn func(medium.Event)) func() {
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

func (m *sqlMedium) Origin() string {
	return m.id
}

func (m *sqlMedium) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.closed)
		m.cancel()
		m.wg.Wait()
		m.mu.Lock()
		m.watchers = make(map[uint64]func(medium.Event))
		m.mu.Unlock()
		err = m.db.Close()
	})
	return err
}

// --------------------------------------------------------------------------
// Change log
// --------------------------------------------------------------------------

func (m *sqlMedium) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (m *sqlMedium) logChange(tx *sql.Tx, key, value string, deleted bool) error {
	flag := 0
	if deleted {
		flag = 1
	}
	_, err := tx.Exec(
		"INSERT INTO changes (key, value, deleted, origin, created_at) VALUES (?, ?, ?, ?, ?)",
		key, value, flag, m.id, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("log change of %q: %w", key, err)
	}
	return nil
}

type change struct {
	seq     int64
	event   medium.Event
	foreign bool
}

func (m *sqlMedium) poll(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.conf.PollInterval)
	defer ticker.Stop()

	for polls := 1; ; polls++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		changes, err := m.fetch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				plog.Warningf("polling change log failed: %v", err)
			}
			continue
		}
		for _, c := range changes {
			m.lastSeq = c.seq
			if c.foreign {
				m.emit(c.event)
			}
		}

		if polls%pruneEvery == 0 {
			m.prune(ctx)
		}
	}
}

func (m *sqlMedium) fetch(ctx context.Context) ([]change, error) {
	rows, err := m.db.QueryContext(ctx,
		"SELECT seq, key, value, deleted, origin FROM changes WHERE seq > ? ORDER BY seq",
		m.lastSeq,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []change
	for rows.Next() {
		var (
			c       change
			deleted int
		)
		if err := rows.Scan(&c.seq, &c.event.Key, &c.event.Value, &deleted, &c.event.Origin); err != nil {
			return nil, err
		}
		c.event.Deleted = deleted != 0
		c.foreign = c.event.Origin != m.id
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

func (m *sqlMedium) prune(ctx context.Context) {
	cutoff := time.Now().Add(-m.conf.Retention).UnixMilli()
	if _, err := m.db.ExecContext(ctx, "DELETE FROM changes WHERE created_at < ?", cutoff); err != nil && ctx.Err() == nil {
		plog.Warningf("pruning change log failed: %v", err)
	}
}

func (m *sqlMedium) emit(ev medium.Event) {
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
