// Package state records which instance identities this guest has booted
// with.
//
// The agent runs on every boot. Comparing the identity synthesized from the
// context file with the ones seen before tells it whether this is the first
// boot of a new instance (for example a fresh clone of a template disk) or
// a reboot of a known one.
//
// Storage is SQLite through the pure Go modernc.org/sqlite driver, so the
// agent builds without CGO.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stensonb/cloud-agent/internal/clock"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Common errors
var (
	ErrNotFound    = errors.New("instance not found")
	ErrStoreClosed = errors.New("store is closed")
	ErrEmptyID     = errors.New("empty instance id")
)

// Boot is one recorded boot.
type Boot struct {
	InstanceID string    `json:"instance_id" yaml:"instance_id"`
	Hostname   string    `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	SeenAt     time.Time `json:"seen_at" yaml:"seen_at"`
	FirstSeen  bool      `json:"first_seen" yaml:"first_seen"`
	// ClockSane is false when the guest clock was not yet set at boot, in
	// which case SeenAt should not be trusted.
	ClockSane bool `json:"clock_sane" yaml:"clock_sane"`
}

// Instance summarizes all boots of one instance identity.
type Instance struct {
	ID        string    `json:"id" yaml:"id"`
	FirstSeen time.Time `json:"first_seen" yaml:"first_seen"`
	LastSeen  time.Time `json:"last_seen" yaml:"last_seen"`
	Boots     int       `json:"boots" yaml:"boots"`
}

// Options configures the SQLite store.
type Options struct {
	Path    string      // Database file path (":memory:" for in-memory)
	WALMode bool        // Enable WAL mode for better concurrency
	Clock   clock.Clock // Optional: time source (defaults to RealClock if nil)
}

// DefaultOptions returns sensible defaults.
func DefaultOptions(path string) Options {
	return Options{
		Path:    path,
		WALMode: true,
	}
}

// Store is the SQLite-backed boot history.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
	clock  clock.Clock
}

// Open creates or opens the store at opts.Path.
func Open(opts Options) (*Store, error) {
	dsn := opts.Path
	if opts.WALMode && opts.Path != ":memory:" {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	clk := opts.Clock
	if clk == nil {
		clk = &clock.RealClock{}
	}

	s := &Store{db: db, clock: clk}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates the database tables.
func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS instances (
			id TEXT PRIMARY KEY,
			first_seen INTEGER NOT NULL,
			last_seen INTEGER NOT NULL,
			boots INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS boots (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			instance_id TEXT NOT NULL,
			hostname TEXT NOT NULL DEFAULT '',
			seen_at INTEGER NOT NULL,
			first_seen INTEGER NOT NULL,
			clock_sane INTEGER NOT NULL,
			FOREIGN KEY (instance_id) REFERENCES instances(id)
		);

		CREATE INDEX IF NOT EXISTS idx_boots_instance ON boots(instance_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record notes a boot with the given instance identity. firstSeen reports
// whether the identity had never been recorded before.
func (s *Store) Record(instanceID, hostname string) (firstSeen bool, err error) {
	if instanceID == "" {
		return false, ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrStoreClosed
	}

	now := s.clock.Now()
	ts := now.UnixNano()

	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT OR IGNORE INTO instances (id, first_seen, last_seen, boots) VALUES (?, ?, ?, 0)`,
		instanceID, ts, ts)
	if err != nil {
		return false, fmt.Errorf("insert instance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	firstSeen = n == 1

	if _, err := tx.Exec(
		`UPDATE instances SET last_seen = ?, boots = boots + 1 WHERE id = ?`,
		ts, instanceID); err != nil {
		return false, fmt.Errorf("update instance: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO boots (instance_id, hostname, seen_at, first_seen, clock_sane) VALUES (?, ?, ?, ?, ?)`,
		instanceID, hostname, ts, firstSeen, clock.IsReasonableTime(now)); err != nil {
		return false, fmt.Errorf("insert boot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return firstSeen, nil
}

// History returns the most recent boots, newest first. A limit of zero or
// less returns every boot.
func (s *Store) History(limit int) ([]Boot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	query := `SELECT instance_id, hostname, seen_at, first_seen, clock_sane FROM boots ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query boots: %w", err)
	}
	defer rows.Close()

	var boots []Boot
	for rows.Next() {
		var (
			b  Boot
			ts int64
		)
		if err := rows.Scan(&b.InstanceID, &b.Hostname, &ts, &b.FirstSeen, &b.ClockSane); err != nil {
			return nil, err
		}
		b.SeenAt = time.Unix(0, ts).UTC()
		boots = append(boots, b)
	}
	return boots, rows.Err()
}

// Instance returns the summary for one identity.
func (s *Store) Instance(id string) (*Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	var (
		inst        Instance
		first, last int64
	)
	err := s.db.QueryRow(
		`SELECT id, first_seen, last_seen, boots FROM instances WHERE id = ?`, id,
	).Scan(&inst.ID, &first, &last, &inst.Boots)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	inst.FirstSeen = time.Unix(0, first).UTC()
	inst.LastSeen = time.Unix(0, last).UTC()
	return &inst, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
