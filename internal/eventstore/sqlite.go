package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS build_events (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id    TEXT    NOT NULL,
		event_type  TEXT    NOT NULL,
		occurred_at INTEGER NOT NULL,
		payload     BLOB    NOT NULL,
		metadata    TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS build_events_build_id ON build_events(build_id)`,
	`CREATE INDEX IF NOT EXISTS build_events_occurred_at ON build_events(occurred_at)`,
}

const selectEvents = `SELECT seq, build_id, event_type, occurred_at, payload, metadata FROM build_events`

// SQLiteStore is a Store backed by a SQLite file (pure Go driver).
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore opens the history database at path, creating the file, its
// parent directory and the schema as needed. Use MemoryDSN in tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path
	if path != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// :memory: databases are per connection.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("initialize schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Append stores e. A zero timestamp is replaced with the current time and a
// nil payload with an empty JSON object.
func (s *SQLiteStore) Append(ctx context.Context, e Event) error {
	var metadata []byte
	if e.Metadata != nil {
		var err error
		if metadata, err = json.Marshal(e.Metadata); err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.Payload == nil {
		e.Payload = []byte("{}")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO build_events (build_id, event_type, occurred_at, payload, metadata) VALUES (?, ?, ?, ?, ?)`,
		e.BuildID, e.Type, e.Timestamp.UnixMilli(), e.Payload, metadata)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByBuildID returns the events of one build in append order.
func (s *SQLiteStore) GetByBuildID(ctx context.Context, buildID string) ([]Event, error) {
	return s.query(ctx, selectEvents+` WHERE build_id = ? ORDER BY seq`, buildID)
}

// GetRange returns events whose timestamp lies in [start, end], in append order.
func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	return s.query(ctx, selectEvents+` WHERE occurred_at BETWEEN ? AND ? ORDER BY seq`,
		start.UnixMilli(), end.UnixMilli())
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var (
			e        Event
			millis   int64
			metadata []byte
		)
		if err := rows.Scan(&e.ID, &e.BuildID, &e.Type, &millis, &e.Payload, &metadata); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Timestamp = time.UnixMilli(millis)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata for event %d: %w", e.ID, err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
