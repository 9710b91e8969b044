package debuglog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the debug log in a local SQLite file so entries
// survive a restart during development.
type SQLiteStore struct {
	db       *sql.DB
	capacity int
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path. capacity <= 0
// falls back to DefaultCapacity.
func NewSQLiteStore(path string, capacity int) (*SQLiteStore, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &SQLiteStore{db: db, capacity: capacity}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS webhook_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		received_at TIMESTAMP NOT NULL
	)`)
	return err
}

func (s *SQLiteStore) Append(ctx context.Context, entry Entry) error {
	if entry.ReceivedAt.IsZero() {
		entry.ReceivedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO webhook_log (event_type, payload, received_at) VALUES (?, ?, ?)`,
		entry.EventType, string(entry.Payload), entry.ReceivedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to append entry: %w", err)
	}

	// Enforce the cap by trimming the oldest rows.
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM webhook_log WHERE id NOT IN (
			SELECT id FROM webhook_log ORDER BY id DESC LIMIT ?
		)`, s.capacity)
	if err != nil {
		return fmt.Errorf("failed to trim log: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.capacity {
		limit = s.capacity
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_type, payload, received_at FROM webhook_log ORDER BY id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var payload string
		if err := rows.Scan(&e.ID, &e.EventType, &payload, &e.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Payload = []byte(payload)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM webhook_log`); err != nil {
		return fmt.Errorf("failed to clear log: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
