package deadletter

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteJournal persists failure entries to SQLite.
// It is suitable for single-process production use.
type SQLiteJournal struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteJournal creates a new SQLite journal.
// The path should be a file path (e.g., "./failures.db") or ":memory:" for testing.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS failures (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			stage TEXT NOT NULL,
			reason TEXT NOT NULL,
			occurred_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_failures_event_type
		ON failures(event_type)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

// Record implements Journal.
func (j *SQLiteJournal) Record(ctx context.Context, entry *Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrJournalClosed
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO failures (id, event_type, stage, reason, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`, entry.ID, entry.EventType, entry.Stage, entry.Reason,
		entry.OccurredAt.UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}

// List implements Journal.
func (j *SQLiteJournal) List(ctx context.Context, limit int) ([]*Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return nil, ErrJournalClosed
	}

	query := `
		SELECT id, event_type, stage, reason, occurred_at
		FROM failures
		ORDER BY occurred_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var occurredAt string
		if err := rows.Scan(&entry.ID, &entry.EventType, &entry.Stage, &entry.Reason, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan failure entry: %w", err)
		}
		entry.OccurredAt, _ = time.Parse(time.RFC3339Nano, occurredAt)
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failures: %w", err)
	}

	return entries, nil
}

// CountByType implements Journal.
func (j *SQLiteJournal) CountByType(ctx context.Context) (map[string]int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return nil, ErrJournalClosed
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT event_type, COUNT(*)
		FROM failures
		GROUP BY event_type
	`)
	if err != nil {
		return nil, fmt.Errorf("count failures: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("scan failure count: %w", err)
		}
		counts[eventType] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failure counts: %w", err)
	}

	return counts, nil
}

// Purge implements Journal.
func (j *SQLiteJournal) Purge(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrJournalClosed
	}

	if _, err := j.db.ExecContext(ctx, `DELETE FROM failures`); err != nil {
		return fmt.Errorf("purge failures: %w", err)
	}
	return nil
}

// Close implements Journal.
func (j *SQLiteJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}

	j.closed = true
	return j.db.Close()
}
