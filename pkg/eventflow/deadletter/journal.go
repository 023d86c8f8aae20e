// Package deadletter records per-event failures for later inspection.
//
// The journal is a diagnostics aid, not a retry queue: the pipeline absorbs
// per-event failures and keeps going, and the journal keeps a durable trail
// of what failed, at which stage, and why. Entries describe failures; they
// never carry application state.
package deadletter

import (
	"context"
	"errors"
	"time"
)

// Entry describes one per-event failure.
type Entry struct {
	// ID uniquely identifies this entry.
	ID string `json:"id"`

	// EventType is the failed event's description (type tag or Go type).
	EventType string `json:"event_type"`

	// Stage is the pipeline stage that failed:
	// "resolve", "update", "validate", "watch", or "effect".
	Stage string `json:"stage"`

	// Reason is the error message.
	Reason string `json:"reason"`

	// OccurredAt is when the failure was raised.
	OccurredAt time.Time `json:"occurred_at"`
}

// Journal stores failure entries.
type Journal interface {
	// Record appends a failure entry.
	Record(ctx context.Context, entry *Entry) error

	// List returns the most recent entries, newest first.
	// limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*Entry, error)

	// CountByType returns entry counts grouped by event type.
	CountByType(ctx context.Context) (map[string]int, error)

	// Purge removes all entries.
	Purge(ctx context.Context) error

	// Close releases the journal.
	Close() error
}

// ErrJournalClosed is returned for operations on a closed journal.
var ErrJournalClosed = errors.New("journal is closed")
