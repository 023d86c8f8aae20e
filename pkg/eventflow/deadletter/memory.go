package deadletter

import (
	"context"
	"sync"
)

// MemoryJournal is an in-memory Journal implementation.
// Suitable for testing and single-instance deployments.
type MemoryJournal struct {
	mu      sync.RWMutex
	entries []*Entry
	closed  bool
	maxSize int
}

// MemoryConfig configures the in-memory journal.
type MemoryConfig struct {
	// MaxSize limits retained entries; the oldest are dropped first.
	// Default: 10000
	MaxSize int
}

// DefaultMemoryConfig provides reasonable defaults.
var DefaultMemoryConfig = MemoryConfig{
	MaxSize: 10000,
}

// NewMemoryJournal creates a new in-memory journal.
func NewMemoryJournal(cfg MemoryConfig) *MemoryJournal {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMemoryConfig.MaxSize
	}
	return &MemoryJournal{maxSize: cfg.MaxSize}
}

// Record appends a failure entry, dropping the oldest when full.
func (j *MemoryJournal) Record(_ context.Context, entry *Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrJournalClosed
	}

	if len(j.entries) >= j.maxSize {
		j.entries = j.entries[1:]
	}
	e := *entry
	j.entries = append(j.entries, &e)
	return nil
}

// List returns the most recent entries, newest first.
func (j *MemoryJournal) List(_ context.Context, limit int) ([]*Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return nil, ErrJournalClosed
	}

	n := len(j.entries)
	if limit <= 0 || limit > n {
		limit = n
	}

	result := make([]*Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		e := *j.entries[i]
		result = append(result, &e)
	}
	return result, nil
}

// CountByType returns entry counts grouped by event type.
func (j *MemoryJournal) CountByType(_ context.Context) (map[string]int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return nil, ErrJournalClosed
	}

	counts := make(map[string]int)
	for _, e := range j.entries {
		counts[e.EventType]++
	}
	return counts, nil
}

// Purge removes all entries.
func (j *MemoryJournal) Purge(_ context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrJournalClosed
	}

	j.entries = nil
	return nil
}

// Close releases the journal.
func (j *MemoryJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.closed = true
	return nil
}
