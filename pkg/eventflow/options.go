package eventflow

import (
	"fmt"
	"log/slog"

	"github.com/randalmurphal/eventflow/pkg/eventflow/config"
	"github.com/randalmurphal/eventflow/pkg/eventflow/deadletter"
	"github.com/randalmurphal/eventflow/pkg/eventflow/event"
)

// ErrorHandler receives every per-event error the pipeline raises. It may
// return replacement events, which are fed back into the pipeline exactly
// like a watch result, or nil to absorb the error. Handlers may be invoked
// from watch and effect goroutines and must be safe for concurrent use.
type ErrorHandler func(err error) []any

// storeConfig holds construction-time configuration for a store.
type storeConfig struct {
	bufferSize int
	maxDepth   int
	logger     *slog.Logger
	resolver   *event.Registry
	onError    ErrorHandler
	journal    deadletter.Journal
	metrics    bool
	tracing    bool

	// validator is type-checked against the store's state type in New.
	validator any
}

// defaultStoreConfig returns the default store configuration.
func defaultStoreConfig() storeConfig {
	return storeConfig{
		bufferSize: 256,
		maxDepth:   1000,
	}
}

// Option configures store construction.
type Option func(*storeConfig)

// WithBufferSize sets the event queue buffer size.
// Default: 256
func WithBufferSize(n int) Option {
	return func(c *storeConfig) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

// WithMaxDepth limits how deep feedback chains may grow: an event produced
// by a watch result carries a depth one greater than its cause, and events
// beyond the limit are raised to the error handler instead of dispatched.
// Default: 1000
//
// This prevents a self-sustaining event chain from looping forever.
func WithMaxDepth(n int) Option {
	return func(c *storeConfig) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithLogger sets the structured logger. Default: no logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *storeConfig) {
		c.logger = logger
	}
}

// WithResolver sets the registry used to resolve references before
// classification. Without a resolver, references pass through unresolved,
// fail classification, and are dropped at debug level; this is documented
// configuration-dependent behavior, not an error.
func WithResolver(registry *event.Registry) Option {
	return func(c *storeConfig) {
		c.resolver = registry
	}
}

// WithErrorHandler sets the error handler for per-event failures.
// Default: log and absorb.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(c *storeConfig) {
		c.onError = fn
	}
}

// WithValidator sets a state validator. Every update result is checked
// before commit; a rejection raises a ValidationError carrying the offending
// event's description and leaves state unchanged.
//
// The state type must match the store's. New panics on a mismatch, since
// that is a construction-time programming error.
func WithValidator[S any](fn func(S) error) Option {
	return func(c *storeConfig) {
		c.validator = fn
	}
}

// WithDeadLetter sets a journal that records every per-event failure for
// later inspection. Journal writes are best effort: a failing journal never
// blocks the pipeline.
func WithDeadLetter(journal deadletter.Journal) Option {
	return func(c *storeConfig) {
		c.journal = journal
	}
}

// WithMetrics enables OpenTelemetry metrics recording.
// Default: disabled.
func WithMetrics(enabled bool) Option {
	return func(c *storeConfig) {
		c.metrics = enabled
	}
}

// WithTracing enables OpenTelemetry span creation per dispatched event.
// Default: disabled.
func WithTracing(enabled bool) Option {
	return func(c *storeConfig) {
		c.tracing = enabled
	}
}

// FromSettings converts loaded settings into store options, opening the
// dead-letter journal and pre-registering declared data event types.
//
// Example:
//
//	settings, err := config.SettingsFromFile("store.yaml")
//	opts, err := eventflow.FromSettings(settings)
//	store := eventflow.New(initial, opts...)
func FromSettings(s config.Settings) ([]Option, error) {
	opts := []Option{
		WithBufferSize(s.BufferSize),
		WithMaxDepth(s.MaxDepth),
		WithMetrics(s.Metrics),
		WithTracing(s.Tracing),
	}

	if len(s.DataEvents) > 0 {
		registry := event.NewRegistry()
		for _, t := range s.DataEvents {
			if err := registry.Register(t, event.DataResolver(t)); err != nil {
				return nil, fmt.Errorf("register data event %q: %w", t, err)
			}
		}
		opts = append(opts, WithResolver(registry))
	}

	if s.DeadLetterPath != "" {
		journal, err := deadletter.NewSQLiteJournal(s.DeadLetterPath)
		if err != nil {
			return nil, fmt.Errorf("open dead letter journal: %w", err)
		}
		opts = append(opts, WithDeadLetter(journal))
	}

	return opts, nil
}
