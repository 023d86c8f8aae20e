// Package observability provides structured logging, metrics, and tracing
// for eventflow stores.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds store context to a logger.
// Returns a new logger carrying the store_id field.
func EnrichLogger(logger *slog.Logger, storeID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("store_id", storeID))
}

// LogDispatch logs an event entering the pipeline.
func LogDispatch(logger *slog.Logger, eventType string, depth int) {
	if logger == nil {
		return
	}
	logger.Debug("event dispatched",
		slog.String("event_type", eventType),
		slog.Int("depth", depth),
	)
}

// LogCommit logs a committed state update.
func LogCommit(logger *slog.Logger, eventType string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("state committed",
		slog.String("event_type", eventType),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogDropped logs a value the pipeline ignored.
func LogDropped(logger *slog.Logger, reason, eventType string) {
	if logger == nil {
		return
	}
	logger.Debug("event dropped",
		slog.String("event_type", eventType),
		slog.String("reason", reason),
	)
}

// LogEventError logs a per-event failure (non-fatal to the pipeline).
func LogEventError(logger *slog.Logger, stage, eventType string, err error) {
	if logger == nil {
		return
	}
	logger.Error("event failed",
		slog.String("event_type", eventType),
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
}

// LogWatchResultIgnored logs an unsupported watch return value.
func LogWatchResultIgnored(logger *slog.Logger, eventType, resultType string) {
	if logger == nil {
		return
	}
	logger.Warn("watch result ignored",
		slog.String("event_type", eventType),
		slog.String("result_type", resultType),
	)
}

// LogListenerPanic logs a recovered panic from a listener or error handler.
// This is the last-resort path; the panic is swallowed.
func LogListenerPanic(logger *slog.Logger, listener string, value any) {
	if logger == nil {
		return
	}
	logger.Error("listener panic recovered",
		slog.String("listener", listener),
		slog.Any("panic", value),
	)
}

// LogJournalError logs a dead-letter journal failure (non-fatal).
func LogJournalError(logger *slog.Logger, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("dead letter journal failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// LogClose logs store shutdown.
func LogClose(logger *slog.Logger) {
	if logger == nil {
		return
	}
	logger.Info("store closed")
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
