package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Recorder records eventflow metrics.
// Use NewRecorder() for OTel metrics or NoopMetrics{} when disabled.
type Recorder interface {
	// RecordDispatch records an event entering the pipeline.
	RecordDispatch(ctx context.Context, eventType string)

	// RecordCommit records a committed state update and its latency.
	RecordCommit(ctx context.Context, eventType string, duration time.Duration)

	// RecordError records a per-event failure at a pipeline stage.
	RecordError(ctx context.Context, stage, eventType string)

	// RecordFeedback records a derived event re-entering the pipeline.
	RecordFeedback(ctx context.Context, eventType string, depth int)
}

// otelRecorder implements Recorder using OpenTelemetry.
type otelRecorder struct {
	dispatches    metric.Int64Counter
	commits       metric.Int64Counter
	updateLatency metric.Float64Histogram
	errors        metric.Int64Counter
	feedbackDepth metric.Int64Histogram
}

var (
	defaultRecorder     *otelRecorder
	defaultRecorderOnce sync.Once
	defaultRecorderErr  error
)

// getDefaultRecorder returns the default OTel recorder instance.
// Lazily initializes the instruments on first call.
func getDefaultRecorder() (*otelRecorder, error) {
	defaultRecorderOnce.Do(func() {
		defaultRecorder, defaultRecorderErr = newOtelRecorder()
	})
	return defaultRecorder, defaultRecorderErr
}

// newOtelRecorder creates a new OTel recorder instance.
func newOtelRecorder() (*otelRecorder, error) {
	meter := otel.Meter("eventflow")

	dispatches, err := meter.Int64Counter("eventflow.events.dispatched",
		metric.WithDescription("Number of events entering the pipeline"),
	)
	if err != nil {
		return nil, err
	}

	commits, err := meter.Int64Counter("eventflow.state.commits",
		metric.WithDescription("Number of committed state updates"),
	)
	if err != nil {
		return nil, err
	}

	updateLatency, err := meter.Float64Histogram("eventflow.update.latency_ms",
		metric.WithDescription("Update lane latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	errors, err := meter.Int64Counter("eventflow.events.errors",
		metric.WithDescription("Number of per-event failures"),
	)
	if err != nil {
		return nil, err
	}

	feedbackDepth, err := meter.Int64Histogram("eventflow.feedback.depth",
		metric.WithDescription("Depth of derived events re-entering the pipeline"),
	)
	if err != nil {
		return nil, err
	}

	return &otelRecorder{
		dispatches:    dispatches,
		commits:       commits,
		updateLatency: updateLatency,
		errors:        errors,
		feedbackDepth: feedbackDepth,
	}, nil
}

// NewRecorder returns a Recorder that uses OpenTelemetry.
// If instrument initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewRecorder() Recorder {
	r, err := getDefaultRecorder()
	if err != nil {
		return NoopMetrics{}
	}
	return r
}

// RecordDispatch records an event entering the pipeline.
func (r *otelRecorder) RecordDispatch(ctx context.Context, eventType string) {
	r.dispatches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event.type", eventType),
	))
}

// RecordCommit records a committed state update and its latency.
func (r *otelRecorder) RecordCommit(ctx context.Context, eventType string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("event.type", eventType))
	r.commits.Add(ctx, 1, attrs)
	r.updateLatency.Record(ctx, float64(duration.Microseconds())/1000.0, attrs)
}

// RecordError records a per-event failure at a pipeline stage.
func (r *otelRecorder) RecordError(ctx context.Context, stage, eventType string) {
	r.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("event.type", eventType),
	))
}

// RecordFeedback records a derived event re-entering the pipeline.
func (r *otelRecorder) RecordFeedback(ctx context.Context, eventType string, depth int) {
	r.feedbackDepth.Record(ctx, int64(depth), metric.WithAttributes(
		attribute.String("event.type", eventType),
	))
}
