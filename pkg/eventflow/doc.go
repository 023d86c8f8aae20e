/*
Package eventflow provides a reactive event-dispatch store.

# Overview

eventflow is a Go library for managing application state through a stream
of events. Events are plain Go values classified by the capabilities they
expose rather than by a type hierarchy: a value that can transform state, a
value that asynchronously produces further events, a value that only runs
side effects, or any combination. A single store goroutine applies updates
in arrival order against one state cell, while watch and effect lanes run
concurrently and feed derived events back into the same pipeline.

The library is inspired by unidirectional-dataflow stores (Redux, re-frame)
but built for Go with:
  - Type-safe generics for state management
  - Capability-based dispatch via interface checks
  - Per-event failure isolation (one bad event never stops the pipeline)
  - OpenTelemetry integration for observability

# Basic Usage

Define events as values with capabilities and dispatch them:

	type Counter struct {
	    Value int
	}

	type IncrementBy struct {
	    N int
	}

	func (e IncrementBy) Update(s Counter) Counter {
	    s.Value += e.N
	    return s
	}

	func main() {
	    store := eventflow.New(Counter{})
	    defer store.Close()

	    store.Dispatch(IncrementBy{N: 1})
	    store.Flush(context.Background())
	    fmt.Println(store.State().Value) // 1
	}

A bare func(S) S dispatches as a one-off update:

	store.Dispatch(func(s Counter) Counter {
	    s.Value = 0
	    return s
	})

# Asynchronous Event Chains

A Watchable event performs work off the dispatch goroutine and feeds
further events back. Its Watch sees the state already reflecting the same
event's own Update:

	type FetchUser struct {
	    ID string
	}

	func (e FetchUser) Watch(ctx context.Context, s AppState, emit event.Emitter) any {
	    out := make(chan any, 1)
	    go func() {
	        defer close(out)
	        user, err := loadUser(ctx, e.ID)
	        if err != nil {
	            emit.Dispatch(FetchFailed{ID: e.ID})
	            return
	        }
	        out <- UserLoaded{User: user}
	    }()
	    return out
	}

Watch may return nil, a channel of events, a []any batch, a single event,
or an error; anything else is logged and ignored. Feedback chains are
depth-limited (default 1000, see WithMaxDepth) so a self-sustaining loop
cannot run away.

# State Observation

Subscribe delivers the current state immediately and then every commit, in
order (behavior-subject semantics):

	cancel := store.Subscribe(func(s Counter) {
	    fmt.Println("counter:", s.Value)
	})
	defer cancel()

Tap exposes the post-resolution event feed for bus-style integrations; tap
listeners observe events but cannot mutate the pipeline.

# References and Resolvers

A Reference is a serializable {type, params} handle resolved to a full
event before classification:

	registry := event.NewRegistry()
	registry.MustRegister("counter.increment", func(params map[string]any) (any, error) {
	    n, _ := params["n"].(int)
	    return IncrementBy{N: n}, nil
	})

	store := eventflow.New(Counter{}, eventflow.WithResolver(registry))
	store.Dispatch(event.NewReference("counter.increment", map[string]any{"n": 2}))

Unregistered types raise a ResolutionError through the error handler, or
resolve to data-only events when the registry is built with
event.WithDataFallback. A store with no resolver drops references at debug
level; configure one if you dispatch references.

# Error Handling

Per-event failures (update panics, validation rejections, watch errors,
resolution failures) are routed to the configured handler and never stop
the pipeline:

	store := eventflow.New(Counter{},
	    eventflow.WithValidator(func(s Counter) error {
	        if s.Value < 0 {
	            return errors.New("counter must not go negative")
	        }
	        return nil
	    }),
	    eventflow.WithErrorHandler(func(err error) []any {
	        var verr *eventflow.ValidationError
	        if errors.As(err, &verr) {
	            return []any{ShowWarning{Text: verr.Error()}}
	        }
	        return nil
	    }),
	)

A handler may return replacement events, fed back like a watch result.
Only Close stops processing; Dispatch on a closed store returns a
LifecycleError.

# Observability

Enable logging, metrics, and tracing:

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	store := eventflow.New(initial,
	    eventflow.WithLogger(logger),
	    eventflow.WithMetrics(true),
	    eventflow.WithTracing(true),
	)

Logs include structured fields: store_id, event_type, stage, duration_ms.
OpenTelemetry metrics: eventflow.events.dispatched, eventflow.state.commits,
eventflow.update.latency_ms, eventflow.events.errors, eventflow.feedback.depth.
OpenTelemetry tracing: eventflow.dispatch > eventflow.lane.{watch,effect} spans.

# Thread Safety

  - Store is safe for concurrent use
  - State mutation happens only on the dispatch goroutine
  - Subscribe and Tap listeners run on the dispatch goroutine, in commit order
  - Watch and Effect run on their own goroutines and must treat state as read-only

# Subpackages

  - event: capability model, references, resolver registry
  - config: YAML/JSON settings loader
  - deadletter: failure journal (memory, SQLite)
  - observability: logging, metrics, and tracing helpers
*/
package eventflow
