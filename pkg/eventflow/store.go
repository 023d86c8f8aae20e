package eventflow

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/randalmurphal/eventflow/pkg/eventflow/deadletter"
	"github.com/randalmurphal/eventflow/pkg/eventflow/event"
	"github.com/randalmurphal/eventflow/pkg/eventflow/observability"
)

// Store is a reactive event-dispatch store: events flow in through Dispatch,
// are resolved and classified by capability, and are applied against the
// store's state under deterministic ordering. Watch results feed further
// events back into the same pipeline.
//
// All state mutation happens on a single dispatch goroutine, so updates are
// applied in arrival order with no possibility of two updates racing. Watch
// and effect lanes run concurrently but only ever read state; anything they
// want to change goes back through an update event.
//
// A Store is safe for concurrent use.
type Store[S any] struct {
	id  string
	cfg storeConfig

	cell      *cell[S]
	validator func(S) error

	queue  chan item[S]
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	// subs and taps are owned by the dispatch goroutine; Subscribe and Tap
	// hand them over through control items so listener invocation stays
	// ordered with commits.
	subs map[string]*stateSub[S]
	taps map[string]*tapSub

	// pending holds feedback that originated on the dispatch goroutine while
	// the queue was full. Only the dispatch goroutine touches it; the run
	// loop drains it whenever the queue has nothing ready.
	pending []item[S]

	logger  *slog.Logger
	metrics observability.Recorder
	spans   observability.SpanManager
	journal deadletter.Journal
	onError ErrorHandler
}

// item is a unit of work on the dispatch queue: an event, a flush barrier,
// or a subscription control message.
type item[S any] struct {
	evt   any
	depth int

	ack    chan struct{}
	addSub *stateSub[S]
	delSub string
	addTap *tapSub
	delTap string
}

// stateSub is a state-change subscription. cancelled is checked before every
// delivery so a cancelled listener stops immediately, even if the removal
// control item is still queued.
type stateSub[S any] struct {
	id        string
	fn        func(S)
	cancelled atomic.Bool
}

// tapSub is a read-only subscription to the post-resolution event feed.
type tapSub struct {
	id        string
	fn        func(any)
	cancelled atomic.Bool
}

// Compile-time check: the store is an event.Emitter.
var _ event.Emitter = (*Store[int])(nil)

// New creates a store with the given initial state and starts its dispatch
// goroutine. Close must be called to release it.
//
// New panics if a validator from WithValidator does not match the store's
// state type.
func New[S any](initial S, opts ...Option) *Store[S] {
	cfg := defaultStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var validator func(S) error
	if cfg.validator != nil {
		fn, ok := cfg.validator.(func(S) error)
		if !ok {
			panic("eventflow: validator state type does not match store state type")
		}
		validator = fn
	}

	metrics := observability.Recorder(observability.NoopMetrics{})
	if cfg.metrics {
		metrics = observability.NewRecorder()
	}
	spans := observability.SpanManager(observability.NoopSpanManager{})
	if cfg.tracing {
		spans = observability.NewSpanManager()
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Store[S]{
		id:        uuid.New().String(),
		cfg:       cfg,
		cell:      newCell(initial),
		validator: validator,
		queue:     make(chan item[S], cfg.bufferSize),
		ctx:       ctx,
		cancel:    cancel,
		subs:      make(map[string]*stateSub[S]),
		taps:      make(map[string]*tapSub),
		metrics:   metrics,
		spans:     spans,
		journal:   cfg.journal,
		onError:   cfg.onError,
	}
	s.logger = observability.EnrichLogger(cfg.logger, s.id)

	go s.run()

	return s
}

// ID returns the store's unique instance identifier, as used in logs.
func (s *Store[S]) ID() string {
	return s.id
}

// State returns the latest committed state.
func (s *Store[S]) State() S {
	return s.cell.get()
}

// Dispatch submits an event for processing. The event is queued; updates are
// applied in submission order. Returns a LifecycleError if the store has
// been closed.
func (s *Store[S]) Dispatch(evt any) error {
	if s.closed.Load() {
		return &LifecycleError{Op: "dispatch"}
	}
	return s.enqueue(item[S]{evt: evt})
}

// DispatchAll submits events in order, stopping at the first failure.
func (s *Store[S]) DispatchAll(evts ...any) error {
	for _, evt := range evts {
		if err := s.Dispatch(evt); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers a state listener. The listener is invoked once with
// the current state (replay-latest) and then after every committed update,
// in commit order, on the dispatch goroutine. A slow listener therefore
// slows the pipeline; hand off to a channel if that matters.
//
// Because listeners run on the dispatch goroutine, they must not call
// Dispatch synchronously: with a full queue that send would block against
// its own consumer. React to state by dispatching from another goroutine,
// or give the reacting event a watch or effect facet instead.
//
// The returned function cancels the subscription. Subscribing to a closed
// store is a no-op: the listener is never invoked.
func (s *Store[S]) Subscribe(listener func(S)) func() {
	if listener == nil || s.closed.Load() {
		return func() {}
	}

	sub := &stateSub[S]{id: uuid.New().String(), fn: listener}
	if err := s.enqueue(item[S]{addSub: sub}); err != nil {
		return func() {}
	}

	return func() {
		if sub.cancelled.CompareAndSwap(false, true) {
			_ = s.enqueue(item[S]{delSub: sub.id})
		}
	}
}

// Tap registers a read-only listener on the post-resolution event feed,
// for third-party bus integrations. Listeners see every resolved event
// before classification, including data-only events, and cannot mutate the
// pipeline. Invoked on the dispatch goroutine, so the same rule as
// Subscribe applies: never call Dispatch synchronously from a tap.
func (s *Store[S]) Tap(listener func(evt any)) func() {
	if listener == nil || s.closed.Load() {
		return func() {}
	}

	sub := &tapSub{id: uuid.New().String(), fn: listener}
	if err := s.enqueue(item[S]{addTap: sub}); err != nil {
		return func() {}
	}

	return func() {
		if sub.cancelled.CompareAndSwap(false, true) {
			_ = s.enqueue(item[S]{delTap: sub.id})
		}
	}
}

// Flush blocks until every event submitted before the call has settled its
// update lane. Watch and effect lanes may still be in flight; events they
// feed back afterwards are not covered by the barrier.
func (s *Store[S]) Flush(ctx context.Context) error {
	if s.closed.Load() {
		return &LifecycleError{Op: "flush"}
	}

	ack := make(chan struct{})
	if err := s.enqueue(item[S]{ack: ack}); err != nil {
		return err
	}

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return &LifecycleError{Op: "flush"}
	}
}

// Close shuts the store down: the queue stops draining, in-flight watch and
// effect lanes are cancelled via their context, and late feedback from them
// is discarded rather than raised. Idempotent. The store owns its
// dead-letter journal and closes it here.
func (s *Store[S]) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.cancel()
	observability.LogClose(s.logger)

	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			observability.LogJournalError(s.logger, "close", err)
		}
	}
	return nil
}

// enqueue places an item on the queue, giving up if the store closes first.
func (s *Store[S]) enqueue(it item[S]) error {
	select {
	case s.queue <- it:
		return nil
	case <-s.ctx.Done():
		return &LifecycleError{Op: "dispatch"}
	}
}

// feedback re-injects a derived event. Unlike Dispatch it is depth-tracked
// and silently drops events on a closed store, so late watch results never
// surface "push after close" errors to anyone.
//
// local marks calls made on the dispatch goroutine itself, such as
// error-handler replacements for update, validate, and resolve failures.
// Those must never block sending to the queue this same goroutine drains;
// when the queue is full they spill to the pending list instead, so a
// replacement burst can never wedge the pipeline against itself.
func (s *Store[S]) feedback(evt any, depth int, local bool) {
	if depth > s.cfg.maxDepth {
		s.raise(&AsyncHandlerError{
			Event: event.Describe(evt),
			Err:   errMaxDepth(s.cfg.maxDepth),
		}, "watch", event.Describe(evt), depth, local)
		return
	}

	s.metrics.RecordFeedback(s.ctx, event.Describe(evt), depth)

	if local {
		select {
		case s.queue <- item[S]{evt: evt, depth: depth}:
		default:
			s.pending = append(s.pending, item[S]{evt: evt, depth: depth})
		}
		return
	}

	select {
	case s.queue <- item[S]{evt: evt, depth: depth}:
	case <-s.ctx.Done():
	}
}
