package eventflow

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/eventflow/pkg/eventflow/deadletter"
	"github.com/randalmurphal/eventflow/pkg/eventflow/event"
	"github.com/randalmurphal/eventflow/pkg/eventflow/observability"
)

// run is the dispatch loop. It is the only goroutine that writes state and
// the only one that touches the subscriber maps. Queued items are preferred;
// spilled pending feedback is serviced whenever the queue has nothing ready.
func (s *Store[S]) run() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case it := <-s.queue:
			s.process(it)
		default:
			if len(s.pending) > 0 {
				it := s.pending[0]
				s.pending = s.pending[1:]
				s.process(it)
				continue
			}
			select {
			case <-s.ctx.Done():
				return
			case it := <-s.queue:
				s.process(it)
			}
		}
	}
}

// process handles one queue item: control messages first, then the
// resolve -> classify -> update -> watch/effect pipeline for events.
func (s *Store[S]) process(it item[S]) {
	switch {
	case it.ack != nil:
		close(it.ack)
		return
	case it.addSub != nil:
		s.subs[it.addSub.id] = it.addSub
		// Replay-latest: the listener sees the current state before any
		// commit that happens after registration.
		s.notifyOne(it.addSub, s.cell.get())
		return
	case it.delSub != "":
		delete(s.subs, it.delSub)
		return
	case it.addTap != nil:
		s.taps[it.addTap.id] = it.addTap
		return
	case it.delTap != "":
		delete(s.taps, it.delTap)
		return
	}

	evt := it.evt

	// Resolution: references become full events before classification.
	if ref, ok := event.AsReference(evt); ok {
		if s.cfg.resolver == nil {
			observability.LogDropped(s.logger, "reference without resolver", "ref:"+ref.Type)
			return
		}
		resolved, err := s.cfg.resolver.Resolve(ref)
		if err != nil {
			s.raise(&ResolutionError{Type: ref.Type, Err: err}, "resolve", "ref:"+ref.Type, it.depth, true)
			return
		}
		evt = resolved
	}

	desc := event.Describe(evt)

	for _, tap := range s.taps {
		if !tap.cancelled.Load() {
			s.safeTap(tap, evt, desc)
		}
	}

	updater, isUpdatable := event.UpdaterFor[S](evt)
	isWatchable := event.IsWatchable[S](evt)
	isEffectful := event.IsEffectful[S](evt)

	if !isUpdatable && !isWatchable && !isEffectful {
		if !event.IsTyped(evt) {
			// Non-events are ignored by design; log so misrouted values
			// are discoverable.
			observability.LogDropped(s.logger, "not an event", desc)
		}
		return
	}

	s.metrics.RecordDispatch(s.ctx, desc)
	observability.LogDispatch(s.logger, desc, it.depth)

	ctx, span := s.spans.StartDispatchSpan(s.ctx, desc)

	if isUpdatable {
		done := observability.TimedOperation()
		next, err := s.applyUpdate(updater, desc)
		if err == nil && s.validator != nil {
			if verr := s.validator(next); verr != nil {
				err = &ValidationError{Event: desc, Err: verr}
			}
		}
		if err != nil {
			// An event whose update fails must not run its watch or
			// effect facet; later events are unaffected.
			s.raise(err, laneOf(err), desc, it.depth, true)
			s.spans.EndSpanWithError(span, err)
			return
		}

		s.cell.set(next)
		durationMs := done()
		s.metrics.RecordCommit(ctx, desc, time.Duration(durationMs*float64(time.Millisecond)))
		observability.LogCommit(s.logger, desc, durationMs)
		for _, sub := range s.subs {
			if !sub.cancelled.Load() {
				s.notifyOne(sub, next)
			}
		}
	}

	// Watch and effect observe post-update state for this event, pre-update
	// state relative to events still in the queue.
	state := s.cell.get()

	if isWatchable {
		go s.runWatch(ctx, evt.(event.Watchable[S]), state, desc, it.depth)
	}
	if isEffectful {
		go s.runEffect(ctx, evt.(event.Effectful[S]), state, desc)
	}

	s.spans.EndSpanWithError(span, nil)
}

// applyUpdate runs the update lane with panic recovery.
func (s *Store[S]) applyUpdate(updater func(S) S, desc string) (next S, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerError{
				Event: desc,
				Lane:  "update",
				Err:   fmt.Errorf("panic: %v", r),
				Stack: string(debug.Stack()),
			}
		}
	}()
	return updater(s.cell.get()), nil
}

// runWatch executes the watch lane on its own goroutine and feeds the
// interpreted result back into the pipeline.
func (s *Store[S]) runWatch(ctx context.Context, w event.Watchable[S], state S, desc string, depth int) {
	defer func() {
		if r := recover(); r != nil {
			s.raise(&HandlerError{
				Event: desc,
				Lane:  "watch",
				Err:   fmt.Errorf("panic: %v", r),
				Stack: string(debug.Stack()),
			}, "watch", desc, depth, false)
		}
	}()

	_, span := s.spans.StartLaneSpan(ctx, "watch", desc)
	result := w.Watch(s.ctx, state, s)
	s.consumeWatchResult(result, desc, depth)
	s.spans.EndSpanWithError(span, nil)
}

// consumeWatchResult interprets a watch return value: nothing, a stream of
// further events, a batch, a single event, or an error. Anything else is a
// non-fatal warning and treated as nothing.
func (s *Store[S]) consumeWatchResult(result any, desc string, depth int) {
	switch r := result.(type) {
	case nil:
	case <-chan any:
		s.drainWatchStream(r, depth)
	case chan any:
		s.drainWatchStream(r, depth)
	case []any:
		for _, evt := range r {
			s.feedback(evt, depth+1, false)
		}
	case error:
		s.raise(&AsyncHandlerError{Event: desc, Err: r}, "watch", desc, depth, false)
	default:
		if event.IsEvent[S](r) || event.IsReference(r) {
			s.feedback(r, depth+1, false)
			return
		}
		observability.LogWatchResultIgnored(s.logger, desc, fmt.Sprintf("%T", r))
	}
}

// drainWatchStream forwards events from a watch-returned channel until the
// channel closes or the store shuts down.
func (s *Store[S]) drainWatchStream(ch <-chan any, depth int) {
	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				return
			}
			s.feedback(evt, depth+1, false)
		case <-s.ctx.Done():
			return
		}
	}
}

// runEffect executes the effect lane on its own goroutine. The effect's
// return is void; anything it wants to change goes through the emitter.
func (s *Store[S]) runEffect(ctx context.Context, e event.Effectful[S], state S, desc string) {
	defer func() {
		if r := recover(); r != nil {
			s.raise(&HandlerError{
				Event: desc,
				Lane:  "effect",
				Err:   fmt.Errorf("panic: %v", r),
				Stack: string(debug.Stack()),
			}, "effect", desc, 0, false)
		}
	}()

	_, span := s.spans.StartLaneSpan(ctx, "effect", desc)
	e.Effect(s.ctx, state, s)
	s.spans.EndSpanWithError(span, nil)
}

// notifyOne delivers a state to one listener, recovering panics so a broken
// listener cannot take down the pipeline.
func (s *Store[S]) notifyOne(sub *stateSub[S], state S) {
	defer func() {
		if r := recover(); r != nil {
			observability.LogListenerPanic(s.logger, "state", r)
		}
	}()
	sub.fn(state)
}

// safeTap delivers an event to one tap listener with panic recovery.
func (s *Store[S]) safeTap(tap *tapSub, evt any, desc string) {
	defer func() {
		if r := recover(); r != nil {
			observability.LogListenerPanic(s.logger, "tap", r)
		}
	}()
	tap.fn(evt)
}

// raise routes a per-event error: log, record, journal, then hand it to the
// configured handler. Replacement events the handler returns are fed back
// like a watch result. The pipeline itself never stops here.
//
// local is true when raise runs on the dispatch goroutine (resolve, update,
// and validate failures); it is threaded through to feedback so replacements
// never block the queue against its own consumer.
func (s *Store[S]) raise(err error, stage, desc string, depth int, local bool) {
	observability.LogEventError(s.logger, stage, desc, err)
	s.metrics.RecordError(s.ctx, stage, desc)

	if s.journal != nil {
		entry := &deadletter.Entry{
			ID:         uuid.New().String(),
			EventType:  desc,
			Stage:      stage,
			Reason:     err.Error(),
			OccurredAt: time.Now(),
		}
		if jerr := s.journal.Record(s.ctx, entry); jerr != nil {
			observability.LogJournalError(s.logger, "record", jerr)
		}
	}

	if s.onError == nil {
		return
	}

	replacements := s.invokeErrorHandler(err)

	// A depth-exceeded error must not re-enter the feedback path, or a
	// handler that always returns events would loop forever.
	if depth >= s.cfg.maxDepth {
		return
	}
	for _, evt := range replacements {
		s.feedback(evt, depth+1, local)
	}
}

// invokeErrorHandler calls the user handler, swallowing a secondary panic
// with a last-resort log.
func (s *Store[S]) invokeErrorHandler(err error) (replacements []any) {
	defer func() {
		if r := recover(); r != nil {
			observability.LogListenerPanic(s.logger, "error handler", r)
			replacements = nil
		}
	}()
	return s.onError(err)
}

// laneOf maps an update-lane error to its stage label.
func laneOf(err error) string {
	if _, ok := err.(*ValidationError); ok {
		return "validate"
	}
	return "update"
}

// errMaxDepth describes a feedback chain that exceeded the depth limit.
func errMaxDepth(limit int) error {
	return fmt.Errorf("feedback depth limit exceeded (%d)", limit)
}
