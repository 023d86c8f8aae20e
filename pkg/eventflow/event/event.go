package event

import (
	"context"
	"fmt"
)

// Emitter accepts events for dispatch. The store implements Emitter and
// passes itself to Watch and Effect so handlers can feed further events
// into the same pipeline they were dispatched from.
type Emitter interface {
	// Dispatch submits a single event.
	Dispatch(evt any) error

	// DispatchAll submits events in order.
	DispatchAll(evts ...any) error
}

// Updatable is the synchronous state-transform capability.
// Update receives the current state and returns the next state.
// It must not block and must not have side effects beyond the returned value.
type Updatable[S any] interface {
	Update(state S) S
}

// Watchable is the asynchronous derived-event capability.
//
// Watch receives the state as of after this event's own Update (when it has
// one), plus an Emitter bound to the originating store. The returned value
// tells the pipeline what to feed back:
//   - nil: nothing
//   - <-chan any or chan any: a stream of further events, drained until closed
//   - []any: further events, in order
//   - error: surfaced as an asynchronous handler error
//   - a value that classifies as an event: a single further event
//
// Any other return value is logged as a warning and treated as nothing.
type Watchable[S any] interface {
	Watch(ctx context.Context, state S, emit Emitter) any
}

// Effectful is the side-effect-only capability. The pipeline discards
// anything Effect does beyond its side effects.
type Effectful[S any] interface {
	Effect(ctx context.Context, state S, emit Emitter)
}

// Typed exposes a type tag for description and filtering. The tag never
// participates in dispatch routing.
type Typed interface {
	EventType() string
}

// IsUpdatable reports whether v carries the Updatable capability.
// A bare func(S) S value counts: it is sugar for a single-purpose reducer.
// Safe to call on any value, including nil.
func IsUpdatable[S any](v any) bool {
	switch v.(type) {
	case Updatable[S], func(S) S:
		return true
	}
	return false
}

// IsWatchable reports whether v carries the Watchable capability.
func IsWatchable[S any](v any) bool {
	_, ok := v.(Watchable[S])
	return ok
}

// IsEffectful reports whether v carries the Effectful capability.
func IsEffectful[S any](v any) bool {
	_, ok := v.(Effectful[S])
	return ok
}

// IsTyped reports whether v exposes a type tag.
func IsTyped(v any) bool {
	_, ok := v.(Typed)
	return ok
}

// IsEvent reports whether v is an event at all: the disjunction of the three
// dispatch capabilities plus Typed. References are not events until resolved.
func IsEvent[S any](v any) bool {
	return IsUpdatable[S](v) || IsWatchable[S](v) || IsEffectful[S](v) || IsTyped(v)
}

// UpdaterFor returns the update function for v, whether v implements
// Updatable or is a bare func(S) S.
func UpdaterFor[S any](v any) (func(S) S, bool) {
	switch u := v.(type) {
	case Updatable[S]:
		return u.Update, true
	case func(S) S:
		return u, true
	}
	return nil, false
}

// Describe returns a human-readable description of an event for logs and
// errors: the type tag when present, else the Go type.
func Describe(v any) string {
	if t, ok := v.(Typed); ok {
		return t.EventType()
	}
	if r, ok := AsReference(v); ok {
		return "ref:" + r.Type
	}
	return fmt.Sprintf("%T", v)
}
