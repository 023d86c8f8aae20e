package eventflow

import "fmt"

// ValidationError indicates that an event's update produced a state the
// configured validator rejected. The new state is never committed.
type ValidationError struct {
	// Event is a human-readable description of the offending event.
	Event string

	// Err is the validator's rejection.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("event %s: state validation failed: %v", e.Event, e.Err)
}

// Unwrap returns the validator's rejection.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// HandlerError indicates an event's update, watch, or effect panicked while
// being called synchronously by a lane.
type HandlerError struct {
	// Event is a human-readable description of the offending event.
	Event string

	// Lane is the processing lane that failed: "update", "watch", or "effect".
	Lane string

	// Err is the recovered panic value or underlying error.
	Err error

	// Stack is the goroutine stack at the point of the panic, if any.
	Stack string
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("event %s: %s lane failed: %v", e.Event, e.Lane, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// AsyncHandlerError indicates an error surfaced from a watch result after the
// watch call itself returned: an error value returned by Watch, or a feedback
// chain that exceeded the store's depth limit.
type AsyncHandlerError struct {
	// Event is a human-readable description of the originating event.
	Event string

	// Err is the surfaced error.
	Err error
}

// Error implements the error interface.
func (e *AsyncHandlerError) Error() string {
	return fmt.Sprintf("event %s: watch result failed: %v", e.Event, e.Err)
}

// Unwrap returns the surfaced error.
func (e *AsyncHandlerError) Unwrap() error {
	return e.Err
}

// ResolutionError indicates a reference's type had no registered resolver, or
// the resolver itself failed. Routed to the error handler so misconfigured
// event types are discoverable rather than silently dropped.
type ResolutionError struct {
	// Type is the reference type that failed to resolve.
	Type string

	// Err is the registry's error.
	Err error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve reference %q: %v", e.Type, e.Err)
}

// Unwrap returns the registry's error.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// LifecycleError indicates an operation on a store that has been closed.
// Unlike the per-event errors above it is returned synchronously to the
// caller rather than routed to the error handler.
type LifecycleError struct {
	// Op is the operation that was attempted: "dispatch" or "flush".
	Op string
}

// Error implements the error interface.
func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s on closed store", e.Op)
}
