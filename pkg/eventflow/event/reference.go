package event

import (
	"errors"
	"fmt"
	"sync"
)

// Reference is a lightweight, serializable stand-in for a full event.
// It carries a type identifier and free-form parameters, and nothing else:
// a Reference never exposes dispatch capabilities itself. It must be
// resolved through a Registry before the pipeline can classify it.
type Reference struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// NewReference creates a reference. A nil params map becomes an empty one.
func NewReference(eventType string, params map[string]any) Reference {
	if params == nil {
		params = make(map[string]any)
	}
	return Reference{Type: eventType, Params: params}
}

// IsReference reports whether v is a Reference or *Reference.
func IsReference(v any) bool {
	_, ok := AsReference(v)
	return ok
}

// AsReference extracts a Reference from v when it is one.
func AsReference(v any) (Reference, bool) {
	switch r := v.(type) {
	case Reference:
		return r, true
	case *Reference:
		if r != nil {
			return *r, true
		}
	}
	return Reference{}, false
}

// ResolverFunc constructs a full event from reference parameters.
type ResolverFunc func(params map[string]any) (any, error)

// ErrUnresolvedType is returned by Registry.Resolve when no resolver is
// registered for a reference's type and no fallback is configured.
var ErrUnresolvedType = errors.New("no resolver registered for event type")

// Registry maps reference types to event constructors.
// Construct one per store; there is no ambient global registry.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[string]ResolverFunc
	fallback  ResolverFor
}

// ResolverFor produces an event for an unregistered type. See WithDataFallback.
type ResolverFor func(eventType string, params map[string]any) (any, error)

// RegistryOption configures registry behavior.
type RegistryOption func(*Registry)

// WithDataFallback makes unregistered types resolve to data-only events
// instead of failing with ErrUnresolvedType. The resulting Data values carry
// a type tag but no dispatch capabilities, so they flow through the pipeline
// visible to taps without touching state.
func WithDataFallback() RegistryOption {
	return func(r *Registry) {
		r.fallback = func(eventType string, params map[string]any) (any, error) {
			return Data{Type: eventType, Params: params}, nil
		}
	}
}

// WithFallback sets a custom resolver for unregistered types.
func WithFallback(fn ResolverFor) RegistryOption {
	return func(r *Registry) {
		r.fallback = fn
	}
}

// NewRegistry creates an empty resolver registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		resolvers: make(map[string]ResolverFunc),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a resolver for a reference type.
func (r *Registry) Register(eventType string, fn ResolverFunc) error {
	if eventType == "" {
		return errors.New("event type is required")
	}
	if fn == nil {
		return errors.New("resolver is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.resolvers[eventType]; exists {
		return fmt.Errorf("resolver for event type %q already registered", eventType)
	}

	r.resolvers[eventType] = fn
	return nil
}

// MustRegister registers a resolver, panicking on error.
func (r *Registry) MustRegister(eventType string, fn ResolverFunc) {
	if err := r.Register(eventType, fn); err != nil {
		panic(err)
	}
}

// Get returns the resolver for a reference type.
func (r *Registry) Get(eventType string) (ResolverFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, exists := r.resolvers[eventType]
	return fn, exists
}

// Unregister removes the resolver for a reference type.
func (r *Registry) Unregister(eventType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.resolvers, eventType)
}

// Types returns all registered reference types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.resolvers))
	for t := range r.resolvers {
		types = append(types, t)
	}
	return types
}

// Resolve constructs the full event for a reference. Unregistered types go
// through the configured fallback, or fail with ErrUnresolvedType.
func (r *Registry) Resolve(ref Reference) (any, error) {
	r.mu.RLock()
	fn, exists := r.resolvers[ref.Type]
	fallback := r.fallback
	r.mu.RUnlock()

	if exists {
		return fn(ref.Params)
	}
	if fallback != nil {
		return fallback(ref.Type, ref.Params)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnresolvedType, ref.Type)
}

// Data is a data-only event: it carries a type tag and parameters but no
// dispatch capabilities. Produced by WithDataFallback for unregistered
// reference types; useful when a store doubles as a plain event bus.
type Data struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// EventType implements Typed.
func (d Data) EventType() string {
	return d.Type
}

// DataResolver returns a ResolverFunc that constructs Data events of the
// given type. Handy for pre-registering bus-only event types from config.
func DataResolver(eventType string) ResolverFunc {
	return func(params map[string]any) (any, error) {
		return Data{Type: eventType, Params: params}, nil
	}
}
