// Package event defines the capability model for eventflow events.
//
// An event is any Go value. What the dispatch pipeline does with it is
// determined entirely by which capabilities the value exposes:
//   - Updatable: a synchronous state transform
//   - Watchable: an asynchronous producer of further events
//   - Effectful: a side-effect-only action
//   - Typed: an optional type tag, used for description and filtering only
//
// Capabilities are independent interface checks, not a class hierarchy.
// A single value may implement any non-empty subset of them; the pipeline
// always applies Update before Watch or Effect observe state.
//
// The package also provides References: lightweight {type, params} handles
// that stand in for full events until a Registry resolves them.
//
// Design Influences:
//   - Redux/re-frame style capability dispatch (duck typing over values)
//   - Temporal signal registries (named handler lookup)
package event
