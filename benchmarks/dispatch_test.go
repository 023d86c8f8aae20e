package benchmarks

import (
	"context"
	"testing"

	"github.com/randalmurphal/eventflow/pkg/eventflow"
	"github.com/randalmurphal/eventflow/pkg/eventflow/event"
)

// State is a realistic mid-sized application state.
type State struct {
	Counter  int
	Items    []string
	Metadata map[string]string
}

func newState() State {
	items := make([]string, 50)
	for i := range items {
		items[i] = "item"
	}
	return State{
		Items: items,
		Metadata: map[string]string{
			"tenant": "bench",
			"region": "local",
		},
	}
}

// tick is a minimal update event.
type tick struct{}

func (tick) Update(s State) State {
	s.Counter++
	return s
}

// spawn feeds one derived event back per dispatch.
type spawn struct{}

func (spawn) Update(s State) State {
	s.Counter++
	return s
}

func (spawn) Watch(_ context.Context, _ State, _ event.Emitter) any {
	return []any{tick{}}
}

// BenchmarkDispatch_Update measures raw update throughput.
func BenchmarkDispatch_Update(b *testing.B) {
	store := eventflow.New(newState(), eventflow.WithBufferSize(4096))
	defer store.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Dispatch(tick{})
	}
	_ = store.Flush(context.Background())
}

// BenchmarkDispatch_BareFunc measures the func(S) S sugar path.
func BenchmarkDispatch_BareFunc(b *testing.B) {
	store := eventflow.New(newState(), eventflow.WithBufferSize(4096))
	defer store.Close()

	fn := func(s State) State {
		s.Counter++
		return s
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Dispatch(fn)
	}
	_ = store.Flush(context.Background())
}

// BenchmarkDispatch_WithSubscribers measures commit fan-out cost.
func BenchmarkDispatch_WithSubscribers(b *testing.B) {
	store := eventflow.New(newState(), eventflow.WithBufferSize(4096))
	defer store.Close()

	for i := 0; i < 10; i++ {
		store.Subscribe(func(State) {})
	}
	_ = store.Flush(context.Background())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Dispatch(tick{})
	}
	_ = store.Flush(context.Background())
}

// BenchmarkDispatch_WithValidator measures the validation path.
func BenchmarkDispatch_WithValidator(b *testing.B) {
	store := eventflow.New(newState(),
		eventflow.WithBufferSize(4096),
		eventflow.WithValidator(func(s State) error { return nil }),
	)
	defer store.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Dispatch(tick{})
	}
	_ = store.Flush(context.Background())
}

// BenchmarkDispatch_WatchFeedback measures the feedback round trip.
func BenchmarkDispatch_WatchFeedback(b *testing.B) {
	store := eventflow.New(newState(), eventflow.WithBufferSize(4096))
	defer store.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Dispatch(spawn{})
	}
	_ = store.Flush(context.Background())
}

// BenchmarkDispatch_Reference measures resolution overhead.
func BenchmarkDispatch_Reference(b *testing.B) {
	registry := event.NewRegistry()
	registry.MustRegister("tick", func(map[string]any) (any, error) {
		return tick{}, nil
	})

	store := eventflow.New(newState(),
		eventflow.WithBufferSize(4096),
		eventflow.WithResolver(registry),
	)
	defer store.Close()

	ref := event.NewReference("tick", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Dispatch(ref)
	}
	_ = store.Flush(context.Background())
}

// BenchmarkStateRead measures concurrent state reads against the cell.
func BenchmarkStateRead(b *testing.B) {
	store := eventflow.New(newState())
	defer store.Close()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = store.State()
		}
	})
}
