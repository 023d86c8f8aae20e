package eventflow

import "sync"

// cell holds the store's current state. Reads may come from any goroutine;
// writes come exclusively from the dispatch goroutine, so there is never a
// concurrent writer. The lock makes reads see complete values, not serialize
// writers.
type cell[S any] struct {
	mu    sync.RWMutex
	value S
}

func newCell[S any](initial S) *cell[S] {
	return &cell[S]{value: initial}
}

// get returns the latest committed state.
func (c *cell[S]) get() S {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// set commits a new state. Called only from the dispatch goroutine.
func (c *cell[S]) set(v S) {
	c.mu.Lock()
	c.value = v
	c.mu.Unlock()
}
