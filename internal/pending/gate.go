package pending

import (
	"context"
	"errors"
	"sync"
)

// Gate is a resettable one-shot barrier. Each generation opens at most once;
// Reset replaces the generation, releasing waiters of the old one so they
// can re-observe the new state.
type Gate struct {
	mu  sync.Mutex
	cur *Future[struct{}]
}

// NewGate returns a closed gate.
func NewGate() *Gate {
	return &Gate{cur: newFuture[struct{}]()}
}

// Open opens the current generation.
func (g *Gate) Open() {
	g.mu.Lock()
	f := g.cur
	g.mu.Unlock()
	f.resolve(struct{}{})
}

// IsOpen reports whether the current generation is open.
func (g *Gate) IsOpen() bool {
	g.mu.Lock()
	f := g.cur
	g.mu.Unlock()

	select {
	case <-f.done:
		return f.err == nil
	default:
		return false
	}
}

// Reset starts a new closed generation and invalidates the previous one.
func (g *Gate) Reset() {
	g.mu.Lock()
	old := g.cur
	g.cur = newFuture[struct{}]()
	g.mu.Unlock()
	old.invalidate()
}

// Wait blocks until the gate is open, following resets.
func (g *Gate) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		f := g.cur
		g.mu.Unlock()

		_, err := f.Wait(ctx)
		if errors.Is(err, ErrInvalidated) {
			continue
		}
		return err
	}
}

// WaitOnce waits on the current generation only; a reset surfaces as
// ErrInvalidated.
func (g *Gate) WaitOnce(ctx context.Context) error {
	g.mu.Lock()
	f := g.cur
	g.mu.Unlock()

	_, err := f.Wait(ctx)
	return err
}
