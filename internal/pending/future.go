package pending

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrInvalidated is returned to waiters whose pending request was replaced
// because the connection it belonged to went away.
var ErrInvalidated = errors.New("pending request invalidated")

// Future is a one-shot result. It completes either with a value or by being
// invalidated; both release every waiter.
type Future[T any] struct {
	done      chan struct{}
	once      sync.Once
	val       T
	err       error
	CreatedAt time.Time
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{
		done:      make(chan struct{}),
		CreatedAt: time.Now(),
	}
}

func (f *Future[T]) resolve(v T) bool {
	ok := false
	f.once.Do(func() {
		f.val = v
		close(f.done)
		ok = true
	})
	return ok
}

func (f *Future[T]) invalidate() {
	f.once.Do(func() {
		f.err = ErrInvalidated
		close(f.done)
	})
}

// Done is closed once the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future completes or ctx ends.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
