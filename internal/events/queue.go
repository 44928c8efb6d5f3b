package events

import (
	"context"
	"sync"
)

// Queue runs posted functions one at a time in posting order on a single
// goroutine. Posting never blocks.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []func()
	closed bool
}

// NewQueue creates an idle queue; call Start to begin running items.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Post appends fn. Items posted after the queue stopped are dropped.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.items = append(q.items, fn)
	q.cond.Signal()
}

// Len returns the number of items waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Start runs items until ctx is done.
func (q *Queue) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		q.mu.Lock()
		q.closed = true
		q.cond.Broadcast()
		q.mu.Unlock()
	}()

	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed {
			q.items = nil
			q.mu.Unlock()
			return nil
		}
		fn := q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]
		q.mu.Unlock()

		SafeCall("queue", fn)
	}
}
