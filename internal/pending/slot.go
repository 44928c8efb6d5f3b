package pending

import "sync"

// Slot holds at most one outstanding request of a kind. Concurrent callers
// share the same Future; only the first one is told to send the request.
type Slot[T any] struct {
	mu  sync.Mutex
	cur *Future[T]
}

// Acquire returns the outstanding future, creating it when there is none.
// first is true when the caller created it and must issue the request.
func (s *Slot[T]) Acquire() (f *Future[T], first bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur != nil {
		return s.cur, false
	}
	s.cur = newFuture[T]()
	return s.cur, true
}

// Resolve completes the outstanding future and empties the slot. It
// returns false when nothing was pending.
func (s *Slot[T]) Resolve(v T) bool {
	s.mu.Lock()
	f := s.cur
	s.cur = nil
	s.mu.Unlock()

	if f == nil {
		return false
	}
	return f.resolve(v)
}

// Pending reports whether a request is outstanding.
func (s *Slot[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur != nil
}

// Invalidate releases the waiters of the outstanding future with
// ErrInvalidated and leaves the slot empty for the next connection.
func (s *Slot[T]) Invalidate() {
	s.mu.Lock()
	f := s.cur
	s.cur = nil
	s.mu.Unlock()

	if f != nil {
		f.invalidate()
	}
}

// Table is a set of slots keyed by a correlation value, used for requests
// whose responses carry the key (e.g. a member number).
type Table[K comparable, T any] struct {
	mu    sync.Mutex
	slots map[K]*Future[T]
}

// Acquire behaves like Slot.Acquire for key.
func (t *Table[K, T]) Acquire(key K) (f *Future[T], first bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.slots == nil {
		t.slots = make(map[K]*Future[T])
	}
	if f, ok := t.slots[key]; ok {
		return f, false
	}
	f = newFuture[T]()
	t.slots[key] = f
	return f, true
}

// Resolve completes the future for key. It returns false when nothing was
// pending for key.
func (t *Table[K, T]) Resolve(key K, v T) bool {
	t.mu.Lock()
	f, ok := t.slots[key]
	delete(t.slots, key)
	t.mu.Unlock()

	if !ok {
		return false
	}
	return f.resolve(v)
}

// Len returns the number of outstanding keys.
func (t *Table[K, T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}

// Invalidate releases every outstanding future with ErrInvalidated.
func (t *Table[K, T]) Invalidate() {
	t.mu.Lock()
	slots := t.slots
	t.slots = nil
	t.mu.Unlock()

	for _, f := range slots {
		f.invalidate()
	}
}

// Abandon invalidates the future for key alone, for a request that could
// not be sent.
func (t *Table[K, T]) Abandon(key K) {
	t.mu.Lock()
	f, ok := t.slots[key]
	delete(t.slots, key)
	t.mu.Unlock()

	if ok {
		f.invalidate()
	}
}
