package games

import (
	"sync"
	"time"
)

type timer struct {
	t         *time.Timer
	cancelled bool
}

// Timers schedules callbacks that run on the bus delivery path, so they
// never race room notifications. Nothing fires after StopAll.
type Timers struct {
	post func(func())

	mu      sync.Mutex
	stopped bool
	pending map[*timer]struct{}
}

func newTimers(post func(func())) *Timers {
	return &Timers{
		post:    post,
		pending: make(map[*timer]struct{}),
	}
}

// After runs fn once after d. The returned func cancels it and reports
// whether it was still pending.
func (t *Timers) After(d time.Duration, fn func()) func() bool {
	tm := &timer{}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return func() bool { return false }
	}
	t.pending[tm] = struct{}{}
	tm.t = time.AfterFunc(d, func() {
		t.post(func() {
			if !t.take(tm) {
				return
			}
			fn()
		})
	})

	return func() bool {
		t.mu.Lock()
		defer t.mu.Unlock()

		if _, ok := t.pending[tm]; !ok {
			return false
		}
		delete(t.pending, tm)
		tm.cancelled = true
		tm.t.Stop()
		return true
	}
}

func (t *Timers) take(tm *timer) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped || tm.cancelled {
		return false
	}
	delete(t.pending, tm)
	return true
}

// Pending returns the number of callbacks not yet run.
func (t *Timers) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// StopAll cancels every pending callback and refuses new ones.
func (t *Timers) StopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	for tm := range t.pending {
		tm.cancelled = true
		tm.t.Stop()
	}
	t.pending = make(map[*timer]struct{})
}
