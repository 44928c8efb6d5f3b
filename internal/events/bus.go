package events

import (
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Subscription is the handle returned by Subscribe. Unsubscribing removes
// exactly this listener; deliveries already queued for it are dropped.
type Subscription struct {
	bus    *Bus
	kind   Kind
	fn     func(Event)
	active atomic.Bool
}

// Unsubscribe removes the listener. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || !s.active.Swap(false) {
		return
	}
	s.bus.remove(s)
}

// Bus is a typed publish/subscribe hub. Delivery goes through a poster,
// inline by default or an ordered Queue so slow listeners never stall the
// publisher.
type Bus struct {
	mu   sync.RWMutex
	subs map[Kind][]*Subscription
	post func(func())
}

// BusOpt configures a Bus.
type BusOpt func(*Bus)

// WithQueue delivers notifications through q, in publication order.
func WithQueue(q *Queue) BusOpt {
	return func(b *Bus) {
		b.post = q.Post
	}
}

// NewBus creates a bus.
func NewBus(opts ...BusOpt) *Bus {
	b := &Bus{
		subs: make(map[Kind][]*Subscription),
		post: func(fn func()) { fn() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers fn for events of kind.
func (b *Bus) Subscribe(kind Kind, fn func(Event)) *Subscription {
	s := &Subscription{bus: b, kind: kind, fn: fn}
	s.active.Store(true)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[kind] = append(b.subs[kind], s)
	return s
}

// On registers a listener for one concrete event type.
func On[T Event](b *Bus, fn func(T)) *Subscription {
	var zero T
	return b.Subscribe(zero.Kind(), func(ev Event) {
		if typed, ok := ev.(T); ok {
			fn(typed)
		}
	})
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[s.kind]
	for i, other := range subs {
		if other == s {
			b.subs[s.kind] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[s.kind]) == 0 {
		delete(b.subs, s.kind)
	}
}

// Emit publishes ev to every listener subscribed to its kind at the time of
// the call.
func (b *Bus) Emit(ev Event) {
	b.mu.RLock()
	subs := append([]*Subscription(nil), b.subs[ev.Kind()]...)
	b.mu.RUnlock()

	for _, s := range subs {
		b.post(func() {
			if !s.active.Load() {
				return
			}
			SafeCall(string(ev.Kind()), func() { s.fn(ev) })
		})
	}
}

// Post runs fn on the bus's delivery path, after anything already queued.
func (b *Bus) Post(fn func()) {
	b.post(func() {
		SafeCall("post", fn)
	})
}

// Count returns the number of listeners for kind.
func (b *Bus) Count(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[kind])
}

// SafeCall runs fn, logging and swallowing any panic.
func SafeCall(name string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic in callback", "callback", name, "panic", rec, "stack", string(debug.Stack()))
		}
	}()
	fn()
}
