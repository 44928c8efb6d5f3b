package games

import (
	"context"
	"sync"

	"github.com/pixil98/go-roombot/internal/commands"
	"github.com/pixil98/go-roombot/internal/events"
	"github.com/pixil98/go-roombot/internal/roommap"
)

// Host is a running game's handle on the bot. Everything a game acquires
// through it, subscriptions and commands and triggers and timers, is
// released when the game stops.
type Host struct {
	ctx    context.Context
	cancel context.CancelFunc

	conn   Conn
	bus    *events.Bus
	parser *commands.Parser
	scope  *roommap.Scope
	timers *Timers

	mu   sync.Mutex
	subs []*events.Subscription
}

func newHost(ctx context.Context, conn Conn, bus *events.Bus, engine *roommap.Engine, popts []commands.ParserOpt) *Host {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	h := &Host{
		ctx:    ctx,
		cancel: cancel,
		conn:   conn,
		bus:    bus,
		parser: commands.NewParser(conn, popts...),
		scope:  engine.Scope(),
		timers: newTimers(bus.Post),
	}
	h.parser.Start(ctx, bus)
	return h
}

// Context is cancelled when the game stops.
func (h *Host) Context() context.Context { return h.ctx }

func (h *Host) Conn() Conn { return h.conn }

func (h *Host) Commands() *commands.Parser { return h.parser }

func (h *Host) Triggers() *roommap.Scope { return h.scope }

func (h *Host) Timers() *Timers { return h.timers }

// On subscribes fn to one event type for as long as the game runs.
func On[T events.Event](h *Host, fn func(T)) {
	sub := events.On(h.bus, func(ev T) {
		if h.ctx.Err() != nil {
			return
		}
		fn(ev)
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, sub)
}

// Subscriptions returns the number of live subscriptions made through On.
func (h *Host) Subscriptions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Host) stop() {
	h.cancel()
	h.timers.StopAll()

	h.mu.Lock()
	subs := h.subs
	h.subs = nil
	h.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
	h.parser.Stop()
	h.scope.Release()
}
