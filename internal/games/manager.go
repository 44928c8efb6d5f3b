package games

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/pixil98/go-roombot/internal/commands"
	"github.com/pixil98/go-roombot/internal/events"
	"github.com/pixil98/go-roombot/internal/roommap"
)

// Factory builds a fresh game instance each time the game is started.
type Factory func() Game

// Manager runs at most one game at a time.
type Manager struct {
	conn       Conn
	bus        *events.Bus
	engine     *roommap.Engine
	parserOpts []commands.ParserOpt

	mu        sync.Mutex
	factories map[string]Factory
	current   Game
	host      *Host
}

// ManagerOpt configures a Manager.
type ManagerOpt func(*Manager)

// WithParserOpts configures the command parser handed to each game.
func WithParserOpts(opts ...commands.ParserOpt) ManagerOpt {
	return func(m *Manager) {
		m.parserOpts = append(m.parserOpts, opts...)
	}
}

func NewManager(conn Conn, bus *events.Bus, engine *roommap.Engine, opts ...ManagerOpt) *Manager {
	m := &Manager{
		conn:      conn,
		bus:       bus,
		engine:    engine,
		factories: make(map[string]Factory),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Register(key string, f Factory) error {
	if key == "" {
		return fmt.Errorf("game key cannot be empty")
	}
	if f == nil {
		return fmt.Errorf("game %q: factory is nil", key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.factories[key]; ok {
		return fmt.Errorf("game %q already registered", key)
	}
	m.factories[key] = f
	slog.Info("registered game", "key", key)
	return nil
}

// Keys lists the registered games in alphabetical order.
func (m *Manager) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.factories))
	for k := range m.factories {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Current returns the running game's key, or "".
func (m *Manager) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ""
	}
	return m.current.Key()
}

// Start builds and initializes the game registered under key. When the bot
// is already in a room the game's OnRoomJoined hook runs right away.
func (m *Manager) Start(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return fmt.Errorf("starting %s: %w", key, ErrGameRunning)
	}
	f, ok := m.factories[key]
	if !ok {
		return fmt.Errorf("starting %s: %w", key, ErrUnknownGame)
	}

	g := f()
	h := newHost(ctx, m.conn, m.bus, m.engine, m.parserOpts)

	On(h, func(events.RoomCreate) { runHook(h, g, "OnRoomCreated", g.OnRoomCreated) })
	On(h, func(events.RoomJoin) { runHook(h, g, "OnRoomJoined", g.OnRoomJoined) })

	if err := g.Init(h.ctx, h); err != nil {
		h.stop()
		return fmt.Errorf("initializing %s: %w", key, err)
	}

	m.current = g
	m.host = h
	slog.InfoContext(ctx, "game started", "game", key)

	if m.conn.Store().InRoom() {
		m.bus.Post(func() {
			if h.ctx.Err() == nil {
				runHook(h, g, "OnRoomJoined", g.OnRoomJoined)
			}
		})
	}
	return nil
}

func runHook(h *Host, g Game, name string, fn func(context.Context) error) {
	if err := fn(h.ctx); err != nil {
		slog.ErrorContext(h.ctx, "game hook failed", "game", g.Key(), "hook", name, "error", err)
	}
}

// Stop stops the running game and releases everything it held.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked(ctx)
}

func (m *Manager) stopLocked(ctx context.Context) error {
	if m.current == nil {
		return ErrNoGame
	}

	g, h := m.current, m.host
	m.current, m.host = nil, nil

	err := g.Stop(ctx)
	h.stop()
	slog.InfoContext(ctx, "game stopped", "game", g.Key())

	if err != nil {
		return fmt.Errorf("stopping %s: %w", g.Key(), err)
	}
	return nil
}

// Change stops the running game, if any, and starts key.
func (m *Manager) Change(ctx context.Context, key string) error {
	m.mu.Lock()
	if _, ok := m.factories[key]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("changing to %s: %w", key, ErrUnknownGame)
	}
	if m.current != nil {
		if err := m.stopLocked(ctx); err != nil {
			slog.WarnContext(ctx, "stopping previous game", "error", err)
		}
	}
	m.mu.Unlock()

	return m.Start(ctx, key)
}

// Tick satisfies driver.Manager; games implementing Ticker get a tick.
func (m *Manager) Tick(ctx context.Context) error {
	m.mu.Lock()
	g := m.current
	m.mu.Unlock()

	t, ok := g.(Ticker)
	if !ok {
		return nil
	}
	if err := t.Tick(ctx); err != nil {
		return fmt.Errorf("ticking %s: %w", g.Key(), err)
	}
	return nil
}
