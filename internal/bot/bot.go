package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pixil98/go-roombot/internal/games"
	"github.com/pixil98/go-roombot/internal/protocol"
	"github.com/pixil98/go-roombot/internal/room"
	"github.com/pixil98/go-roombot/internal/session"
	"github.com/pixil98/go-roombot/internal/storage"
)

// Transport is the connection state the bot reports on.
type Transport interface {
	Connected() bool
}

// Profile is applied to the bot's account once after the first login.
type Profile struct {
	Nickname       string
	Description    string
	ItemPermission *room.PermissionLevel
}

// Settings is what the bot runs with.
type Settings struct {
	Profile Profile
	Room    protocol.RoomDefinition
	Game    string
	// PresetID names the stored room definition preferred over Room and
	// overwritten with the live room on shutdown.
	PresetID string
}

// Bot runs one session in one room with one game at a time.
type Bot struct {
	runID     string
	settings  Settings
	sess      *session.Session
	games     *games.Manager
	transport Transport
	presets   storage.Storer[*protocol.RoomDefinition]

	mu        sync.Mutex
	startedAt time.Time
}

// Opt configures a Bot.
type Opt func(*Bot)

// WithPresets stores the room definition in st under Settings.PresetID.
func WithPresets(st storage.Storer[*protocol.RoomDefinition]) Opt {
	return func(b *Bot) {
		b.presets = st
	}
}

func New(s Settings, sess *session.Session, gm *games.Manager, tr Transport, opts ...Opt) *Bot {
	b := &Bot{
		runID:     uuid.NewString(),
		settings:  s,
		sess:      sess,
		games:     gm,
		transport: tr,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Session returns the bot's session.
func (b *Bot) Session() *session.Session { return b.sess }

// Start starts the configured game, logs the bot into its room and blocks
// until ctx is done. On the way out the game is stopped and the live room
// definition saved as the preset.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	b.startedAt = time.Now()
	b.mu.Unlock()

	if b.settings.Game != "" {
		if err := b.games.Start(ctx, b.settings.Game); err != nil {
			return fmt.Errorf("starting game: %w", err)
		}
	}

	def := b.roomDefinition()
	slog.InfoContext(ctx, "bot starting", "run_id", b.runID, "room", def.Name, "game", b.settings.Game)

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.enter(ctx, def)
	}()

	<-ctx.Done()
	<-done

	stopCtx := context.WithoutCancel(ctx)
	if err := b.games.Stop(stopCtx); err != nil && !errors.Is(err, games.ErrNoGame) {
		slog.WarnContext(stopCtx, "stopping game", "error", err)
	}
	b.savePreset()
	return nil
}

func (b *Bot) enter(ctx context.Context, def protocol.RoomDefinition) {
	if err := b.sess.WaitLoggedIn(ctx); err != nil {
		return
	}
	if err := b.applyProfile(ctx); err != nil {
		slog.WarnContext(ctx, "applying bot profile", "error", err)
	}
	if err := b.sess.JoinOrCreateRoom(ctx, def); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "entering room", "room", def.Name, "error", err)
	}
}

func (b *Bot) applyProfile(ctx context.Context) error {
	p := b.settings.Profile

	if p.Nickname != "" {
		nick := p.Nickname
		if err := b.sess.AccountUpdate(protocol.AccountUpdate{Nickname: &nick}); err != nil {
			return fmt.Errorf("setting nickname: %w", err)
		}
	}
	if p.Description != "" {
		if err := b.sess.SetBotDescription(ctx, p.Description); err != nil {
			return fmt.Errorf("setting description: %w", err)
		}
	}
	if p.ItemPermission != nil {
		if err := b.sess.SetItemPermission(*p.ItemPermission); err != nil {
			return fmt.Errorf("setting item permission: %w", err)
		}
	}
	return nil
}

// roomDefinition prefers the stored preset over the configured room.
func (b *Bot) roomDefinition() protocol.RoomDefinition {
	if b.presets != nil && b.settings.PresetID != "" {
		if p := b.presets.Get(b.settings.PresetID); p != nil {
			slog.Info("using stored room preset", "preset", b.settings.PresetID, "room", p.Name)
			return *p.Clone()
		}
	}
	return *b.settings.Room.Clone()
}

func (b *Bot) savePreset() {
	if b.presets == nil || b.settings.PresetID == "" {
		return
	}
	def, ok := b.sess.RoomDefinition()
	if !ok {
		return
	}
	if err := b.presets.Save(b.settings.PresetID, &def); err != nil {
		slog.Error("saving room preset", "preset", b.settings.PresetID, "error", err)
		return
	}
	slog.Info("saved room preset", "preset", b.settings.PresetID, "room", def.Name)
}

// StartGame starts key, or the configured game when key is empty.
func (b *Bot) StartGame(ctx context.Context, key string) error {
	if key == "" {
		key = b.settings.Game
	}
	return b.games.Start(ctx, key)
}

// StopGame stops the running game.
func (b *Bot) StopGame(ctx context.Context) error {
	return b.games.Stop(ctx)
}

// RestartGame stops the running game and starts a fresh instance of it.
func (b *Bot) RestartGame(ctx context.Context) error {
	key := b.games.Current()
	if key == "" {
		return games.ErrNoGame
	}
	return b.games.Change(ctx, key)
}

// ChangeGame replaces the running game with key.
func (b *Bot) ChangeGame(ctx context.Context, key string) error {
	return b.games.Change(ctx, key)
}

// Tick satisfies driver.Manager.
func (b *Bot) Tick(ctx context.Context) error {
	return b.games.Tick(ctx)
}
