package games

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-roombot/internal/commands"
	"github.com/pixil98/go-roombot/internal/display"
	"github.com/pixil98/go-roombot/internal/events"
	"github.com/pixil98/go-roombot/internal/protocol"
	"github.com/pixil98/go-roombot/internal/room"
	"github.com/pixil98/go-roombot/internal/roommap"
)

const (
	LobbyKey = "lobby"

	defaultGreetDelay = 2 * time.Second
)

// LobbyConfig is the data the lobby game runs from.
type LobbyConfig struct {
	Commands   map[string]*commands.Command
	Greeting   string
	GreetDelay time.Duration
	Triggers   *roommap.TriggerSet
	Superusers []int
}

func (c *LobbyConfig) Validate() error {
	el := errors.NewErrorList()

	for id, cmd := range c.Commands {
		if err := cmd.Validate(); err != nil {
			el.Add(fmt.Errorf("command %s: %w", id, err))
		}
	}
	if c.Greeting != "" {
		if err := commands.ValidateTemplate(c.Greeting); err != nil {
			el.Add(fmt.Errorf("greeting: %w", err))
		}
	}
	if c.GreetDelay < 0 {
		el.Add(fmt.Errorf("greet delay must not be negative"))
	}
	if c.Triggers != nil {
		if err := c.Triggers.Validate(); err != nil {
			el.Add(fmt.Errorf("triggers: %w", err))
		}
	}

	return el.Err()
}

// GreetingData is passed to the greeting and trigger message templates.
type GreetingData struct {
	Character room.Character
	Room      string
	Members   int
}

// Lobby greets newcomers, answers canned commands and runs data-driven map
// triggers.
type Lobby struct {
	cfg  LobbyConfig
	host *Host
}

// NewLobby returns a Factory for lobby games sharing cfg.
func NewLobby(cfg LobbyConfig) Factory {
	if cfg.GreetDelay == 0 {
		cfg.GreetDelay = defaultGreetDelay
	}
	return func() Game { return &Lobby{cfg: cfg} }
}

func (l *Lobby) Key() string { return LobbyKey }

func (l *Lobby) Init(ctx context.Context, h *Host) error {
	l.host = h

	if err := commands.RegisterAll(h.Commands(), l.cfg.Commands, l.templateVars); err != nil {
		return err
	}
	if err := h.Commands().Register("help", "List the commands", l.help); err != nil {
		return err
	}
	if err := h.Commands().Register("kick", "Remove a member from the room", l.kick); err != nil {
		return err
	}

	if l.cfg.Greeting != "" {
		On(h, l.onEntered)
	}
	l.armTriggers()

	slog.InfoContext(ctx, "lobby ready", "commands", len(l.cfg.Commands), "superusers", len(l.cfg.Superusers))
	return nil
}

// armTriggers replaces the lobby's map triggers. Leaving a room drops every
// trigger, so this runs again on each room the lobby lands in.
func (l *Lobby) armTriggers() {
	if l.cfg.Triggers == nil {
		return
	}
	l.host.Triggers().ClearAll()
	l.host.Triggers().AddDefs(l.cfg.Triggers.Triggers, l.onTrigger)
}

func (l *Lobby) OnRoomCreated(ctx context.Context) error {
	l.armTriggers()
	if l.cfg.Triggers == nil || l.cfg.Triggers.Map == "" {
		return nil
	}
	if err := l.host.Conn().SetMapFromString(l.cfg.Triggers.Map); err != nil {
		return fmt.Errorf("setting lobby map: %w", err)
	}
	return nil
}

func (l *Lobby) OnRoomJoined(ctx context.Context) error {
	l.armTriggers()
	r, _ := l.host.Conn().Store().Room()
	slog.InfoContext(ctx, "lobby in room", "room", r.Name, "members", len(r.Members))
	return nil
}

func (l *Lobby) Stop(ctx context.Context) error {
	return nil
}

func (l *Lobby) templateVars() map[string]any {
	r, _ := l.host.Conn().Store().Room()
	return map[string]any{
		"Room":    r.Name,
		"Members": len(r.Members),
	}
}

func (l *Lobby) greetingData(c room.Character) GreetingData {
	r, _ := l.host.Conn().Store().Room()
	return GreetingData{Character: c, Room: r.Name, Members: len(r.Members)}
}

func (l *Lobby) help(ctx context.Context, sender room.Character, msg protocol.ChatMessage, args []string) error {
	var sb strings.Builder
	sb.WriteString("Commands:")
	for _, c := range l.host.Commands().Commands() {
		sb.WriteString("\n!" + c.Verb)
		if c.Description != "" {
			sb.WriteString(" - " + c.Description)
		}
	}
	return l.host.Conn().Reply(msg, sb.String())
}

func (l *Lobby) kick(ctx context.Context, sender room.Character, msg protocol.ChatMessage, args []string) error {
	if !slices.Contains(l.cfg.Superusers, sender.MemberNumber) {
		return commands.NewUserError("You are not allowed to do that.")
	}
	if len(args) != 1 {
		return commands.NewUserError("Usage: !kick <member number>")
	}
	member, err := strconv.Atoi(args[0])
	if err != nil {
		return commands.NewUserError(fmt.Sprintf("%q is not a member number.", args[0]))
	}
	if _, ok := l.host.Conn().Store().Character(member); !ok {
		return commands.NewUserError(fmt.Sprintf("Member %d is not here.", member))
	}
	return l.host.Conn().Kick(member)
}

func (l *Lobby) onEntered(ev events.CharacterEntered) {
	c := ev.Character
	if l.host.Conn().IsBot(c) {
		return
	}

	l.host.Timers().After(l.cfg.GreetDelay, func() {
		cur, ok := l.host.Conn().Store().Character(c.MemberNumber)
		if !ok {
			return
		}
		text, err := commands.ExpandTemplate(l.cfg.Greeting, l.greetingData(cur))
		if err != nil {
			slog.Warn("expanding greeting", "member", c.MemberNumber, "error", err)
			return
		}
		if err := l.host.Conn().Whisper(c.MemberNumber, text); err != nil {
			slog.Warn("sending greeting", "member", c.MemberNumber, "error", err)
		}
	})
}

func (l *Lobby) onTrigger(c room.Character, d roommap.TriggerDef) {
	slog.Debug("trigger fired", "trigger", d.Name, "member", c.MemberNumber)

	if d.Message != "" {
		text, err := commands.ExpandTemplate(d.Message, l.greetingData(c))
		if err != nil {
			slog.Warn("expanding trigger message", "trigger", d.Name, "error", err)
		} else if err := l.sendTriggerMessage(c, d, text); err != nil {
			slog.Warn("sending trigger message", "trigger", d.Name, "error", err)
		}
	}

	if d.Effect != nil {
		if err := l.host.Conn().ApplyEffects(*d.Effect); err != nil {
			slog.Warn("applying trigger effect", "trigger", d.Name, "error", err)
		}
	}
}

func (l *Lobby) sendTriggerMessage(c room.Character, d roommap.TriggerDef, text string) error {
	text = display.Capitalize(text)
	if d.Whisper {
		return l.host.Conn().Whisper(c.MemberNumber, text)
	}
	return l.host.Conn().SendMessage(protocol.ChatTypeEmote, "*"+text, 0, nil)
}
