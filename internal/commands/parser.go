package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/pixil98/go-roombot/internal/events"
	"github.com/pixil98/go-roombot/internal/protocol"
	"github.com/pixil98/go-roombot/internal/room"
)

const (
	commandPrefix = "!"
	// HiddenPrefix addresses the bot over the hidden channel.
	HiddenPrefix = "ChatRoomBot "

	defaultUnknownReply = "Unknown command"
)

// HandlerFunc runs a matched command. args are the tokens following the
// verb. A returned *UserError is replied to the sender.
type HandlerFunc func(ctx context.Context, sender room.Character, msg protocol.ChatMessage, args []string) error

// Replier answers a chat message the way it was addressed.
type Replier interface {
	Reply(msg protocol.ChatMessage, text string) error
}

// UnknownData is passed to the unknown command reply template.
type UnknownData struct {
	Sender room.Character
	Verb   string
	Args   []string
}

type binding struct {
	verb    string
	words   int
	help    string
	handler HandlerFunc
}

// Parser turns chat messages into command dispatch. Each game module owns
// one; Stop removes every binding and the message subscription.
type Parser struct {
	replier Replier
	unknown string

	mu       sync.RWMutex
	bindings map[string]*binding
	maxWords int

	sub *events.Subscription
}

// ParserOpt configures a Parser.
type ParserOpt func(*Parser)

// WithUnknownReply sets the template replied when no verb matches. The
// template receives UnknownData.
func WithUnknownReply(tmpl string) ParserOpt {
	return func(p *Parser) {
		if tmpl != "" {
			p.unknown = tmpl
		}
	}
}

// NewParser creates a parser replying through r.
func NewParser(r Replier, opts ...ParserOpt) *Parser {
	p := &Parser{
		replier:  r,
		unknown:  defaultUnknownReply,
		bindings: make(map[string]*binding),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func normalizeVerb(verb string) (string, int) {
	words := strings.Fields(verb)
	return strings.Join(words, " "), len(words)
}

// Register binds verb, one or more space separated words, to h.
func (p *Parser) Register(verb, help string, h HandlerFunc) error {
	key, words := normalizeVerb(verb)
	if words == 0 {
		return fmt.Errorf("command verb cannot be empty")
	}
	if h == nil {
		return fmt.Errorf("command %q: handler cannot be nil", key)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.bindings[key]; exists {
		return fmt.Errorf("command %q already registered", key)
	}
	p.bindings[key] = &binding{verb: key, words: words, help: help, handler: h}
	p.maxWords = max(p.maxWords, words)
	slog.Debug("command registered", "command", key)
	return nil
}

// Unregister removes a verb. It reports whether it was bound.
func (p *Parser) Unregister(verb string) bool {
	key, _ := normalizeVerb(verb)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.bindings[key]; !ok {
		slog.Warn("command not found", "command", key)
		return false
	}
	delete(p.bindings, key)
	p.maxWords = 0
	for _, b := range p.bindings {
		p.maxWords = max(p.maxWords, b.words)
	}
	return true
}

// Clear removes every binding.
func (p *Parser) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.bindings = make(map[string]*binding)
	p.maxWords = 0
}

// Help is one registered verb and its description.
type Help struct {
	Verb        string
	Description string
}

// Commands lists the registered verbs in alphabetical order.
func (p *Parser) Commands() []Help {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Help, 0, len(p.bindings))
	for _, b := range p.bindings {
		out = append(out, Help{Verb: b.verb, Description: b.help})
	}
	slices.SortFunc(out, func(a, b Help) int { return strings.Compare(a.Verb, b.Verb) })
	return out
}

// Start subscribes to chat messages on bus. Handlers receive ctx.
func (p *Parser) Start(ctx context.Context, bus *events.Bus) {
	p.sub = events.On(bus, func(ev events.Message) {
		p.Handle(ctx, ev.Sender, ev.Message)
	})
}

// Stop unsubscribes and removes every binding.
func (p *Parser) Stop() {
	p.sub.Unsubscribe()
	p.Clear()
}

// CommandText extracts the command text from a chat message, reporting
// false when the message is not addressed to the bot.
func CommandText(msg protocol.ChatMessage) (string, bool) {
	text := strings.TrimRight(strings.TrimLeft(msg.Content, "("), ")")

	switch msg.Type {
	case protocol.ChatTypeChat, protocol.ChatTypeWhisper:
		if len(text) > len(commandPrefix) && strings.HasPrefix(text, commandPrefix) {
			return text[len(commandPrefix):], true
		}
	case protocol.ChatTypeHidden:
		if strings.HasPrefix(msg.Content, HiddenPrefix) {
			return strings.TrimSpace(strings.TrimPrefix(text, HiddenPrefix)), true
		}
	}
	return "", false
}

// Handle dispatches msg if it is a command. It reports whether it was one.
func (p *Parser) Handle(ctx context.Context, sender room.Character, msg protocol.ChatMessage) bool {
	text, ok := CommandText(msg)
	if !ok {
		return false
	}
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return false
	}

	b, args := p.match(tokens)
	if b == nil {
		p.replyUnknown(sender, msg, tokens)
		return true
	}

	events.SafeCall("command "+b.verb, func() {
		err := b.handler(ctx, sender, msg, args)
		if err == nil {
			return
		}
		var userErr *UserError
		if errors.As(err, &userErr) {
			p.reply(msg, userErr.Message)
			return
		}
		slog.ErrorContext(ctx, "command failed", "command", b.verb, "sender", sender.MemberNumber, "error", err)
	})
	return true
}

// match returns the longest registered verb that prefixes tokens.
func (p *Parser) match(tokens []string) (*binding, []string) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var (
		found *binding
		used  int
		verb  []string
	)
	for i, tok := range tokens {
		if i >= p.maxWords {
			break
		}
		verb = append(verb, tok)
		if b, ok := p.bindings[strings.Join(verb, " ")]; ok {
			found, used = b, i+1
		}
	}
	if found == nil {
		return nil, nil
	}
	return found, slices.Clone(tokens[used:])
}

func (p *Parser) replyUnknown(sender room.Character, msg protocol.ChatMessage, tokens []string) {
	text, err := ExpandTemplate(p.unknown, UnknownData{Sender: sender, Verb: tokens[0], Args: tokens[1:]})
	if err != nil {
		slog.Warn("expanding unknown command reply", "error", err)
		text = defaultUnknownReply
	}
	p.reply(msg, text)
}

func (p *Parser) reply(msg protocol.ChatMessage, text string) {
	if err := p.replier.Reply(msg, text); err != nil {
		slog.Warn("replying to command", "sender", msg.Sender, "error", err)
	}
}
