package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-roombot/internal/protocol"
	"github.com/pixil98/go-roombot/internal/room"
)

// Command defines a canned reply command loaded from data.
type Command struct {
	Verb        string `json:"verb" yaml:"verb"`
	Description string `json:"description" yaml:"description"`
	Reply       string `json:"reply" yaml:"reply"`
	MinArgs     int    `json:"min_args,omitempty" yaml:"min_args"`
	Usage       string `json:"usage,omitempty" yaml:"usage"`
}

// ReplyData is passed to a Command's reply template.
type ReplyData struct {
	Sender room.Character
	Args   []string
	Vars   map[string]any
}

func (c *Command) Validate() error {
	el := errors.NewErrorList()

	if strings.TrimSpace(c.Verb) == "" {
		el.Add(fmt.Errorf("command verb not set"))
	}
	if c.Reply == "" {
		el.Add(fmt.Errorf("command %q: reply not set", c.Verb))
	} else if err := ValidateTemplate(c.Reply); err != nil {
		el.Add(fmt.Errorf("command %q: %w", c.Verb, err))
	}
	if c.MinArgs < 0 {
		el.Add(fmt.Errorf("command %q: min_args must not be negative", c.Verb))
	}

	return el.Err()
}

// Handler returns the HandlerFunc replying with the expanded template.
// vars supplies extra template values at dispatch time.
func (c *Command) Handler(r Replier, vars func() map[string]any) HandlerFunc {
	return func(ctx context.Context, sender room.Character, msg protocol.ChatMessage, args []string) error {
		if len(args) < c.MinArgs {
			usage := c.Usage
			if usage == "" {
				usage = fmt.Sprintf("Usage: !%s", c.Verb)
			}
			return NewUserError(usage)
		}

		data := ReplyData{Sender: sender, Args: args}
		if vars != nil {
			data.Vars = vars()
		}
		text, err := ExpandTemplate(c.Reply, data)
		if err != nil {
			return fmt.Errorf("expanding reply: %w", err)
		}
		return r.Reply(msg, text)
	}
}

// RegisterAll registers every command on p.
func RegisterAll(p *Parser, cmds map[string]*Command, vars func() map[string]any) error {
	el := errors.NewErrorList()
	for id, c := range cmds {
		if err := p.Register(c.Verb, c.Description, c.Handler(p.replier, vars)); err != nil {
			el.Add(fmt.Errorf("registering command %q: %w", id, err))
		}
	}
	return el.Err()
}
