package command

import (
	"fmt"

	"github.com/pixil98/go-roombot/internal/commands"
)

type CommandsConfig struct {
	UnknownReply string `json:"unknown_reply"`
}

func (c *CommandsConfig) validate() error {
	if c.UnknownReply == "" {
		return nil
	}
	if err := commands.ValidateTemplate(c.UnknownReply); err != nil {
		return fmt.Errorf("commands: unknown_reply: %w", err)
	}
	return nil
}

func (c *CommandsConfig) parserOpts() []commands.ParserOpt {
	if c.UnknownReply == "" {
		return nil
	}
	return []commands.ParserOpt{commands.WithUnknownReply(c.UnknownReply)}
}
