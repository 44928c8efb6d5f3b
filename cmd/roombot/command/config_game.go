package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-roombot/internal/commands"
	"github.com/pixil98/go-roombot/internal/games"
	"github.com/pixil98/go-roombot/internal/roommap"
	"github.com/pixil98/go-roombot/internal/storage"
)

type GameConfig struct {
	Key        string                                       `json:"key"`
	Superusers []int                                        `json:"superusers"`
	TriggerSet storage.SmartIdentifier[*roommap.TriggerSet] `json:"trigger_set"`
	Greeting   string                                       `json:"greeting"`
	GreetDelay string                                       `json:"greet_delay"`
}

func (c *GameConfig) validate() error {
	el := errors.NewErrorList()

	if c.Greeting != "" {
		if err := commands.ValidateTemplate(c.Greeting); err != nil {
			el.Add(fmt.Errorf("game: greeting: %w", err))
		}
	}
	if c.GreetDelay != "" {
		d, err := time.ParseDuration(c.GreetDelay)
		if err != nil {
			el.Add(fmt.Errorf("game: parsing greet_delay: %w", err))
		} else if d < 0 {
			el.Add(fmt.Errorf("game: greet_delay must not be negative"))
		}
	}

	return el.Err()
}

func (c *GameConfig) key() string {
	if c.Key == "" {
		return games.LobbyKey
	}
	return c.Key
}

// BuildLobby resolves the lobby's data against the loaded stores. Either
// store may be nil when not configured.
func (c *GameConfig) BuildLobby(cmds storage.Storer[*commands.Command], triggers storage.Storer[*roommap.TriggerSet]) (games.LobbyConfig, error) {
	cfg := games.LobbyConfig{
		Greeting:   c.Greeting,
		Superusers: c.Superusers,
	}
	if c.GreetDelay != "" {
		d, err := time.ParseDuration(c.GreetDelay)
		if err != nil {
			return cfg, fmt.Errorf("parsing greet_delay: %w", err)
		}
		cfg.GreetDelay = d
	}
	if cmds != nil {
		cfg.Commands = cmds.GetAll()
	}

	if c.TriggerSet.IsSet() {
		if triggers == nil {
			return cfg, fmt.Errorf("trigger_set %q requires storage.triggers", c.TriggerSet.Get())
		}
		if err := c.TriggerSet.Resolve(triggers); err != nil {
			return cfg, fmt.Errorf("resolving trigger_set: %w", err)
		}
		cfg.Triggers = c.TriggerSet.Id()
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating lobby: %w", err)
	}
	return cfg, nil
}
