package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	TickInterval string             `json:"tick_interval"`
	Server       ServerConfig       `json:"server"`
	Account      AccountConfig      `json:"account"`
	Room         RoomConfig         `json:"room"`
	Game         GameConfig         `json:"game"`
	Commands     CommandsConfig     `json:"commands"`
	LeaveReasons LeaveReasonsConfig `json:"leave_reasons"`
	Storage      StorageConfig      `json:"storage"`
	Nats         NatsConfig         `json:"nats"`
	Metrics      MetricsConfig      `json:"metrics"`
	Journal      JournalConfig      `json:"journal"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing tick_interval: %w", err))
		} else if d < time.Second {
			el.Add(fmt.Errorf("tick_interval must be at least 1 second"))
		}
	}

	el.Add(c.Server.validate())
	el.Add(c.Account.validate())
	el.Add(c.Room.validate())
	el.Add(c.Game.validate())
	el.Add(c.Commands.validate())
	el.Add(c.LeaveReasons.validate())
	el.Add(c.Storage.validate())
	el.Add(c.Nats.validate())
	el.Add(c.Metrics.validate())
	el.Add(c.Journal.validate())

	return el.Err()
}

func (c *Config) tickLength() time.Duration {
	d, _ := time.ParseDuration(c.TickInterval)
	return d
}
