package command

import (
	"fmt"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-roombot/internal/protocol"
	"github.com/pixil98/go-roombot/internal/storage"
)

type RoomConfig struct {
	// Preset is the stored room definition id preferred over Definition.
	Preset     string                  `json:"preset"`
	Definition protocol.RoomDefinition `json:"definition"`
}

func (c *RoomConfig) validate() error {
	el := errors.NewErrorList()

	if c.Preset != "" {
		a := storage.Asset[*protocol.RoomDefinition]{
			Version:    1,
			Identifier: storage.Identifier(c.Preset),
			Spec:       &c.Definition,
		}
		if err := a.Validate(); err != nil {
			el.Add(fmt.Errorf("room: preset %q: %w", c.Preset, err))
		}
	} else if err := c.Definition.Validate(); err != nil {
		el.Add(fmt.Errorf("room: %w", err))
	}

	return el.Err()
}
