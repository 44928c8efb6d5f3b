package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-roombot/internal/commands"
	"github.com/pixil98/go-roombot/internal/protocol"
	"github.com/pixil98/go-roombot/internal/roommap"
	"github.com/pixil98/go-roombot/internal/storage"
)

// StorageConfig locates the asset directories. Every store is optional.
type StorageConfig struct {
	Format   storage.Format                        `json:"format"`
	Rooms    AssetConfig[*protocol.RoomDefinition] `json:"rooms"`
	Triggers AssetConfig[*roommap.TriggerSet]      `json:"triggers"`
	Commands AssetConfig[*commands.Command]        `json:"commands"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()

	switch c.Format {
	case "", storage.FormatJSON, storage.FormatYAML:
	default:
		el.Add(fmt.Errorf("storage: unknown format %q", c.Format))
	}
	if c.Rooms.Path != "" {
		el.Add(c.Rooms.Validate("storage: rooms"))
	}
	if c.Triggers.Path != "" {
		el.Add(c.Triggers.Validate("storage: triggers"))
	}
	if c.Commands.Path != "" {
		el.Add(c.Commands.Validate("storage: commands"))
	}

	return el.Err()
}

// Stores are the loaded asset stores; unconfigured ones are nil.
type Stores struct {
	Rooms    *storage.FileStore[*protocol.RoomDefinition]
	Triggers *storage.FileStore[*roommap.TriggerSet]
	Commands *storage.FileStore[*commands.Command]
}

func (c *StorageConfig) BuildStores() (*Stores, error) {
	var st Stores
	var err error

	if c.Rooms.Path != "" {
		st.Rooms, err = c.Rooms.BuildFileStore(c.Format)
		if err != nil {
			return nil, fmt.Errorf("creating room store: %w", err)
		}
	}
	if c.Triggers.Path != "" {
		st.Triggers, err = c.Triggers.BuildFileStore(c.Format)
		if err != nil {
			return nil, fmt.Errorf("creating trigger store: %w", err)
		}
	}
	if c.Commands.Path != "" {
		st.Commands, err = c.Commands.BuildFileStore(c.Format)
		if err != nil {
			return nil, fmt.Errorf("creating command store: %w", err)
		}
	}

	return &st, nil
}

type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

func (c *AssetConfig[T]) Validate(name string) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) BuildFileStore(format storage.Format) (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path, storage.WithFormat(format))
}
