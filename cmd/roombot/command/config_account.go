package command

import (
	"fmt"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-roombot/internal/bot"
	"github.com/pixil98/go-roombot/internal/room"
	"github.com/pixil98/go-roombot/internal/session"
)

type AccountConfig struct {
	User           string `json:"user"`
	Password       string `json:"password"`
	Nickname       string `json:"nickname"`
	Description    string `json:"description"`
	ItemPermission *int   `json:"item_permission,omitempty"`
}

func (c *AccountConfig) validate() error {
	el := errors.NewErrorList()

	if c.User == "" {
		el.Add(fmt.Errorf("account: user is required"))
	}
	if c.Password == "" {
		el.Add(fmt.Errorf("account: password is required"))
	}
	if c.ItemPermission != nil {
		p := room.PermissionLevel(*c.ItemPermission)
		if p < room.EveryoneNoExceptions || p > room.OwnerOnly {
			el.Add(fmt.Errorf("account: item_permission must be between %d and %d", room.EveryoneNoExceptions, room.OwnerOnly))
		}
	}

	return el.Err()
}

func (c *AccountConfig) credentials() session.Credentials {
	return session.Credentials{AccountName: c.User, Password: c.Password}
}

func (c *AccountConfig) profile() bot.Profile {
	p := bot.Profile{
		Nickname:    c.Nickname,
		Description: c.Description,
	}
	if c.ItemPermission != nil {
		lvl := room.PermissionLevel(*c.ItemPermission)
		p.ItemPermission = &lvl
	}
	return p
}
