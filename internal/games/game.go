package games

import (
	"context"
	"errors"

	"github.com/pixil98/go-roombot/internal/commands"
	"github.com/pixil98/go-roombot/internal/protocol"
	"github.com/pixil98/go-roombot/internal/room"
	"github.com/pixil98/go-roombot/internal/roommap"
)

var (
	ErrNoGame      = errors.New("no game running")
	ErrGameRunning = errors.New("a game is already running")
	ErrUnknownGame = errors.New("unknown game")
)

// Game is one behavior the bot runs in its room. Init is called once when
// the game starts; the room hooks run on the bus delivery path each time
// the bot creates or joins a room. Stop releases anything the game holds
// outside its Host; the Host's own resources are released after it.
type Game interface {
	Key() string
	Init(ctx context.Context, h *Host) error
	OnRoomCreated(ctx context.Context) error
	OnRoomJoined(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Ticker is implemented by games that want periodic work.
type Ticker interface {
	Tick(ctx context.Context) error
}

// Conn is what a game may ask of the bot's session.
type Conn interface {
	commands.Replier
	SendMessage(typ, text string, target int, dict []map[string]any) error
	Whisper(member int, text string) error
	Store() *room.Store
	Player() (room.Character, bool)
	IsBot(c room.Character) bool
	UpdateRoom(p room.Patch) error
	SetMapFromString(export string) error
	ApplyEffects(effects ...roommap.Effect) error
	MoveOnMap(c protocol.Coord) error
	QueryItemAllowed(ctx context.Context, member int) (bool, error)
	SendItemUpdate(target int, item protocol.ItemData) error
	Kick(member int) error
}
