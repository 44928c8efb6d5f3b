package events

import (
	"encoding/json"

	"github.com/pixil98/go-roombot/internal/protocol"
	"github.com/pixil98/go-roombot/internal/room"
)

// Kind names a notification stream.
type Kind string

const (
	KindRoomJoin         Kind = "RoomJoin"
	KindRoomCreate       Kind = "RoomCreate"
	KindCharacterEntered Kind = "CharacterEntered"
	KindCharacterLeft    Kind = "CharacterLeft"
	KindMessage          Kind = "Message"
	KindBeep             Kind = "Beep"
	KindPoseChange       Kind = "PoseChange"
	KindServerInfo       Kind = "ServerInfo"
)

// Event is a typed notification published on a Bus.
type Event interface {
	Kind() Kind
}

// RoomJoin is published after the bot joined an existing room and the room
// state was synced.
type RoomJoin struct {
	Room string
}

func (RoomJoin) Kind() Kind { return KindRoomJoin }

// RoomCreate is published after the bot created a room and the room state
// was synced.
type RoomCreate struct {
	Room string
}

func (RoomCreate) Kind() Kind { return KindRoomCreate }

// CharacterEntered is published when a member joins the room.
type CharacterEntered struct {
	Character room.Character
}

func (CharacterEntered) Kind() Kind { return KindCharacterEntered }

// CharacterLeft is published when a member leaves the room. Character is
// the last known state; Known is false if the member was never synced.
type CharacterLeft struct {
	MemberNumber int
	Character    room.Character
	Known        bool
	Reason       room.LeaveReason
}

func (CharacterLeft) Kind() Kind { return KindCharacterLeft }

// Intentional reports whether the member left on purpose rather than by
// losing their connection.
func (e CharacterLeft) Intentional() bool {
	return e.Reason != room.LeaveDisconnect
}

// Message is a chat message. Sender is the zero Character when the sender
// is not a known room member.
type Message struct {
	Sender  room.Character
	Known   bool
	Message protocol.ChatMessage
}

func (Message) Kind() Kind { return KindMessage }

// Beep is an account beep addressed to the bot.
type Beep struct {
	Payload protocol.Beep
}

func (Beep) Kind() Kind { return KindBeep }

// PoseChange is published when a member's pose changes.
type PoseChange struct {
	Character room.Character
}

func (PoseChange) Kind() Kind { return KindPoseChange }

// ServerInfo carries the peer's periodic server information push.
type ServerInfo struct {
	Raw json.RawMessage
}

func (ServerInfo) Kind() Kind { return KindServerInfo }
