package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/pixil98/go-errors"
)

// Map view types.
const (
	MapTypeNever  = "Never"
	MapTypeHybrid = "Hybrid"
	MapTypeAlways = "Always"
)

// MapData is the room map as carried on the wire: one character per cell,
// the character code being the tile or object id.
type MapData struct {
	Type    string `json:"Type"`
	Fog     bool   `json:"Fog,omitempty"`
	Tiles   string `json:"Tiles"`
	Objects string `json:"Objects"`
}

// RoomData is the full room record sent with ChatRoomSync and
// ChatRoomSyncRoomProperties.
type RoomData struct {
	Name          string          `json:"Name"`
	Description   string          `json:"Description"`
	Background    string          `json:"Background"`
	Space         string          `json:"Space"`
	Access        []string        `json:"Access"`
	Visibility    []string        `json:"Visibility"`
	Limit         int             `json:"Limit"`
	Admin         []int           `json:"Admin"`
	Ban           []int           `json:"Ban"`
	Whitelist     []int           `json:"Whitelist,omitempty"`
	BlockCategory []string        `json:"BlockCategory"`
	Game          string          `json:"Game"`
	Language      string          `json:"Language"`
	Private       *bool           `json:"Private,omitempty"`
	Locked        *bool           `json:"Locked,omitempty"`
	MapData       *MapData        `json:"MapData,omitempty"`
	Character     []CharacterData `json:"Character,omitempty"`
}

// RoomDefinition is what the bot sends to create a room, and what it keeps
// as the desired shape of the room it is in.
type RoomDefinition struct {
	Name          string   `json:"Name" yaml:"name"`
	Description   string   `json:"Description" yaml:"description"`
	Background    string   `json:"Background" yaml:"background"`
	Space         string   `json:"Space" yaml:"space"`
	Access        []string `json:"Access,omitempty" yaml:"access"`
	Visibility    []string `json:"Visibility,omitempty" yaml:"visibility"`
	Limit         int      `json:"Limit" yaml:"limit"`
	Admin         []int    `json:"Admin,omitempty" yaml:"admin"`
	Ban           []int    `json:"Ban" yaml:"ban"`
	Whitelist     []int    `json:"Whitelist,omitempty" yaml:"whitelist"`
	BlockCategory []string `json:"BlockCategory" yaml:"block_category"`
	Game          string   `json:"Game" yaml:"game"`
	Language      string   `json:"Language" yaml:"language"`
	Private       *bool    `json:"Private,omitempty" yaml:"private"`
	Locked        *bool    `json:"Locked,omitempty" yaml:"locked"`
	MapData       *MapData `json:"MapData,omitempty" yaml:"-"`
}

// Validate satisfies storage.ValidatingSpec.
func (d *RoomDefinition) Validate() error {
	el := errors.NewErrorList()

	if d.Name == "" {
		el.Add(fmt.Errorf("room name is required"))
	}
	if d.Limit < 0 {
		el.Add(fmt.Errorf("room limit must not be negative"))
	}
	if (d.Private != nil || d.Locked != nil) && (len(d.Access) > 0 || len(d.Visibility) > 0) {
		el.Add(fmt.Errorf("private/locked cannot be combined with access/visibility"))
	}

	return el.Err()
}

// Clone returns a deep copy.
func (d *RoomDefinition) Clone() *RoomDefinition {
	if d == nil {
		return nil
	}
	c := *d
	c.Access = cloneSlice(d.Access)
	c.Visibility = cloneSlice(d.Visibility)
	c.Admin = cloneSlice(d.Admin)
	c.Ban = cloneSlice(d.Ban)
	c.Whitelist = cloneSlice(d.Whitelist)
	c.BlockCategory = cloneSlice(d.BlockCategory)
	if d.Private != nil {
		v := *d.Private
		c.Private = &v
	}
	if d.Locked != nil {
		v := *d.Locked
		c.Locked = &v
	}
	if d.MapData != nil {
		m := *d.MapData
		c.MapData = &m
	}
	return &c
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

// JoinRequest is sent with ChatRoomJoin.
type JoinRequest struct {
	Name string `json:"Name"`
}

// SearchRequest is sent with ChatRoomSearch.
type SearchRequest struct {
	Query      string `json:"Query"`
	Language   string `json:"Language"`
	Space      string `json:"Space"`
	Game       string `json:"Game"`
	FullRooms  bool   `json:"FullRooms"`
	ShowLocked bool   `json:"ShowLocked"`
}

// SearchResult is one room listed in ChatRoomSearchResult.
type SearchResult struct {
	Name        string `json:"Name"`
	Language    string `json:"Language"`
	Creator     string `json:"Creator"`
	MemberCount int    `json:"MemberCount"`
	MemberLimit int    `json:"MemberLimit"`
	Description string `json:"Description"`
	Game        string `json:"Game"`
	Space       string `json:"Space"`
}

// AdminRequest is sent with ChatRoomAdmin.
type AdminRequest struct {
	Action       string          `json:"Action"`
	MemberNumber int             `json:"MemberNumber"`
	Publish      bool            `json:"Publish,omitempty"`
	Room         *RoomDefinition `json:"Room,omitempty"`
}

// ChatMessage is received with ChatRoomMessage.
type ChatMessage struct {
	Sender     int              `json:"Sender"`
	Content    string           `json:"Content"`
	Type       string           `json:"Type"`
	Target     *int             `json:"Target,omitempty"`
	Dictionary []map[string]any `json:"Dictionary,omitempty"`
}

// ChatSend is sent with ChatRoomChat.
type ChatSend struct {
	Type       string           `json:"Type"`
	Content    string           `json:"Content"`
	Target     int              `json:"Target,omitempty"`
	Dictionary []map[string]any `json:"Dictionary,omitempty"`
}

// Beep is both sent and received with AccountBeep.
type Beep struct {
	MemberNumber int    `json:"MemberNumber"`
	MemberName   string `json:"MemberName,omitempty"`
	ChatRoomName string `json:"ChatRoomName,omitempty"`
	BeepType     string `json:"BeepType"`
	Message      string `json:"Message,omitempty"`
}

// AccountQuery is sent with AccountQuery.
type AccountQuery struct {
	Query string `json:"Query"`
}

// AccountQueryResult is received with AccountQueryResult.
type AccountQueryResult struct {
	Query  string          `json:"Query"`
	Result json.RawMessage `json:"Result"`
}

// OnlineFriend is one entry of the OnlineFriends query result.
type OnlineFriend struct {
	ChatRoomName  string `json:"ChatRoomName"`
	ChatRoomSpace string `json:"ChatRoomSpace"`
	MemberName    string `json:"MemberName"`
	MemberNumber  int    `json:"MemberNumber"`
	Private       bool   `json:"Private"`
	Type          string `json:"Type"`
}
