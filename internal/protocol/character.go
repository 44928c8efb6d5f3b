package protocol

import (
	"encoding/json"
	"fmt"
)

// Coord is a position on the room map.
type Coord struct {
	X int `json:"X"`
	Y int `json:"Y"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Colors holds an item's color. The peer sends either a single string or
// an array of strings; the original shape is kept for re-encoding.
type Colors struct {
	Values []string
	single bool
}

// SingleColor returns a Colors that encodes as a bare string.
func SingleColor(c string) Colors {
	return Colors{Values: []string{c}, single: true}
}

func (c *Colors) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		c.Values = []string{one}
		c.single = true
		return nil
	}

	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("decoding color: %w", err)
	}
	c.Values = many
	c.single = false
	return nil
}

func (c Colors) MarshalJSON() ([]byte, error) {
	if c.single && len(c.Values) == 1 {
		return json.Marshal(c.Values[0])
	}
	if c.Values == nil {
		return []byte("null"), nil
	}
	return json.Marshal(c.Values)
}

// IsZero reports whether no color was set.
func (c Colors) IsZero() bool {
	return len(c.Values) == 0
}

// ItemData is one worn item as sent by the peer.
type ItemData struct {
	Group      string         `json:"Group"`
	Name       string         `json:"Name"`
	Color      *Colors        `json:"Color,omitempty"`
	Difficulty *int           `json:"Difficulty,omitempty"`
	Property   map[string]any `json:"Property,omitempty"`
	Craft      map[string]any `json:"Craft,omitempty"`
}

// ItemUpdate is a single item change addressed to a character.
type ItemUpdate struct {
	Target int `json:"Target"`
	ItemData
}

// SyncItemPayload is the body of ChatRoomSyncItem.
type SyncItemPayload struct {
	Source int        `json:"Source"`
	Item   ItemUpdate `json:"Item"`
}

// PermissionList maps asset group -> asset name -> variants.
type PermissionList map[string]map[string]json.RawMessage

// Has reports whether group/name is listed.
func (p PermissionList) Has(group, name string) bool {
	if p == nil {
		return false
	}
	_, ok := p[group][name]
	return ok
}

// ScriptPermission is one entry of the script permission settings.
type ScriptPermission struct {
	Permission int `json:"permission"`
}

// OnlineSharedSettings are the account settings visible to other players.
type OnlineSharedSettings struct {
	GameVersion       string                      `json:"GameVersion,omitempty"`
	ScriptPermissions map[string]ScriptPermission `json:"ScriptPermissions,omitempty"`
}

// CharacterData is the full character record sent on login and on syncs.
type CharacterData struct {
	ID                   string                `json:"ID"`
	Name                 string                `json:"Name"`
	Nickname             string                `json:"Nickname"`
	Description          string                `json:"Description"`
	MemberNumber         int                   `json:"MemberNumber"`
	Appearance           []ItemData            `json:"Appearance"`
	ActivePose           []string              `json:"ActivePose"`
	WhiteList            []int                 `json:"WhiteList"`
	FriendList           []int                 `json:"FriendList"`
	OnlineSharedSettings *OnlineSharedSettings `json:"OnlineSharedSettings,omitempty"`
	ItemPermission       int                   `json:"ItemPermission"`
	MapData              *Coord                `json:"MapData,omitempty"`
	BlockItems           PermissionList        `json:"BlockItems,omitempty"`
	LimitedItems         PermissionList        `json:"LimitedItems,omitempty"`
}

// CharacterSyncPayload is the body of ChatRoomSyncCharacter and ChatRoomSyncSingle.
type CharacterSyncPayload struct {
	SourceMemberNumber int           `json:"SourceMemberNumber"`
	Character          CharacterData `json:"Character"`
}

// MemberJoinPayload is the body of ChatRoomSyncMemberJoin.
type MemberJoinPayload struct {
	SourceMemberNumber int           `json:"SourceMemberNumber"`
	Character          CharacterData `json:"Character"`
}

// MemberLeavePayload is the body of ChatRoomSyncMemberLeave.
type MemberLeavePayload struct {
	SourceMemberNumber int `json:"SourceMemberNumber"`
}

// ReorderPayload is the body of ChatRoomSyncReorderPlayers.
type ReorderPayload struct {
	PlayerOrder []int `json:"PlayerOrder"`
}

// PosePayload is the body of ChatRoomSyncPose.
type PosePayload struct {
	MemberNumber int      `json:"MemberNumber"`
	Pose         []string `json:"Pose"`
}

// ExpressionPayload is the body of ChatRoomSyncExpression.
type ExpressionPayload struct {
	MemberNumber int    `json:"MemberNumber"`
	Group        string `json:"Group"`
	Name         string `json:"Name"`
}

// MapPositionPayload is the body of ChatRoomSyncMapData.
type MapPositionPayload struct {
	MemberNumber int   `json:"MemberNumber"`
	MapData      Coord `json:"MapData"`
}

// CharacterUpdate is sent with ChatRoomCharacterUpdate.
type CharacterUpdate struct {
	ID         string     `json:"ID"`
	Appearance []ItemData `json:"Appearance"`
}

// PoseUpdate is sent with ChatRoomCharacterPoseUpdate.
type PoseUpdate struct {
	Pose []string `json:"Pose"`
}

// AccountUpdate is a partial update of the bot's own account. Nil fields are
// left untouched by the peer.
type AccountUpdate struct {
	Nickname             *string               `json:"Nickname,omitempty"`
	Description          *string               `json:"Description,omitempty"`
	ItemPermission       *int                  `json:"ItemPermission,omitempty"`
	FriendList           []int                 `json:"FriendList,omitempty"`
	WhiteList            []int                 `json:"WhiteList,omitempty"`
	OnlineSharedSettings *OnlineSharedSettings `json:"OnlineSharedSettings,omitempty"`
	AssetFamily          string                `json:"AssetFamily,omitempty"`
	Appearance           []ItemData            `json:"Appearance,omitempty"`
}

// LoginRequest is sent with AccountLogin.
type LoginRequest struct {
	AccountName string `json:"AccountName"`
	Password    string `json:"Password"`
}

// AllowItemQuery is sent with ChatRoomAllowItem.
type AllowItemQuery struct {
	MemberNumber int `json:"MemberNumber"`
}

// AllowItemResponse is received with ChatRoomAllowItem.
type AllowItemResponse struct {
	MemberNumber int  `json:"MemberNumber"`
	AllowItem    bool `json:"AllowItem"`
}
