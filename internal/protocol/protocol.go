package protocol

// GameVersion is the client version the bot advertises after logging in.
const GameVersion = "R114"

// Outbound event names.
const (
	EventAccountLogin               = "AccountLogin"
	EventAccountUpdate              = "AccountUpdate"
	EventAccountQuery               = "AccountQuery"
	EventAccountBeep                = "AccountBeep"
	EventChatRoomJoin               = "ChatRoomJoin"
	EventChatRoomCreate             = "ChatRoomCreate"
	EventChatRoomSearch             = "ChatRoomSearch"
	EventChatRoomLeave              = "ChatRoomLeave"
	EventChatRoomChat               = "ChatRoomChat"
	EventChatRoomAdmin              = "ChatRoomAdmin"
	EventChatRoomAllowItem          = "ChatRoomAllowItem"
	EventChatRoomCharacterUpdate    = "ChatRoomCharacterUpdate"
	EventChatRoomCharacterItem      = "ChatRoomCharacterItemUpdate"
	EventChatRoomCharacterPose      = "ChatRoomCharacterPoseUpdate"
	EventChatRoomCharacterMapUpdate = "ChatRoomCharacterMapDataUpdate"
)

// Inbound event names. Some names are shared with outbound events
// (AccountBeep, ChatRoomAllowItem, ChatRoomCharacterItemUpdate).
const (
	EventServerInfo                 = "ServerInfo"
	EventLoginResponse              = "LoginResponse"
	EventChatRoomCreateResponse     = "ChatRoomCreateResponse"
	EventChatRoomUpdateResponse     = "ChatRoomUpdateResponse"
	EventChatRoomSync               = "ChatRoomSync"
	EventChatRoomSyncMemberJoin     = "ChatRoomSyncMemberJoin"
	EventChatRoomSyncMemberLeave    = "ChatRoomSyncMemberLeave"
	EventChatRoomSyncRoomProperties = "ChatRoomSyncRoomProperties"
	EventChatRoomSyncCharacter      = "ChatRoomSyncCharacter"
	EventChatRoomSyncReorderPlayers = "ChatRoomSyncReorderPlayers"
	EventChatRoomSyncSingle         = "ChatRoomSyncSingle"
	EventChatRoomSyncExpression     = "ChatRoomSyncExpression"
	EventChatRoomSyncPose           = "ChatRoomSyncPose"
	EventChatRoomSyncArousal        = "ChatRoomSyncArousal"
	EventChatRoomSyncItem           = "ChatRoomSyncItem"
	EventChatRoomSyncMapData        = "ChatRoomSyncMapData"
	EventChatRoomMessage            = "ChatRoomMessage"
	EventChatRoomSearchResult       = "ChatRoomSearchResult"
	EventChatRoomSearchResponse     = "ChatRoomSearchResponse"
	EventAccountQueryResult         = "AccountQueryResult"
)

// Response classifications returned by the peer as bare strings.
const (
	JoinedRoom      = "JoinedRoom"
	ChatRoomCreated = "ChatRoomCreated"
)

// Chat message types.
const (
	ChatTypeChat     = "Chat"
	ChatTypeWhisper  = "Whisper"
	ChatTypeEmote    = "Emote"
	ChatTypeAction   = "Action"
	ChatTypeActivity = "Activity"
	ChatTypeHidden   = "Hidden"
	ChatTypeStatus   = "Status"
)

// Room admin actions.
const (
	AdminUpdate    = "Update"
	AdminMoveLeft  = "MoveLeft"
	AdminMoveRight = "MoveRight"
	AdminKick      = "Kick"
)

// MaxMessageLength is the longest chat message the peer accepts.
const MaxMessageLength = 1000

// QueryOnlineFriends is the AccountQuery kind for the online friend list.
const QueryOnlineFriends = "OnlineFriends"
