package session

import (
	"encoding/json"
	"log/slog"
	"slices"

	"github.com/pixil98/go-roombot/internal/display"
	"github.com/pixil98/go-roombot/internal/events"
	"github.com/pixil98/go-roombot/internal/protocol"
	"github.com/pixil98/go-roombot/internal/room"
	"github.com/pixil98/go-roombot/internal/roommap"
)

// Message contents from extensions that are not worth logging.
var quietContents = map[string]bool{
	"BCXMsg":     true,
	"BCEMsg":     true,
	"LSCGMsg":    true,
	"bctMsg":     true,
	"MPA":        true,
	"dogsMsg":    true,
	"bccMsg":     true,
	"ECHO_INFO2": true,
	"MoonCEBC":   true,
}

func (s *Session) inboundHandlers() map[string]func(json.RawMessage) {
	return map[string]func(json.RawMessage){
		protocol.EventServerInfo:                 s.onServerInfo,
		protocol.EventLoginResponse:              s.onLoginResponse,
		protocol.EventChatRoomCreateResponse:     s.onCreateResponse,
		protocol.EventChatRoomUpdateResponse:     s.onUpdateResponse,
		protocol.EventChatRoomSearchResponse:     s.onSearchResponse,
		protocol.EventChatRoomSearchResult:       s.onSearchResult,
		protocol.EventChatRoomSync:               s.onRoomSync,
		protocol.EventChatRoomSyncMemberJoin:     s.onMemberJoin,
		protocol.EventChatRoomSyncMemberLeave:    s.onMemberLeave,
		protocol.EventChatRoomSyncRoomProperties: s.onRoomProperties,
		protocol.EventChatRoomSyncCharacter:      s.onCharacterSync,
		protocol.EventChatRoomSyncSingle:         s.onCharacterSync,
		protocol.EventChatRoomSyncReorderPlayers: s.onReorder,
		protocol.EventChatRoomSyncExpression:     s.onExpression,
		protocol.EventChatRoomSyncPose:           s.onPose,
		protocol.EventChatRoomSyncArousal:        func(json.RawMessage) {},
		protocol.EventChatRoomSyncItem:           s.onSyncItem,
		protocol.EventChatRoomCharacterItem:      s.onCharacterItemUpdate,
		protocol.EventChatRoomSyncMapData:        s.onMapData,
		protocol.EventChatRoomMessage:            s.onMessage,
		protocol.EventChatRoomAllowItem:          s.onAllowItem,
		protocol.EventAccountBeep:                s.onBeep,
		protocol.EventAccountQueryResult:         s.onAccountQueryResult,
	}
}

func decode[T any](event string, raw json.RawMessage) (T, bool) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Warn("dropping malformed payload", "event", event, "error", err)
		return v, false
	}
	return v, true
}

func (s *Session) onServerInfo(raw json.RawMessage) {
	slog.Debug("server info", "info", string(raw))
	s.bus.Emit(events.ServerInfo{Raw: slices.Clone(raw)})
}

func (s *Session) onLoginResponse(raw json.RawMessage) {
	if len(raw) > 0 && raw[0] == '"' {
		var reason string
		_ = json.Unmarshal(raw, &reason)
		slog.Error("login refused", "account", s.creds.AccountName, "reason", reason)
		return
	}
	d, ok := decode[protocol.CharacterData](protocol.EventLoginResponse, raw)
	if !ok {
		return
	}

	c := room.CharacterFromData(d)
	s.mu.Lock()
	s.player = &c
	s.state = StateLoggedIn
	first := !s.advertised
	s.advertised = true
	def := s.desired.Clone()
	s.mu.Unlock()

	slog.Info("logged in", "name", c.Name, "member", c.MemberNumber)

	if first {
		err := s.AccountUpdate(protocol.AccountUpdate{
			OnlineSharedSettings: &protocol.OnlineSharedSettings{GameVersion: protocol.GameVersion},
		})
		if err != nil {
			slog.Warn("advertising game version", "error", err)
		}
	}
	s.loggedIn.Open()
	if def != nil {
		s.rejoin(*def)
	}
}

func (s *Session) onCreateResponse(raw json.RawMessage) {
	resp, ok := decode[string](protocol.EventChatRoomCreateResponse, raw)
	if !ok {
		return
	}
	slog.Info("room create response", "response", resp)
	if !s.create.Resolve(resp) {
		slog.Warn("create response with no pending create", "response", resp)
	}
}

func (s *Session) onUpdateResponse(raw json.RawMessage) {
	slog.Info("room update response", "response", string(raw))
}

func (s *Session) onSearchResponse(raw json.RawMessage) {
	resp, ok := decode[string](protocol.EventChatRoomSearchResponse, raw)
	if !ok {
		return
	}
	slog.Info("room join response", "response", resp)
	if !s.join.Resolve(resp) {
		slog.Warn("join response with no pending join", "response", resp)
	}
}

func (s *Session) onSearchResult(raw json.RawMessage) {
	results, ok := decode[[]protocol.SearchResult](protocol.EventChatRoomSearchResult, raw)
	if !ok {
		return
	}
	if !s.search.Resolve(results) {
		slog.Warn("search result with no pending search", "rooms", len(results))
	}
}

// definitionFromSync is the definition a room would be recreated from.
func definitionFromSync(d protocol.RoomData) protocol.RoomDefinition {
	def := protocol.RoomDefinition{
		Space:    d.Space,
		Admin:    slices.Clone(d.Admin),
		Language: d.Language,
	}
	room.MirrorProperties(&def, d)
	return def
}

func (s *Session) onRoomSync(raw json.RawMessage) {
	d, ok := decode[protocol.RoomData](protocol.EventChatRoomSync, raw)
	if !ok {
		return
	}

	created := s.store.Sync(d)
	def := definitionFromSync(d)

	s.mu.Lock()
	s.desired = &def
	switch {
	case d.MapData != nil:
		s.roomMap = roommap.FromData(*d.MapData)
	case created:
		s.roomMap = roommap.New()
	}
	s.mu.Unlock()

	if created {
		slog.Info("room synced", "room", d.Name, "members", len(d.Character))
		for _, c := range s.store.Characters() {
			s.refreshPlayer(c)
		}
	}
	s.roomSynced.Open()
}

func (s *Session) onMemberJoin(raw json.RawMessage) {
	p, ok := decode[protocol.MemberJoinPayload](protocol.EventChatRoomSyncMemberJoin, raw)
	if !ok {
		return
	}

	c, ok := s.store.MemberJoined(p.Character)
	if !ok {
		slog.Warn("member joined with no room", "member", p.Character.MemberNumber)
		return
	}
	slog.Info("member joined", "name", c.Name, "member", c.MemberNumber)
	s.bus.Emit(events.CharacterEntered{Character: c})
}

func (s *Session) onMemberLeave(raw json.RawMessage) {
	p, ok := decode[protocol.MemberLeavePayload](protocol.EventChatRoomSyncMemberLeave, raw)
	if !ok {
		return
	}

	c, known, reason := s.store.MemberLeft(p.SourceMemberNumber)
	s.engine.Forget(p.SourceMemberNumber)
	if !known {
		slog.Warn("unknown member left", "member", p.SourceMemberNumber)
	}
	slog.Info("member left", "member", p.SourceMemberNumber, "reason", reason)

	s.bus.Emit(events.CharacterLeft{
		MemberNumber: p.SourceMemberNumber,
		Character:    c,
		Known:        known,
		Reason:       reason,
	})
}

func (s *Session) onRoomProperties(raw json.RawMessage) {
	d, ok := decode[protocol.RoomData](protocol.EventChatRoomSyncRoomProperties, raw)
	if !ok {
		return
	}

	if !s.store.ApplyProperties(d) {
		slog.Warn("room properties with no room", "room", d.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.desired != nil {
		room.MirrorProperties(s.desired, d)
	}
	if d.MapData != nil {
		s.roomMap = roommap.FromData(*d.MapData)
	}
}

func (s *Session) onCharacterSync(raw json.RawMessage) {
	p, ok := decode[protocol.CharacterSyncPayload](protocol.EventChatRoomSyncCharacter, raw)
	if !ok {
		return
	}

	c, ok := s.store.SyncCharacter(p.Character)
	if !ok {
		slog.Warn("character sync with no room", "member", p.Character.MemberNumber)
		return
	}
	s.refreshPlayer(c)
}

func (s *Session) onReorder(raw json.RawMessage) {
	p, ok := decode[protocol.ReorderPayload](protocol.EventChatRoomSyncReorderPlayers, raw)
	if !ok {
		return
	}
	if !s.store.Reorder(p.PlayerOrder) {
		slog.Warn("reorder with no room")
	}
}

func (s *Session) onExpression(raw json.RawMessage) {
	p, ok := decode[protocol.ExpressionPayload](protocol.EventChatRoomSyncExpression, raw)
	if !ok {
		return
	}
	c, ok := s.store.SetExpression(p.MemberNumber, p.Group, p.Name)
	if !ok {
		slog.Warn("expression for missing character", "member", p.MemberNumber)
		return
	}
	s.refreshPlayer(c)
}

func (s *Session) onPose(raw json.RawMessage) {
	p, ok := decode[protocol.PosePayload](protocol.EventChatRoomSyncPose, raw)
	if !ok {
		return
	}
	c, ok := s.store.SetPose(p.MemberNumber, p.Pose)
	if !ok {
		slog.Warn("pose for missing character", "member", p.MemberNumber)
		return
	}
	s.refreshPlayer(c)
	s.bus.Emit(events.PoseChange{Character: c})
}

func (s *Session) onSyncItem(raw json.RawMessage) {
	p, ok := decode[protocol.SyncItemPayload](protocol.EventChatRoomSyncItem, raw)
	if !ok {
		return
	}
	s.applyItem(p.Item)
}

func (s *Session) onCharacterItemUpdate(raw json.RawMessage) {
	u, ok := decode[protocol.ItemUpdate](protocol.EventChatRoomCharacterItem, raw)
	if !ok {
		return
	}
	s.applyItem(u)
}

func (s *Session) applyItem(u protocol.ItemUpdate) {
	c, ok := s.store.UpdateItem(u.Target, u.ItemData)
	if !ok {
		slog.Warn("item update for missing character", "member", u.Target, "group", u.Group)
		return
	}
	s.refreshPlayer(c)
}

func (s *Session) onMapData(raw json.RawMessage) {
	p, ok := decode[protocol.MapPositionPayload](protocol.EventChatRoomSyncMapData, raw)
	if !ok {
		return
	}
	c, ok := s.store.SetPosition(p.MemberNumber, p.MapData)
	if !ok {
		slog.Warn("map position for missing character", "member", p.MemberNumber)
		return
	}
	s.refreshPlayer(c)
	s.engine.Evaluate(c)
}

func (s *Session) onMessage(raw json.RawMessage) {
	msg, ok := decode[protocol.ChatMessage](protocol.EventChatRoomMessage, raw)
	if !ok {
		return
	}

	if msg.Type != protocol.ChatTypeStatus && msg.Type != protocol.ChatTypeHidden && !quietContents[msg.Content] {
		slog.Info("chat message", "sender", msg.Sender, "type", msg.Type, "content", msg.Content)
	}

	if msg.Type == protocol.ChatTypeAction {
		if reason, ok := s.leaveVocab[msg.Content]; ok {
			s.store.TagLeave(msg.Sender, reason)
		}
	}

	sender, known := s.store.Character(msg.Sender)
	s.bus.Emit(events.Message{Sender: sender, Known: known, Message: msg})
}

func (s *Session) onAllowItem(raw json.RawMessage) {
	p, ok := decode[protocol.AllowItemResponse](protocol.EventChatRoomAllowItem, raw)
	if !ok {
		return
	}
	if !s.allow.Resolve(p.MemberNumber, p.AllowItem) {
		slog.Warn("item permission response with no pending query", "member", p.MemberNumber)
	}
}

func (s *Session) onBeep(raw json.RawMessage) {
	b, ok := decode[protocol.Beep](protocol.EventAccountBeep, raw)
	if !ok {
		return
	}
	b.Message = display.FirstParagraph(b.Message)
	s.bus.Emit(events.Beep{Payload: b})
}

func (s *Session) onAccountQueryResult(raw json.RawMessage) {
	p, ok := decode[protocol.AccountQueryResult](protocol.EventAccountQueryResult, raw)
	if !ok {
		return
	}
	if p.Query != protocol.QueryOnlineFriends {
		slog.Debug("ignoring account query result", "query", p.Query)
		return
	}

	friends, ok := decode[[]protocol.OnlineFriend](protocol.EventAccountQueryResult, p.Result)
	if !ok {
		return
	}
	if !s.friends.Resolve(friends) {
		slog.Warn("online friends result with no pending query")
	}
}

// refreshPlayer keeps the bot's own character current when a room update
// concerns it.
func (s *Session) refreshPlayer(c room.Character) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player != nil && s.player.MemberNumber == c.MemberNumber {
		s.player = &c
	}
}
