package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"unicode/utf16"

	lzstring "github.com/daku10/go-lz-string"

	"github.com/pixil98/go-roombot/internal/display"
	"github.com/pixil98/go-roombot/internal/protocol"
	"github.com/pixil98/go-roombot/internal/room"
)

// compressedMarker prefixes an lz-string compressed profile description.
const compressedMarker = "╬"

// SendMessage sends a chat message. target is only used for whispers and
// may be zero; text longer than the peer accepts is cut.
func (s *Session) SendMessage(typ, text string, target int, dict []map[string]any) error {
	if cut, truncated := display.Truncate(text, protocol.MaxMessageLength); truncated {
		slog.Warn("message too long, truncating", "length", len(text))
		text = cut
	}
	slog.Info("sending message", "type", typ, "content", text)

	return s.emit(protocol.EventChatRoomChat, protocol.ChatSend{
		Type:       typ,
		Content:    text,
		Target:     target,
		Dictionary: dict,
	})
}

// Whisper sends text privately to member.
func (s *Session) Whisper(member int, text string) error {
	return s.SendMessage(protocol.ChatTypeWhisper, text, member, nil)
}

// Reply answers orig on the channel it came from. Public chat is answered
// publicly, as an emote unless the room uses a map; anything else gets a
// whisper. Map rooms get a "(" prefix so the answer is shown as ooc.
func (s *Session) Reply(orig protocol.ChatMessage, text string) error {
	r, _ := s.store.Room()
	prefix := ""
	if r.UsesMap() {
		prefix = "("
	}

	if orig.Type == protocol.ChatTypeChat {
		if r.UsesMap() {
			return s.SendMessage(protocol.ChatTypeChat, prefix+text, 0, nil)
		}
		return s.SendMessage(protocol.ChatTypeEmote, "*"+text, 0, nil)
	}
	return s.SendMessage(protocol.ChatTypeWhisper, prefix+text, orig.Sender, nil)
}

// Admin sends a room admin action.
func (s *Session) Admin(req protocol.AdminRequest) error {
	return s.emit(protocol.EventChatRoomAdmin, req)
}

// Kick removes member from the room.
func (s *Session) Kick(member int) error {
	return s.Admin(protocol.AdminRequest{Action: protocol.AdminKick, MemberNumber: member})
}

// MoveMember moves member one place left or right in the room order.
func (s *Session) MoveMember(member int, left bool) error {
	action := protocol.AdminMoveRight
	if left {
		action = protocol.AdminMoveLeft
	}
	return s.Admin(protocol.AdminRequest{Action: action, MemberNumber: member})
}

// UpdateRoom applies p to the local room at once and sends the resulting
// definition to the peer. The peer's later property sync carries the same
// values, so replaying it changes nothing.
func (s *Session) UpdateRoom(p room.Patch) error {
	r, ok := s.store.PatchRoom(p)
	if !ok {
		return ErrNotInRoom
	}
	def := r.Definition()
	slog.Info("updating room", "room", def.Name)

	return s.Admin(protocol.AdminRequest{
		Action:       protocol.AdminUpdate,
		MemberNumber: 0,
		Room:         &def,
	})
}

// UpdateCharacter sends c's full appearance and mirrors it locally.
func (s *Session) UpdateCharacter(c room.Character) error {
	items := c.Clone().Items
	if _, ok := s.store.Update(c.MemberNumber, func(cur *room.Character) { cur.Items = items }); ok {
		s.refreshPlayerItems(c.MemberNumber, items)
	}

	return s.emit(protocol.EventChatRoomCharacterUpdate, protocol.CharacterUpdate{
		ID:         c.ID,
		Appearance: c.AppearanceData(),
	})
}

func (s *Session) refreshPlayerItems(member int, items []room.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player != nil && s.player.MemberNumber == member {
		s.player.Items = slices.Clone(items)
	}
}

// UpdateCharacterItem sends one item change as is.
func (s *Session) UpdateCharacterItem(u protocol.ItemUpdate) error {
	slog.Info("sending item update", "target", u.Target, "group", u.Group, "name", u.Name)
	return s.emit(protocol.EventChatRoomCharacterItem, u)
}

// SendItemUpdate merges item into target's worn item of the same group,
// properties deep-merged, and sends the merged item. An empty name removes
// the item.
func (s *Session) SendItemUpdate(target int, item protocol.ItemData) error {
	c, ok := s.store.UpdateItem(target, item)
	if !ok {
		return fmt.Errorf("member %d is not in the room", target)
	}
	s.refreshPlayer(c)

	data := protocol.ItemData{Group: item.Group}
	if it, ok := c.Item(item.Group); ok {
		data = it.Data()
	}
	return s.UpdateCharacterItem(protocol.ItemUpdate{Target: target, ItemData: data})
}

// CharacterPoseUpdate sets the bot's pose.
func (s *Session) CharacterPoseUpdate(pose []string) error {
	slog.Info("sending pose update", "pose", pose)
	return s.emit(protocol.EventChatRoomCharacterPose, protocol.PoseUpdate{Pose: pose})
}

// MoveOnMap moves the bot on the room map.
func (s *Session) MoveOnMap(c protocol.Coord) error {
	return s.emit(protocol.EventChatRoomCharacterMapUpdate, c)
}

// AccountUpdate applies u to the bot's own character at once and sends it.
// The current appearance is sent along when u carries none.
func (s *Session) AccountUpdate(u protocol.AccountUpdate) error {
	s.mu.Lock()
	if s.player == nil {
		s.mu.Unlock()
		return ErrNotLoggedIn
	}
	applyAccount(s.player, u)
	if u.Appearance == nil {
		u.Appearance = s.player.AppearanceData()
	}
	member := s.player.MemberNumber
	s.mu.Unlock()

	s.store.Update(member, func(c *room.Character) { applyAccount(c, u) })

	slog.Info("sending account update")
	return s.emit(protocol.EventAccountUpdate, u)
}

func applyAccount(c *room.Character, u protocol.AccountUpdate) {
	if u.Nickname != nil {
		c.Nickname = *u.Nickname
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.ItemPermission != nil {
		c.ItemPermission = room.PermissionLevel(*u.ItemPermission)
	}
	if u.FriendList != nil {
		c.FriendList = slices.Clone(u.FriendList)
	}
	if u.WhiteList != nil {
		c.WhiteList = slices.Clone(u.WhiteList)
	}
	if u.OnlineSharedSettings != nil {
		settings := *u.OnlineSharedSettings
		c.OnlineSettings = &settings
	}
}

// SetItemPermission sets who may use items on the bot.
func (s *Session) SetItemPermission(level room.PermissionLevel) error {
	v := int(level)
	return s.AccountUpdate(protocol.AccountUpdate{ItemPermission: &v})
}

// SetBotDescription sets the bot's profile text, compressed the way the
// game client stores long descriptions. It waits for login.
func (s *Session) SetBotDescription(ctx context.Context, desc string) error {
	if err := s.loggedIn.Wait(ctx); err != nil {
		return err
	}

	compressed, err := lzstring.CompressToUTF16(desc)
	if err != nil {
		return fmt.Errorf("compressing description: %w", err)
	}
	v := compressedMarker + string(utf16.Decode(compressed))
	return s.AccountUpdate(protocol.AccountUpdate{Description: &v})
}

// SetScriptPermissions sets who may hide or block the bot's scripted
// content.
func (s *Session) SetScriptPermissions(hide, block bool) error {
	flag := func(b bool) protocol.ScriptPermission {
		if b {
			return protocol.ScriptPermission{Permission: 1}
		}
		return protocol.ScriptPermission{Permission: 0}
	}
	return s.AccountUpdate(protocol.AccountUpdate{
		OnlineSharedSettings: &protocol.OnlineSharedSettings{
			GameVersion: protocol.GameVersion,
			ScriptPermissions: map[string]protocol.ScriptPermission{
				"Hide":  flag(hide),
				"Block": flag(block),
			},
		},
	})
}

// FriendListAdd adds member to the bot's friend list.
func (s *Session) FriendListAdd(member int) error {
	p, ok := s.Player()
	if !ok {
		return ErrNotLoggedIn
	}
	if p.HasFriend(member) {
		return nil
	}
	return s.AccountUpdate(protocol.AccountUpdate{FriendList: append(p.FriendList, member)})
}

// FriendListRemove removes member from the bot's friend list.
func (s *Session) FriendListRemove(member int) error {
	p, ok := s.Player()
	if !ok {
		return ErrNotLoggedIn
	}
	if !p.HasFriend(member) {
		return nil
	}
	list := slices.DeleteFunc(p.FriendList, func(n int) bool { return n == member })
	return s.AccountUpdate(protocol.AccountUpdate{FriendList: list})
}

// Beep sends an account beep to member.
func (s *Session) Beep(member int, message string) error {
	return s.emit(protocol.EventAccountBeep, protocol.Beep{
		MemberNumber: member,
		BeepType:     "",
		Message:      message,
	})
}
