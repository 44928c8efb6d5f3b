package room

import (
	"slices"
	"sync"

	"github.com/pixil98/go-roombot/internal/protocol"
)

// Store is the local mirror of the room the bot is in. It is written only by
// the session's inbound handlers and its optimistic outbound updates; every
// accessor hands out copies.
type Store struct {
	mu        sync.RWMutex
	room      *Room
	chars     map[int]*Character
	leaveTags map[int]LeaveReason
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		chars:     make(map[int]*Character),
		leaveTags: make(map[int]LeaveReason),
	}
}

// Room returns a copy of the current room.
func (s *Store) Room() (Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.room == nil {
		return Room{}, false
	}
	return s.room.Clone(), true
}

// InRoom reports whether a room is mirrored.
func (s *Store) InRoom() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room != nil
}

// Character returns a copy of one member.
func (s *Store) Character(member int) (Character, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chars[member]
	if !ok {
		return Character{}, false
	}
	return c.Clone(), true
}

// Characters returns copies of all members in room order.
func (s *Store) Characters() []Character {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.room == nil {
		return nil
	}
	out := make([]Character, 0, len(s.room.Members))
	for _, n := range s.room.Members {
		if c, ok := s.chars[n]; ok {
			out = append(out, c.Clone())
		}
	}
	return out
}

// FindByName returns the first member whose name or nickname equals name.
func (s *Store) FindByName(name string) (Character, bool) {
	for _, c := range s.Characters() {
		if c.Name == name || c.Nickname == name {
			return c, true
		}
	}
	return Character{}, false
}

// Count returns the number of members.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.room == nil {
		return 0
	}
	return len(s.room.Members)
}

// Sync applies a full room sync. Without a current room it builds the room
// and every member from d and reports true. Otherwise only the room fields
// are patched; membership changes arrive through MemberJoined/MemberLeft.
func (s *Store) Sync(d protocol.RoomData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.room != nil {
		s.room.ApplyData(d)
		return false
	}

	r := &Room{}
	r.ApplyData(d)
	s.chars = make(map[int]*Character, len(d.Character))
	for _, cd := range d.Character {
		c := CharacterFromData(cd)
		s.chars[c.MemberNumber] = &c
		r.Members = append(r.Members, c.MemberNumber)
	}
	s.room = r
	return true
}

// ApplyProperties patches the room from a property sync. It reports false
// when there is no room.
func (s *Store) ApplyProperties(d protocol.RoomData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.room == nil {
		return false
	}
	s.room.ApplyData(d)
	return true
}

// PatchRoom applies p to the room and returns the result.
func (s *Store) PatchRoom(p Patch) (Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.room == nil {
		return Room{}, false
	}
	p.Apply(s.room)
	return s.room.Clone(), true
}

// SetMapData replaces the room's map.
func (s *Store) SetMapData(m protocol.MapData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.room == nil {
		return false
	}
	s.room.MapData = &m
	return true
}

// Clear drops the room and every member.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.room = nil
	s.chars = make(map[int]*Character)
	s.leaveTags = make(map[int]LeaveReason)
}

// MemberJoined inserts or replaces a member and clears any leave tag left
// for it.
func (s *Store) MemberJoined(d protocol.CharacterData) (Character, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.room == nil {
		return Character{}, false
	}
	delete(s.leaveTags, d.MemberNumber)
	c := CharacterFromData(d)
	s.chars[c.MemberNumber] = &c
	if !slices.Contains(s.room.Members, c.MemberNumber) {
		s.room.Members = append(s.room.Members, c.MemberNumber)
	}
	return c.Clone(), true
}

// MemberLeft removes a member. It returns the last known state, whether the
// member was known, and the reason announced beforehand, defaulting to
// LeaveDisconnect.
func (s *Store) MemberLeft(member int) (Character, bool, LeaveReason) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reason, ok := s.leaveTags[member]
	if !ok {
		reason = LeaveDisconnect
	}
	delete(s.leaveTags, member)

	if s.room != nil {
		s.room.Members = slices.DeleteFunc(s.room.Members, func(n int) bool { return n == member })
	}
	c, known := s.chars[member]
	if !known {
		return Character{}, false, reason
	}
	delete(s.chars, member)
	return *c, true, reason
}

// TagLeave records why member is about to leave.
func (s *Store) TagLeave(member int, reason LeaveReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaveTags[member] = reason
}

// SyncCharacter upserts one member's full data.
func (s *Store) SyncCharacter(d protocol.CharacterData) (Character, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.room == nil {
		return Character{}, false
	}
	c := CharacterFromData(d)
	s.chars[c.MemberNumber] = &c
	if !slices.Contains(s.room.Members, c.MemberNumber) {
		s.room.Members = append(s.room.Members, c.MemberNumber)
	}
	return c.Clone(), true
}

// Reorder replaces the member order. Unknown member numbers are skipped and
// known members missing from order keep their place at the end.
func (s *Store) Reorder(order []int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.room == nil {
		return false
	}
	next := make([]int, 0, len(s.room.Members))
	for _, n := range order {
		if _, ok := s.chars[n]; ok && !slices.Contains(next, n) {
			next = append(next, n)
		}
	}
	for _, n := range s.room.Members {
		if !slices.Contains(next, n) {
			next = append(next, n)
		}
	}
	s.room.Members = next
	return true
}

// Update runs fn on a member under the store lock and returns the result.
func (s *Store) Update(member int, fn func(*Character)) (Character, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chars[member]
	if !ok {
		return Character{}, false
	}
	fn(c)
	return c.Clone(), true
}

// SetPose replaces a member's active pose.
func (s *Store) SetPose(member int, pose []string) (Character, bool) {
	return s.Update(member, func(c *Character) {
		c.ActivePose = slices.Clone(pose)
	})
}

// UpdateItem upserts one item on a member by group.
func (s *Store) UpdateItem(member int, item protocol.ItemData) (Character, bool) {
	return s.Update(member, func(c *Character) {
		c.ApplyItemUpdate(item)
	})
}

// SetExpression merges an expression change into the item worn in group.
func (s *Store) SetExpression(member int, group, name string) (Character, bool) {
	return s.Update(member, func(c *Character) {
		for i, it := range c.Items {
			if it.Group != group {
				continue
			}
			var expr any
			if name != "" {
				expr = name
			}
			c.Items[i].Properties = MergeProperties(it.Properties, map[string]any{propExpression: expr})
			return
		}
	})
}

// SetPosition moves a member on the map.
func (s *Store) SetPosition(member int, pos protocol.Coord) (Character, bool) {
	return s.Update(member, func(c *Character) {
		c.Position = pos
	})
}
