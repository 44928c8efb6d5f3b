package room

import (
	"slices"

	"github.com/pixil98/go-roombot/internal/protocol"
)

// Room is the synchronized state of the room the bot is in. Members is the
// authoritative member order.
type Room struct {
	Name          string
	Description   string
	Background    string
	Space         string
	Access        []string
	Visibility    []string
	Limit         int
	Admins        []int
	Bans          []int
	Whitelist     []int
	BlockCategory []string
	Game          string
	Language      string
	Private       *bool
	Locked        *bool
	MapData       *protocol.MapData
	Members       []int
}

// Clone returns a deep copy.
func (r Room) Clone() Room {
	c := r
	c.Access = slices.Clone(r.Access)
	c.Visibility = slices.Clone(r.Visibility)
	c.Admins = slices.Clone(r.Admins)
	c.Bans = slices.Clone(r.Bans)
	c.Whitelist = slices.Clone(r.Whitelist)
	c.BlockCategory = slices.Clone(r.BlockCategory)
	c.Members = slices.Clone(r.Members)
	c.Private = cloneBool(r.Private)
	c.Locked = cloneBool(r.Locked)
	if r.MapData != nil {
		m := *r.MapData
		c.MapData = &m
	}
	return c
}

// ApplyData overwrites every room property carried by d. Members are left
// alone.
func (r *Room) ApplyData(d protocol.RoomData) {
	r.Name = d.Name
	r.Description = d.Description
	r.Background = d.Background
	r.Space = d.Space
	r.Access = slices.Clone(d.Access)
	r.Visibility = slices.Clone(d.Visibility)
	r.Limit = d.Limit
	r.Admins = slices.Clone(d.Admin)
	r.Bans = slices.Clone(d.Ban)
	r.Whitelist = slices.Clone(d.Whitelist)
	r.BlockCategory = slices.Clone(d.BlockCategory)
	r.Game = d.Game
	r.Language = d.Language
	r.Private = cloneBool(d.Private)
	r.Locked = cloneBool(d.Locked)
	if d.MapData != nil {
		m := *d.MapData
		r.MapData = &m
	}
}

// Definition returns the room as a definition suitable for create or admin
// update requests.
func (r Room) Definition() protocol.RoomDefinition {
	def := protocol.RoomDefinition{
		Name:          r.Name,
		Description:   r.Description,
		Background:    r.Background,
		Space:         r.Space,
		Access:        slices.Clone(r.Access),
		Visibility:    slices.Clone(r.Visibility),
		Limit:         r.Limit,
		Admin:         slices.Clone(r.Admins),
		Ban:           slices.Clone(r.Bans),
		Whitelist:     slices.Clone(r.Whitelist),
		BlockCategory: slices.Clone(r.BlockCategory),
		Game:          r.Game,
		Language:      r.Language,
		Private:       cloneBool(r.Private),
		Locked:        cloneBool(r.Locked),
	}
	if r.MapData != nil {
		m := *r.MapData
		def.MapData = &m
	}
	return def
}

// UsesMap reports whether the room shows a map.
func (r Room) UsesMap() bool {
	return r.MapData != nil && r.MapData.Type != "" && r.MapData.Type != protocol.MapTypeNever
}

// IsAdmin reports whether member administers the room.
func (r Room) IsAdmin(member int) bool {
	return slices.Contains(r.Admins, member)
}

// IsBanned reports whether member is on the room's ban list.
func (r Room) IsBanned(member int) bool {
	return slices.Contains(r.Bans, member)
}

// Patch is a partial change to room properties. Nil fields are untouched.
type Patch struct {
	Name          *string
	Description   *string
	Background    *string
	Access        *[]string
	Visibility    *[]string
	Limit         *int
	Admins        *[]int
	Bans          *[]int
	Whitelist     *[]int
	BlockCategory *[]string
	Game          *string
	Language      *string
	MapData       *protocol.MapData
}

// Apply writes the set fields of p onto r. Setting Access or Visibility
// drops the legacy Private and Locked flags.
func (p Patch) Apply(r *Room) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Background != nil {
		r.Background = *p.Background
	}
	if p.Access != nil {
		r.Access = slices.Clone(*p.Access)
	}
	if p.Visibility != nil {
		r.Visibility = slices.Clone(*p.Visibility)
	}
	if p.Access != nil || p.Visibility != nil {
		r.Private = nil
		r.Locked = nil
	}
	if p.Limit != nil {
		r.Limit = *p.Limit
	}
	if p.Admins != nil {
		r.Admins = slices.Clone(*p.Admins)
	}
	if p.Bans != nil {
		r.Bans = slices.Clone(*p.Bans)
	}
	if p.Whitelist != nil {
		r.Whitelist = slices.Clone(*p.Whitelist)
	}
	if p.BlockCategory != nil {
		r.BlockCategory = slices.Clone(*p.BlockCategory)
	}
	if p.Game != nil {
		r.Game = *p.Game
	}
	if p.Language != nil {
		r.Language = *p.Language
	}
	if p.MapData != nil {
		m := *p.MapData
		r.MapData = &m
	}
}

// MirrorProperties copies the room properties that survive a room re-create
// from d into def. The legacy Private and Locked flags are dropped whenever
// d carries Access or Visibility.
func MirrorProperties(def *protocol.RoomDefinition, d protocol.RoomData) {
	def.Name = d.Name
	def.Description = d.Description
	def.Background = d.Background
	def.Limit = d.Limit
	def.Ban = slices.Clone(d.Ban)
	def.BlockCategory = slices.Clone(d.BlockCategory)
	def.Game = d.Game
	if d.Access != nil {
		def.Access = slices.Clone(d.Access)
	}
	if d.Visibility != nil {
		def.Visibility = slices.Clone(d.Visibility)
	}
	if d.Access != nil || d.Visibility != nil {
		def.Private = nil
		def.Locked = nil
	}
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
