package room

import (
	"slices"

	"github.com/pixil98/go-roombot/internal/protocol"
)

var clothingGroups = []string{
	"Cloth", "ClothAccessory", "ClothLower", "Suit", "SuitLower", "Bra",
	"Corset", "Panties", "Socks", "Shoes", "Gloves",
}

var gagGroups = []string{"ItemMouth", "ItemMouth2", "ItemMouth3"}

// Character is the synchronized state of one room member. MemberNumber is
// the identity and never changes.
type Character struct {
	ID             string
	MemberNumber   int
	Name           string
	Nickname       string
	Description    string
	Position       protocol.Coord
	ActivePose     []string
	Items          []Item
	OnlineSettings *protocol.OnlineSharedSettings
	WhiteList      []int
	FriendList     []int
	ItemPermission PermissionLevel
	BlockItems     protocol.PermissionList
	LimitedItems   protocol.PermissionList
}

// CharacterFromData converts a wire character record.
func CharacterFromData(d protocol.CharacterData) Character {
	c := Character{
		ID:             d.ID,
		MemberNumber:   d.MemberNumber,
		Name:           d.Name,
		Nickname:       d.Nickname,
		Description:    d.Description,
		ActivePose:     slices.Clone(d.ActivePose),
		WhiteList:      slices.Clone(d.WhiteList),
		FriendList:     slices.Clone(d.FriendList),
		ItemPermission: PermissionLevel(d.ItemPermission),
		BlockItems:     d.BlockItems,
		LimitedItems:   d.LimitedItems,
	}
	if d.MapData != nil {
		c.Position = *d.MapData
	}
	if d.OnlineSharedSettings != nil {
		s := *d.OnlineSharedSettings
		c.OnlineSettings = &s
	}
	for _, it := range d.Appearance {
		c.setItem(ItemFromData(it))
	}
	return c
}

// Data converts the character back to its wire form.
func (c Character) Data() protocol.CharacterData {
	pos := c.Position
	return protocol.CharacterData{
		ID:                   c.ID,
		Name:                 c.Name,
		Nickname:             c.Nickname,
		Description:          c.Description,
		MemberNumber:         c.MemberNumber,
		Appearance:           c.AppearanceData(),
		ActivePose:           slices.Clone(c.ActivePose),
		WhiteList:            slices.Clone(c.WhiteList),
		FriendList:           slices.Clone(c.FriendList),
		OnlineSharedSettings: c.OnlineSettings,
		ItemPermission:       int(c.ItemPermission),
		MapData:              &pos,
		BlockItems:           c.BlockItems,
		LimitedItems:         c.LimitedItems,
	}
}

// Clone returns a deep copy.
func (c Character) Clone() Character {
	out := c
	out.ActivePose = slices.Clone(c.ActivePose)
	out.WhiteList = slices.Clone(c.WhiteList)
	out.FriendList = slices.Clone(c.FriendList)
	if c.OnlineSettings != nil {
		s := *c.OnlineSettings
		out.OnlineSettings = &s
	}
	if c.Items != nil {
		out.Items = make([]Item, len(c.Items))
		for i, it := range c.Items {
			out.Items[i] = it.Clone()
		}
	}
	return out
}

// String returns the nickname, falling back to the account name.
func (c Character) String() string {
	if c.Nickname != "" {
		return c.Nickname
	}
	return c.Name
}

// Item returns the item worn in group.
func (c Character) Item(group string) (Item, bool) {
	for _, it := range c.Items {
		if it.Group == group {
			return it.Clone(), true
		}
	}
	return Item{}, false
}

// AppearanceData returns the item stack in wire form.
func (c Character) AppearanceData() []protocol.ItemData {
	out := make([]protocol.ItemData, len(c.Items))
	for i, it := range c.Items {
		out[i] = it.Data()
	}
	return out
}

// ApplyItemUpdate upserts an item by group, deep-merging its properties.
// An update with an empty name removes the group.
func (c *Character) ApplyItemUpdate(u protocol.ItemData) {
	if u.Name == "" {
		c.RemoveItem(u.Group)
		return
	}
	for i, it := range c.Items {
		if it.Group == u.Group {
			c.Items[i] = it.Merge(u)
			return
		}
	}
	c.Items = append(c.Items, ItemFromData(u))
}

// RemoveItem drops the item in group. It reports whether one was worn.
func (c *Character) RemoveItem(group string) bool {
	for i, it := range c.Items {
		if it.Group == group {
			c.Items = slices.Delete(c.Items, i, i+1)
			return true
		}
	}
	return false
}

func (c *Character) setItem(it Item) {
	for i, existing := range c.Items {
		if existing.Group == it.Group {
			c.Items[i] = it
			return
		}
	}
	c.Items = append(c.Items, it)
}

// IsNaked reports whether no clothing group is occupied.
func (c Character) IsNaked() bool {
	for _, g := range clothingGroups {
		if _, ok := c.Item(g); ok {
			return false
		}
	}
	return true
}

// CanTalk reports whether no gag group is occupied.
func (c Character) CanTalk() bool {
	for _, g := range gagGroups {
		if _, ok := c.Item(g); ok {
			return false
		}
	}
	return true
}

// IsRestrained approximates the peer's restraint effects by the arms group.
func (c Character) IsRestrained() bool {
	_, ok := c.Item("ItemArms")
	return ok
}

// HasFriend reports whether member is on the friend list.
func (c Character) HasFriend(member int) bool {
	return slices.Contains(c.FriendList, member)
}
