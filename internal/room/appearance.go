package room

import (
	"github.com/pixil98/go-roombot/internal/protocol"
)

// Property keys the peer uses to describe a lock on an item.
const (
	propLockedBy     = "LockedBy"
	propLockMember   = "LockMemberNumber"
	propRemoveTimer  = "RemoveTimer"
	propLockPassword = "Password"
	propExpression   = "Expression"
)

// Item is one worn item. Group is unique within a character's stack.
type Item struct {
	Group      string
	Name       string
	Color      protocol.Colors
	Difficulty *int
	Properties map[string]any
	Craft      map[string]any
}

// Lock describes a lock placed on an item.
type Lock struct {
	Name         string
	MemberNumber int
	RemoveTimer  int64
	Password     string
}

// ItemFromData converts a wire item.
func ItemFromData(d protocol.ItemData) Item {
	it := Item{
		Group:      d.Group,
		Name:       d.Name,
		Properties: cloneProps(d.Property),
		Craft:      cloneProps(d.Craft),
	}
	if d.Color != nil {
		it.Color = *d.Color
		it.Color.Values = append([]string(nil), d.Color.Values...)
	}
	if d.Difficulty != nil {
		v := *d.Difficulty
		it.Difficulty = &v
	}
	return it
}

// Data converts the item back to its wire form.
func (i Item) Data() protocol.ItemData {
	d := protocol.ItemData{
		Group:    i.Group,
		Name:     i.Name,
		Property: cloneProps(i.Properties),
		Craft:    cloneProps(i.Craft),
	}
	if !i.Color.IsZero() {
		c := i.Color
		c.Values = append([]string(nil), i.Color.Values...)
		d.Color = &c
	}
	if i.Difficulty != nil {
		v := *i.Difficulty
		d.Difficulty = &v
	}
	return d
}

// Clone returns a deep copy.
func (i Item) Clone() Item {
	c := i
	c.Color.Values = append([]string(nil), i.Color.Values...)
	c.Properties = cloneProps(i.Properties)
	c.Craft = cloneProps(i.Craft)
	if i.Difficulty != nil {
		v := *i.Difficulty
		c.Difficulty = &v
	}
	return c
}

// Lock returns the lock on the item, if any.
func (i Item) Lock() (Lock, bool) {
	by, _ := i.Properties[propLockedBy].(string)
	if by == "" {
		return Lock{}, false
	}
	l := Lock{Name: by}
	if n, ok := i.Properties[propLockMember].(float64); ok {
		l.MemberNumber = int(n)
	}
	if n, ok := i.Properties[propLockMember].(int); ok {
		l.MemberNumber = n
	}
	if n, ok := i.Properties[propRemoveTimer].(float64); ok {
		l.RemoveTimer = int64(n)
	}
	if p, ok := i.Properties[propLockPassword].(string); ok {
		l.Password = p
	}
	return l, true
}

// Merge applies an incremental update: scalar fields are replaced when
// present and properties are deep-merged so keys missing from the update
// survive.
func (i Item) Merge(u protocol.ItemData) Item {
	out := i.Clone()
	out.Name = u.Name
	if u.Color != nil {
		out.Color = *u.Color
		out.Color.Values = append([]string(nil), u.Color.Values...)
	}
	if u.Difficulty != nil {
		v := *u.Difficulty
		out.Difficulty = &v
	}
	if u.Craft != nil {
		out.Craft = cloneProps(u.Craft)
	}
	out.Properties = MergeProperties(out.Properties, u.Property)
	return out
}

// MergeProperties returns dst deep-merged with src. Nested maps merge key by
// key; any other value in src replaces the one in dst. Neither input is
// modified.
func MergeProperties(dst, src map[string]any) map[string]any {
	if dst == nil && src == nil {
		return nil
	}
	out := cloneProps(dst)
	if out == nil {
		out = make(map[string]any, len(src))
	}
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := out[k].(map[string]any)
		if srcIsMap && dstIsMap {
			out[k] = MergeProperties(dstMap, srcMap)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

func cloneProps(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneProps(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
