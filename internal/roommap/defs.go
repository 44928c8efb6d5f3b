package roommap

import (
	"fmt"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-roombot/internal/protocol"
	"github.com/pixil98/go-roombot/internal/room"
)

// TriggerType is the kind of a data-driven trigger.
type TriggerType string

const (
	TypeCoord   TriggerType = "Coord"
	TypeZone    TriggerType = "Zone"
	TypeZoneOut TriggerType = "ZoneOut"
)

// Effect layers.
const (
	LayerTile   = "tile"
	LayerObject = "object"
)

// Effect changes one map cell when a trigger fires.
type Effect struct {
	Layer string `json:"layer" yaml:"layer"`
	X     int    `json:"x" yaml:"x"`
	Y     int    `json:"y" yaml:"y"`
	ID    int    `json:"id" yaml:"id"`
}

// Coord returns the cell the effect applies to.
func (e Effect) Coord() protocol.Coord {
	return protocol.Coord{X: e.X, Y: e.Y}
}

// Apply writes the effect onto m.
func (e Effect) Apply(m *Map) error {
	switch e.Layer {
	case LayerTile:
		return m.SetTile(e.Coord(), e.ID)
	case LayerObject:
		return m.SetObject(e.Coord(), e.ID)
	default:
		return fmt.Errorf("unknown effect layer %q", e.Layer)
	}
}

// TriggerDef describes a trigger in data. Coord triggers use X1/Y1 only.
type TriggerDef struct {
	Name    string      `json:"name" yaml:"name"`
	Type    TriggerType `json:"type" yaml:"type"`
	X1      int         `json:"x1" yaml:"x1"`
	Y1      int         `json:"y1" yaml:"y1"`
	X2      int         `json:"x2,omitempty" yaml:"x2"`
	Y2      int         `json:"y2,omitempty" yaml:"y2"`
	Message string      `json:"message,omitempty" yaml:"message"`
	Whisper bool        `json:"whisper,omitempty" yaml:"whisper"`
	Effect  *Effect     `json:"effect,omitempty" yaml:"effect"`
}

func (d TriggerDef) validate() error {
	el := errors.NewErrorList()

	if d.Name == "" {
		el.Add(fmt.Errorf("trigger name is required"))
	}
	switch d.Type {
	case TypeCoord, TypeZone, TypeZoneOut:
	default:
		el.Add(fmt.Errorf("trigger %q: unknown type %q", d.Name, d.Type))
	}
	if !InBounds(protocol.Coord{X: d.X1, Y: d.Y1}) {
		el.Add(fmt.Errorf("trigger %q: corner (%d,%d) is off the map", d.Name, d.X1, d.Y1))
	}
	if d.Type != TypeCoord && !InBounds(protocol.Coord{X: d.X2, Y: d.Y2}) {
		el.Add(fmt.Errorf("trigger %q: corner (%d,%d) is off the map", d.Name, d.X2, d.Y2))
	}
	if d.Effect != nil {
		if d.Effect.Layer != LayerTile && d.Effect.Layer != LayerObject {
			el.Add(fmt.Errorf("trigger %q: unknown effect layer %q", d.Name, d.Effect.Layer))
		}
		if !InBounds(d.Effect.Coord()) {
			el.Add(fmt.Errorf("trigger %q: effect cell %s is off the map", d.Name, d.Effect.Coord()))
		}
	}

	return el.Err()
}

// Region returns the area a Zone or ZoneOut trigger watches.
func (d TriggerDef) Region() Region {
	return NewRegion(d.X1, d.Y1, d.X2, d.Y2)
}

// TriggerSet is a named collection of trigger definitions, stored as an
// asset.
type TriggerSet struct {
	Map      string       `json:"map,omitempty" yaml:"map"`
	Triggers []TriggerDef `json:"triggers" yaml:"triggers"`
}

// Validate satisfies storage.ValidatingSpec.
func (s *TriggerSet) Validate() error {
	el := errors.NewErrorList()

	if s.Map != "" {
		if _, err := ParseExport(s.Map); err != nil {
			el.Add(err)
		}
	}

	seen := make(map[string]bool, len(s.Triggers))
	for _, d := range s.Triggers {
		if seen[d.Name] {
			el.Add(fmt.Errorf("duplicate trigger %q", d.Name))
		}
		seen[d.Name] = true
		el.Add(d.validate())
	}

	return el.Err()
}

// AddDefs registers every definition on the scope, calling cb with the
// definition that fired.
func (s *Scope) AddDefs(defs []TriggerDef, cb func(room.Character, TriggerDef)) []TriggerID {
	ids := make([]TriggerID, 0, len(defs))
	for _, d := range defs {
		fire := func(c room.Character) { cb(c, d) }

		switch d.Type {
		case TypeCoord:
			ids = append(ids, s.AddTile(protocol.Coord{X: d.X1, Y: d.Y1}, fire))
		case TypeZone:
			ids = append(ids, s.AddEnterRegion(d.Region(), fire))
		case TypeZoneOut:
			ids = append(ids, s.AddLeaveRegion(d.Region(), fire))
		}
	}
	return ids
}
