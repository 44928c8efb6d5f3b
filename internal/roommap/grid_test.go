package roommap

import (
	"testing"

	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-roombot/internal/protocol"
	"github.com/pixil98/go-roombot/internal/room"
)

func TestMap_Defaults(t *testing.T) {
	m := New()

	testutil.AssertEqual(t, "tile", m.Tile(protocol.Coord{X: 0, Y: 0}), DefaultTile)
	testutil.AssertEqual(t, "object", m.Object(protocol.Coord{X: 39, Y: 39}), NoObject)
	testutil.AssertEqual(t, "off map", m.Tile(protocol.Coord{X: 40, Y: 0}), 0)
}

func TestMap_SetAndRoundTripData(t *testing.T) {
	m := New()
	c := protocol.Coord{X: 7, Y: 3}

	testutil.AssertEqual(t, "set tile", m.SetTile(c, 1030) == nil, true)
	testutil.AssertEqual(t, "set object", m.SetObject(c, 2001) == nil, true)
	testutil.AssertErrorContains(t, m.SetTile(protocol.Coord{X: -1, Y: 0}, 1), "off the map")

	d := m.Data()
	testutil.AssertEqual(t, "tile runes", len([]rune(d.Tiles)), Width*Height)
	testutil.AssertEqual(t, "object runes", len([]rune(d.Objects)), Width*Height)

	back := FromData(d)
	testutil.AssertEqual(t, "tile", back.Tile(c), 1030)
	testutil.AssertEqual(t, "object", back.Object(c), 2001)
	testutil.AssertEqual(t, "objects", len(back.Objects()), 1)

	testutil.AssertEqual(t, "clear object", back.SetObject(c, NoObject) == nil, true)
	testutil.AssertEqual(t, "cleared", len(back.Objects()), 0)
}

func TestMap_ExportRoundTrip(t *testing.T) {
	m := New()
	m.Type = protocol.MapTypeHybrid
	_ = m.SetTile(protocol.Coord{X: 1, Y: 1}, 110)
	_ = m.SetObject(protocol.Coord{X: 2, Y: 2}, 3000)

	s, err := m.Export()
	testutil.AssertEqual(t, "export error", err == nil, true)

	back, err := ParseExport(s)
	testutil.AssertEqual(t, "parse error", err == nil, true)
	testutil.AssertEqual(t, "type", back.Type, protocol.MapTypeHybrid)
	testutil.AssertEqual(t, "tile", back.Tile(protocol.Coord{X: 1, Y: 1}), 110)
	testutil.AssertEqual(t, "object", back.Object(protocol.Coord{X: 2, Y: 2}), 3000)
}

func TestTriggerSet_Validate(t *testing.T) {
	tests := map[string]struct {
		set    TriggerSet
		expErr string
	}{
		"valid": {
			set: TriggerSet{Triggers: []TriggerDef{
				{Name: "door", Type: TypeCoord, X1: 1, Y1: 1},
				{Name: "hall", Type: TypeZone, X1: 0, Y1: 0, X2: 5, Y2: 5, Effect: &Effect{Layer: LayerObject, X: 2, Y: 2}},
			}},
		},
		"duplicate": {
			set: TriggerSet{Triggers: []TriggerDef{
				{Name: "door", Type: TypeCoord},
				{Name: "door", Type: TypeCoord},
			}},
			expErr: "duplicate trigger",
		},
		"bad type": {
			set:    TriggerSet{Triggers: []TriggerDef{{Name: "door", Type: "Teleport"}}},
			expErr: "unknown type",
		},
		"off map": {
			set:    TriggerSet{Triggers: []TriggerDef{{Name: "hall", Type: TypeZoneOut, X2: 50, Y2: 1}}},
			expErr: "off the map",
		},
		"bad effect": {
			set:    TriggerSet{Triggers: []TriggerDef{{Name: "door", Type: TypeCoord, Effect: &Effect{Layer: "sky"}}}},
			expErr: "unknown effect layer",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.set.Validate()
			if tt.expErr == "" {
				testutil.AssertEqual(t, "error", err == nil, true)
				return
			}
			testutil.AssertErrorContains(t, err, tt.expErr)
		})
	}
}

func TestScope_AddDefs(t *testing.T) {
	e := NewEngine()
	s := e.Scope()

	var fired []string
	s.AddDefs([]TriggerDef{
		{Name: "pad", Type: TypeCoord, X1: 1, Y1: 1},
		{Name: "room-in", Type: TypeZone, X1: 0, Y1: 0, X2: 2, Y2: 2},
		{Name: "room-out", Type: TypeZoneOut, X1: 0, Y1: 0, X2: 2, Y2: 2},
	}, func(_ room.Character, d TriggerDef) {
		fired = append(fired, d.Name)
	})

	e.Evaluate(at(1, 1, 1))
	e.Evaluate(at(1, 3, 3))

	testutil.AssertEqual(t, "count", len(fired), 3)
	testutil.AssertEqual(t, "scope owns all", s.Count(), 3)
}

func TestEffect_Apply(t *testing.T) {
	m := New()

	err := Effect{Layer: LayerTile, X: 4, Y: 4, ID: 120}.Apply(m)
	testutil.AssertEqual(t, "tile error", err == nil, true)
	testutil.AssertEqual(t, "tile", m.Tile(protocol.Coord{X: 4, Y: 4}), 120)

	err = Effect{Layer: "sky"}.Apply(m)
	testutil.AssertErrorContains(t, err, "unknown effect layer")
}
