package roommap

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	lzstring "github.com/daku10/go-lz-string"

	"github.com/pixil98/go-roombot/internal/protocol"
)

const (
	Width  = 40
	Height = 40

	// DefaultTile is the plain floor tile a fresh map is filled with.
	DefaultTile = 100
	// NoObject marks an empty object cell.
	NoObject = 0
)

// Map is a room map: a full grid of tiles and a sparse set of placed
// objects. Cells are addressed by protocol.Coord with (0,0) top left.
type Map struct {
	Type    string
	Fog     bool
	tiles   []int
	objects map[protocol.Coord]int
}

// New returns a map filled with the default tile and no objects.
func New() *Map {
	m := &Map{
		Type:    protocol.MapTypeAlways,
		tiles:   make([]int, Width*Height),
		objects: make(map[protocol.Coord]int),
	}
	for i := range m.tiles {
		m.tiles[i] = DefaultTile
	}
	return m
}

// FromData decodes the wire form. Missing cells keep their defaults.
func FromData(d protocol.MapData) *Map {
	m := New()
	if d.Type != "" {
		m.Type = d.Type
	}
	m.Fog = d.Fog

	i := 0
	for _, r := range d.Tiles {
		if i >= len(m.tiles) {
			break
		}
		m.tiles[i] = int(r)
		i++
	}

	i = 0
	for _, r := range d.Objects {
		if i >= Width*Height {
			break
		}
		if r != NoObject {
			m.objects[coordOf(i)] = int(r)
		}
		i++
	}
	return m
}

// ParseExport decodes a map export string: lz-string base64 over the JSON
// map record.
func ParseExport(s string) (*Map, error) {
	raw, err := lzstring.DecompressFromBase64(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decompressing map: %w", err)
	}
	if raw == "" {
		return nil, fmt.Errorf("decompressing map: empty result")
	}

	var d protocol.MapData
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decoding map: %w", err)
	}
	return FromData(d), nil
}

// Export encodes the map the way ParseExport reads it.
func (m *Map) Export() (string, error) {
	b, err := json.Marshal(m.Data())
	if err != nil {
		return "", fmt.Errorf("encoding map: %w", err)
	}
	out, err := lzstring.CompressToBase64(string(b))
	if err != nil {
		return "", fmt.Errorf("compressing map: %w", err)
	}
	return out, nil
}

// Data returns the wire form.
func (m *Map) Data() protocol.MapData {
	var tiles, objects strings.Builder
	for _, t := range m.tiles {
		tiles.WriteRune(rune(t))
	}
	for i := range Width * Height {
		objects.WriteRune(rune(m.objects[coordOf(i)]))
	}
	return protocol.MapData{
		Type:    m.Type,
		Fog:     m.Fog,
		Tiles:   tiles.String(),
		Objects: objects.String(),
	}
}

// Clone returns a deep copy.
func (m *Map) Clone() *Map {
	return &Map{
		Type:    m.Type,
		Fog:     m.Fog,
		tiles:   slices.Clone(m.tiles),
		objects: maps.Clone(m.objects),
	}
}

// InBounds reports whether c is on the map.
func InBounds(c protocol.Coord) bool {
	return c.X >= 0 && c.X < Width && c.Y >= 0 && c.Y < Height
}

// Tile returns the tile at c, or 0 off the map.
func (m *Map) Tile(c protocol.Coord) int {
	if !InBounds(c) {
		return 0
	}
	return m.tiles[c.Y*Width+c.X]
}

// Object returns the object at c, or NoObject.
func (m *Map) Object(c protocol.Coord) int {
	return m.objects[c]
}

// Objects returns every placed object.
func (m *Map) Objects() map[protocol.Coord]int {
	return maps.Clone(m.objects)
}

// SetTile places a tile.
func (m *Map) SetTile(c protocol.Coord, id int) error {
	if !InBounds(c) {
		return fmt.Errorf("tile %s is off the map", c)
	}
	m.tiles[c.Y*Width+c.X] = id
	return nil
}

// SetObject places an object; NoObject clears the cell.
func (m *Map) SetObject(c protocol.Coord, id int) error {
	if !InBounds(c) {
		return fmt.Errorf("object %s is off the map", c)
	}
	if id == NoObject {
		delete(m.objects, c)
		return nil
	}
	m.objects[c] = id
	return nil
}

func coordOf(i int) protocol.Coord {
	return protocol.Coord{X: i % Width, Y: i / Width}
}
