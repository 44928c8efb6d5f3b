package roommap

import (
	"fmt"

	"github.com/pixil98/go-roombot/internal/protocol"
)

// Region is an axis-aligned rectangle with inclusive bounds.
type Region struct {
	TopLeft     protocol.Coord
	BottomRight protocol.Coord
}

// NewRegion builds a region from two opposite corners in any order.
func NewRegion(x1, y1, x2, y2 int) Region {
	return Region{
		TopLeft:     protocol.Coord{X: min(x1, x2), Y: min(y1, y2)},
		BottomRight: protocol.Coord{X: max(x1, x2), Y: max(y1, y2)},
	}
}

// Contains reports whether c lies inside r, edges included.
func (r Region) Contains(c protocol.Coord) bool {
	return c.X >= r.TopLeft.X && c.X <= r.BottomRight.X &&
		c.Y >= r.TopLeft.Y && c.Y <= r.BottomRight.Y
}

func (r Region) String() string {
	return fmt.Sprintf("%s-%s", r.TopLeft, r.BottomRight)
}

// DoorRegion returns the approach area of a door: the door row widened by
// one tile on each side, extended one row up when above is set and one row
// down when below is set.
func DoorRegion(door protocol.Coord, above, below bool) Region {
	r := Region{
		TopLeft:     protocol.Coord{X: door.X - 1, Y: door.Y},
		BottomRight: protocol.Coord{X: door.X + 1, Y: door.Y},
	}
	if above {
		r.TopLeft.Y--
	}
	if below {
		r.BottomRight.Y++
	}
	return r
}
