package roommap

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/pixil98/go-roombot/internal/events"
	"github.com/pixil98/go-roombot/internal/protocol"
	"github.com/pixil98/go-roombot/internal/room"
)

// TriggerKind says when a trigger fires.
type TriggerKind int

const (
	// TileTrigger fires every time a character arrives on its coordinate.
	TileTrigger TriggerKind = iota
	// EnterRegionTrigger fires on the outside to inside transition.
	EnterRegionTrigger
	// LeaveRegionTrigger fires on the inside to outside transition.
	LeaveRegionTrigger
)

func (k TriggerKind) String() string {
	switch k {
	case TileTrigger:
		return "tile"
	case EnterRegionTrigger:
		return "enter"
	case LeaveRegionTrigger:
		return "leave"
	default:
		return "unknown"
	}
}

// TriggerID identifies one registration.
type TriggerID string

// Callback receives the character whose move fired the trigger.
type Callback func(c room.Character)

type registration struct {
	id     TriggerID
	kind   TriggerKind
	coord  protocol.Coord
	region Region
	cb     Callback

	// removed is set once the trigger leaves the engine. Callbacks already
	// queued on the dispatcher check it before running.
	removed atomic.Bool
}

func (r *registration) fire(c room.Character) {
	if r.removed.Load() {
		slog.Debug("dropping removed trigger", "trigger", r.id, "kind", r.kind)
		return
	}
	events.SafeCall("trigger "+r.kind.String(), func() { r.cb(c) })
}

type membership struct {
	member int
	id     TriggerID
}

// Engine evaluates registered triggers against character moves.
type Engine struct {
	mu       sync.Mutex
	tiles    map[protocol.Coord][]*registration
	regions  []*registration
	inside   map[membership]bool
	scopes   []*Scope
	dispatch func(func())
}

// EngineOpt configures an Engine.
type EngineOpt func(*Engine)

// WithDispatch runs fired callbacks through post instead of inline.
func WithDispatch(post func(func())) EngineOpt {
	return func(e *Engine) {
		e.dispatch = post
	}
}

// NewEngine creates an engine with no triggers.
func NewEngine(opts ...EngineOpt) *Engine {
	e := &Engine{
		tiles:    make(map[protocol.Coord][]*registration),
		inside:   make(map[membership]bool),
		dispatch: func(fn func()) { fn() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func newID() TriggerID {
	return TriggerID(uuid.NewString())
}

// AddTile registers cb on one coordinate.
func (e *Engine) AddTile(c protocol.Coord, cb Callback) TriggerID {
	r := &registration{id: newID(), kind: TileTrigger, coord: c, cb: cb}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.tiles[c] = append(e.tiles[c], r)
	return r.id
}

// AddEnterRegion registers cb for entering reg.
func (e *Engine) AddEnterRegion(reg Region, cb Callback) TriggerID {
	return e.addRegion(EnterRegionTrigger, reg, cb)
}

// AddLeaveRegion registers cb for leaving reg.
func (e *Engine) AddLeaveRegion(reg Region, cb Callback) TriggerID {
	return e.addRegion(LeaveRegionTrigger, reg, cb)
}

func (e *Engine) addRegion(kind TriggerKind, reg Region, cb Callback) TriggerID {
	r := &registration{id: newID(), kind: kind, region: reg, cb: cb}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.regions = append(e.regions, r)
	return r.id
}

// RemoveTile removes the tile trigger id registered on c.
func (e *Engine) RemoveTile(c protocol.Coord, id TriggerID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	regs := e.tiles[c]
	for i, r := range regs {
		if r.id == id {
			r.removed.Store(true)
			e.tiles[c] = append(regs[:i:i], regs[i+1:]...)
			if len(e.tiles[c]) == 0 {
				delete(e.tiles, c)
			}
			return true
		}
	}
	return false
}

// RemoveRegion removes the region trigger id.
func (e *Engine) RemoveRegion(id TriggerID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, r := range e.regions {
		if r.id == id {
			r.removed.Store(true)
			e.regions = append(e.regions[:i:i], e.regions[i+1:]...)
			for k := range e.inside {
				if k.id == id {
					delete(e.inside, k)
				}
			}
			return true
		}
	}
	return false
}

// Remove removes a trigger of any kind.
func (e *Engine) Remove(id TriggerID) bool {
	if e.RemoveRegion(id) {
		return true
	}

	e.mu.Lock()
	var (
		coord protocol.Coord
		found bool
	)
	for c, regs := range e.tiles {
		for _, r := range regs {
			if r.id == id {
				coord, found = c, true
			}
		}
	}
	e.mu.Unlock()

	return found && e.RemoveTile(coord, id)
}

// Count returns the number of registrations.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.regions)
	for _, regs := range e.tiles {
		n += len(regs)
	}
	return n
}

// Evaluate runs the triggers for a character that just moved to
// c.Position. Region membership for every region trigger is updated before
// any callback is dispatched.
func (e *Engine) Evaluate(c room.Character) {
	pos := c.Position

	e.mu.Lock()
	var fired []*registration
	fired = append(fired, e.tiles[pos]...)
	for _, r := range e.regions {
		key := membership{member: c.MemberNumber, id: r.id}
		was := e.inside[key]
		now := r.region.Contains(pos)
		if now {
			e.inside[key] = true
		} else {
			delete(e.inside, key)
		}

		switch {
		case r.kind == EnterRegionTrigger && !was && now:
			fired = append(fired, r)
		case r.kind == LeaveRegionTrigger && was && !now:
			fired = append(fired, r)
		}
	}
	e.mu.Unlock()

	for _, r := range fired {
		slog.Debug("trigger fired", "trigger", r.id, "kind", r.kind, "member", c.MemberNumber, "position", pos)
		snapshot := c.Clone()
		e.dispatch(func() { r.fire(snapshot) })
	}
}

// Forget drops the region membership of a member who left the room.
func (e *Engine) Forget(member int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for k := range e.inside {
		if k.member == member {
			delete(e.inside, k)
		}
	}
}

// ResetMembership forgets every member's region membership.
func (e *Engine) ResetMembership() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inside = make(map[membership]bool)
}

// Reset removes every trigger, including the ones owned by scopes.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, regs := range e.tiles {
		for _, r := range regs {
			r.removed.Store(true)
		}
	}
	for _, r := range e.regions {
		r.removed.Store(true)
	}
	for _, s := range e.scopes {
		s.forgetAll()
	}

	e.tiles = make(map[protocol.Coord][]*registration)
	e.regions = nil
	e.inside = make(map[membership]bool)
}
