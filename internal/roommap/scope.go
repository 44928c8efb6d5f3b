package roommap

import (
	"sync"

	"github.com/pixil98/go-roombot/internal/protocol"
)

// Scope is one owner's view of an Engine. ClearAll removes the triggers
// added through this scope and leaves everyone else's alone.
type Scope struct {
	engine *Engine

	mu  sync.Mutex
	ids map[TriggerID]struct{}
}

// Scope returns a new owner scope.
func (e *Engine) Scope() *Scope {
	s := &Scope{
		engine: e,
		ids:    make(map[TriggerID]struct{}),
	}

	e.mu.Lock()
	e.scopes = append(e.scopes, s)
	e.mu.Unlock()
	return s
}

// forgetAll drops the tracked ids without touching the engine. Called by
// Engine.Reset with the engine lock held.
func (s *Scope) forgetAll() {
	s.mu.Lock()
	s.ids = make(map[TriggerID]struct{})
	s.mu.Unlock()
}

func (s *Scope) track(id TriggerID) TriggerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
	return id
}

func (s *Scope) untrack(id TriggerID, removed bool) bool {
	if removed {
		s.mu.Lock()
		delete(s.ids, id)
		s.mu.Unlock()
	}
	return removed
}

func (s *Scope) owns(id TriggerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

func (s *Scope) AddTile(c protocol.Coord, cb Callback) TriggerID {
	return s.track(s.engine.AddTile(c, cb))
}

func (s *Scope) AddEnterRegion(reg Region, cb Callback) TriggerID {
	return s.track(s.engine.AddEnterRegion(reg, cb))
}

func (s *Scope) AddLeaveRegion(reg Region, cb Callback) TriggerID {
	return s.track(s.engine.AddLeaveRegion(reg, cb))
}

// RemoveTile removes a tile trigger this scope added.
func (s *Scope) RemoveTile(c protocol.Coord, id TriggerID) bool {
	if !s.owns(id) {
		return false
	}
	return s.untrack(id, s.engine.RemoveTile(c, id))
}

// RemoveRegion removes a region trigger this scope added.
func (s *Scope) RemoveRegion(id TriggerID) bool {
	if !s.owns(id) {
		return false
	}
	return s.untrack(id, s.engine.RemoveRegion(id))
}

// Count returns the number of live triggers owned by the scope.
func (s *Scope) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// ClearAll removes every trigger this scope added.
func (s *Scope) ClearAll() {
	s.mu.Lock()
	ids := s.ids
	s.ids = make(map[TriggerID]struct{})
	s.mu.Unlock()

	for id := range ids {
		s.engine.Remove(id)
	}
}

// Release clears the scope and detaches it from the engine. The scope must
// not be used afterwards.
func (s *Scope) Release() {
	s.ClearAll()

	e := s.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, o := range e.scopes {
		if o == s {
			e.scopes = append(e.scopes[:i:i], e.scopes[i+1:]...)
			break
		}
	}
}
