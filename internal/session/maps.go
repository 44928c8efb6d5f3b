package session

import (
	"github.com/pixil98/go-roombot/internal/protocol"
	"github.com/pixil98/go-roombot/internal/room"
	"github.com/pixil98/go-roombot/internal/roommap"
)

// Map returns a copy of the current room map.
func (s *Session) Map() *roommap.Map {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomMap.Clone()
}

// SetMap replaces the room map and pushes it to the room.
func (s *Session) SetMap(m *roommap.Map) error {
	if !s.store.InRoom() {
		return ErrNotInRoom
	}

	s.mu.Lock()
	s.roomMap = m.Clone()
	s.mu.Unlock()

	d := m.Data()
	return s.UpdateRoom(room.Patch{MapData: &d})
}

// SetMapFromString replaces the room map with a map export string.
func (s *Session) SetMapFromString(export string) error {
	m, err := roommap.ParseExport(export)
	if err != nil {
		return err
	}
	return s.SetMap(m)
}

// SetTile changes one tile and pushes the map.
func (s *Session) SetTile(c protocol.Coord, id int) error {
	return s.editMap(func(m *roommap.Map) error { return m.SetTile(c, id) })
}

// SetObject changes one object and pushes the map.
func (s *Session) SetObject(c protocol.Coord, id int) error {
	return s.editMap(func(m *roommap.Map) error { return m.SetObject(c, id) })
}

// ApplyEffects applies map effects in order and pushes the map once.
func (s *Session) ApplyEffects(effects ...roommap.Effect) error {
	return s.editMap(func(m *roommap.Map) error {
		for _, e := range effects {
			if err := e.Apply(m); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Session) editMap(fn func(*roommap.Map) error) error {
	m := s.Map()
	if err := fn(m); err != nil {
		return err
	}
	return s.SetMap(m)
}
