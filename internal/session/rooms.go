package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pixil98/go-roombot/internal/events"
	"github.com/pixil98/go-roombot/internal/pending"
	"github.com/pixil98/go-roombot/internal/protocol"
	"github.com/pixil98/go-roombot/internal/roommap"
)

// defaultSearchSpace is the room space searched when leaving a room.
const defaultSearchSpace = "X"

// Join asks to join the named room. It reports true once the peer accepted
// and the room state was synced. Concurrent callers share one request; only
// the caller that sent it publishes RoomJoin.
func (s *Session) Join(ctx context.Context, name string) (bool, error) {
	f, first := s.join.Acquire()
	if first {
		if err := s.emit(protocol.EventChatRoomJoin, protocol.JoinRequest{Name: name}); err != nil {
			s.join.Invalidate()
			return false, fmt.Errorf("sending join: %w", err)
		}
	}

	resp, err := f.Wait(ctx)
	if err != nil {
		return false, err
	}
	if resp != protocol.JoinedRoom {
		slog.Warn("room join refused", "room", name, "response", resp)
		return false, nil
	}
	if !first {
		return true, nil
	}

	if err := s.roomSynced.WaitOnce(ctx); err != nil {
		return false, err
	}
	s.setState(StateInRoom)
	slog.Info("room joined", "room", name)
	s.bus.Emit(events.RoomJoin{Room: name})
	return true, nil
}

// Create asks to create a room from def, with the bot as admin unless def
// names admins. It reports true once the room exists and was synced.
func (s *Session) Create(ctx context.Context, def protocol.RoomDefinition) (bool, error) {
	f, first := s.create.Acquire()
	if first {
		req := *def.Clone()
		if len(req.Admin) == 0 {
			if p, ok := s.Player(); ok {
				req.Admin = []int{p.MemberNumber}
			}
		}
		slog.Info("creating room", "room", req.Name)
		if err := s.emit(protocol.EventChatRoomCreate, req); err != nil {
			s.create.Invalidate()
			return false, fmt.Errorf("sending create: %w", err)
		}
	}

	resp, err := f.Wait(ctx)
	if err != nil {
		return false, err
	}
	if resp != protocol.ChatRoomCreated {
		slog.Warn("room create refused", "room", def.Name, "response", resp)
		return false, nil
	}
	if !first {
		return true, nil
	}

	if err := s.roomSynced.WaitOnce(ctx); err != nil {
		return false, err
	}
	s.setState(StateInRoom)
	slog.Info("room created", "room", def.Name)
	s.bus.Emit(events.RoomCreate{Room: def.Name})
	return true, nil
}

// JoinOrCreateRoom waits for login, then alternates join and create until
// one succeeds, pausing between failed rounds. A reconnect restarts the
// round after the next login. It returns only on success or when ctx ends.
func (s *Session) JoinOrCreateRoom(ctx context.Context, def protocol.RoomDefinition) error {
	s.joinLoops.Add(1)
	defer s.joinLoops.Add(-1)

	for {
		if err := s.loggedIn.Wait(ctx); err != nil {
			return err
		}

		slog.Info("trying to join room", "room", def.Name)
		ok, err := s.Join(ctx, def.Name)
		if ok {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, pending.ErrInvalidated) {
			continue
		}
		if err != nil {
			slog.Warn("joining room", "room", def.Name, "error", err)
		}

		slog.Info("could not join room, trying to create", "room", def.Name)
		ok, err = s.Create(ctx, def)
		if ok {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, pending.ErrInvalidated) {
			continue
		}
		if err != nil {
			slog.Warn("creating room", "room", def.Name, "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}
}

// JoinOrCreateAnotherRoom moves the bot to the room described by def. It
// leaves the current room first, or searches when not in one, joins an
// exact name match if listed and otherwise creates the room. It reports
// false when neither worked.
func (s *Session) JoinOrCreateAnotherRoom(ctx context.Context, def protocol.RoomDefinition) (bool, error) {
	if err := s.loggedIn.Wait(ctx); err != nil {
		return false, err
	}

	var (
		rooms []protocol.SearchResult
		err   error
	)
	if s.store.InRoom() {
		slog.Info("leaving the current room")
		rooms, err = s.Leave(ctx)
	} else {
		slog.Info("searching for room", "room", def.Name)
		rooms, err = s.Search(ctx, def.Name)
	}
	if err != nil {
		slog.Error("looking for room", "room", def.Name, "error", err)
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
	}

	for _, r := range rooms {
		if r.Name != def.Name {
			continue
		}
		ok, err := s.Join(ctx, def.Name)
		if ok {
			return true, nil
		}
		if err != nil {
			slog.Error("joining room", "room", def.Name, "error", err)
		}
		break
	}

	slog.Warn("room not joined, trying to create", "room", def.Name)
	ok, err := s.Create(ctx, def)
	if err != nil {
		slog.Error("creating room", "room", def.Name, "error", err)
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return ok, nil
}

// Leave leaves the current room, forgets it as the room to rejoin, and
// returns the room list a player would see afterwards.
func (s *Session) Leave(ctx context.Context) ([]protocol.SearchResult, error) {
	s.roomSynced.Reset()
	if err := s.emit(protocol.EventChatRoomLeave, ""); err != nil {
		return nil, fmt.Errorf("sending leave: %w", err)
	}

	s.mu.Lock()
	s.desired = nil
	s.roomMap = roommap.New()
	if s.state == StateInRoom {
		s.state = StateLoggedIn
	}
	s.mu.Unlock()

	s.store.Clear()
	s.engine.Reset()

	return s.Search(ctx, "")
}

// Search lists rooms matching query. Concurrent searches share one request.
func (s *Session) Search(ctx context.Context, query string) ([]protocol.SearchResult, error) {
	f, first := s.search.Acquire()
	if first {
		err := s.emit(protocol.EventChatRoomSearch, protocol.SearchRequest{
			Query:      cases.Upper(language.Und).String(query),
			Space:      defaultSearchSpace,
			FullRooms:  true,
			ShowLocked: true,
		})
		if err != nil {
			s.search.Invalidate()
			return nil, fmt.Errorf("sending search: %w", err)
		}
	}
	return f.Wait(ctx)
}

// rejoin returns to def after a reconnect unless a join loop is already
// running.
func (s *Session) rejoin(def protocol.RoomDefinition) {
	if s.joinLoops.Load() > 0 {
		return
	}
	go func() {
		if err := s.JoinOrCreateRoom(s.ctx, def); err != nil && s.ctx.Err() == nil {
			slog.Error("rejoining room", "room", def.Name, "error", err)
		}
	}()
}
