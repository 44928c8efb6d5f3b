package session

import (
	"context"
	"fmt"

	"github.com/pixil98/go-roombot/internal/protocol"
	"github.com/pixil98/go-roombot/internal/room"
)

// QueryItemAllowed asks whether the bot may use items on member. Concurrent
// queries for the same member share one request.
func (s *Session) QueryItemAllowed(ctx context.Context, member int) (bool, error) {
	f, first := s.allow.Acquire(member)
	if first {
		if err := s.emit(protocol.EventChatRoomAllowItem, protocol.AllowItemQuery{MemberNumber: member}); err != nil {
			s.allow.Abandon(member)
			return false, fmt.Errorf("sending item permission query: %w", err)
		}
	}
	return f.Wait(ctx)
}

// QueryOnlineFriends lists the bot's friends that are online.
func (s *Session) QueryOnlineFriends(ctx context.Context) ([]protocol.OnlineFriend, error) {
	f, first := s.friends.Acquire()
	if first {
		if err := s.emit(protocol.EventAccountQuery, protocol.AccountQuery{Query: protocol.QueryOnlineFriends}); err != nil {
			s.friends.Invalidate()
			return nil, fmt.Errorf("sending online friends query: %w", err)
		}
	}
	return f.Wait(ctx)
}

// OnlineFriendsInRoom returns the online friends that are members of the
// current room.
func (s *Session) OnlineFriendsInRoom(ctx context.Context) ([]room.Character, error) {
	friends, err := s.QueryOnlineFriends(ctx)
	if err != nil {
		return nil, err
	}

	var out []room.Character
	for _, f := range friends {
		if c, ok := s.store.Character(f.MemberNumber); ok {
			out = append(out, c)
		}
	}
	return out, nil
}
