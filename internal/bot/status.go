package bot

import (
	"log/slog"
	"time"

	"github.com/pixil98/go-roombot/internal/room"
)

// Status is a point-in-time summary of the bot for the admin boundary.
type Status struct {
	RunID        string       `json:"run_id"`
	Name         string       `json:"name,omitempty"`
	MemberNumber int          `json:"member_number,omitempty"`
	Connected    bool         `json:"connected"`
	State        string       `json:"state"`
	Game         string       `json:"game,omitempty"`
	Games        []string     `json:"games"`
	Room         *RoomSummary `json:"room,omitempty"`
	Players      int          `json:"players"`
	Map          string       `json:"map,omitempty"`
	Uptime       string       `json:"uptime"`
}

// RoomSummary describes the room the bot is in.
type RoomSummary struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Background  string          `json:"background"`
	Limit       int             `json:"limit"`
	Admins      []int           `json:"admins"`
	Members     []MemberSummary `json:"members"`
}

// MemberSummary describes one room member.
type MemberSummary struct {
	MemberNumber int    `json:"member_number"`
	Name         string `json:"name"`
	Nickname     string `json:"nickname,omitempty"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
}

// Status snapshots the bot. The map is included, as an export string, only
// for rooms that use one.
func (b *Bot) Status() Status {
	b.mu.Lock()
	started := b.startedAt
	b.mu.Unlock()

	st := Status{
		RunID:     b.runID,
		Connected: b.transport != nil && b.transport.Connected(),
		State:     b.sess.State().String(),
		Game:      b.games.Current(),
		Games:     b.games.Keys(),
	}
	if !started.IsZero() {
		st.Uptime = time.Since(started).Truncate(time.Second).String()
	}

	if p, ok := b.sess.Player(); ok {
		st.Name = p.Name
		st.MemberNumber = p.MemberNumber
	}

	r, ok := b.sess.Store().Room()
	if !ok {
		return st
	}

	st.Room = &RoomSummary{
		Name:        r.Name,
		Description: r.Description,
		Background:  r.Background,
		Limit:       r.Limit,
		Admins:      r.Admins,
	}
	for _, c := range b.sess.Store().Characters() {
		st.Room.Members = append(st.Room.Members, summarize(c))
		if !b.sess.IsBot(c) {
			st.Players++
		}
	}

	if r.UsesMap() {
		export, err := b.sess.Map().Export()
		if err != nil {
			slog.Warn("exporting map for status", "error", err)
		} else {
			st.Map = export
		}
	}
	return st
}

func summarize(c room.Character) MemberSummary {
	return MemberSummary{
		MemberNumber: c.MemberNumber,
		Name:         c.Name,
		Nickname:     c.Nickname,
		X:            c.Position.X,
		Y:            c.Position.Y,
	}
}
