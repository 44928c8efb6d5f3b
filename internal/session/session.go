package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pixil98/go-roombot/internal/events"
	"github.com/pixil98/go-roombot/internal/pending"
	"github.com/pixil98/go-roombot/internal/protocol"
	"github.com/pixil98/go-roombot/internal/room"
	"github.com/pixil98/go-roombot/internal/roommap"
)

// ErrNotInRoom is returned by operations that need a current room.
var ErrNotInRoom = errors.New("not in a room")

// ErrNotLoggedIn is returned by operations that need the bot's own account.
var ErrNotLoggedIn = errors.New("not logged in")

const defaultRetryDelay = 3 * time.Second

// State is the session's place in the connection lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateLoggedIn
	StateInRoom
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateLoggedIn:
		return "logged in"
	case StateInRoom:
		return "in room"
	default:
		return "unknown"
	}
}

// Emitter sends a named event to the peer.
type Emitter interface {
	Emit(event string, payload any) error
}

// Credentials are the bot's account login.
type Credentials struct {
	AccountName string
	Password    string
}

// Session owns the bot's connection to the game server: login, the room it
// is in, and every request that waits on a peer response. Inbound events
// must be delivered one at a time through the transport.Handler methods.
type Session struct {
	creds      Credentials
	store      *room.Store
	engine     *roommap.Engine
	bus        *events.Bus
	leaveVocab map[string]room.LeaveReason
	retryDelay time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.RWMutex
	conn       Emitter
	state      State
	player     *room.Character
	desired    *protocol.RoomDefinition
	roomMap    *roommap.Map
	advertised bool

	loggedIn   *pending.Gate
	roomSynced *pending.Gate

	join    pending.Slot[string]
	create  pending.Slot[string]
	search  pending.Slot[[]protocol.SearchResult]
	friends pending.Slot[[]protocol.OnlineFriend]
	allow   pending.Table[int, bool]

	joinLoops atomic.Int32
	handlers  map[string]func(json.RawMessage)
}

// Opt configures a Session.
type Opt func(*Session)

// WithBus publishes notifications on b.
func WithBus(b *events.Bus) Opt {
	return func(s *Session) {
		s.bus = b
	}
}

// WithEngine evaluates map moves against e.
func WithEngine(e *roommap.Engine) Opt {
	return func(s *Session) {
		s.engine = e
	}
}

// WithRetryDelay sets the pause between failed join/create rounds.
func WithRetryDelay(d time.Duration) Opt {
	return func(s *Session) {
		s.retryDelay = d
	}
}

// WithLeaveVocabulary replaces the Action contents recognised as leave
// announcements.
func WithLeaveVocabulary(v map[string]room.LeaveReason) Opt {
	return func(s *Session) {
		if len(v) > 0 {
			s.leaveVocab = v
		}
	}
}

// New creates a disconnected session. Attach a connection before the
// transport starts delivering events.
func New(creds Credentials, opts ...Opt) *Session {
	s := &Session{
		creds:      creds,
		store:      room.NewStore(),
		leaveVocab: room.DefaultLeaveVocabulary(),
		retryDelay: defaultRetryDelay,
		loggedIn:   pending.NewGate(),
		roomSynced: pending.NewGate(),
		roomMap:    roommap.New(),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(s)
	}
	if s.bus == nil {
		s.bus = events.NewBus()
	}
	if s.engine == nil {
		s.engine = roommap.NewEngine(roommap.WithDispatch(s.bus.Post))
	}
	s.handlers = s.inboundHandlers()
	return s
}

// Attach sets the connection outbound events are written to.
func (s *Session) Attach(conn Emitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
}

// Start blocks until ctx is done, then stops background join loops.
func (s *Session) Start(ctx context.Context) error {
	<-ctx.Done()
	s.cancel()
	return nil
}

// Store returns the room mirror.
func (s *Session) Store() *room.Store { return s.store }

// Engine returns the trigger engine evaluated on map moves.
func (s *Session) Engine() *roommap.Engine { return s.engine }

// Bus returns the notification bus.
func (s *Session) Bus() *events.Bus { return s.bus }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

// Player returns the bot's own character as of login and later updates.
func (s *Session) Player() (room.Character, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.player == nil {
		return room.Character{}, false
	}
	return s.player.Clone(), true
}

// IsBot reports whether c is the bot itself.
func (s *Session) IsBot(c room.Character) bool {
	p, ok := s.Player()
	return ok && p.MemberNumber == c.MemberNumber
}

// LoggedIn reports whether the login of the current connection succeeded.
func (s *Session) LoggedIn() bool {
	return s.loggedIn.IsOpen()
}

// WaitLoggedIn blocks until the current or a later connection is logged in.
func (s *Session) WaitLoggedIn(ctx context.Context) error {
	return s.loggedIn.Wait(ctx)
}

// RoomDefinition returns the definition the bot recreates its room from,
// kept current by property syncs.
func (s *Session) RoomDefinition() (protocol.RoomDefinition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.desired == nil {
		return protocol.RoomDefinition{}, false
	}
	return *s.desired.Clone(), true
}

func (s *Session) emit(event string, payload any) error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	if conn == nil {
		return errors.New("no connection attached")
	}
	return conn.Emit(event, payload)
}

// OnConnect logs in on every new connection.
func (s *Session) OnConnect() {
	slog.Info("socket connected, logging in", "account", s.creds.AccountName)
	s.setState(StateConnecting)

	err := s.emit(protocol.EventAccountLogin, protocol.LoginRequest{
		AccountName: s.creds.AccountName,
		Password:    s.creds.Password,
	})
	if err != nil {
		slog.Error("sending login", "error", err)
	}
}

// OnConnectError logs failed connection attempts; the transport retries.
func (s *Session) OnConnectError(err error) {
	slog.Error("socket connect error", "error", err)
}

// OnDisconnect replaces every connection-scoped expectation so nothing waits
// on a response the old connection can no longer deliver.
func (s *Session) OnDisconnect(reason string) {
	slog.Warn("socket disconnected", "reason", reason)

	s.setState(StateDisconnected)
	s.loggedIn.Reset()
	s.roomSynced.Reset()

	s.join.Invalidate()
	s.create.Invalidate()
	s.search.Invalidate()
	s.friends.Invalidate()
	s.allow.Invalidate()

	s.store.Clear()
	s.engine.ResetMembership()

	s.mu.Lock()
	s.roomMap = roommap.New()
	s.mu.Unlock()
}

// OnEvent routes one inbound event to its handler.
func (s *Session) OnEvent(event string, args []json.RawMessage) {
	h, ok := s.handlers[event]
	if !ok {
		slog.Debug("unhandled event", "event", event)
		return
	}

	var raw json.RawMessage
	if len(args) > 0 {
		raw = args[0]
	}
	events.SafeCall(event, func() { h(raw) })
}
