package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf16"

	lzstring "github.com/daku10/go-lz-string"
	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-roombot/internal/events"
	"github.com/pixil98/go-roombot/internal/pending"
	"github.com/pixil98/go-roombot/internal/protocol"
	"github.com/pixil98/go-roombot/internal/room"
	"github.com/pixil98/go-roombot/internal/roommap"
)

const botNumber = 1

type sentEvent struct {
	name    string
	payload string
}

type fakeConn struct {
	mu     sync.Mutex
	sent   []sentEvent
	notify chan sentEvent
}

func newFakeConn() *fakeConn {
	return &fakeConn{notify: make(chan sentEvent, 256)}
}

func (f *fakeConn) Emit(event string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ev := sentEvent{name: event, payload: string(b)}

	f.mu.Lock()
	f.sent = append(f.sent, ev)
	f.mu.Unlock()
	f.notify <- ev
	return nil
}

func (f *fakeConn) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, ev := range f.sent {
		if ev.name == name {
			n++
		}
	}
	return n
}

// next waits for the next sent event called name, skipping others.
func (f *fakeConn) next(t *testing.T, name string) sentEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-f.notify:
			if ev.name == name {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", name)
		}
	}
}

func payloadAs[T any](t *testing.T, ev sentEvent) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(ev.payload), &v); err != nil {
		t.Fatalf("decoding %s payload: %v", ev.name, err)
	}
	return v
}

func newTestSession(t *testing.T, opts ...Opt) (*Session, *fakeConn) {
	t.Helper()
	conn := newFakeConn()
	s := New(Credentials{AccountName: "bot", Password: "secret"}, opts...)
	s.Attach(conn)
	t.Cleanup(s.cancel)
	return s, conn
}

func deliver(t *testing.T, s *Session, event string, payload any) {
	t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("encoding %s: %v", event, err)
	}
	s.OnEvent(event, []json.RawMessage{b})
}

func login(t *testing.T, s *Session, conn *fakeConn) {
	t.Helper()
	s.OnConnect()
	conn.next(t, protocol.EventAccountLogin)
	deliver(t, s, protocol.EventLoginResponse, protocol.CharacterData{ID: "bot", MemberNumber: botNumber, Name: "Bot"})
}

func lounge(mapType string, members ...int) protocol.RoomData {
	d := protocol.RoomData{
		Name:          "Lounge",
		Description:   "A quiet room",
		Background:    "Introduction",
		Space:         "X",
		Access:        []string{"All"},
		Visibility:    []string{"All"},
		Limit:         10,
		Admin:         []int{botNumber},
		Ban:           []int{},
		BlockCategory: []string{},
		Language:      "EN",
	}
	if mapType != "" {
		m := roommap.New().Data()
		m.Type = mapType
		d.MapData = &m
	}
	for _, n := range append([]int{botNumber}, members...) {
		d.Character = append(d.Character, protocol.CharacterData{
			ID:           fmt.Sprint(n),
			MemberNumber: n,
			Name:         fmt.Sprintf("Member%d", n),
		})
	}
	return d
}

// enterRoom logs in and joins the room described by d.
func enterRoom(t *testing.T, s *Session, conn *fakeConn, d protocol.RoomData) {
	t.Helper()
	login(t, s, conn)

	done := make(chan bool, 1)
	go func() {
		ok, _ := s.Join(context.Background(), d.Name)
		done <- ok
	}()
	conn.next(t, protocol.EventChatRoomJoin)
	deliver(t, s, protocol.EventChatRoomSync, d)
	deliver(t, s, protocol.EventChatRoomSearchResponse, protocol.JoinedRoom)

	select {
	case ok := <-done:
		testutil.AssertEqual(t, "joined", ok, true)
	case <-time.After(2 * time.Second):
		t.Fatal("join did not complete")
	}
}

func ptr[T any](v T) *T { return &v }

func TestSession_LoginAdvertisesVersionOnce(t *testing.T) {
	s, conn := newTestSession(t)

	s.OnConnect()
	req := payloadAs[protocol.LoginRequest](t, conn.next(t, protocol.EventAccountLogin))
	testutil.AssertEqual(t, "account", req.AccountName, "bot")
	testutil.AssertEqual(t, "password", req.Password, "secret")
	testutil.AssertEqual(t, "state", s.State(), StateConnecting)

	deliver(t, s, protocol.EventLoginResponse, protocol.CharacterData{MemberNumber: botNumber, Name: "Bot"})
	upd := payloadAs[protocol.AccountUpdate](t, conn.next(t, protocol.EventAccountUpdate))
	testutil.AssertEqual(t, "game version", upd.OnlineSharedSettings.GameVersion, protocol.GameVersion)
	testutil.AssertEqual(t, "logged in", s.LoggedIn(), true)
	testutil.AssertEqual(t, "state", s.State(), StateLoggedIn)

	s.OnDisconnect("transport close")
	testutil.AssertEqual(t, "logged out", s.LoggedIn(), false)
	login(t, s, conn)
	testutil.AssertEqual(t, "advertised once", conn.count(protocol.EventAccountUpdate), 1)
}

func TestSession_LoginRefused(t *testing.T) {
	s, conn := newTestSession(t)

	s.OnConnect()
	conn.next(t, protocol.EventAccountLogin)
	deliver(t, s, protocol.EventLoginResponse, "InvalidNamePassword")

	testutil.AssertEqual(t, "logged in", s.LoggedIn(), false)
	_, ok := s.Player()
	testutil.AssertEqual(t, "player", ok, false)
}

func TestSession_JoinWaitsForLogin(t *testing.T) {
	s, conn := newTestSession(t)

	joined := make(chan string, 1)
	events.On(s.Bus(), func(ev events.RoomJoin) { joined <- ev.Room })

	done := make(chan error, 1)
	go func() {
		done <- s.JoinOrCreateRoom(context.Background(), protocol.RoomDefinition{Name: "Lounge"})
	}()

	time.Sleep(50 * time.Millisecond)
	testutil.AssertEqual(t, "join before login", conn.count(protocol.EventChatRoomJoin), 0)
	testutil.AssertEqual(t, "create before login", conn.count(protocol.EventChatRoomCreate), 0)

	login(t, s, conn)
	req := payloadAs[protocol.JoinRequest](t, conn.next(t, protocol.EventChatRoomJoin))
	testutil.AssertEqual(t, "room", req.Name, "Lounge")

	deliver(t, s, protocol.EventChatRoomSearchResponse, protocol.JoinedRoom)
	deliver(t, s, protocol.EventChatRoomSync, lounge(""))

	select {
	case err := <-done:
		testutil.AssertEqual(t, "error", err == nil, true)
	case <-time.After(2 * time.Second):
		t.Fatal("join loop did not finish")
	}
	testutil.AssertEqual(t, "notified", <-joined, "Lounge")
	testutil.AssertEqual(t, "state", s.State(), StateInRoom)
	testutil.AssertEqual(t, "members", s.Store().Count(), 1)
}

func TestSession_RefusedJoinAndCreateRetry(t *testing.T) {
	delay := 50 * time.Millisecond
	s, conn := newTestSession(t, WithRetryDelay(delay))
	login(t, s, conn)

	done := make(chan error, 1)
	go func() {
		done <- s.JoinOrCreateRoom(context.Background(), protocol.RoomDefinition{Name: "Lounge", Limit: 10})
	}()

	conn.next(t, protocol.EventChatRoomJoin)
	deliver(t, s, protocol.EventChatRoomSearchResponse, "RoomFull")

	create := payloadAs[protocol.RoomDefinition](t, conn.next(t, protocol.EventChatRoomCreate))
	testutil.AssertEqual(t, "create name", create.Name, "Lounge")
	testutil.AssertEqual(t, "bot is admin", fmt.Sprint(create.Admin), fmt.Sprint([]int{botNumber}))

	refused := time.Now()
	deliver(t, s, protocol.EventChatRoomCreateResponse, "RoomAlreadyExist")

	conn.next(t, protocol.EventChatRoomJoin)
	testutil.AssertEqual(t, "waited before retrying", time.Since(refused) >= delay, true)
	testutil.AssertEqual(t, "join attempts", conn.count(protocol.EventChatRoomJoin), 2)

	deliver(t, s, protocol.EventChatRoomSync, lounge(""))
	deliver(t, s, protocol.EventChatRoomSearchResponse, protocol.JoinedRoom)

	select {
	case err := <-done:
		testutil.AssertEqual(t, "error", err == nil, true)
	case <-time.After(2 * time.Second):
		t.Fatal("join loop did not finish")
	}
	testutil.AssertEqual(t, "creates", conn.count(protocol.EventChatRoomCreate), 1)
}

func TestSession_CreatePublishesRoomCreate(t *testing.T) {
	s, conn := newTestSession(t)
	login(t, s, conn)

	created := make(chan string, 1)
	events.On(s.Bus(), func(ev events.RoomCreate) { created <- ev.Room })

	done := make(chan bool, 1)
	go func() {
		ok, _ := s.Create(context.Background(), protocol.RoomDefinition{Name: "Lounge", Admin: []int{7}})
		done <- ok
	}()

	def := payloadAs[protocol.RoomDefinition](t, conn.next(t, protocol.EventChatRoomCreate))
	testutil.AssertEqual(t, "explicit admins kept", fmt.Sprint(def.Admin), "[7]")

	deliver(t, s, protocol.EventChatRoomCreateResponse, protocol.ChatRoomCreated)
	deliver(t, s, protocol.EventChatRoomSync, lounge(""))

	testutil.AssertEqual(t, "created", <-done, true)
	testutil.AssertEqual(t, "notified", <-created, "Lounge")
}

func TestSession_QueryItemAllowedCoalesces(t *testing.T) {
	s, conn := newTestSession(t)
	login(t, s, conn)

	const callers = 5
	results := make(chan bool, callers)
	for range callers {
		go func() {
			v, err := s.QueryItemAllowed(context.Background(), 1001)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results <- v
		}()
	}

	q := payloadAs[protocol.AllowItemQuery](t, conn.next(t, protocol.EventChatRoomAllowItem))
	testutil.AssertEqual(t, "member", q.MemberNumber, 1001)
	time.Sleep(50 * time.Millisecond)

	deliver(t, s, protocol.EventChatRoomAllowItem, protocol.AllowItemResponse{MemberNumber: 1001, AllowItem: true})

	for range callers {
		select {
		case v := <-results:
			testutil.AssertEqual(t, "allowed", v, true)
		case <-time.After(2 * time.Second):
			t.Fatal("caller hung")
		}
	}
	testutil.AssertEqual(t, "requests sent", conn.count(protocol.EventChatRoomAllowItem), 1)
}

func TestSession_DisconnectInvalidatesPending(t *testing.T) {
	s, conn := newTestSession(t)
	login(t, s, conn)

	joinErr := make(chan error, 1)
	go func() {
		_, err := s.Join(context.Background(), "Lounge")
		joinErr <- err
	}()
	conn.next(t, protocol.EventChatRoomJoin)

	allowErr := make(chan error, 1)
	go func() {
		_, err := s.QueryItemAllowed(context.Background(), 1001)
		allowErr <- err
	}()
	conn.next(t, protocol.EventChatRoomAllowItem)

	s.OnDisconnect("transport close")

	for name, ch := range map[string]chan error{"join": joinErr, "allow": allowErr} {
		select {
		case err := <-ch:
			testutil.AssertEqual(t, name+" invalidated", errors.Is(err, pending.ErrInvalidated), true)
		case <-time.After(2 * time.Second):
			t.Fatalf("%s caller hung after disconnect", name)
		}
	}
	testutil.AssertEqual(t, "state", s.State(), StateDisconnected)
	testutil.AssertEqual(t, "logged in", s.LoggedIn(), false)
}

func TestSession_JoinLoopRestartsAfterReconnect(t *testing.T) {
	s, conn := newTestSession(t)
	login(t, s, conn)

	done := make(chan error, 1)
	go func() {
		done <- s.JoinOrCreateRoom(context.Background(), protocol.RoomDefinition{Name: "Lounge"})
	}()
	conn.next(t, protocol.EventChatRoomJoin)

	s.OnDisconnect("transport close")
	time.Sleep(20 * time.Millisecond)
	testutil.AssertEqual(t, "no create while offline", conn.count(protocol.EventChatRoomCreate), 0)

	login(t, s, conn)
	conn.next(t, protocol.EventChatRoomJoin)
	deliver(t, s, protocol.EventChatRoomSearchResponse, protocol.JoinedRoom)
	deliver(t, s, protocol.EventChatRoomSync, lounge(""))

	select {
	case err := <-done:
		testutil.AssertEqual(t, "error", err == nil, true)
	case <-time.After(2 * time.Second):
		t.Fatal("join loop did not finish")
	}
	testutil.AssertEqual(t, "joins", conn.count(protocol.EventChatRoomJoin), 2)
}

func TestSession_RejoinsAfterReconnect(t *testing.T) {
	s, conn := newTestSession(t)
	enterRoom(t, s, conn, lounge("", 1001))

	s.OnDisconnect("ping timeout")
	testutil.AssertEqual(t, "store cleared", s.Store().InRoom(), false)

	login(t, s, conn)
	req := payloadAs[protocol.JoinRequest](t, conn.next(t, protocol.EventChatRoomJoin))
	testutil.AssertEqual(t, "rejoined room", req.Name, "Lounge")
}

func TestSession_Membership(t *testing.T) {
	s, conn := newTestSession(t)
	enterRoom(t, s, conn, lounge("", 1001, 1002))

	var entered []int
	var left []events.CharacterLeft
	events.On(s.Bus(), func(ev events.CharacterEntered) { entered = append(entered, ev.Character.MemberNumber) })
	events.On(s.Bus(), func(ev events.CharacterLeft) { left = append(left, ev) })

	deliver(t, s, protocol.EventChatRoomSyncMemberJoin, protocol.MemberJoinPayload{
		SourceMemberNumber: 1003,
		Character:          protocol.CharacterData{MemberNumber: 1003, Name: "Carol"},
	})
	testutil.AssertEqual(t, "entered", fmt.Sprint(entered), "[1003]")

	deliver(t, s, protocol.EventChatRoomMessage, protocol.ChatMessage{Sender: 1002, Type: protocol.ChatTypeAction, Content: "ServerLeave"})
	deliver(t, s, protocol.EventChatRoomSyncMemberLeave, protocol.MemberLeavePayload{SourceMemberNumber: 1002})
	deliver(t, s, protocol.EventChatRoomSyncMemberLeave, protocol.MemberLeavePayload{SourceMemberNumber: 1003})
	deliver(t, s, protocol.EventChatRoomSyncMemberLeave, protocol.MemberLeavePayload{SourceMemberNumber: 4242})

	testutil.AssertEqual(t, "left", len(left), 3)
	testutil.AssertEqual(t, "announced reason", left[0].Reason, room.LeaveLeave)
	testutil.AssertEqual(t, "intentional", left[0].Intentional(), true)
	testutil.AssertEqual(t, "last known name", left[0].Character.Name, "Member1002")
	testutil.AssertEqual(t, "default reason", left[1].Reason, room.LeaveDisconnect)
	testutil.AssertEqual(t, "not intentional", left[1].Intentional(), false)
	testutil.AssertEqual(t, "unknown member", left[2].Known, false)

	testutil.AssertEqual(t, "remaining", s.Store().Count(), 2)

	deliver(t, s, protocol.EventChatRoomSyncReorderPlayers, protocol.ReorderPayload{PlayerOrder: []int{1001, botNumber}})
	r, _ := s.Store().Room()
	testutil.AssertEqual(t, "order", fmt.Sprint(r.Members), "[1001 1]")
}

func TestSession_CustomLeaveVocabulary(t *testing.T) {
	s, conn := newTestSession(t, WithLeaveVocabulary(map[string]room.LeaveReason{"Yeet": room.LeaveKick}))
	enterRoom(t, s, conn, lounge("", 1001))

	var reason room.LeaveReason
	events.On(s.Bus(), func(ev events.CharacterLeft) { reason = ev.Reason })

	deliver(t, s, protocol.EventChatRoomMessage, protocol.ChatMessage{Sender: 1001, Type: protocol.ChatTypeAction, Content: "Yeet"})
	deliver(t, s, protocol.EventChatRoomSyncMemberLeave, protocol.MemberLeavePayload{SourceMemberNumber: 1001})
	testutil.AssertEqual(t, "reason", reason, room.LeaveKick)
}

func TestSession_UpdateRoomIsOptimistic(t *testing.T) {
	s, conn := newTestSession(t)
	enterRoom(t, s, conn, lounge("", 1001))

	err := s.UpdateRoom(room.Patch{Name: ptr("Casino"), Limit: ptr(20), Bans: ptr([]int{666})})
	testutil.AssertEqual(t, "error", err == nil, true)

	r, _ := s.Store().Room()
	testutil.AssertEqual(t, "name before echo", r.Name, "Casino")
	testutil.AssertEqual(t, "limit before echo", r.Limit, 20)

	req := payloadAs[protocol.AdminRequest](t, conn.next(t, protocol.EventChatRoomAdmin))
	testutil.AssertEqual(t, "action", req.Action, protocol.AdminUpdate)
	testutil.AssertEqual(t, "sent name", req.Room.Name, "Casino")
	testutil.AssertEqual(t, "sent full definition", req.Room.Description, "A quiet room")

	before, _ := json.Marshal(r)
	echo := protocol.RoomData{
		Name:          r.Name,
		Description:   r.Description,
		Background:    r.Background,
		Space:         r.Space,
		Access:        r.Access,
		Visibility:    r.Visibility,
		Limit:         r.Limit,
		Admin:         r.Admins,
		Ban:           r.Bans,
		BlockCategory: r.BlockCategory,
		Game:          r.Game,
		Language:      r.Language,
	}
	deliver(t, s, protocol.EventChatRoomSyncRoomProperties, echo)
	deliver(t, s, protocol.EventChatRoomSyncRoomProperties, echo)

	after, _ := s.Store().Room()
	afterJSON, _ := json.Marshal(after)
	testutil.AssertEqual(t, "echo is idempotent", string(afterJSON), string(before))

	def, ok := s.RoomDefinition()
	testutil.AssertEqual(t, "definition kept", ok, true)
	testutil.AssertEqual(t, "definition mirrors name", def.Name, "Casino")
	testutil.AssertEqual(t, "definition mirrors bans", fmt.Sprint(def.Ban), "[666]")
}

func TestSession_UpdateRoomNeedsRoom(t *testing.T) {
	s, _ := newTestSession(t)
	err := s.UpdateRoom(room.Patch{Name: ptr("x")})
	testutil.AssertEqual(t, "not in room", errors.Is(err, ErrNotInRoom), true)
}

func TestSession_MapPositionEvaluatesTriggers(t *testing.T) {
	s, conn := newTestSession(t)
	enterRoom(t, s, conn, lounge(protocol.MapTypeAlways, 1001))

	var fired []int
	s.Engine().AddTile(protocol.Coord{X: 5, Y: 5}, func(c room.Character) {
		fired = append(fired, c.MemberNumber)
	})

	move := func(x, y int) {
		deliver(t, s, protocol.EventChatRoomSyncMapData, protocol.MapPositionPayload{
			MemberNumber: 1001,
			MapData:      protocol.Coord{X: x, Y: y},
		})
	}
	move(5, 5)
	testutil.AssertEqual(t, "first arrival", len(fired), 1)

	deliver(t, s, protocol.EventChatRoomSyncPose, protocol.PosePayload{MemberNumber: 1001, Pose: []string{"Kneel"}})
	testutil.AssertEqual(t, "pose does not evaluate", len(fired), 1)

	move(5, 6)
	move(5, 5)
	testutil.AssertEqual(t, "re-entry fires again", len(fired), 2)

	c, _ := s.Store().Character(1001)
	testutil.AssertEqual(t, "position", c.Position, protocol.Coord{X: 5, Y: 5})
	testutil.AssertEqual(t, "pose", fmt.Sprint(c.ActivePose), "[Kneel]")
}

func TestSession_ItemSyncDeepMerges(t *testing.T) {
	s, conn := newTestSession(t)
	enterRoom(t, s, conn, lounge("", 1001))

	deliver(t, s, protocol.EventChatRoomSyncItem, protocol.SyncItemPayload{
		Source: 1001,
		Item: protocol.ItemUpdate{Target: 1001, ItemData: protocol.ItemData{
			Group:    "ItemArms",
			Name:     "Rope",
			Property: map[string]any{"Effect": []any{"Block"}, "Type": "Hogtie"},
		}},
	})
	deliver(t, s, protocol.EventChatRoomCharacterItem, protocol.ItemUpdate{Target: 1001, ItemData: protocol.ItemData{
		Group:    "ItemArms",
		Name:     "Rope",
		Property: map[string]any{"LockedBy": "ExclusivePadlock", "LockMemberNumber": 1002},
	}})

	c, _ := s.Store().Character(1001)
	it, ok := c.Item("ItemArms")
	testutil.AssertEqual(t, "item", ok, true)
	testutil.AssertEqual(t, "kept type", it.Properties["Type"], any("Hogtie"))
	lock, locked := it.Lock()
	testutil.AssertEqual(t, "locked", locked, true)
	testutil.AssertEqual(t, "lock", lock.Name, "ExclusivePadlock")
	testutil.AssertEqual(t, "lock member", lock.MemberNumber, 1002)
	testutil.AssertEqual(t, "restrained", c.IsRestrained(), true)

	deliver(t, s, protocol.EventChatRoomSyncExpression, protocol.ExpressionPayload{MemberNumber: 1001, Group: "ItemArms", Name: "Tight"})
	c, _ = s.Store().Character(1001)
	it, _ = c.Item("ItemArms")
	testutil.AssertEqual(t, "expression", it.Properties["Expression"], any("Tight"))
	testutil.AssertEqual(t, "lock survives", it.Properties["LockedBy"], any("ExclusivePadlock"))
}

func TestSession_SendItemUpdate(t *testing.T) {
	s, conn := newTestSession(t)
	enterRoom(t, s, conn, lounge("", 1001))

	deliver(t, s, protocol.EventChatRoomCharacterItem, protocol.ItemUpdate{Target: 1001, ItemData: protocol.ItemData{
		Group:    "ItemNeck",
		Name:     "Collar",
		Property: map[string]any{"Text": "Pet"},
	}})

	err := s.SendItemUpdate(1001, protocol.ItemData{Group: "ItemNeck", Name: "Collar", Property: map[string]any{"LockedBy": "MistressPadlock"}})
	testutil.AssertEqual(t, "error", err == nil, true)

	u := payloadAs[protocol.ItemUpdate](t, conn.next(t, protocol.EventChatRoomCharacterItem))
	testutil.AssertEqual(t, "target", u.Target, 1001)
	testutil.AssertEqual(t, "merged text", u.Property["Text"], any("Pet"))
	testutil.AssertEqual(t, "merged lock", u.Property["LockedBy"], any("MistressPadlock"))

	err = s.SendItemUpdate(9999, protocol.ItemData{Group: "ItemNeck"})
	testutil.AssertErrorContains(t, err, "not in the room")
}

func TestSession_Reply(t *testing.T) {
	tests := map[string]struct {
		mapType    string
		origType   string
		expType    string
		expContent string
		expTarget  int
	}{
		"chat without map": {
			origType:   protocol.ChatTypeChat,
			expType:    protocol.ChatTypeEmote,
			expContent: "*Hello",
		},
		"chat with map": {
			mapType:    protocol.MapTypeAlways,
			origType:   protocol.ChatTypeChat,
			expType:    protocol.ChatTypeChat,
			expContent: "(Hello",
		},
		"whisper without map": {
			origType:   protocol.ChatTypeWhisper,
			expType:    protocol.ChatTypeWhisper,
			expContent: "Hello",
			expTarget:  1001,
		},
		"whisper with map": {
			mapType:    protocol.MapTypeHybrid,
			origType:   protocol.ChatTypeWhisper,
			expType:    protocol.ChatTypeWhisper,
			expContent: "(Hello",
			expTarget:  1001,
		},
		"map type never": {
			mapType:    protocol.MapTypeNever,
			origType:   protocol.ChatTypeChat,
			expType:    protocol.ChatTypeEmote,
			expContent: "*Hello",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s, conn := newTestSession(t)
			enterRoom(t, s, conn, lounge(tt.mapType, 1001))

			err := s.Reply(protocol.ChatMessage{Sender: 1001, Type: tt.origType, Content: "!hi"}, "Hello")
			testutil.AssertEqual(t, "error", err == nil, true)

			msg := payloadAs[protocol.ChatSend](t, conn.next(t, protocol.EventChatRoomChat))
			testutil.AssertEqual(t, "type", msg.Type, tt.expType)
			testutil.AssertEqual(t, "content", msg.Content, tt.expContent)
			testutil.AssertEqual(t, "target", msg.Target, tt.expTarget)
		})
	}
}

func TestSession_SendMessageTruncates(t *testing.T) {
	s, conn := newTestSession(t)

	err := s.SendMessage(protocol.ChatTypeChat, strings.Repeat("a", 1500), 0, nil)
	testutil.AssertEqual(t, "error", err == nil, true)

	msg := payloadAs[protocol.ChatSend](t, conn.next(t, protocol.EventChatRoomChat))
	testutil.AssertEqual(t, "length", len(msg.Content), protocol.MaxMessageLength)
}

func TestSession_SetBotDescription(t *testing.T) {
	s, conn := newTestSession(t)
	login(t, s, conn)
	conn.next(t, protocol.EventAccountUpdate)

	err := s.SetBotDescription(context.Background(), "I run the casino.")
	testutil.AssertEqual(t, "error", err == nil, true)

	upd := payloadAs[protocol.AccountUpdate](t, conn.next(t, protocol.EventAccountUpdate))
	desc := *upd.Description
	testutil.AssertEqual(t, "marker", strings.HasPrefix(desc, compressedMarker), true)

	plain, err := lzstring.DecompressFromUTF16(utf16.Encode([]rune(strings.TrimPrefix(desc, compressedMarker))))
	testutil.AssertEqual(t, "decompress error", err == nil, true)
	testutil.AssertEqual(t, "description", plain, "I run the casino.")

	p, _ := s.Player()
	testutil.AssertEqual(t, "applied locally", p.Description, desc)
}

func TestSession_AccountUpdateNeedsLogin(t *testing.T) {
	s, _ := newTestSession(t)
	err := s.SetItemPermission(room.OwnerOnly)
	testutil.AssertEqual(t, "not logged in", errors.Is(err, ErrNotLoggedIn), true)
}

func TestSession_FriendList(t *testing.T) {
	s, conn := newTestSession(t)
	login(t, s, conn)
	conn.next(t, protocol.EventAccountUpdate)

	testutil.AssertEqual(t, "add", s.FriendListAdd(1001) == nil, true)
	upd := payloadAs[protocol.AccountUpdate](t, conn.next(t, protocol.EventAccountUpdate))
	testutil.AssertEqual(t, "sent list", fmt.Sprint(upd.FriendList), "[1001]")

	testutil.AssertEqual(t, "add again", s.FriendListAdd(1001) == nil, true)
	testutil.AssertEqual(t, "no duplicate update", conn.count(protocol.EventAccountUpdate), 2)

	p, _ := s.Player()
	testutil.AssertEqual(t, "has friend", p.HasFriend(1001), true)
}

func TestSession_SearchUppercasesQuery(t *testing.T) {
	s, conn := newTestSession(t)
	login(t, s, conn)

	done := make(chan []protocol.SearchResult, 1)
	go func() {
		rooms, _ := s.Search(context.Background(), "lounge")
		done <- rooms
	}()

	req := payloadAs[protocol.SearchRequest](t, conn.next(t, protocol.EventChatRoomSearch))
	testutil.AssertEqual(t, "query", req.Query, "LOUNGE")
	testutil.AssertEqual(t, "space", req.Space, "X")
	testutil.AssertEqual(t, "full rooms", req.FullRooms, true)

	deliver(t, s, protocol.EventChatRoomSearchResult, []protocol.SearchResult{{Name: "Lounge", MemberCount: 3}})
	rooms := <-done
	testutil.AssertEqual(t, "rooms", len(rooms), 1)
	testutil.AssertEqual(t, "room", rooms[0].Name, "Lounge")
}

func TestSession_JoinOrCreateAnotherRoom(t *testing.T) {
	s, conn := newTestSession(t)
	enterRoom(t, s, conn, lounge("", 1001))

	done := make(chan bool, 1)
	go func() {
		ok, _ := s.JoinOrCreateAnotherRoom(context.Background(), protocol.RoomDefinition{Name: "Casino"})
		done <- ok
	}()

	conn.next(t, protocol.EventChatRoomLeave)
	req := payloadAs[protocol.SearchRequest](t, conn.next(t, protocol.EventChatRoomSearch))
	testutil.AssertEqual(t, "search all", req.Query, "")
	testutil.AssertEqual(t, "left room", s.Store().InRoom(), false)

	deliver(t, s, protocol.EventChatRoomSearchResult, []protocol.SearchResult{{Name: "Lounge"}, {Name: "Casino"}})
	join := payloadAs[protocol.JoinRequest](t, conn.next(t, protocol.EventChatRoomJoin))
	testutil.AssertEqual(t, "join", join.Name, "Casino")

	casino := lounge("", 2001)
	casino.Name = "Casino"
	deliver(t, s, protocol.EventChatRoomSearchResponse, protocol.JoinedRoom)
	deliver(t, s, protocol.EventChatRoomSync, casino)

	testutil.AssertEqual(t, "moved", <-done, true)
	r, _ := s.Store().Room()
	testutil.AssertEqual(t, "room", r.Name, "Casino")
	_, ok := s.Store().Character(1001)
	testutil.AssertEqual(t, "old member gone", ok, false)
	testutil.AssertEqual(t, "creates", conn.count(protocol.EventChatRoomCreate), 0)
}

func TestSession_BeepCutAtBlankLine(t *testing.T) {
	s, _ := newTestSession(t)

	var got protocol.Beep
	events.On(s.Bus(), func(ev events.Beep) { got = ev.Payload })

	deliver(t, s, protocol.EventAccountBeep, protocol.Beep{MemberNumber: 1001, Message: "Hi there\n\n{\"extra\":1}"})
	testutil.AssertEqual(t, "message", got.Message, "Hi there")
	testutil.AssertEqual(t, "member", got.MemberNumber, 1001)
}

func TestSession_OnlineFriendsInRoom(t *testing.T) {
	s, conn := newTestSession(t)
	enterRoom(t, s, conn, lounge("", 1001))

	done := make(chan []room.Character, 1)
	go func() {
		chars, _ := s.OnlineFriendsInRoom(context.Background())
		done <- chars
	}()

	conn.next(t, protocol.EventAccountQuery)
	result, _ := json.Marshal([]protocol.OnlineFriend{{MemberNumber: 1001}, {MemberNumber: 5005}})
	deliver(t, s, protocol.EventAccountQueryResult, protocol.AccountQueryResult{Query: protocol.QueryOnlineFriends, Result: result})

	chars := <-done
	testutil.AssertEqual(t, "in room", len(chars), 1)
	testutil.AssertEqual(t, "friend", chars[0].MemberNumber, 1001)
}

func TestSession_MalformedPayloadsDropped(t *testing.T) {
	s, conn := newTestSession(t)
	enterRoom(t, s, conn, lounge("", 1001))

	s.OnEvent(protocol.EventChatRoomSyncMemberJoin, []json.RawMessage{json.RawMessage(`"nope"`)})
	s.OnEvent(protocol.EventChatRoomSyncPose, nil)
	deliver(t, s, protocol.EventChatRoomSearchResponse, protocol.JoinedRoom)

	testutil.AssertEqual(t, "members unchanged", s.Store().Count(), 2)
}

func TestSession_SetTilePushesMap(t *testing.T) {
	s, conn := newTestSession(t)
	enterRoom(t, s, conn, lounge(protocol.MapTypeAlways))

	err := s.SetTile(protocol.Coord{X: 3, Y: 4}, 120)
	testutil.AssertEqual(t, "error", err == nil, true)

	req := payloadAs[protocol.AdminRequest](t, conn.next(t, protocol.EventChatRoomAdmin))
	sent := roommap.FromData(*req.Room.MapData)
	testutil.AssertEqual(t, "tile sent", sent.Tile(protocol.Coord{X: 3, Y: 4}), 120)
	testutil.AssertEqual(t, "tile kept", s.Map().Tile(protocol.Coord{X: 3, Y: 4}), 120)

	testutil.AssertErrorContains(t, s.SetObject(protocol.Coord{X: 99, Y: 0}, 5), "off the map")
}

func TestSession_MapDoesNotFollowTheBot(t *testing.T) {
	tile := protocol.Coord{X: 3, Y: 4}
	blank := roommap.New().Tile(tile)

	tests := map[string]struct {
		leave func(t *testing.T, s *Session, conn *fakeConn)
	}{
		"moved to a room without a map": {
			leave: func(t *testing.T, s *Session, conn *fakeConn) {
				done := make(chan bool, 1)
				go func() {
					ok, _ := s.JoinOrCreateAnotherRoom(context.Background(), protocol.RoomDefinition{Name: "Casino"})
					done <- ok
				}()
				conn.next(t, protocol.EventChatRoomLeave)
				conn.next(t, protocol.EventChatRoomSearch)
				deliver(t, s, protocol.EventChatRoomSearchResult, []protocol.SearchResult{{Name: "Casino"}})
				conn.next(t, protocol.EventChatRoomJoin)

				casino := lounge("", 2001)
				casino.Name = "Casino"
				deliver(t, s, protocol.EventChatRoomSearchResponse, protocol.JoinedRoom)
				deliver(t, s, protocol.EventChatRoomSync, casino)
				testutil.AssertEqual(t, "moved", <-done, true)
			},
		},
		"disconnected": {
			leave: func(t *testing.T, s *Session, conn *fakeConn) {
				s.OnDisconnect("transport close")
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s, conn := newTestSession(t)
			enterRoom(t, s, conn, lounge(protocol.MapTypeAlways))

			testutil.AssertEqual(t, "set tile", s.SetTile(tile, blank+20) == nil, true)
			conn.next(t, protocol.EventChatRoomAdmin)
			testutil.AssertEqual(t, "tile set", s.Map().Tile(tile), blank+20)

			tt.leave(t, s, conn)
			testutil.AssertEqual(t, "tile", s.Map().Tile(tile), blank)
		})
	}
}
