package events

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-roombot/internal/room"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus()

	var got []string
	joins := bus.Subscribe(KindRoomJoin, func(ev Event) {
		got = append(got, "join:"+ev.(RoomJoin).Room)
	})
	On(bus, func(ev RoomCreate) {
		got = append(got, "create:"+ev.Room)
	})

	bus.Emit(RoomJoin{Room: "Lounge"})
	bus.Emit(RoomCreate{Room: "Garden"})
	bus.Emit(Beep{})

	joins.Unsubscribe()
	joins.Unsubscribe()
	bus.Emit(RoomJoin{Room: "Attic"})

	testutil.AssertEqual(t, "deliveries", fmt.Sprint(got), "[join:Lounge create:Garden]")
	testutil.AssertEqual(t, "join listeners", bus.Count(KindRoomJoin), 0)
	testutil.AssertEqual(t, "create listeners", bus.Count(KindRoomCreate), 1)
}

func TestBus_UnsubscribeLeavesOthers(t *testing.T) {
	bus := NewBus()

	var first, second int
	a := On(bus, func(CharacterEntered) { first++ })
	On(bus, func(CharacterEntered) { second++ })

	a.Unsubscribe()
	bus.Emit(CharacterEntered{Character: room.Character{MemberNumber: 3}})

	testutil.AssertEqual(t, "first", first, 0)
	testutil.AssertEqual(t, "second", second, 1)
}

func TestBus_PanicIsolated(t *testing.T) {
	bus := NewBus()

	var delivered int
	On(bus, func(Message) { panic("bad handler") })
	On(bus, func(Message) { delivered++ })

	bus.Emit(Message{})
	bus.Post(func() { panic("bad post") })
	bus.Post(func() { delivered++ })

	testutil.AssertEqual(t, "delivered", delivered, 2)
}

func TestBus_QueuedDelivery(t *testing.T) {
	q := NewQueue()
	bus := NewBus(WithQueue(q))

	var mu sync.Mutex
	var got []string
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, s)
	}

	On(bus, func(ev CharacterLeft) { record(fmt.Sprintf("left:%d", ev.MemberNumber)) })
	gone := On(bus, func(ev CharacterLeft) { record("gone") })
	bus.Emit(CharacterLeft{MemberNumber: 1})
	bus.Post(func() { record("post") })
	bus.Emit(CharacterLeft{MemberNumber: 2})
	testutil.AssertEqual(t, "queued", q.Len(), 5)

	// Deliveries already queued for a removed listener are dropped.
	gone.Unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n >= 3 && q.Len() == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("queue stalled")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	testutil.AssertEqual(t, "order", fmt.Sprint(got), "[left:1 post left:2]")
}

func TestQueue_DropsAfterStop(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		testutil.AssertEqual(t, "start error", err == nil, true)
	case <-time.After(2 * time.Second):
		t.Fatal("queue did not stop")
	}

	q.Post(func() {})
	testutil.AssertEqual(t, "len", q.Len(), 0)
}

func TestCharacterLeft_Intentional(t *testing.T) {
	tests := map[string]struct {
		reason room.LeaveReason
		exp    bool
	}{
		"disconnect": {reason: room.LeaveDisconnect, exp: false},
		"leave":      {reason: room.LeaveLeave, exp: true},
		"kick":       {reason: room.LeaveKick, exp: true},
		"ban":        {reason: room.LeaveBan, exp: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "intentional", CharacterLeft{Reason: tt.reason}.Intentional(), tt.exp)
		})
	}
}
