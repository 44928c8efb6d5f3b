package driver

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

type countingManager struct {
	mu    sync.Mutex
	ticks int
	err   error
}

func (m *countingManager) Tick(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks++
	return m.err
}

func (m *countingManager) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticks
}

func TestDriver_Tick(t *testing.T) {
	tests := map[string]struct {
		failing bool
		expErr  string
	}{
		"all succeed": {},
		"one fails": {
			failing: true,
			expErr:  "ticking game: game broke",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			game := &countingManager{}
			if tt.failing {
				game.err = fmt.Errorf("game broke")
			}
			status := &countingManager{}
			d := NewDriver(map[string]Manager{"game": game, "status": status})

			err := d.Tick(context.Background())
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
			} else {
				testutil.AssertEqual(t, "error", err == nil, true)
			}
			testutil.AssertEqual(t, "game ticks", game.count(), 1)
			testutil.AssertEqual(t, "status ticks", status.count(), 1)
		})
	}
}

func TestDriver_StartKeepsTickingThroughFailures(t *testing.T) {
	failing := &countingManager{err: fmt.Errorf("always")}
	d := NewDriver(map[string]Manager{"failing": failing}, WithTickLength(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for failing.count() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("driver stopped ticking")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		testutil.AssertEqual(t, "start error", err == nil, true)
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not stop")
	}
}

func TestWithTickLength(t *testing.T) {
	testutil.AssertEqual(t, "default", NewDriver(nil).tickLength, DefaultTickLength)
	testutil.AssertEqual(t, "ignores zero", NewDriver(nil, WithTickLength(0)).tickLength, DefaultTickLength)
	testutil.AssertEqual(t, "set", NewDriver(nil, WithTickLength(time.Second)).tickLength, time.Second)
}
