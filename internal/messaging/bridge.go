package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pixil98/go-roombot/internal/events"
)

const defaultSubjectPrefix = "roombot"

// forwardedKinds are the bus notifications republished over NATS.
var forwardedKinds = []events.Kind{
	events.KindRoomJoin,
	events.KindRoomCreate,
	events.KindCharacterEntered,
	events.KindCharacterLeft,
	events.KindMessage,
	events.KindBeep,
}

// Bridge connects the bot to NATS: bus notifications go out on
// <prefix>.events.<kind>, status snapshots on <prefix>.status each tick,
// and admin requests are answered on <prefix>.admin.
type Bridge struct {
	server *NatsServer
	bus    *events.Bus
	admin  Admin
	prefix string
}

// BridgeOpt configures a Bridge.
type BridgeOpt func(*Bridge)

// WithSubjectPrefix sets the first token of every subject.
func WithSubjectPrefix(p string) BridgeOpt {
	return func(b *Bridge) {
		if p != "" {
			b.prefix = p
		}
	}
}

func NewBridge(server *NatsServer, bus *events.Bus, admin Admin, opts ...BridgeOpt) *Bridge {
	b := &Bridge{
		server: server,
		bus:    bus,
		admin:  admin,
		prefix: defaultSubjectPrefix,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bridge) StatusSubject() string { return b.prefix + ".status" }

func (b *Bridge) AdminSubject() string { return b.prefix + ".admin" }

func (b *Bridge) EventSubject(k events.Kind) string { return fmt.Sprintf("%s.events.%s", b.prefix, k) }

// Start waits for the server, wires the subjects and blocks until ctx is
// done.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.server.WaitReady(ctx); err != nil {
		return nil
	}

	unsub, err := b.server.Handle(b.AdminSubject(), func(data []byte) []byte {
		resp := handleAdmin(ctx, b.admin, data)
		out, err := json.Marshal(resp)
		if err != nil {
			slog.WarnContext(ctx, "encoding admin response", "error", err)
			return []byte(`{"ok":false,"error":"encoding response"}`)
		}
		return out
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", b.AdminSubject(), err)
	}
	defer unsub()

	subs := make([]*events.Subscription, 0, len(forwardedKinds))
	for _, k := range forwardedKinds {
		subs = append(subs, b.bus.Subscribe(k, b.forward))
	}
	defer func() {
		for _, s := range subs {
			s.Unsubscribe()
		}
	}()

	slog.InfoContext(ctx, "nats bridge ready", "prefix", b.prefix)
	<-ctx.Done()
	return nil
}

func (b *Bridge) forward(ev events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("encoding event", "kind", ev.Kind(), "error", err)
		return
	}
	if err := b.server.Publish(b.EventSubject(ev.Kind()), data); err != nil {
		slog.Warn("publishing event", "kind", ev.Kind(), "error", err)
	}
}

// Tick publishes a status snapshot. It satisfies driver.Manager.
func (b *Bridge) Tick(ctx context.Context) error {
	data, err := json.Marshal(b.admin.Status())
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	if err := b.server.Publish(b.StatusSubject(), data); err != nil {
		slog.DebugContext(ctx, "publishing status", "error", err)
	}
	return nil
}
