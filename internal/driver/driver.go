package driver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pixil98/go-errors"
)

const (
	DefaultTickLength = time.Second * 2
)

// Manager is anything with periodic work: the running game, status
// publication, metric sampling.
type Manager interface {
	Tick(context.Context) error
}

// Driver ticks every manager on a fixed interval. A failing manager is
// logged and ticked again next time; it never stops the others.
type Driver struct {
	tickLength time.Duration
	managers   map[string]Manager
}

func NewDriver(managers map[string]Manager, opts ...DriverOpt) *Driver {
	d := &Driver{
		tickLength: DefaultTickLength,
		managers:   managers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Driver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := d.Tick(ctx); err != nil {
				slog.WarnContext(ctx, "tick failed", "error", err)
			}
		}
	}
}

// Tick ticks every manager once and reports every failure.
func (d *Driver) Tick(ctx context.Context) error {
	el := errors.NewErrorList()
	for name, m := range d.managers {
		if err := m.Tick(ctx); err != nil {
			el.Add(fmt.Errorf("ticking %s: %w", name, err))
		}
	}
	return el.Err()
}
