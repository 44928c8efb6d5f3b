package command

import (
	"fmt"
	"net"

	"github.com/pixil98/go-roombot/internal/metrics"
)

// MetricsConfig enables the /metrics endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `json:"addr"`
}

func (c *MetricsConfig) validate() error {
	if c.Addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("metrics: invalid addr %q: %w", c.Addr, err)
	}
	return nil
}

func (c *MetricsConfig) enabled() bool {
	return c.Addr != ""
}

func (c *MetricsConfig) buildServer(m *metrics.Metrics) *metrics.Server {
	return metrics.NewServer(c.Addr, m)
}
