package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pixil98/go-roombot/internal/bot"
	"github.com/pixil98/go-roombot/internal/transport"
)

// states are the session states exported as a one-hot gauge.
var states = []string{"disconnected", "connecting", "logged in", "in room"}

// StatusSource supplies the snapshot sampled on each tick.
type StatusSource interface {
	Status() bot.Status
}

// Metrics holds the bot's Prometheus collectors on a private registry.
type Metrics struct {
	registry  *prometheus.Registry
	startTime time.Time

	eventsTotal   *prometheus.CounterVec
	bytesTotal    *prometheus.CounterVec
	connected     prometheus.Gauge
	state         *prometheus.GaugeVec
	roomMembers   prometheus.Gauge
	uptimeSeconds prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roombot_events_total",
			Help: "Socket events crossing the transport by direction and name.",
		}, []string{"direction", "event"}),
		bytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roombot_payload_bytes_total",
			Help: "Payload bytes crossing the transport by direction.",
		}, []string{"direction"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roombot_connected",
			Help: "Whether the transport is connected.",
		}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "roombot_session_state",
			Help: "Current session state, one series per state.",
		}, []string{"state"}),
		roomMembers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roombot_room_members",
			Help: "Members in the current room, not counting the bot.",
		}),
		uptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roombot_uptime_seconds",
			Help: "Process uptime in seconds.",
		}),
	}

	m.registry.MustRegister(
		m.eventsTotal,
		m.bytesTotal,
		m.connected,
		m.state,
		m.roomMembers,
		m.uptimeSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Tap counts every event crossing the transport.
func (m *Metrics) Tap() transport.Tap {
	return func(dir transport.Direction, event string, payload json.RawMessage) {
		m.eventsTotal.WithLabelValues(string(dir), event).Inc()
		m.bytesTotal.WithLabelValues(string(dir)).Add(float64(len(payload)))
	}
}

// Sampler copies a status source into the gauges on every tick.
type Sampler struct {
	m   *Metrics
	src StatusSource
}

// Sampler returns a driver.Manager sampling src.
func (m *Metrics) Sampler(src StatusSource) *Sampler {
	return &Sampler{m: m, src: src}
}

func (s *Sampler) Tick(ctx context.Context) error {
	s.m.Observe(s.src.Status())
	return nil
}

// Observe sets the gauges from st.
func (m *Metrics) Observe(st bot.Status) {
	if st.Connected {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
	for _, s := range states {
		v := 0.0
		if s == st.State {
			v = 1
		}
		m.state.WithLabelValues(s).Set(v)
	}
	m.roomMembers.Set(float64(st.Players))
	m.uptimeSeconds.Set(time.Since(m.startTime).Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
