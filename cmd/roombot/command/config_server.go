package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-roombot/internal/transport"
)

type ServerEnv string

const (
	ServerEnvLive ServerEnv = "live"
	ServerEnvTest ServerEnv = "test"
)

type serverDefaults struct {
	url    string
	origin string
}

var envDefaults = map[ServerEnv]serverDefaults{
	ServerEnvLive: {
		url:    "https://bondage-club-server.herokuapp.com/",
		origin: "https://www.bondageprojects.elementfx.com",
	},
	ServerEnvTest: {
		url:    "https://bondage-club-server-test.herokuapp.com/",
		origin: "http://localhost:7777",
	},
}

type ServerConfig struct {
	URL          string    `json:"url"`
	Env          ServerEnv `json:"env"`
	Origin       string    `json:"origin"`
	ReconnectMin string    `json:"reconnect_min"`
	ReconnectMax string    `json:"reconnect_max"`
}

func (c *ServerConfig) validate() error {
	el := errors.NewErrorList()

	if _, ok := envDefaults[c.env()]; !ok {
		el.Add(fmt.Errorf("server: unknown env %q", c.Env))
	}

	if (c.ReconnectMin == "") != (c.ReconnectMax == "") {
		el.Add(fmt.Errorf("server: reconnect_min and reconnect_max must be set together"))
	}
	lo, errLo := parseOptionalDuration(c.ReconnectMin)
	if errLo != nil {
		el.Add(fmt.Errorf("server: parsing reconnect_min: %w", errLo))
	}
	hi, errHi := parseOptionalDuration(c.ReconnectMax)
	if errHi != nil {
		el.Add(fmt.Errorf("server: parsing reconnect_max: %w", errHi))
	}
	if errLo == nil && errHi == nil && hi < lo {
		el.Add(fmt.Errorf("server: reconnect_max must not be less than reconnect_min"))
	}

	return el.Err()
}

func (c *ServerConfig) env() ServerEnv {
	if c.Env == "" {
		return ServerEnvLive
	}
	return c.Env
}

func (c *ServerConfig) url() string {
	if c.URL != "" {
		return c.URL
	}
	return envDefaults[c.env()].url
}

func (c *ServerConfig) origin() string {
	if c.Origin != "" {
		return c.Origin
	}
	return envDefaults[c.env()].origin
}

func (c *ServerConfig) BuildClient(h transport.Handler, taps ...transport.Tap) (*transport.Client, error) {
	opts := []transport.ClientOpt{transport.WithOrigin(c.origin())}

	if c.ReconnectMin != "" && c.ReconnectMax != "" {
		lo, _ := parseOptionalDuration(c.ReconnectMin)
		hi, _ := parseOptionalDuration(c.ReconnectMax)
		opts = append(opts, transport.WithBackoff(lo, hi))
	}
	for _, t := range taps {
		opts = append(opts, transport.WithTap(t))
	}

	client, err := transport.NewClient(c.url(), h, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating transport client: %w", err)
	}
	return client, nil
}

// parseOptionalDuration returns zero for an empty string.
func parseOptionalDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
