package debugserver

import (
	"log/slog"
	"net"
	"time"

	"github.com/getmockd/gqldevkit/pkg/console"
	"github.com/getmockd/gqldevkit/pkg/logging"
	"github.com/getmockd/gqldevkit/pkg/metrics"
)

// Defaults.
const (
	DefaultShutdownTimeout = 5 * time.Second
	DefaultKeepAlive       = 15 * time.Second
)

// Config holds the server settings that come from configuration.
type Config struct {
	// Host is the bind host. Empty binds every interface.
	Host string

	// AdvertiseHost overrides the host reported in the Endpoint.
	AdvertiseHost string

	// AllowedOrigins lists origins allowed to read the API from a browser.
	// Empty allows any origin.
	AllowedOrigins []string

	// ShutdownTimeout bounds Stop.
	ShutdownTimeout time.Duration

	// KeepAlive is the interval between keepalive comments on idle streams.
	KeepAlive time.Duration

	// Version is reported by the index route.
	Version string
}

func (c *Config) applyDefaults() {
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = DefaultKeepAlive
	}
	if c.Version == "" {
		c.Version = "dev"
	}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = logging.OrNop(log) }
}

// WithMetrics attaches Prometheus collectors and enables GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithConsole sets the console capture the server toggles and streams.
// Without it the server creates one over os.Stdout and os.Stderr.
func WithConsole(c *console.Capture) Option {
	return func(s *Server) { s.console = c }
}

// WithInterfaceAddrs replaces the interface address lookup used to pick the
// advertised host.
func WithInterfaceAddrs(fn func() ([]net.Addr, error)) Option {
	return func(s *Server) { s.addrs = fn }
}
