// Package devkit wires a GraphQL client's transport and cache for either
// debug or release builds.
//
// With Config.Debug set, New wraps the transport and cache in their
// instrumented forms and creates a debug server reading from them. Without
// it, the base transport and cache are used as given and every debug
// operation is a no-op, so host code is identical in both modes.
package devkit

import (
	"errors"
	"log/slog"

	"github.com/getmockd/gqldevkit/pkg/activity"
	"github.com/getmockd/gqldevkit/pkg/console"
	"github.com/getmockd/gqldevkit/pkg/debugserver"
	"github.com/getmockd/gqldevkit/pkg/logging"
	"github.com/getmockd/gqldevkit/pkg/metrics"
	"github.com/getmockd/gqldevkit/pkg/normcache"
	"github.com/getmockd/gqldevkit/pkg/transport"
)

// DefaultPort is the debug server port used when none is configured.
const DefaultPort = 8081

// ErrDebugDisabled is returned by Start when the kit was built without
// debugging.
var ErrDebugDisabled = errors.New("devkit: debugging is disabled")

// Config selects and tunes the wiring.
type Config struct {
	// Debug enables instrumentation and the debug server.
	Debug bool

	// Port is the debug server port. Zero picks a free port.
	Port int

	// Server configures the debug server.
	Server debugserver.Config

	// MaxActivityRecords bounds the activity log.
	MaxActivityRecords int

	// ConsoleBufferSize bounds the console line buffer.
	ConsoleBufferSize int

	// ConsoleRedirection enables console capture when the kit starts.
	ConsoleRedirection bool
}

// Option configures a Kit.
type Option func(*options)

type options struct {
	log     *slog.Logger
	metrics *metrics.Metrics
	console []console.Option
}

// WithLogger sets the operational logger shared by every component.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics shares an existing metrics set instead of creating one.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithConsoleOptions passes extra options to the console capture.
func WithConsoleOptions(opts ...console.Option) Option {
	return func(o *options) { o.console = append(o.console, opts...) }
}

// Kit holds the transport and cache the host should use and, in debug
// builds, the debug server observing them.
type Kit struct {
	cfg       Config
	log       *slog.Logger
	transport transport.NetworkTransport
	cache     normcache.NormalizedCache
	server    *debugserver.Server
	metrics   *metrics.Metrics
}

// New builds a Kit around base and cache.
func New(cfg Config, base transport.NetworkTransport, cache normcache.NormalizedCache, opts ...Option) *Kit {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	log := logging.OrNop(o.log)

	k := &Kit{cfg: cfg, log: log}
	if !cfg.Debug {
		k.transport = base
		k.cache = cache
		return k
	}

	m := o.metrics
	if m == nil {
		m = metrics.New()
	}
	k.metrics = m

	store := activity.NewStore(cfg.MaxActivityRecords,
		activity.WithLogger(log.With("component", "activity")),
		activity.WithMetrics(m))
	dcache := normcache.NewDebuggableCache(cache, m)
	capture := console.New(append([]console.Option{
		console.WithBufferSize(cfg.ConsoleBufferSize),
		console.WithLogger(log.With("component", "console")),
		console.WithMetrics(m),
	}, o.console...)...)

	k.transport = transport.NewDebuggableTransport(base, store,
		transport.WithLogger(log.With("component", "transport")))
	k.cache = dcache
	k.server = debugserver.New(cfg.Server, dcache, store,
		debugserver.WithLogger(log.With("component", "debugserver")),
		debugserver.WithMetrics(m),
		debugserver.WithConsole(capture))
	return k
}

// Debug reports whether the kit is instrumented.
func (k *Kit) Debug() bool {
	return k.server != nil
}

// Transport returns the transport the host should send requests through.
func (k *Kit) Transport() transport.NetworkTransport {
	return k.transport
}

// Cache returns the cache the host should read and write.
func (k *Kit) Cache() normcache.NormalizedCache {
	return k.cache
}

// Server returns the debug server, or nil in release wiring.
func (k *Kit) Server() *debugserver.Server {
	return k.server
}

// Metrics returns the metrics set, or nil in release wiring.
func (k *Kit) Metrics() *metrics.Metrics {
	return k.metrics
}

// Activity returns the activity store, or nil in release wiring.
func (k *Kit) Activity() *activity.Store {
	if dt, ok := k.transport.(*transport.DebuggableTransport); ok {
		return dt.Activity()
	}
	return nil
}

// Start starts the debug server on the configured port and applies the
// configured console redirection.
func (k *Kit) Start() (debugserver.Endpoint, error) {
	if k.server == nil {
		return debugserver.Endpoint{}, ErrDebugDisabled
	}
	ep, err := k.server.Start(k.cfg.Port)
	if err != nil {
		return debugserver.Endpoint{}, err
	}
	if k.cfg.ConsoleRedirection {
		k.server.SetConsoleRedirection(true)
	}
	return ep, nil
}

// Stop disables console redirection and stops the debug server. It is safe
// to call on a kit that never started.
func (k *Kit) Stop() error {
	if k.server == nil {
		return nil
	}
	k.server.SetConsoleRedirection(false)
	return k.server.Stop()
}

// ServerURL returns the debug server URL while it is running.
func (k *Kit) ServerURL() (string, bool) {
	if k.server == nil {
		return "", false
	}
	return k.server.ServerURL()
}

// ConsoleRedirection reports whether console capture is on.
func (k *Kit) ConsoleRedirection() bool {
	return k.server != nil && k.server.ConsoleRedirection()
}

// SetConsoleRedirection enables or disables console capture.
func (k *Kit) SetConsoleRedirection(enabled bool) {
	if k.server == nil {
		return
	}
	k.server.SetConsoleRedirection(enabled)
}

// ToggleConsoleRedirection flips console capture and returns the new state.
func (k *Kit) ToggleConsoleRedirection() bool {
	if k.server == nil {
		return false
	}
	k.server.SetConsoleRedirection(!k.server.ConsoleRedirection())
	return k.server.ConsoleRedirection()
}
