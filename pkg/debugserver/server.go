package debugserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/getmockd/gqldevkit/pkg/activity"
	"github.com/getmockd/gqldevkit/pkg/console"
	"github.com/getmockd/gqldevkit/pkg/logging"
	"github.com/getmockd/gqldevkit/pkg/metrics"
	"github.com/getmockd/gqldevkit/pkg/normcache"
)

// Server is the debug HTTP server.
type Server struct {
	cfg      Config
	cache    normcache.NormalizedCache
	activity *activity.Store
	console  *console.Capture
	log      *slog.Logger
	metrics  *metrics.Metrics
	addrs    func() ([]net.Addr, error)
	handler  http.Handler

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex

	mu         sync.RWMutex
	httpServer *http.Server
	cancel     context.CancelFunc
	served     chan struct{}
	endpoint   *Endpoint
	startedAt  time.Time

	// hijacked tracks websocket handlers, which http.Server.Shutdown does
	// not wait for.
	hijacked sync.WaitGroup
}

// New creates a stopped server reading from cache and store. Either may be
// nil, in which case the matching routes report the resource as unavailable.
func New(cfg Config, cache normcache.NormalizedCache, store *activity.Store, opts ...Option) *Server {
	cfg.applyDefaults()
	s := &Server{
		cfg:      cfg,
		cache:    cache,
		activity: store,
		log:      logging.Nop(),
		addrs:    interfaceAddrs,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.console == nil {
		s.console = console.New(console.WithLogger(s.log), console.WithMetrics(s.metrics))
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.handler = s.withMiddleware(mux)
	return s
}

// Handler returns the server's HTTP handler, for mounting elsewhere or for
// tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Console returns the console capture the server streams.
func (s *Server) Console() *console.Capture {
	return s.console
}

// Start binds host:port and begins serving. Port 0 picks a free port. On
// failure the server stays stopped and the error is a *BindError, except
// for ErrAlreadyStarted.
func (s *Server) Start(port int) (Endpoint, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.Started() {
		return Endpoint{}, ErrAlreadyStarted
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(port))
	if port < 0 || port > 65535 {
		return Endpoint{}, &BindError{Addr: addr, Port: port, Err: ErrInvalidPort}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return Endpoint{}, &BindError{Addr: addr, Port: port, Err: err}
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}

	ep := Endpoint{
		Host: advertiseHost(s.cfg.AdvertiseHost, s.cfg.Host, s.addrs),
		Port: ln.Addr().(*net.TCPAddr).Port,
	}
	served := make(chan struct{})

	s.mu.Lock()
	s.httpServer = srv
	s.cancel = cancel
	s.served = served
	s.endpoint = &ep
	s.startedAt = time.Now()
	s.mu.Unlock()

	go func() {
		defer close(served)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("debug server stopped unexpectedly", "error", err)
		}
	}()

	s.log.Info("debug server started", "addr", ln.Addr().String(), "url", ep.URL())
	return ep, nil
}

// Stop ends every streaming response, then shuts the server down. It is a
// no-op when the server is not running.
func (s *Server) Stop() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	srv, cancel, served := s.httpServer, s.cancel, s.served
	s.httpServer, s.cancel, s.served, s.endpoint = nil, nil, nil, nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	cancel()

	ctx, done := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer done()

	var err error
	if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
		err = fmt.Errorf("debug server shutdown: %w", shutdownErr)
		_ = srv.Close()
	}
	s.hijacked.Wait()
	<-served

	s.log.Info("debug server stopped")
	return err
}

// Started reports whether the server is running.
func (s *Server) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.httpServer != nil
}

// Endpoint returns a copy of the current endpoint, or nil when stopped.
func (s *Server) Endpoint() *Endpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.endpoint == nil {
		return nil
	}
	ep := *s.endpoint
	return &ep
}

// ServerURL returns the base URL while the server is running.
func (s *Server) ServerURL() (string, bool) {
	ep := s.Endpoint()
	if ep == nil {
		return "", false
	}
	return ep.URL(), true
}

// SetConsoleRedirection enables or disables console capture. Redundant calls
// are no-ops. A capture failure is logged and leaves capture disabled.
func (s *Server) SetConsoleRedirection(enabled bool) {
	if err := s.console.SetEnabled(enabled); err != nil {
		s.log.Warn("console redirection toggle failed", "enabled", enabled, "error", err)
		return
	}
	s.log.Debug("console redirection set", "enabled", enabled)
}

// ConsoleRedirection reports whether console capture is on.
func (s *Server) ConsoleRedirection() bool {
	return s.console.Enabled()
}

func (s *Server) uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startedAt.IsZero() || s.httpServer == nil {
		return 0
	}
	return time.Since(s.startedAt)
}
