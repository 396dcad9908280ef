package debugserver

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/getmockd/gqldevkit/pkg/console"
	"github.com/getmockd/gqldevkit/pkg/httputil"
	"github.com/getmockd/gqldevkit/pkg/metrics"
	"github.com/getmockd/gqldevkit/pkg/sse"
)

const wsWriteTimeout = 5 * time.Second

type consoleResponse struct {
	Enabled bool           `json:"enabled"`
	Window  uint64         `json:"window"`
	Lines   []console.Line `json:"lines"`
}

// consoleMessage is the websocket frame format.
type consoleMessage struct {
	Type    string        `json:"type"`
	Line    *console.Line `json:"line,omitempty"`
	Enabled *bool         `json:"enabled,omitempty"`
	Message string        `json:"message,omitempty"`
}

// handleConsole handles GET /api/console. Lines are only reported while
// capture is enabled.
func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	resp := consoleResponse{
		Enabled: s.console.Enabled(),
		Window:  s.console.Window(),
		Lines:   []console.Line{},
	}
	if resp.Enabled {
		resp.Lines = s.console.Lines()
	}
	httputil.WriteOK(w, resp)
}

// consoleFeed subscribes to the capture and returns the lines to replay
// first. Buffered lines are replayed only while capture is enabled.
func (s *Server) consoleFeed() ([]console.Line, *console.Subscription, bool) {
	history, sub := s.console.Subscribe()
	enabled := s.console.Enabled()
	if !enabled {
		history = nil
	}
	return history, sub, enabled
}

// handleStreamConsole handles GET /api/console/stream.
func (s *Server) handleStreamConsole(w http.ResponseWriter, r *http.Request) {
	history, sub, enabled := s.consoleFeed()
	defer sub.Cancel()

	stream, err := sse.NewStream(w)
	if err != nil {
		httputil.WriteInternalError(w, "streaming not supported")
		return
	}
	defer s.metrics.StreamOpened(metrics.StreamConsole)()

	if err := stream.Event("connected", "", consoleInfo{Enabled: enabled, Window: s.console.Window()}); err != nil {
		return
	}
	for _, line := range history {
		if err := stream.Event("line", "", line); err != nil {
			return
		}
	}

	keepAlive := time.NewTicker(s.cfg.KeepAlive)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			if err := stream.Comment("keepalive"); err != nil {
				return
			}
		case line, open := <-sub.C():
			if !open {
				if sub.Lagged() {
					_ = stream.Event("lagged", "", map[string]string{"message": "subscriber fell behind; reconnect to replay buffered lines"})
				}
				return
			}
			if err := stream.Event("line", "", line); err != nil {
				return
			}
		}
	}
}

// handleConsoleWebSocket handles GET /api/console/ws. Client messages are
// ignored; the socket closes when the client goes away or the server stops.
func (s *Server) handleConsoleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hijacked.Add(1)
	defer s.hijacked.Done()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: len(s.cfg.AllowedOrigins) == 0,
		OriginPatterns:     s.cfg.AllowedOrigins,
	})
	if err != nil {
		s.log.Debug("console websocket upgrade failed", "error", err)
		return
	}
	defer conn.CloseNow()
	defer s.metrics.StreamOpened(metrics.StreamConsole)()

	history, sub, enabled := s.consoleFeed()
	defer sub.Cancel()

	ctx := conn.CloseRead(r.Context())

	write := func(msg consoleMessage) error {
		wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
		defer cancel()
		return wsjson.Write(wctx, conn, msg)
	}

	if err := write(consoleMessage{Type: "connected", Enabled: &enabled}); err != nil {
		return
	}
	for i := range history {
		if err := write(consoleMessage{Type: "line", Line: &history[i]}); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusGoingAway, "debug server stopping")
			return
		case line, open := <-sub.C():
			if !open {
				if sub.Lagged() {
					_ = write(consoleMessage{Type: "lagged", Message: "subscriber fell behind; reconnect to replay buffered lines"})
					_ = conn.Close(websocket.StatusTryAgainLater, "lagged")
				}
				return
			}
			if err := write(consoleMessage{Type: "line", Line: &line}); err != nil {
				return
			}
		}
	}
}
