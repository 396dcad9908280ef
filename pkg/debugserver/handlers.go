package debugserver

import (
	"net/http"

	"github.com/getmockd/gqldevkit/pkg/httputil"
)

type indexResponse struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	URL     string      `json:"url,omitempty"`
	Console consoleInfo `json:"console"`
	Routes  []routeInfo `json:"routes"`
	Metrics bool        `json:"metrics"`
}

type consoleInfo struct {
	Enabled bool   `json:"enabled"`
	Window  uint64 `json:"window"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	url, _ := s.ServerURL()
	httputil.WriteOK(w, indexResponse{
		Name:    "gqldevkit",
		Version: s.cfg.Version,
		URL:     url,
		Console: consoleInfo{Enabled: s.console.Enabled(), Window: s.console.Window()},
		Routes:  routeIndex,
		Metrics: s.metrics != nil,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, map[string]any{
		"status":        "ok",
		"uptimeSeconds": int(s.uptime().Seconds()),
	})
}
