package debugserver

import "net/http"

// routeInfo describes a route on the index page.
type routeInfo struct {
	Pattern     string `json:"pattern"`
	Description string `json:"description"`
}

var routeIndex = []routeInfo{
	{"GET /health", "liveness"},
	{"GET /api/cache", "normalized cache snapshot; ?path= applies a JSONPath"},
	{"GET /api/cache/{key}", "one cache record"},
	{"GET /api/activity", "activity records; ?since= ?limit= ?state= ?operation= ?filter="},
	{"GET /api/activity/{id}", "one activity record"},
	{"GET /api/activity/stream", "server-sent activity events"},
	{"GET /api/console", "console capture state and buffered lines"},
	{"GET /api/console/stream", "server-sent console lines"},
	{"GET /api/console/ws", "console lines over a websocket"},
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/cache", s.handleCache)
	mux.HandleFunc("GET /api/cache/{key}", s.handleCacheRecord)

	mux.HandleFunc("GET /api/activity", s.handleListActivity)
	mux.HandleFunc("GET /api/activity/stream", s.handleStreamActivity)
	mux.HandleFunc("GET /api/activity/{id}", s.handleGetActivity)

	mux.HandleFunc("GET /api/console", s.handleConsole)
	mux.HandleFunc("GET /api/console/stream", s.handleStreamConsole)
	mux.HandleFunc("GET /api/console/ws", s.handleConsoleWebSocket)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
}
