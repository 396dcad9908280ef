package debugserver

import (
	"net/http"
	"time"

	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/gqldevkit/pkg/httputil"
	"github.com/getmockd/gqldevkit/pkg/normcache"
)

// statsProvider is implemented by caches that count their operations.
type statsProvider interface {
	Stats() normcache.Stats
}

type cacheResponse struct {
	TakenAt time.Time                   `json:"takenAt"`
	Count   int                         `json:"count"`
	Records map[string]normcache.Record `json:"records"`
	Stats   *normcache.Stats            `json:"stats,omitempty"`
}

type cachePathResponse struct {
	TakenAt time.Time `json:"takenAt"`
	Path    string    `json:"path"`
	Results []any     `json:"results"`
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (normcache.Snapshot, bool) {
	if s.cache == nil {
		httputil.WriteServiceUnavailable(w, "no cache is attached to the debug server")
		return normcache.Snapshot{}, false
	}
	snap, err := s.cache.Snapshot(r.Context())
	if err != nil {
		s.log.Error("cache snapshot failed", "error", err)
		httputil.WriteInternalError(w, "failed to read the cache")
		return normcache.Snapshot{}, false
	}
	return snap, true
}

// handleCache handles GET /api/cache.
func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	var expr jp.Expr
	if path != "" {
		var err error
		if expr, err = jp.ParseString(path); err != nil {
			httputil.WriteBadRequest(w, httputil.CodeInvalidPath, err.Error())
			return
		}
	}

	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	if expr != nil {
		data := make(map[string]any, len(snap.Records))
		for k, rec := range snap.Records {
			data[k] = map[string]any(rec)
		}
		results := expr.Get(data)
		if results == nil {
			results = []any{}
		}
		httputil.WriteOK(w, cachePathResponse{TakenAt: snap.TakenAt, Path: path, Results: results})
		return
	}

	resp := cacheResponse{TakenAt: snap.TakenAt, Count: snap.Len(), Records: snap.Records}
	if sp, ok := s.cache.(statsProvider); ok {
		stats := sp.Stats()
		resp.Stats = &stats
	}
	httputil.WriteOK(w, resp)
}

// handleCacheRecord handles GET /api/cache/{key}. It reads from a snapshot
// rather than the cache so inspection does not count as a read or change
// eviction order.
func (s *Server) handleCacheRecord(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	rec, found := snap.Records[key]
	if !found {
		httputil.WriteNotFound(w, "no cache record with key "+key)
		return
	}
	httputil.WriteOK(w, map[string]any{"key": key, "record": rec, "takenAt": snap.TakenAt})
}
