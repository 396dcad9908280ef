package debugserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/getmockd/gqldevkit/pkg/activity"
	"github.com/getmockd/gqldevkit/pkg/httputil"
	"github.com/getmockd/gqldevkit/pkg/metrics"
	"github.com/getmockd/gqldevkit/pkg/sse"
)

type activityListResponse struct {
	Records []*activity.Record `json:"records"`
	Count   int                `json:"count"`
	Total   int                `json:"total"`
}

// parseActivityFilter reads the activity query parameters. It writes a 400
// response and returns false on invalid input.
func parseActivityFilter(w http.ResponseWriter, r *http.Request) (activity.Filter, bool) {
	q := r.URL.Query()
	var f activity.Filter

	if v := q.Get("since"); v != "" {
		since, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			httputil.WriteBadRequest(w, httputil.CodeInvalidQuery, "since must be a non-negative integer")
			return f, false
		}
		f.Since = since
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			httputil.WriteBadRequest(w, httputil.CodeInvalidQuery, "limit must be a non-negative integer")
			return f, false
		}
		f.Limit = limit
	}
	if v := q.Get("state"); v != "" {
		f.State = activity.State(v)
		if !f.State.Valid() {
			httputil.WriteBadRequest(w, httputil.CodeInvalidQuery, "state must be pending, succeeded or failed")
			return f, false
		}
	}
	f.Operation = q.Get("operation")
	if v := q.Get("filter"); v != "" {
		query, err := activity.CompileQuery(v)
		if err != nil {
			httputil.WriteBadRequest(w, httputil.CodeInvalidFilter, err.Error())
			return f, false
		}
		f.Query = query
	}
	return f, true
}

func (s *Server) requireActivity(w http.ResponseWriter) bool {
	if s.activity == nil {
		httputil.WriteServiceUnavailable(w, "no activity store is attached to the debug server")
		return false
	}
	return true
}

// handleListActivity handles GET /api/activity.
func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	if !s.requireActivity(w) {
		return
	}
	f, ok := parseActivityFilter(w, r)
	if !ok {
		return
	}

	records, err := s.activity.List(f)
	if err != nil {
		httputil.WriteBadRequest(w, httputil.CodeInvalidFilter, err.Error())
		return
	}
	httputil.WriteOK(w, activityListResponse{
		Records: records,
		Count:   len(records),
		Total:   s.activity.Count(),
	})
}

// handleGetActivity handles GET /api/activity/{id}.
func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	if !s.requireActivity(w) {
		return
	}
	id := r.PathValue("id")
	rec := s.activity.Get(id)
	if rec == nil {
		httputil.WriteNotFound(w, "no activity record with id "+id)
		return
	}
	httputil.WriteOK(w, rec)
}

// handleStreamActivity handles GET /api/activity/stream. The retained
// history is replayed first, each record in its current form, followed by
// live started and completed events. ?since= skips older history.
func (s *Server) handleStreamActivity(w http.ResponseWriter, r *http.Request) {
	if !s.requireActivity(w) {
		return
	}
	f, ok := parseActivityFilter(w, r)
	if !ok {
		return
	}

	history, sub := s.activity.Subscribe()
	defer sub.Cancel()

	stream, err := sse.NewStream(w)
	if err != nil {
		httputil.WriteInternalError(w, "streaming not supported")
		return
	}
	defer s.metrics.StreamOpened(metrics.StreamActivity)()

	if err := stream.Event("connected", "", map[string]any{"retained": len(history)}); err != nil {
		return
	}

	matches := func(rec *activity.Record) bool {
		ok, err := f.Matches(rec)
		return err == nil && ok
	}

	for _, rec := range history {
		if !matches(rec) {
			continue
		}
		typ := activity.EventStarted
		if rec.Done() {
			typ = activity.EventCompleted
		}
		if err := stream.Event("activity", "", activity.Event{Type: typ, Record: rec}); err != nil {
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
		case ev, open := <-sub.C():
			if !open {
				if sub.Lagged() {
					_ = stream.Event("lagged", "", map[string]string{"message": "subscriber fell behind; reconnect to replay history"})
				}
				return
			}
			if !matches(ev.Record) {
				continue
			}
			if err := stream.Event("activity", "", ev); err != nil {
				return
			}
		}
	}
}
