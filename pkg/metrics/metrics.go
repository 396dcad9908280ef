package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gqldevkit"

// Cache operation label values.
const (
	CacheOpRead   = "read"
	CacheOpWrite  = "write"
	CacheOpRemove = "remove"
	CacheOpClear  = "clear"
	CacheOpDump   = "snapshot"
)

// Cache result label values.
const (
	CacheResultHit   = "hit"
	CacheResultMiss  = "miss"
	CacheResultOK    = "ok"
	CacheResultError = "error"
)

// Stream kinds used by the open_streams and subscribers_dropped series.
const (
	StreamActivity = "activity"
	StreamConsole  = "console"
)

// Metrics owns the facility's collectors and their registry.
type Metrics struct {
	registry *prometheus.Registry

	activityStarted   prometheus.Counter
	activityCompleted *prometheus.CounterVec
	activityDuration  prometheus.Histogram
	activityEvicted   prometheus.Counter

	cacheOps       *prometheus.CounterVec
	cacheEvictions prometheus.Counter

	consoleLines   *prometheus.CounterVec
	consoleEnabled prometheus.Gauge

	httpRequests       *prometheus.CounterVec
	openStreams        *prometheus.GaugeVec
	subscribersDropped *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go runtime
// and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		activityStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_started_total",
			Help:      "Transport requests observed.",
		}),
		activityCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_completed_total",
			Help:      "Transport requests completed, by final state.",
		}, []string{"state"}),
		activityDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "activity_duration_seconds",
			Help:      "Round-trip time of observed transport requests.",
			Buckets:   prometheus.DefBuckets,
		}),
		activityEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_evicted_total",
			Help:      "Activity records dropped from the bounded log.",
		}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Normalized cache operations, by operation and result.",
		}, []string{"op", "result"}),
		cacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Records evicted by a bounded normalized cache.",
		}),
		consoleLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "console_lines_total",
			Help:      "Console lines captured, by stream.",
		}, []string{"stream"}),
		consoleEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "console_capture_enabled",
			Help:      "1 while console redirection is enabled.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Debug server HTTP requests, by route and status code.",
		}, []string{"route", "code"}),
		openStreams: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_streams",
			Help:      "Streaming responses currently open, by kind.",
		}, []string{"kind"}),
		subscribersDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscribers_dropped_total",
			Help:      "Subscribers disconnected because they fell behind.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.activityStarted,
		m.activityCompleted,
		m.activityDuration,
		m.activityEvicted,
		m.cacheOps,
		m.cacheEvictions,
		m.consoleLines,
		m.consoleEnabled,
		m.httpRequests,
		m.openStreams,
		m.subscribersDropped,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveActivityStarted counts a request entering the transport.
func (m *Metrics) ObserveActivityStarted() {
	if m == nil {
		return
	}
	m.activityStarted.Inc()
}

// ObserveActivityCompleted counts a finished request and its duration.
func (m *Metrics) ObserveActivityCompleted(state string, d time.Duration) {
	if m == nil {
		return
	}
	m.activityCompleted.WithLabelValues(state).Inc()
	m.activityDuration.Observe(d.Seconds())
}

// ObserveActivityEvicted counts records pushed out of the activity log.
func (m *Metrics) ObserveActivityEvicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.activityEvicted.Add(float64(n))
}

// ObserveCacheOp counts one cache operation.
func (m *Metrics) ObserveCacheOp(op, result string) {
	if m == nil {
		return
	}
	m.cacheOps.WithLabelValues(op, result).Inc()
}

// ObserveCacheEviction counts one record evicted by a bounded cache.
func (m *Metrics) ObserveCacheEviction() {
	if m == nil {
		return
	}
	m.cacheEvictions.Inc()
}

// ObserveConsoleLine counts a captured console line.
func (m *Metrics) ObserveConsoleLine(stream string) {
	if m == nil {
		return
	}
	m.consoleLines.WithLabelValues(stream).Inc()
}

// SetConsoleEnabled records whether console capture is on.
func (m *Metrics) SetConsoleEnabled(enabled bool) {
	if m == nil {
		return
	}
	if enabled {
		m.consoleEnabled.Set(1)
	} else {
		m.consoleEnabled.Set(0)
	}
}

// ObserveHTTPRequest counts a debug server request.
func (m *Metrics) ObserveHTTPRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// StreamOpened increments the open stream gauge and returns the matching
// decrement.
func (m *Metrics) StreamOpened(kind string) func() {
	if m == nil {
		return func() {}
	}
	g := m.openStreams.WithLabelValues(kind)
	g.Inc()
	return g.Dec
}

// ObserveSubscriberDropped counts a lagging subscriber being disconnected.
func (m *Metrics) ObserveSubscriberDropped(kind string) {
	if m == nil {
		return
	}
	m.subscribersDropped.WithLabelValues(kind).Inc()
}
