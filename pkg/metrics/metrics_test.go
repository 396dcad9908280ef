package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveActivityStarted()
	m.ObserveActivityStarted()
	m.ObserveActivityCompleted("succeeded", 20*time.Millisecond)
	m.ObserveActivityCompleted("failed", time.Millisecond)
	m.ObserveActivityEvicted(3)
	m.ObserveCacheOp(CacheOpRead, CacheResultHit)
	m.ObserveCacheOp(CacheOpRead, CacheResultMiss)
	m.ObserveCacheOp(CacheOpRead, CacheResultHit)
	m.ObserveConsoleLine("stdout")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.activityStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activityCompleted.WithLabelValues("succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activityCompleted.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.activityEvicted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheOps.WithLabelValues(CacheOpRead, CacheResultHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.consoleLines.WithLabelValues("stdout")))
}

func TestMetrics_StreamGauge(t *testing.T) {
	m := New()

	done := m.StreamOpened(StreamConsole)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.openStreams.WithLabelValues(StreamConsole)))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.openStreams.WithLabelValues(StreamConsole)))

	m.SetConsoleEnabled(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.consoleEnabled))
	m.SetConsoleEnabled(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.consoleEnabled))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveActivityStarted()
		m.ObserveActivityCompleted("succeeded", time.Second)
		m.ObserveCacheOp(CacheOpWrite, CacheResultOK)
		m.ObserveHTTPRequest("/health", 200)
		m.StreamOpened(StreamActivity)()
		m.SetConsoleEnabled(true)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest("GET /health", 200)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `gqldevkit_http_requests_total{code="200",route="GET /health"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		a, b := New(), New()
		assert.NotSame(t, a.Registry(), b.Registry())
	})
}
