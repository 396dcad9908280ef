// Package metrics exposes Prometheus collectors describing what the debugging
// facility observes: transport activity, cache operations, captured console
// lines and the debug server's own HTTP traffic.
//
// Every collector lives on a private registry owned by a Metrics value, so
// several facilities can coexist in one process (and in one test binary)
// without duplicate-registration panics. All Observe methods are safe on a nil
// *Metrics, which is how components run when metrics are not wired.
//
//	m := metrics.New()
//	mux.Handle("GET /metrics", m.Handler())
//	m.ObserveCacheOp(metrics.CacheOpRead, metrics.CacheResultHit)
//
// Exposed series:
//
//   - gqldevkit_activity_started_total
//   - gqldevkit_activity_completed_total{state}
//   - gqldevkit_activity_duration_seconds
//   - gqldevkit_activity_evicted_total
//   - gqldevkit_cache_operations_total{op,result}
//   - gqldevkit_cache_evictions_total
//   - gqldevkit_console_lines_total{stream}
//   - gqldevkit_console_capture_enabled
//   - gqldevkit_http_requests_total{route,code}
//   - gqldevkit_open_streams{kind}
//   - gqldevkit_subscribers_dropped_total{kind}
package metrics
