// Package debugserver exposes what the instrumented transport, cache and
// console capture observe over a read-only local HTTP API.
//
// A Server is either stopped or started. Start binds the listening socket
// synchronously and reports the Endpoint clients should use; a bind failure is
// returned as a *BindError and leaves the server stopped. Stop ends every
// streaming response before releasing the socket, and is safe to call at any
// time.
//
// Routes:
//
//	GET /                       index
//	GET /health                 liveness
//	GET /api/cache              cache snapshot (?path= JSONPath)
//	GET /api/cache/{key}        one cache record
//	GET /api/activity           activity records (?since, limit, state, operation, filter)
//	GET /api/activity/{id}      one activity record
//	GET /api/activity/stream    SSE: retained history, then live events
//	GET /api/console            {enabled, window, lines}
//	GET /api/console/stream     SSE: buffered lines when enabled, then live lines
//	GET /api/console/ws         WebSocket variant of the console stream
//	GET /metrics                Prometheus exposition
package debugserver
