// Package transport sends GraphQL requests over the network.
//
// NetworkTransport is the seam the host application talks to. HTTPTransport
// is a plain JSON-over-HTTP implementation; DebuggableTransport wraps any
// NetworkTransport and records every exchange in an activity.Store while
// returning results unchanged.
package transport
