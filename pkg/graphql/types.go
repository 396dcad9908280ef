package graphql

import (
	"encoding/json"
	"strings"
)

// Request is a GraphQL operation as sent over the wire.
type Request struct {
	// Query is the GraphQL document.
	Query string `json:"query"`
	// OperationName selects an operation in a multi-operation document.
	OperationName string `json:"operationName,omitempty"`
	// Variables are the operation's variable values.
	Variables map[string]any `json:"variables,omitempty"`
	// Extensions carries protocol extensions such as persisted query hashes.
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Response is a GraphQL response body.
type Response struct {
	// Data is the raw "data" member. It is kept as raw JSON so the same bytes
	// can be handed to the caller, normalized into a cache and shown by the
	// debug server.
	Data json.RawMessage `json:"data,omitempty"`
	// Errors are GraphQL (field or request) errors.
	Errors []Error `json:"errors,omitempty"`
	// Extensions carries response metadata.
	Extensions map[string]any `json:"extensions,omitempty"`
}

// HasErrors reports whether the response carries GraphQL errors.
func (r *Response) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// Error is a GraphQL error as defined by the response format.
type Error struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Location points into the query document. Line and column are 1-indexed.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Error implements the error interface so GraphQL errors can be returned
// from transports.
func (e Error) Error() string {
	return e.Message
}

// Errors joins several GraphQL errors into one error value.
type Errors []Error

func (es Errors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}
