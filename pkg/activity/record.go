package activity

import (
	"encoding/json"
	"time"

	"github.com/getmockd/gqldevkit/pkg/graphql"
)

// State is the lifecycle state of a Record.
type State string

// Record states.
const (
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StatePending, StateSucceeded, StateFailed:
		return true
	}
	return false
}

// Record is one transport request/response exchange.
type Record struct {
	// ID uniquely identifies the exchange.
	ID string `json:"id"`

	// Sequence is the 1-based append order within the store.
	Sequence uint64 `json:"sequence"`

	// Operation is derived from the query text; nil when it cannot be parsed.
	Operation *graphql.Operation `json:"operation,omitempty"`

	// Request is the request payload as sent.
	Request json.RawMessage `json:"request"`

	// Response is the response payload. Absent while pending and when the
	// transport returned none; a failure may still carry one.
	Response json.RawMessage `json:"response,omitempty"`

	// Error is the transport error message, set only on failure.
	Error string `json:"error,omitempty"`

	State     State      `json:"state"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`

	// DurationMs is zero while pending.
	DurationMs int64 `json:"durationMs"`
}

// Done reports whether the exchange has finished.
func (r *Record) Done() bool {
	return r.State != StatePending
}

// EventType identifies what happened to a record.
type EventType string

// Event types.
const (
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
)

// Event is delivered to subscribers for every Begin and Complete.
type Event struct {
	Type   EventType `json:"type"`
	Record *Record   `json:"record"`
}
