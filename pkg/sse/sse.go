// Package sse writes Server-Sent Events responses.
//
// See https://html.spec.whatwg.org/multipage/server-sent-events.html for the
// wire format.
package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ContentTypeEventStream is the MIME type of an SSE response.
const ContentTypeEventStream = "text/event-stream"

// SSE field prefixes.
const (
	fieldEvent   = "event:"
	fieldData    = "data:"
	fieldID      = "id:"
	fieldRetry   = "retry:"
	fieldComment = ":"
)

var (
	// ErrFlusherNotSupported indicates the response writer cannot flush.
	ErrFlusherNotSupported = errors.New("sse: flusher not supported")

	// ErrInvalidField indicates an event name or id containing a line break.
	ErrInvalidField = errors.New("sse: event name and id must be single-line")
)

// Stream writes events to one client.
type Stream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewStream sets the event-stream headers, writes the status line and
// returns a Stream. It fails if w cannot be flushed.
func NewStream(w http.ResponseWriter) (*Stream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrFlusherNotSupported
	}

	h := w.Header()
	h.Set("Content-Type", ContentTypeEventStream)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Stream{w: w, flusher: flusher}, nil
}

// Event writes one event. Strings and byte slices are sent as is; anything
// else is JSON encoded. name and id may be empty.
func (s *Stream) Event(name, id string, data any) error {
	payload, err := FormatEvent(name, id, data)
	if err != nil {
		return err
	}
	return s.write(payload)
}

// Comment writes a comment line, which clients ignore. It keeps idle
// connections open through proxies.
func (s *Stream) Comment(text string) error {
	return s.write(FormatComment(text))
}

// Retry tells the client how long to wait before reconnecting.
func (s *Stream) Retry(ms int) error {
	return s.write(fieldRetry + strconv.Itoa(ms) + "\n\n")
}

func (s *Stream) write(payload string) error {
	if _, err := s.w.Write([]byte(payload)); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// FormatEvent renders an event in wire format.
func FormatEvent(name, id string, data any) (string, error) {
	if strings.ContainsAny(name, "\r\n") || strings.ContainsAny(id, "\r\n") {
		return "", ErrInvalidField
	}

	text, err := formatData(data)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if name != "" {
		sb.WriteString(fieldEvent)
		sb.WriteString(name)
		sb.WriteByte('\n')
	}
	if id != "" {
		sb.WriteString(fieldID)
		sb.WriteString(id)
		sb.WriteByte('\n')
	}
	for _, line := range strings.Split(text, "\n") {
		sb.WriteString(fieldData)
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	return sb.String(), nil
}

// FormatComment renders a possibly multi-line comment.
func FormatComment(text string) string {
	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		sb.WriteString(fieldComment)
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	return sb.String()
}

func formatData(data any) (string, error) {
	switch v := data.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to marshal event data: %w", err)
		}
		return string(b), nil
	}
}
