package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/getmockd/gqldevkit/pkg/graphql"
	"github.com/getmockd/gqldevkit/pkg/logging"
)

// DefaultTimeout bounds a single HTTP exchange.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a non-2xx body is kept on HTTPStatusError.
const maxErrorBody = 4 << 10

// ErrNoEndpoint is returned when an HTTPTransport has no URL.
var ErrNoEndpoint = errors.New("transport: no endpoint configured")

// HTTPStatusError reports a non-2xx response from the GraphQL endpoint.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("graphql endpoint returned %s", e.Status)
	}
	return fmt.Sprintf("graphql endpoint returned %s: %s", e.Status, e.Body)
}

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(t *HTTPTransport) { t.client = c }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) HTTPOption {
	return func(t *HTTPTransport) { t.header.Add(key, value) }
}

// WithHTTPLogger sets the operational logger.
func WithHTTPLogger(log *slog.Logger) HTTPOption {
	return func(t *HTTPTransport) { t.log = logging.OrNop(log) }
}

// HTTPTransport POSTs requests as JSON to a single endpoint.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
	header   http.Header
	log      *slog.Logger
}

// NewHTTPTransport creates a transport for endpoint.
func NewHTTPTransport(endpoint string, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultTimeout},
		header:   make(http.Header),
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Endpoint returns the URL requests are sent to.
func (t *HTTPTransport) Endpoint() string {
	return t.endpoint
}

// Send implements NetworkTransport. GraphQL errors in a 2xx body are part of
// the response, not a transport error.
func (t *HTTPTransport) Send(ctx context.Context, req *graphql.Request) (*graphql.Response, error) {
	if t.endpoint == "" {
		return nil, ErrNoEndpoint
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range t.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/graphql-response+json, application/json")

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	t.log.Debug("graphql request sent",
		"endpoint", t.endpoint,
		"operation", req.OperationName,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(bytes.TrimSpace(msg)),
		}
	}

	var out graphql.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}
