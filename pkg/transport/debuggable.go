package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getmockd/gqldevkit/pkg/activity"
	"github.com/getmockd/gqldevkit/pkg/graphql"
	"github.com/getmockd/gqldevkit/pkg/logging"
)

var errAborted = errors.New("transport: send aborted")

// Option configures a DebuggableTransport.
type Option func(*DebuggableTransport)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(t *DebuggableTransport) { t.log = logging.OrNop(log) }
}

// DebuggableTransport forwards every request to a base transport and records
// the exchange in an activity store.
type DebuggableTransport struct {
	base  NetworkTransport
	store *activity.Store
	log   *slog.Logger
}

var _ NetworkTransport = (*DebuggableTransport)(nil)

// NewDebuggableTransport wraps base. A nil store gets a default-sized one.
func NewDebuggableTransport(base NetworkTransport, store *activity.Store, opts ...Option) *DebuggableTransport {
	if store == nil {
		store = activity.NewStore(activity.DefaultMaxRecords)
	}
	t := &DebuggableTransport{
		base:  base,
		store: store,
		log:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Activity returns the store exchanges are recorded in.
func (t *DebuggableTransport) Activity() *activity.Store {
	return t.store
}

// Base returns the wrapped transport.
func (t *DebuggableTransport) Base() NetworkTransport {
	return t.base
}

// Send records req as pending, forwards it to the base transport and
// completes the record with whatever the base returned. The response and
// error are returned exactly as the base produced them. A panic in the base
// transport marks the record failed and then continues unwinding.
func (t *DebuggableTransport) Send(ctx context.Context, req *graphql.Request) (resp *graphql.Response, err error) {
	rec := t.store.Begin(req)

	completed := false
	defer func() {
		if completed {
			return
		}
		p := recover()
		if p == nil {
			// runtime.Goexit in the base transport.
			t.store.Complete(rec, nil, errAborted)
			return
		}
		t.store.Complete(rec, nil, fmt.Errorf("transport panic: %v", p))
		panic(p)
	}()

	resp, err = t.base.Send(ctx, req)
	completed = true

	done := t.store.Complete(rec, resp, err)
	if err != nil {
		t.log.Debug("graphql request failed", "id", done.ID, "sequence", done.Sequence, "error", err)
	}
	return resp, err
}
