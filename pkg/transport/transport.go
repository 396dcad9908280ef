package transport

import (
	"context"

	"github.com/getmockd/gqldevkit/pkg/graphql"
)

// NetworkTransport executes a GraphQL request and returns its response.
type NetworkTransport interface {
	Send(ctx context.Context, req *graphql.Request) (*graphql.Response, error)
}

// Func adapts a function to NetworkTransport.
type Func func(ctx context.Context, req *graphql.Request) (*graphql.Response, error)

// Send calls f.
func (f Func) Send(ctx context.Context, req *graphql.Request) (*graphql.Response, error) {
	return f(ctx, req)
}
