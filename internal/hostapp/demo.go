package hostapp

import (
	"context"
	"errors"
	"sync"

	"github.com/getmockd/gqldevkit/pkg/graphql"
	"github.com/getmockd/gqldevkit/pkg/transport"
)

var errPostNotFound = errors.New("post not found")

func demoPosts() []map[string]any {
	return []map[string]any{
		{
			"id": "1", "title": "Introduction to GraphQL", "votes": 3,
			"author": map[string]any{"id": "a1", "firstName": "Tom", "lastName": "Coleman"},
		},
		{
			"id": "2", "title": "Welcome to Meteor", "votes": 7,
			"author": map[string]any{"id": "a2", "firstName": "Sashko", "lastName": "Stubailo"},
		},
		{
			"id": "3", "title": "Advanced GraphQL", "votes": 1,
			"author": map[string]any{"id": "a1", "firstName": "Tom", "lastName": "Coleman"},
		},
	}
}

// NewDemoTransport returns an in-process backend serving posts and
// upvotePost. It is used when no endpoint is configured.
func NewDemoTransport() transport.NetworkTransport {
	var mu sync.Mutex
	posts := demoPosts()
	find := func(id any) map[string]any {
		for _, p := range posts {
			if p["id"] == id {
				return p
			}
		}
		return nil
	}

	ex := graphql.NewExecutor(map[string]graphql.ResolverFunc{
		"query.posts": func(context.Context, map[string]any) (any, error) {
			return posts, nil
		},
		"query.post": func(_ context.Context, args map[string]any) (any, error) {
			if p := find(args["id"]); p != nil {
				return p, nil
			}
			return nil, nil
		},
		"mutation.upvotePost": func(_ context.Context, args map[string]any) (any, error) {
			p := find(args["postId"])
			if p == nil {
				return nil, errPostNotFound
			}
			p["votes"] = p["votes"].(int) + 1
			return p, nil
		},
	})

	return transport.Func(func(ctx context.Context, req *graphql.Request) (*graphql.Response, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mu.Lock()
		defer mu.Unlock()
		return ex.Execute(ctx, req), nil
	})
}
