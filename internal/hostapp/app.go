package hostapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/getmockd/gqldevkit/pkg/devkit"
	"github.com/getmockd/gqldevkit/pkg/graphql"
	"github.com/getmockd/gqldevkit/pkg/logging"
)

// ListPostsQuery is the query the host runs on start and on reload.
const ListPostsQuery = `query ListPosts {
  posts {
    id
    title
    votes
    author {
      id
      firstName
      lastName
    }
  }
}`

// Action is a user action delivered to Run.
type Action string

// Actions.
const (
	ActionReload  Action = "reload"
	ActionConsole Action = "console"
	ActionStatus  Action = "status"
	ActionQuit    Action = "quit"
)

// ErrUnknownAction is returned by ParseAction for unrecognized input.
var ErrUnknownAction = errors.New("unknown action")

// ParseAction maps a command line to an Action. Single-letter shortcuts are
// accepted.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reload", "r":
		return ActionReload, nil
	case "console", "c", "toggle":
		return ActionConsole, nil
	case "status", "s":
		return ActionStatus, nil
	case "quit", "q", "exit":
		return ActionQuit, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Post is one entry of the post list.
type Post struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Votes  int    `json:"votes"`
	Author struct {
		ID        string `json:"id"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"author"`
}

// Option configures an App.
type Option func(*App)

// WithOutput sets where user-facing messages are printed. The default
// resolves os.Stdout on every write so console capture sees them.
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *App) { a.log = logging.OrNop(log) }
}

// App is the example host.
type App struct {
	kit   *devkit.Kit
	out   io.Writer
	log   *slog.Logger
	posts []Post
}

// New creates an App using kit's transport and cache.
func New(kit *devkit.Kit, opts ...Option) *App {
	a := &App{
		kit: kit,
		out: stdout{},
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type stdout struct{}

func (stdout) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

// Kit returns the kit the app runs on.
func (a *App) Kit() *devkit.Kit {
	return a.kit
}

// Start starts the debug server when the kit is instrumented, prints its
// URL and loads the post list. A debug server that cannot start only makes
// the URL unavailable, and a failed load is reported; neither stops the app.
func (a *App) Start(ctx context.Context) {
	if a.kit.Debug() {
		ep, err := a.kit.Start()
		if err != nil {
			a.log.Warn("debug server unavailable", "error", err)
			a.printf("Debug server unavailable: %v\n", err)
		} else {
			a.printf("Debug server running at %s\n", ep.URL())
		}
	}

	if _, err := a.LoadPosts(ctx); err != nil {
		a.printf("Failed to load posts: %v\n", err)
	}
}

// Stop stops the debug server.
func (a *App) Stop() error {
	return a.kit.Stop()
}

// LoadPosts runs ListPosts, normalizes the result into the cache and
// prints the list.
func (a *App) LoadPosts(ctx context.Context) ([]Post, error) {
	resp, err := a.kit.Transport().Send(ctx, &graphql.Request{
		Query:         ListPostsQuery,
		OperationName: "ListPosts",
	})
	if err != nil {
		return nil, err
	}
	if resp.HasErrors() {
		return nil, graphql.Errors(resp.Errors)
	}

	records, err := Normalize(resp.Data)
	if err != nil {
		return nil, err
	}
	if err := Merge(ctx, a.kit.Cache(), records); err != nil {
		return nil, err
	}

	var data struct {
		Posts []Post `json:"posts"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}
	a.posts = data.Posts
	a.log.Debug("loaded posts", "count", len(data.Posts), "records", len(records))

	for _, p := range data.Posts {
		a.printf("%-4s %-32s %3d votes  by %s %s\n", p.ID, p.Title, p.Votes, p.Author.FirstName, p.Author.LastName)
	}
	return data.Posts, nil
}

// Posts returns the last loaded post list.
func (a *App) Posts() []Post {
	return a.posts
}

// Handle performs one action. It reports true when the app should quit.
func (a *App) Handle(ctx context.Context, action Action) bool {
	switch action {
	case ActionReload:
		if _, err := a.LoadPosts(ctx); err != nil {
			a.printf("Failed to load posts: %v\n", err)
		}
	case ActionConsole:
		if !a.kit.Debug() {
			a.printf("Debugging is disabled\n")
			return false
		}
		if a.kit.ToggleConsoleRedirection() {
			a.printf("Console redirection enabled\n")
		} else {
			a.printf("Console redirection disabled\n")
		}
	case ActionStatus:
		a.printStatus()
	case ActionQuit:
		return true
	}
	return false
}

// Run handles actions until ctx is done, the channel closes or a quit
// action arrives.
func (a *App) Run(ctx context.Context, actions <-chan Action) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case action, ok := <-actions:
			if !ok || a.Handle(ctx, action) {
				return nil
			}
		}
	}
}

func (a *App) printStatus() {
	if url, ok := a.kit.ServerURL(); ok {
		a.printf("Debug server: %s\n", url)
	} else {
		a.printf("Debug server: not running\n")
	}
	a.printf("Console redirection: %t\n", a.kit.ConsoleRedirection())
	a.printf("Posts loaded: %d\n", len(a.posts))
	if store := a.kit.Activity(); store != nil {
		a.printf("Activity records: %d\n", store.Count())
	}
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}
