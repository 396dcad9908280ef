package debugserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/gqldevkit/pkg/activity"
	"github.com/getmockd/gqldevkit/pkg/console"
	"github.com/getmockd/gqldevkit/pkg/graphql"
	"github.com/getmockd/gqldevkit/pkg/metrics"
	"github.com/getmockd/gqldevkit/pkg/normcache"
	"github.com/getmockd/gqldevkit/pkg/transport"
)

const listPosts = `query ListPosts { posts { id title } }`

type fixture struct {
	server    *Server
	url       string
	store     *activity.Store
	cache     *normcache.DebuggableCache
	transport *transport.DebuggableTransport
	capture   *console.Capture
	stdout    **os.File
}

func testConfig() Config {
	return Config{Host: "127.0.0.1", AdvertiseHost: "127.0.0.1", KeepAlive: time.Hour}
}

func newFixture(t *testing.T, base transport.NetworkTransport) *fixture {
	t.Helper()

	out, err := os.Create(filepath.Join(t.TempDir(), "stdout"))
	require.NoError(t, err)
	t.Cleanup(func() { out.Close() })
	stdout := &out

	m := metrics.New()
	capture := console.New(console.WithTargets(stdout, nil), console.WithMetrics(m))
	t.Cleanup(func() { _ = capture.Close() })

	store := activity.NewStore(100, activity.WithMetrics(m))
	cache := normcache.NewDebuggableCache(normcache.NewMemoryCache(), m)
	if base == nil {
		base = transport.Func(func(ctx context.Context, req *graphql.Request) (*graphql.Response, error) {
			return &graphql.Response{Data: json.RawMessage(`{"posts":[{"id":"1","title":"Hello"},{"id":"2","title":"World"}]}`)}, nil
		})
	}

	s := New(testConfig(), cache, store, WithConsole(capture), WithMetrics(m))
	ep, err := s.Start(0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	return &fixture{
		server:    s,
		url:       ep.URL(),
		store:     store,
		cache:     cache,
		transport: transport.NewDebuggableTransport(base, store),
		capture:   capture,
		stdout:    stdout,
	}
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type sseEvent struct {
	name string
	data string
}

type sseReader struct {
	resp *http.Response
	r    *bufio.Reader
}

func openSSE(t *testing.T, url string) *sseReader {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	t.Cleanup(func() { resp.Body.Close() })
	return &sseReader{resp: resp, r: bufio.NewReader(resp.Body)}
}

// next returns the next event, skipping comments.
func (s *sseReader) next() (sseEvent, error) {
	var ev sseEvent
	var data []string
	for {
		line, err := s.r.ReadString('\n')
		if err != nil {
			return ev, err
		}
		line = strings.TrimSuffix(line, "\n")
		switch {
		case line == "":
			if ev.name == "" && len(data) == 0 {
				continue
			}
			ev.data = strings.Join(data, "\n")
			return ev, nil
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(line, "data:"))
		}
	}
}

func (s *sseReader) mustNext(t *testing.T) sseEvent {
	t.Helper()
	type result struct {
		ev  sseEvent
		err error
	}
	ch := make(chan result, 1)
	go func() {
		ev, err := s.next()
		ch <- result{ev, err}
	}()
	select {
	case res := <-ch:
		require.NoError(t, res.err)
		return res.ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return sseEvent{}
	}
}

func TestServer_StartStopStart(t *testing.T) {
	s := New(testConfig(), nil, nil)

	url, ok := s.ServerURL()
	assert.False(t, ok)
	assert.Empty(t, url)
	assert.Nil(t, s.Endpoint())

	ep, err := s.Start(0)
	require.NoError(t, err)
	assert.NotZero(t, ep.Port)
	assert.Equal(t, "127.0.0.1", ep.Host)

	url, ok = s.ServerURL()
	require.True(t, ok)
	assert.Equal(t, ep.URL(), url)
	assert.Equal(t, http.StatusOK, getJSON(t, url+"/health", nil))

	_, err = s.Start(0)
	assert.ErrorIs(t, err, ErrAlreadyStarted)

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
	assert.False(t, s.Started())
	_, ok = s.ServerURL()
	assert.False(t, ok)

	ep2, err := s.Start(ep.Port)
	require.NoError(t, err)
	assert.Equal(t, ep.Port, ep2.Port)
	assert.Equal(t, http.StatusOK, getJSON(t, ep2.URL()+"/health", nil))
	require.NoError(t, s.Stop())
}

func TestServer_StopWithoutStart(t *testing.T) {
	assert.NoError(t, New(testConfig(), nil, nil).Stop())
}

func TestServer_BindError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	s := New(testConfig(), nil, nil)
	_, err = s.Start(port)

	var bindErr *BindError
	require.True(t, errors.As(err, &bindErr))
	assert.Equal(t, port, bindErr.Port)
	assert.NotNil(t, bindErr.Unwrap())
	assert.False(t, s.Started())
	assert.Nil(t, s.Endpoint())
}

func TestServer_InvalidPort(t *testing.T) {
	s := New(testConfig(), nil, nil)
	_, err := s.Start(70000)

	var bindErr *BindError
	require.True(t, errors.As(err, &bindErr))
	assert.ErrorIs(t, err, ErrInvalidPort)
	assert.False(t, s.Started())
}

func TestServer_ListPostsScenario(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	resp, err := f.transport.Send(ctx, &graphql.Request{Query: listPosts, OperationName: "ListPosts"})
	require.NoError(t, err)
	require.NoError(t, f.cache.Write(ctx, "1", normcache.Record{"id": "1", "title": "Hello"}))
	require.NoError(t, f.cache.Write(ctx, "2", normcache.Record{"id": "2", "title": "World"}))
	require.NoError(t, f.cache.Write(ctx, normcache.RootKey, normcache.Record{
		"posts": []any{normcache.Ref("1"), normcache.Ref("2")},
	}))
	assert.JSONEq(t, `{"posts":[{"id":"1","title":"Hello"},{"id":"2","title":"World"}]}`, string(resp.Data))

	var list activityListResponse
	require.Equal(t, http.StatusOK, getJSON(t, f.url+"/api/activity", &list))
	require.Len(t, list.Records, 1)
	rec := list.Records[0]
	assert.Equal(t, activity.StateSucceeded, rec.State)
	require.NotNil(t, rec.Operation)
	assert.Equal(t, "ListPosts", rec.Operation.Name)
	assert.Equal(t, []string{"posts"}, rec.Operation.RootFields)

	var one activity.Record
	require.Equal(t, http.StatusOK, getJSON(t, f.url+"/api/activity/"+rec.ID, &one))
	assert.Equal(t, rec.ID, one.ID)

	var cache cacheResponse
	require.Equal(t, http.StatusOK, getJSON(t, f.url+"/api/cache", &cache))
	assert.Equal(t, 3, cache.Count)
	assert.Equal(t, "Hello", cache.Records["1"]["title"])
	require.NotNil(t, cache.Stats)
	assert.Equal(t, uint64(3), cache.Stats.Writes)

	var titles cachePathResponse
	require.Equal(t, http.StatusOK, getJSON(t, f.url+"/api/cache?path=$.*.title", &titles))
	assert.ElementsMatch(t, []any{"Hello", "World"}, titles.Results)

	var record map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, f.url+"/api/cache/2", &record))
	assert.Equal(t, "2", record["key"])

	assert.Equal(t, http.StatusNotFound, getJSON(t, f.url+"/api/cache/nope", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, f.url+"/api/activity/nope", nil))

	// Inspecting the cache does not count as cache reads.
	assert.Equal(t, uint64(0), f.cache.Stats().Reads)
}

func TestServer_ActivityQueryValidation(t *testing.T) {
	f := newFixture(t, nil)

	for _, q := range []string{"since=-1", "limit=x", "state=running", "filter=nosuch%20%3D%3D%201"} {
		assert.Equal(t, http.StatusBadRequest, getJSON(t, f.url+"/api/activity?"+q, nil), q)
	}
	assert.Equal(t, http.StatusBadRequest, getJSON(t, f.url+"/api/cache?path=$[", nil))
}

func TestServer_ActivityFilters(t *testing.T) {
	boom := errors.New("boom")
	fail := false
	base := transport.Func(func(ctx context.Context, req *graphql.Request) (*graphql.Response, error) {
		if fail {
			return nil, boom
		}
		return &graphql.Response{}, nil
	})
	f := newFixture(t, base)
	ctx := context.Background()

	_, _ = f.transport.Send(ctx, &graphql.Request{Query: listPosts})
	fail = true
	_, err := f.transport.Send(ctx, &graphql.Request{Query: `query Me { viewer { id } }`})
	assert.Same(t, boom, err)

	var list activityListResponse
	require.Equal(t, http.StatusOK, getJSON(t, f.url+"/api/activity?state=failed", &list))
	require.Len(t, list.Records, 1)
	assert.Equal(t, "boom", list.Records[0].Error)
	assert.Equal(t, 2, list.Total)

	require.Equal(t, http.StatusOK, getJSON(t, f.url+"/api/activity?filter="+`operation%20%3D%3D%20%22ListPosts%22`, &list))
	require.Len(t, list.Records, 1)
	assert.Equal(t, uint64(1), list.Records[0].Sequence)

	require.Equal(t, http.StatusOK, getJSON(t, f.url+"/api/activity?since=1", &list))
	require.Len(t, list.Records, 1)
	assert.Equal(t, uint64(2), list.Records[0].Sequence)
}

func TestServer_ActivityStream(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.transport.Send(ctx, &graphql.Request{Query: listPosts})
	require.NoError(t, err)

	stream := openSSE(t, f.url+"/api/activity/stream")
	assert.Equal(t, "connected", stream.mustNext(t).name)

	var ev activity.Event
	replayed := stream.mustNext(t)
	assert.Equal(t, "activity", replayed.name)
	require.NoError(t, json.Unmarshal([]byte(replayed.data), &ev))
	assert.Equal(t, activity.EventCompleted, ev.Type)
	assert.Equal(t, uint64(1), ev.Record.Sequence)

	_, err = f.transport.Send(ctx, &graphql.Request{Query: listPosts})
	require.NoError(t, err)

	require.NoError(t, json.Unmarshal([]byte(stream.mustNext(t).data), &ev))
	assert.Equal(t, activity.EventStarted, ev.Type)
	assert.Equal(t, uint64(2), ev.Record.Sequence)

	require.NoError(t, json.Unmarshal([]byte(stream.mustNext(t).data), &ev))
	assert.Equal(t, activity.EventCompleted, ev.Type)
	assert.Equal(t, uint64(2), ev.Record.Sequence)
}

func TestServer_StopEndsStreams(t *testing.T) {
	f := newFixture(t, nil)

	activityStream := openSSE(t, f.url+"/api/activity/stream")
	consoleStream := openSSE(t, f.url+"/api/console/stream")
	activityStream.mustNext(t)
	consoleStream.mustNext(t)

	done := make(chan error, 1)
	go func() { done <- f.server.Stop() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return while streams were open")
	}

	// Both bodies end instead of blocking forever.
	for _, s := range []*sseReader{activityStream, consoleStream} {
		_, _ = io.ReadAll(s.r)
	}
}

func TestServer_Console(t *testing.T) {
	f := newFixture(t, nil)

	var state consoleResponse
	require.Equal(t, http.StatusOK, getJSON(t, f.url+"/api/console", &state))
	assert.False(t, state.Enabled)
	assert.Empty(t, state.Lines)

	f.server.SetConsoleRedirection(true)
	f.server.SetConsoleRedirection(true)
	assert.True(t, f.server.ConsoleRedirection())

	_, err := (*f.stdout).WriteString("loaded 2 posts\n")
	require.NoError(t, err)

	f.server.SetConsoleRedirection(false)
	f.server.SetConsoleRedirection(true)

	require.Equal(t, http.StatusOK, getJSON(t, f.url+"/api/console", &state))
	assert.True(t, state.Enabled)
	assert.Equal(t, uint64(2), state.Window)
	require.Len(t, state.Lines, 1)
	assert.Equal(t, "loaded 2 posts", state.Lines[0].Text)

	f.server.SetConsoleRedirection(false)
	require.Equal(t, http.StatusOK, getJSON(t, f.url+"/api/console", &state))
	assert.False(t, state.Enabled)
	assert.Empty(t, state.Lines)
}

func TestServer_ConsoleStream(t *testing.T) {
	f := newFixture(t, nil)
	f.server.SetConsoleRedirection(true)

	stream := openSSE(t, f.url+"/api/console/stream")
	assert.Equal(t, "connected", stream.mustNext(t).name)

	_, err := (*f.stdout).WriteString("first\nsecond\n")
	require.NoError(t, err)

	var line console.Line
	ev := stream.mustNext(t)
	assert.Equal(t, "line", ev.name)
	require.NoError(t, json.Unmarshal([]byte(ev.data), &line))
	assert.Equal(t, "first", line.Text)
	assert.Equal(t, uint64(1), line.Sequence)

	require.NoError(t, json.Unmarshal([]byte(stream.mustNext(t).data), &line))
	assert.Equal(t, "second", line.Text)
	assert.Equal(t, uint64(2), line.Sequence)
}

func TestServer_IndexAndMetrics(t *testing.T) {
	f := newFixture(t, nil)

	var index indexResponse
	require.Equal(t, http.StatusOK, getJSON(t, f.url+"/", &index))
	assert.Equal(t, "gqldevkit", index.Name)
	assert.Equal(t, f.url, index.URL)
	assert.True(t, index.Metrics)
	assert.NotEmpty(t, index.Routes)

	getJSON(t, f.url+"/health", nil)

	// Requests are counted after the response is written.
	assert.Eventually(t, func() bool {
		resp, err := http.Get(f.url + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		return err == nil && strings.Contains(string(body), `gqldevkit_http_requests_total{code="200",route="GET /health"} 1`)
	}, 5*time.Second, 20*time.Millisecond)
}

func TestServer_CORS(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"http://localhost:3000"}
	s := New(cfg, nil, nil)
	ep, err := s.Start(0)
	require.NoError(t, err)
	defer s.Stop()

	preflight := func(origin string) *http.Response {
		req, err := http.NewRequest(http.MethodOptions, ep.URL()+"/api/activity", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", "GET")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	ok := preflight("http://localhost:3000")
	assert.Equal(t, http.StatusNoContent, ok.StatusCode)
	assert.Equal(t, "http://localhost:3000", ok.Header.Get("Access-Control-Allow-Origin"))

	denied := preflight("http://evil.example")
	assert.Equal(t, http.StatusForbidden, denied.StatusCode)
	assert.Empty(t, denied.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_UnavailableResources(t *testing.T) {
	s := New(testConfig(), nil, nil)
	ep, err := s.Start(0)
	require.NoError(t, err)
	defer s.Stop()

	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ep.URL()+"/api/cache", nil))
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ep.URL()+"/api/activity", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, ep.URL()+"/metrics", nil))
}
