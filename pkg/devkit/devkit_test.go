package devkit

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/gqldevkit/pkg/console"
	"github.com/getmockd/gqldevkit/pkg/debugserver"
	"github.com/getmockd/gqldevkit/pkg/graphql"
	"github.com/getmockd/gqldevkit/pkg/normcache"
	"github.com/getmockd/gqldevkit/pkg/transport"
)

var okTransport = transport.Func(func(ctx context.Context, req *graphql.Request) (*graphql.Response, error) {
	return &graphql.Response{}, nil
})

func testTargets(t *testing.T) (**os.File, **os.File) {
	t.Helper()
	dir := t.TempDir()
	out, err := os.Create(filepath.Join(dir, "out"))
	require.NoError(t, err)
	errf, err := os.Create(filepath.Join(dir, "err"))
	require.NoError(t, err)
	t.Cleanup(func() {
		out.Close()
		errf.Close()
	})
	return &out, &errf
}

func TestNew_ReleaseWiring(t *testing.T) {
	cache := normcache.NewMemoryCache()
	k := New(Config{Debug: false}, okTransport, cache)

	assert.False(t, k.Debug())
	assert.Nil(t, k.Server())
	assert.Nil(t, k.Activity())
	assert.Nil(t, k.Metrics())
	assert.Same(t, cache, k.Cache())

	_, err := k.Start()
	assert.ErrorIs(t, err, ErrDebugDisabled)
	assert.NoError(t, k.Stop())

	_, ok := k.ServerURL()
	assert.False(t, ok)
	assert.False(t, k.ToggleConsoleRedirection())
}

func TestNew_DebugWiring(t *testing.T) {
	stdout, stderr := testTargets(t)
	cache := normcache.NewMemoryCache()
	k := New(Config{
		Debug:  true,
		Port:   0,
		Server: debugserver.Config{Host: "127.0.0.1", AdvertiseHost: "127.0.0.1"},
	}, okTransport, cache, WithConsoleOptions(console.WithTargets(stdout, stderr)))

	require.True(t, k.Debug())
	assert.IsType(t, &transport.DebuggableTransport{}, k.Transport())
	assert.IsType(t, &normcache.DebuggableCache{}, k.Cache())
	require.NotNil(t, k.Activity())

	_, err := k.Transport().Send(context.Background(), &graphql.Request{Query: `{ posts { id } }`})
	require.NoError(t, err)
	assert.Equal(t, 1, k.Activity().Count())

	ep, err := k.Start()
	require.NoError(t, err)
	t.Cleanup(func() { _ = k.Stop() })

	url, ok := k.ServerURL()
	require.True(t, ok)
	assert.Equal(t, ep.URL(), url)

	resp, err := http.Get(url + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.True(t, k.ToggleConsoleRedirection())
	assert.True(t, k.ConsoleRedirection())
	assert.False(t, k.ToggleConsoleRedirection())

	require.NoError(t, k.Stop())
	_, ok = k.ServerURL()
	assert.False(t, ok)
}

func TestKit_StartAppliesConsoleRedirection(t *testing.T) {
	stdout, stderr := testTargets(t)
	k := New(Config{
		Debug:              true,
		Server:             debugserver.Config{Host: "127.0.0.1"},
		ConsoleRedirection: true,
	}, okTransport, normcache.NewMemoryCache(), WithConsoleOptions(console.WithTargets(stdout, stderr)))

	_, err := k.Start()
	require.NoError(t, err)
	assert.True(t, k.ConsoleRedirection())

	require.NoError(t, k.Stop())
	assert.False(t, k.ConsoleRedirection())
}
