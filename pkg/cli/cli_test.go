package cli

import (
	"bytes"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/gqldevkit/pkg/config"
)

func emptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gqldevkit.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "gqldevkit dev")
}

func TestConfig_Table(t *testing.T) {
	t.Setenv(config.EnvLogLevel, "debug")

	out, _, err := execute(t, "", "config", "--config", emptyConfig(t), "--port", "9000")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`debug\.port\s+9000\s+flag`), out)
	assert.Regexp(t, regexp.MustCompile(`log\.level\s+debug\s+env`), out)
	assert.Regexp(t, regexp.MustCompile(`endpoint\s+\(demo\)\s+default`), out)
}

func TestConfig_FileAndJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gqldevkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  maxEntries: 25\n"), 0o600))

	out, _, err := execute(t, "", "config", "--config", path, "-o", "json", "--allowed-origins", "http://a.test,http://b.test")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 25, cfg.Cache.MaxEntries)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Debug.AllowedOrigins)
	assert.Equal(t, config.DefaultDebugPort, cfg.Debug.Port)
}

func TestConfig_Errors(t *testing.T) {
	_, _, err := execute(t, "", "config", "--config", emptyConfig(t), "--port", "70000")
	assert.ErrorContains(t, err, "debug.port")

	_, _, err = execute(t, "", "config", "--config", emptyConfig(t), "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestServe_DemoBackend(t *testing.T) {
	out, _, err := execute(t, "status\nbogus\nreload\nquit\n",
		"serve", "--config", emptyConfig(t), "--host", "127.0.0.1", "--port", "0")
	require.NoError(t, err)

	assert.Contains(t, out, "Debug server running at http://127.0.0.1:")
	assert.Contains(t, out, "Introduction to GraphQL")
	assert.Contains(t, out, "Posts loaded: 3")
	assert.Contains(t, out, "Activity records: 1")
}

func TestServe_PortInUseKeepsServing(t *testing.T) {
	held, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer held.Close()
	port := strconv.Itoa(held.Addr().(*net.TCPAddr).Port)

	out, _, err := execute(t, "status\nquit\n",
		"serve", "--config", emptyConfig(t), "--host", "127.0.0.1", "--port", port)
	require.NoError(t, err)

	assert.Contains(t, out, "Debug server unavailable:")
	assert.Contains(t, out, "Debug server: not running")
	assert.Contains(t, out, "Posts loaded: 3")
}

func TestServe_LogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "gqldevkit.log")
	_, _, err := execute(t, "quit\n",
		"serve", "--config", emptyConfig(t), "--host", "127.0.0.1", "--port", "0", "--log-file", logPath)
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"debug server started"`)
}

func TestServe_ReleaseWiring(t *testing.T) {
	out, _, err := execute(t, "status\nq\n",
		"serve", "--config", emptyConfig(t), "--debug=false", "--cache-max-entries", "2")
	require.NoError(t, err)

	assert.NotContains(t, out, "Debug server running")
	assert.Contains(t, out, "Debug server: not running")
	assert.Contains(t, out, "Posts loaded: 3")
}

func TestServe_InvalidConfig(t *testing.T) {
	_, _, err := execute(t, "", "serve", "--config", emptyConfig(t), "--log-format", "xml")
	assert.ErrorContains(t, err, "log.format")
}
