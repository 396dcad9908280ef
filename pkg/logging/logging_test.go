package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"Debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"Warning", LevelWarn},
		{"error", LevelError},
		{" error ", LevelError},
		{"", LevelInfo},
		{"trace", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat(""))
	assert.Equal(t, FormatText, ParseFormat("yaml"))
}

func TestNew_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelDebug, Format: FormatJSON, Output: &buf, Component: "debugserver"})

	log.Debug("listening", "port", 8081)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "listening", rec["msg"])
	assert.Equal(t, "debugserver", rec["component"])
	assert.EqualValues(t, 8081, rec["port"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelWarn, Output: &buf})

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_MirrorReceivesJSON(t *testing.T) {
	var out, mirror bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatText, Output: &out, Mirror: &mirror})

	log.With("request", "r1").Info("sent")

	assert.Contains(t, out.String(), "msg=sent")
	line := strings.TrimSpace(mirror.String())
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	assert.Equal(t, "r1", rec["request"])
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Error("dropped")
	assert.Same(t, log, OrNop(log))
	assert.NotNil(t, OrNop(nil))
}
