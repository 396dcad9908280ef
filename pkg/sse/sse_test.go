package sse

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name  string
		event string
		id    string
		data  any
		want  string
	}{
		{"data only", "", "", "hello", "data:hello\n\n"},
		{"named with id", "activity", "7", "x", "event:activity\nid:7\ndata:x\n\n"},
		{"multiline", "", "", "a\nb", "data:a\ndata:b\n\n"},
		{"json", "line", "", map[string]int{"n": 1}, "event:line\ndata:{\"n\":1}\n\n"},
		{"bytes", "", "", []byte("raw"), "data:raw\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatEvent(tt.event, tt.id, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatEvent_RejectsLineBreaks(t *testing.T) {
	_, err := FormatEvent("bad\nname", "", "x")
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = FormatEvent("", "1\r", "x")
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestFormatComment(t *testing.T) {
	assert.Equal(t, ":keepalive\n\n", FormatComment("keepalive"))
	assert.Equal(t, ":a\n:b\n\n", FormatComment("a\nb"))
}

func TestStream(t *testing.T) {
	rec := httptest.NewRecorder()

	s, err := NewStream(rec)
	require.NoError(t, err)
	require.NoError(t, s.Retry(2000))
	require.NoError(t, s.Event("activity", "1", "{}"))
	require.NoError(t, s.Comment("ping"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentTypeEventStream, rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "retry:2000\n\nevent:activity\nid:1\ndata:{}\n\n:ping\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}

type noFlush struct{ http.ResponseWriter }

func TestNewStream_RequiresFlusher(t *testing.T) {
	_, err := NewStream(noFlush{httptest.NewRecorder()})
	assert.ErrorIs(t, err, ErrFlusherNotSupported)
}
