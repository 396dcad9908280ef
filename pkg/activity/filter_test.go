package activity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/gqldevkit/pkg/graphql"
)

func TestCompileQuery(t *testing.T) {
	s := NewStore(10)
	a := s.Begin(&graphql.Request{Query: listPosts})
	b := s.Begin(&graphql.Request{Query: `query Me { viewer { id } }`})
	s.Complete(a, nil, nil)
	s.Complete(b, nil, errors.New("timeout"))

	tests := []struct {
		src  string
		want []uint64
	}{
		{`state == "failed"`, []uint64{2}},
		{`"posts" in fields`, []uint64{1}},
		{`operation == "Me" && error contains "time"`, []uint64{2}},
		{`opType == "query"`, []uint64{1, 2}},
		{`request contains "viewer"`, []uint64{2}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			q, err := CompileQuery(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.src, q.String())

			got, err := s.List(Filter{Query: q})
			require.NoError(t, err)
			assert.Equal(t, tt.want, sequences(got))
		})
	}
}

func TestCompileQuery_Invalid(t *testing.T) {
	for _, src := range []string{
		`unknownField == 1`,
		`sequence + 1`,
		`state ==`,
	} {
		_, err := CompileQuery(src)
		assert.Error(t, err, src)
	}
}

func TestState_Valid(t *testing.T) {
	assert.True(t, StatePending.Valid())
	assert.True(t, StateFailed.Valid())
	assert.False(t, State("running").Valid())
}
