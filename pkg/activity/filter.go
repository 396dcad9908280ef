package activity

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Filter narrows a List call. The zero value matches everything.
type Filter struct {
	// Since keeps records whose Sequence is greater than Since.
	Since uint64

	// Limit caps the result to the first Limit matches. Callers page forward
	// by passing the last Sequence they saw as Since.
	Limit int

	// State keeps records in this state.
	State State

	// Operation keeps records whose operation name matches, case-insensitively.
	Operation string

	// Query is an optional compiled expression; see CompileQuery.
	Query *Query
}

// Matches reports whether rec passes every criterion except Limit.
func (f Filter) Matches(rec *Record) (bool, error) {
	if rec.Sequence <= f.Since {
		return false, nil
	}
	if f.State != "" && rec.State != f.State {
		return false, nil
	}
	if f.Operation != "" && (rec.Operation == nil || !strings.EqualFold(rec.Operation.Name, f.Operation)) {
		return false, nil
	}
	if f.Query != nil {
		return f.Query.Match(rec)
	}
	return true, nil
}

func (f Filter) apply(records []*Record) ([]*Record, error) {
	result := make([]*Record, 0, len(records))
	for _, rec := range records {
		ok, err := f.Matches(rec)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		result = append(result, rec)
		if f.Limit > 0 && len(result) == f.Limit {
			break
		}
	}
	return result, nil
}

// queryEnv is the set of names visible to a query expression.
type queryEnv struct {
	ID         string   `expr:"id"`
	Sequence   uint64   `expr:"sequence"`
	State      string   `expr:"state"`
	Operation  string   `expr:"operation"`
	Type       string   `expr:"opType"`
	Fields     []string `expr:"fields"`
	Request    string   `expr:"request"`
	Response   string   `expr:"response"`
	Error      string   `expr:"error"`
	DurationMs int64    `expr:"durationMs"`
}

func newQueryEnv(rec *Record) queryEnv {
	env := queryEnv{
		ID:         rec.ID,
		Sequence:   rec.Sequence,
		State:      string(rec.State),
		Request:    string(rec.Request),
		Response:   string(rec.Response),
		Error:      rec.Error,
		DurationMs: rec.DurationMs,
	}
	if rec.Operation != nil {
		env.Operation = rec.Operation.Name
		env.Type = rec.Operation.Type
		env.Fields = rec.Operation.RootFields
	}
	return env
}

// Query is a compiled boolean expression over a record, for example
//
//	state == "failed" && "posts" in fields
//	durationMs > 250 || request contains "ListPosts"
type Query struct {
	src     string
	program *vm.Program
}

// CompileQuery compiles src. Unknown names and non-boolean results are
// rejected at compile time.
func CompileQuery(src string) (*Query, error) {
	program, err := expr.Compile(src, expr.Env(queryEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	return &Query{src: src, program: program}, nil
}

// String returns the source expression.
func (q *Query) String() string {
	return q.src
}

// Match evaluates the query against rec.
func (q *Query) Match(rec *Record) (bool, error) {
	out, err := expr.Run(q.program, newQueryEnv(rec))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", q.src, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}
