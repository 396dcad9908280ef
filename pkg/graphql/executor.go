package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// ResolverFunc produces the value of a root field. The result is projected
// onto the field's selection set, so resolvers may return whole objects
// (map[string]any or slices of them).
type ResolverFunc func(ctx context.Context, args map[string]any) (any, error)

// Executor runs operations against a fixed set of root resolvers without a
// schema. It is meant for demo and test backends.
type Executor struct {
	resolvers map[string]ResolverFunc
}

// NewExecutor creates an executor. Keys are "<opType>.<field>", for example
// "query.posts".
func NewExecutor(resolvers map[string]ResolverFunc) *Executor {
	return &Executor{resolvers: resolvers}
}

// Execute runs req. Parse and selection failures are reported as GraphQL
// errors in the response, never as a Go error; a failing resolver nulls its
// field and adds an error with the field's path.
func (e *Executor) Execute(ctx context.Context, req *Request) *Response {
	if req == nil || req.Query == "" {
		return errorResponse("empty query")
	}
	doc, err := parser.ParseQuery(&ast.Source{Name: "request", Input: req.Query})
	if err != nil {
		return errorResponse(err.Error())
	}
	op := selectOperation(doc.Operations, req.OperationName)
	if op == nil {
		return errorResponse("no operation selected")
	}

	opType := string(op.Operation)
	if opType == "" {
		opType = OperationQuery
	}

	result := make(map[string]any, len(op.SelectionSet))
	var errs []Error
	for _, sel := range op.SelectionSet {
		field, ok := sel.(*ast.Field)
		if !ok {
			continue
		}
		key := responseKey(field)
		if field.Name == "__typename" {
			result[key] = opType
			continue
		}

		resolver, ok := e.resolvers[opType+"."+field.Name]
		if !ok {
			errs = append(errs, Error{Message: fmt.Sprintf("no resolver for %s.%s", opType, field.Name), Path: []any{key}})
			result[key] = nil
			continue
		}
		value, err := resolver(ctx, arguments(field, req.Variables))
		if err != nil {
			errs = append(errs, Error{Message: err.Error(), Path: []any{key}})
			result[key] = nil
			continue
		}
		result[key] = project(value, field.SelectionSet)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return errorResponse(err.Error())
	}
	return &Response{Data: data, Errors: errs}
}

func errorResponse(msg string) *Response {
	return &Response{Errors: []Error{{Message: msg}}}
}

func responseKey(f *ast.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// project keeps only the selected fields of value. Lists are projected
// element-wise; scalars and leaf selections pass through.
func project(value any, selections ast.SelectionSet) any {
	if len(selections) == 0 || value == nil {
		return value
	}
	switch v := value.(type) {
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = project(item, selections)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = project(item, selections)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(selections))
		for _, sel := range selections {
			switch s := sel.(type) {
			case *ast.Field:
				out[responseKey(s)] = project(v[s.Name], s.SelectionSet)
			case *ast.InlineFragment:
				for k, val := range project(v, s.SelectionSet).(map[string]any) {
					out[k] = val
				}
			}
		}
		return out
	default:
		return value
	}
}

func arguments(field *ast.Field, vars map[string]any) map[string]any {
	args := make(map[string]any, len(field.Arguments))
	for _, arg := range field.Arguments {
		args[arg.Name] = argumentValue(arg.Value, vars)
	}
	return args
}

func argumentValue(value *ast.Value, vars map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case ast.Variable:
		return vars[value.Raw]
	case ast.IntValue:
		n, _ := strconv.ParseInt(value.Raw, 10, 64)
		return n
	case ast.FloatValue:
		f, _ := strconv.ParseFloat(value.Raw, 64)
		return f
	case ast.BooleanValue:
		return value.Raw == "true"
	case ast.NullValue:
		return nil
	case ast.ListValue:
		list := make([]any, 0, len(value.Children))
		for _, child := range value.Children {
			list = append(list, argumentValue(child.Value, vars))
		}
		return list
	case ast.ObjectValue:
		obj := make(map[string]any, len(value.Children))
		for _, child := range value.Children {
			obj[child.Name] = argumentValue(child.Value, vars)
		}
		return obj
	default:
		// strings, block strings and enums
		return value.Raw
	}
}
