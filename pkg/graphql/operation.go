package graphql

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Operation types.
const (
	OperationQuery        = "query"
	OperationMutation     = "mutation"
	OperationSubscription = "subscription"
)

// Operation describes the operation a request executes. It is derived from
// the query text alone; no schema is needed.
type Operation struct {
	// Type is query, mutation or subscription.
	Type string `json:"type"`
	// Name is the operation name; empty for anonymous operations.
	Name string `json:"name,omitempty"`
	// RootFields are the top-level selections, by response key.
	RootFields []string `json:"rootFields,omitempty"`
}

// DescribeOperation parses req.Query and returns the operation selected by
// req.OperationName. A document holding a single operation is selected even
// when no name is given.
func DescribeOperation(req *Request) (*Operation, error) {
	if req == nil || req.Query == "" {
		return nil, fmt.Errorf("empty query")
	}

	doc, err := parser.ParseQuery(&ast.Source{Name: "request", Input: req.Query})
	if err != nil {
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}

	op := selectOperation(doc.Operations, req.OperationName)
	if op == nil {
		if req.OperationName != "" {
			return nil, fmt.Errorf("operation %q not found in document", req.OperationName)
		}
		return nil, fmt.Errorf("document holds %d operations and no operationName was given", len(doc.Operations))
	}

	desc := &Operation{
		Type: string(op.Operation),
		Name: op.Name,
	}
	if desc.Type == "" {
		desc.Type = OperationQuery
	}
	for _, sel := range op.SelectionSet {
		field, ok := sel.(*ast.Field)
		if !ok {
			continue
		}
		key := field.Alias
		if key == "" {
			key = field.Name
		}
		desc.RootFields = append(desc.RootFields, key)
	}
	return desc, nil
}

func selectOperation(ops ast.OperationList, name string) *ast.OperationDefinition {
	if name == "" {
		if len(ops) == 1 {
			return ops[0]
		}
		return nil
	}
	for _, op := range ops {
		if op.Name == name {
			return op
		}
	}
	return nil
}
