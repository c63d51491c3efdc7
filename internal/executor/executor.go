package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
)

// Executor runs operations of validated documents against a schema.
type Executor struct {
	runtime Runtime
	schema  *ast.Schema
}

func NewExecutor(runtime Runtime, schema *ast.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

// request is an operation ready to run: the operation is selected, its root
// type found and its variables coerced.
type request struct {
	runtime Runtime
	schema  *ast.Schema
	doc     *ast.QueryDocument
	op      *ast.OperationDefinition
	root    *ast.Definition
	vars    map[string]any
}

func (e *Executor) prepare(doc *ast.QueryDocument, operationName string, variables map[string]any) (*request, error) {
	op, err := selectOperation(doc, operationName)
	if err != nil {
		return nil, err
	}
	var root *ast.Definition
	switch op.Operation {
	case ast.Query, "":
		root = e.schema.Query
	case ast.Mutation:
		root = e.schema.Mutation
	case ast.Subscription:
		root = e.schema.Subscription
	}
	if root == nil {
		return nil, fmt.Errorf("schema does not support %s operations", op.Operation)
	}
	vars, err := coerceVariableValues(e.schema, op, variables)
	if err != nil {
		return nil, err
	}
	return &request{runtime: e.runtime, schema: e.schema, doc: doc, op: op, root: root, vars: vars}, nil
}

func selectOperation(doc *ast.QueryDocument, name string) (*ast.OperationDefinition, error) {
	if name != "" {
		if op := doc.Operations.ForName(name); op != nil {
			return op, nil
		}
		return nil, fmt.Errorf("unknown operation %q", name)
	}
	switch len(doc.Operations) {
	case 0:
		return nil, errors.New("document contains no operation")
	case 1:
		return doc.Operations[0], nil
	}
	return nil, errors.New("operation name is required when the document contains several operations")
}

// ExecuteRequest runs a query or mutation with rootValue as the source of
// its root fields. Request errors are reported in the result with no data.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	doc *ast.QueryDocument,
	operationName string,
	variables map[string]any,
	rootValue any,
) *ExecutionResult {
	req, err := e.prepare(doc, operationName, variables)
	if err != nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: err.Error()}}}
	}
	return req.execute(ctx, rootValue)
}

// Subscribe opens the source stream of the operation's single root field and
// executes the operation once per event, with the event as root value. The
// returned channel is closed when the source stream ends or ctx is done.
func (e *Executor) Subscribe(
	ctx context.Context,
	doc *ast.QueryDocument,
	operationName string,
	variables map[string]any,
	rootValue any,
) (<-chan *ExecutionResult, error) {
	req, err := e.prepare(doc, operationName, variables)
	if err != nil {
		return nil, err
	}
	if req.op.Operation != ast.Subscription {
		return nil, fmt.Errorf("operation %q is a %s, not a subscription", req.op.Name, req.op.Operation)
	}
	groups := req.start(ctx).collect(req.root, req.op.SelectionSet)
	if len(groups) != 1 {
		return nil, fmt.Errorf("subscription must select exactly one root field, got %d", len(groups))
	}
	field := groups[0].fields[0]
	def := req.root.Fields.ForName(field.Name)
	if def == nil {
		return nil, fmt.Errorf("Cannot query field %q on type %q", field.Name, req.root.Name)
	}
	args, err := coerceArgumentValues(req.schema, def, field.Arguments, req.vars)
	if err != nil {
		return nil, err
	}
	source, err := e.runtime.Subscribe(ctx, req.root.Name, field.Name, rootValue, args)
	if err != nil {
		return nil, err
	}

	out := make(chan *ExecutionResult)
	go func() {
		defer close(out)
		for {
			var event any
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-source:
				if !ok {
					return
				}
				event = ev
			}
			select {
			case out <- req.execute(ctx, event):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
