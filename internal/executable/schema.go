package executable

import (
	"context"
	"time"

	eventbus "github.com/hanpama/gqlmodules/internal/eventbus"
	events "github.com/hanpama/gqlmodules/internal/events"
	executor "github.com/hanpama/gqlmodules/internal/executor"
	language "github.com/hanpama/gqlmodules/internal/language"
	reqid "github.com/hanpama/gqlmodules/internal/reqid"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.uber.org/zap"
)

// Schema is an executable schema. It is immutable and safe for concurrent
// use.
type Schema struct {
	ast       *ast.Schema
	exec      *executor.Executor
	rootValue any
	logger    *zap.Logger
}

// Request is a GraphQL request. RootValue overrides the schema's root value
// when not nil.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	RootValue     any            `json:"-"`
}

// SDL renders the merged type system.
func (s *Schema) SDL() string { return language.FormatSchema(s.ast) }

// AST returns the validated type system.
func (s *Schema) AST() *ast.Schema { return s.ast }

func (s *Schema) root(req Request) any {
	if req.RootValue != nil {
		return req.RootValue
	}
	return s.rootValue
}

// Execute validates and runs a query or mutation. Validation failures are
// reported in the result with no data.
func (s *Schema) Execute(ctx context.Context, req Request) *executor.ExecutionResult {
	ctx, rid := reqid.Ensure(ctx)
	doc, errs := language.LoadQuery(s.ast, req.Query)
	if len(errs) > 0 {
		s.logger.Debug("query rejected", zap.String("rid", rid), zap.Int("errors", len(errs)))
		return &executor.ExecutionResult{Errors: fromGQLErrors(errs)}
	}
	opType := operationType(doc, req.OperationName)

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	result := s.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables, s.root(req))
	errList := make([]error, len(result.Errors))
	for i := range result.Errors {
		errList[i] = result.Errors[i]
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        errList,
		Duration:      time.Since(start),
	})
	return result
}

// Subscribe validates a subscription and starts it. Every event of the
// source stream yields one result. The returned channel is closed when the
// source stream ends or ctx is done.
//
// Unlike Execute, which reports failures in the result, Subscribe returns
// them as the error: a gqlerror.List when the document does not validate,
// a plain error when the operation cannot start.
func (s *Schema) Subscribe(ctx context.Context, req Request) (<-chan *executor.ExecutionResult, error) {
	ctx, rid := reqid.Ensure(ctx)
	doc, errs := language.LoadQuery(s.ast, req.Query)
	if len(errs) > 0 {
		return nil, errs
	}
	stream, err := s.exec.Subscribe(ctx, doc, req.OperationName, req.Variables, s.root(req))
	if err != nil {
		return nil, err
	}
	field := rootFieldName(doc, req.OperationName)
	s.logger.Debug("subscription started", zap.String("rid", rid), zap.String("field", field))

	start := time.Now()
	eventbus.Publish(ctx, events.SubscriptionStart{Query: req.Query, OperationName: req.OperationName, Field: field})
	out := make(chan *executor.ExecutionResult)
	go func() {
		defer close(out)
		n := 0
		defer func() {
			eventbus.Publish(ctx, events.SubscriptionFinish{
				Query:         req.Query,
				OperationName: req.OperationName,
				Field:         field,
				Events:        n,
				Duration:      time.Since(start),
			})
		}()
		for res := range stream {
			select {
			case out <- res:
				n++
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func selectOperation(doc *language.QueryDocument, name string) *language.OperationDefinition {
	op := doc.Operations.ForName(name)
	if op == nil && len(doc.Operations) == 1 {
		op = doc.Operations[0]
	}
	return op
}

func operationType(doc *language.QueryDocument, name string) string {
	if op := selectOperation(doc, name); op != nil {
		return string(op.Operation)
	}
	return ""
}

func rootFieldName(doc *language.QueryDocument, name string) string {
	op := selectOperation(doc, name)
	if op == nil {
		return ""
	}
	for _, sel := range op.SelectionSet {
		if f, ok := sel.(*language.Field); ok {
			return f.Name
		}
	}
	return ""
}

func fromGQLErrors(list gqlerror.List) []executor.GraphQLError {
	out := make([]executor.GraphQLError, len(list))
	for i, e := range list {
		ge := executor.GraphQLError{Message: e.Message, Extensions: e.Extensions}
		for _, loc := range e.Locations {
			ge.Locations = append(ge.Locations, executor.Location{Line: loc.Line, Column: loc.Column})
		}
		out[i] = ge
	}
	return out
}
