package executor

import "context"

// Runtime connects the executor to the resolvers of a schema.
//
// Field identifiers are the parent object type name and the field name. The
// source is the parent value (the root value for root fields) and args are
// already coerced to Go values. Implementations must be safe for concurrent
// use by independent operations and must not mutate source or args.
//
// Errors returned by any method become located errors on the field being
// completed.
type Runtime interface {
	// IsAsync reports whether a field is resolved in the per-depth batch.
	// Root fields of a mutation are always resolved synchronously, in
	// document order, whatever IsAsync returns.
	IsAsync(objectType, field string) bool

	// ResolveSync resolves a field that is not async.
	ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error)

	// BatchResolveAsync resolves every async field discovered at one depth.
	// It is called once per depth with at least one task and must return
	// one result per task, in task order.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// ResolveType names the object type of a value of an interface or
	// union type.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// Subscribe opens the event stream of a subscription root field. Each
	// event becomes the root value of one execution of the operation. The
	// channel is closed by the runtime when the stream ends; sends stop once
	// ctx is done.
	Subscribe(ctx context.Context, objectType, field string, source any, args map[string]any) (<-chan any, error)

	// SerializeLeafValue turns a scalar or enum value into a JSON-safe Go
	// value.
	SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error)
}

// AsyncResolveTask is one async field of a batch.
type AsyncResolveTask struct {
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
}

// AsyncResolveResult is the outcome of one AsyncResolveTask. An error fails
// only its own field.
type AsyncResolveResult struct {
	Value any
	Error error
}
