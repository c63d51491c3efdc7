package resolver

import "context"

// Info identifies the field a resolver is invoked for.
type Info struct {
	ParentType string
	FieldName  string
}

type infoKey struct{}

// WithInfo returns a copy of ctx carrying info.
func WithInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, infoKey{}, info)
}

// InfoFromContext returns the Info stored by the executing runtime.
func InfoFromContext(ctx context.Context) (Info, bool) {
	info, ok := ctx.Value(infoKey{}).(Info)
	return info, ok
}
