package executable

import (
	"github.com/hanpama/gqlmodules/internal/resolver"
	"go.uber.org/zap"
)

// Config is the input of Build: the type definitions and the resolver trees
// to merge over them.
type Config struct {
	TypeDefs  []string
	Resolvers []resolver.Map
}

// ValidationMode selects how a resolver validation check reports problems.
type ValidationMode string

const (
	ValidationError  ValidationMode = "error"
	ValidationWarn   ValidationMode = "warn"
	ValidationIgnore ValidationMode = "ignore"
)

// ResolverValidation configures the consistency checks between the merged
// resolver tree and the schema.
type ResolverValidation struct {
	// RequireResolversToMatchSchema reports resolvers registered for types or
	// fields the schema does not define, and resolvers of the wrong shape.
	RequireResolversToMatchSchema ValidationMode
	// RequireResolversForArgs reports fields with arguments and no resolver.
	RequireResolversForArgs ValidationMode
	// RequireResolversForNonScalar reports fields returning object, interface
	// or union types with no resolver.
	RequireResolversForNonScalar ValidationMode
}

// Options are the builder settings other than type definitions and
// resolvers.
type Options struct {
	// DefaultFieldResolver resolves fields without a registered resolver.
	DefaultFieldResolver resolver.FieldResolver

	ResolverValidation ResolverValidation

	// InheritResolversFromInterfaces lets object fields without a resolver use
	// the resolver registered for the same field on an implemented interface.
	InheritResolversFromInterfaces bool

	// RootValue is the initial value of every operation unless the request
	// carries its own.
	RootValue any

	Logger *zap.Logger
}

type Option func(*Options)

func WithDefaultFieldResolver(r resolver.FieldResolver) Option {
	return func(o *Options) { o.DefaultFieldResolver = r }
}
func WithResolverValidation(v ResolverValidation) Option {
	return func(o *Options) { o.ResolverValidation = v }
}
func WithInheritResolversFromInterfaces(enable bool) Option {
	return func(o *Options) { o.InheritResolversFromInterfaces = enable }
}
func WithRootValue(v any) Option           { return func(o *Options) { o.RootValue = v } }
func WithLogger(logger *zap.Logger) Option { return func(o *Options) { o.Logger = logger } }

func newOptions(opts []Option) Options {
	o := Options{
		DefaultFieldResolver: DefaultFieldResolver,
		ResolverValidation: ResolverValidation{
			RequireResolversToMatchSchema: ValidationError,
			RequireResolversForArgs:       ValidationIgnore,
			RequireResolversForNonScalar:  ValidationIgnore,
		},
		Logger: zap.NewNop(),
	}
	for _, f := range opts {
		f(&o)
	}
	if o.DefaultFieldResolver == nil {
		o.DefaultFieldResolver = DefaultFieldResolver
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	v := &o.ResolverValidation
	if v.RequireResolversToMatchSchema == "" {
		v.RequireResolversToMatchSchema = ValidationError
	}
	if v.RequireResolversForArgs == "" {
		v.RequireResolversForArgs = ValidationIgnore
	}
	if v.RequireResolversForNonScalar == "" {
		v.RequireResolversForNonScalar = ValidationIgnore
	}
	return o
}
