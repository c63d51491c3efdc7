// Package gqlmodules builds an executable GraphQL schema from a manifest of
// modules. Every module is keyed by a dotted path such as "Query.user" and
// may contribute a schema fragment, a resolver, or both.
//
//	s, err := gqlmodules.FromManifest(gqlmodules.Manifest{Modules: map[string]gqlmodules.Module{
//		"Query.ping": {
//			Schema:   "extend type Query { ping: String }",
//			Resolver: gqlmodules.Value("pong"),
//		},
//	}})
//	res := s.Execute(ctx, gqlmodules.Request{Query: "{ ping }"})
package gqlmodules

import (
	"github.com/hanpama/gqlmodules/internal/assemble"
	"github.com/hanpama/gqlmodules/internal/executable"
	"github.com/hanpama/gqlmodules/internal/executor"
	"github.com/hanpama/gqlmodules/internal/manifest"
	"github.com/hanpama/gqlmodules/internal/resolver"
)

type (
	Manifest = manifest.Manifest
	Module   = manifest.Module

	Resolver      = resolver.Resolver
	FieldResolver = resolver.FieldResolver
	ScalarType    = resolver.ScalarType
	ResolverMap   = resolver.Map
	Info          = resolver.Info

	Schema             = executable.Schema
	Request            = executable.Request
	Config             = executable.Config
	Option             = executable.Option
	ValidationMode     = executable.ValidationMode
	ResolverValidation = executable.ResolverValidation
	ResolverError      = executable.ResolverError

	Result = executor.ExecutionResult
	Error  = executor.GraphQLError
)

const (
	ValidationError  = executable.ValidationError
	ValidationWarn   = executable.ValidationWarn
	ValidationIgnore = executable.ValidationIgnore
)

var (
	WithDefaultFieldResolver           = executable.WithDefaultFieldResolver
	WithResolverValidation             = executable.WithResolverValidation
	WithInheritResolversFromInterfaces = executable.WithInheritResolversFromInterfaces
	WithRootValue                      = executable.WithRootValue
	WithLogger                         = executable.WithLogger

	DefaultFieldResolver = executable.DefaultFieldResolver
	Value                = resolver.Value
	InfoFromContext      = resolver.InfoFromContext
)

// FromManifest builds the executable schema described by m.
func FromManifest(m Manifest, opts ...Option) (*Schema, error) {
	return assemble.FromManifest(m, opts...)
}

// Build builds an executable schema from type definitions and resolver
// trees directly.
func Build(cfg Config, opts ...Option) (*Schema, error) {
	return executable.Build(cfg, opts...)
}

// LoadManifest reads a TOML manifest file.
func LoadManifest(path string) (Manifest, error) { return manifest.Load(path) }
