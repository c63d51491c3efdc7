// Package executable builds an executable schema from type definition
// strings and resolver trees, and executes operations against it.
package executable

import (
	"context"
	"fmt"
	"time"

	eventbus "github.com/hanpama/gqlmodules/internal/eventbus"
	events "github.com/hanpama/gqlmodules/internal/events"
	executor "github.com/hanpama/gqlmodules/internal/executor"
	language "github.com/hanpama/gqlmodules/internal/language"
	"github.com/hanpama/gqlmodules/internal/resolver"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"
)

// Build parses cfg.TypeDefs, validates the combined type system, merges
// cfg.Resolvers and checks them against it. Parse and validation failures
// are returned as gqlparser errors, resolver mismatches as *ResolverError.
func Build(cfg Config, opts ...Option) (s *Schema, err error) {
	o := newOptions(opts)
	start := time.Now()
	defer func() {
		built := events.SchemaBuilt{Err: err, Duration: time.Since(start)}
		if s != nil {
			built.Types = len(s.ast.Types)
		}
		eventbus.Publish(context.Background(), built)
	}()

	sources := make([]*language.Source, len(cfg.TypeDefs))
	for i, td := range cfg.TypeDefs {
		sources[i] = &language.Source{Name: fmt.Sprintf("typeDefs[%d]", i), Input: td}
	}
	doc, err := language.ParseSchemas(sources...)
	if err != nil {
		return nil, err
	}
	dropPlaceholders(doc)
	validated, err := language.ValidateSchema(doc)
	if err != nil {
		return nil, err
	}

	tree := resolver.Merge(cfg.Resolvers...)
	found := checkResolvers(validated, tree, o.ResolverValidation)
	for _, w := range found.warnings {
		o.Logger.Warn("resolver does not match schema", zap.String("problem", w))
		eventbus.Publish(context.Background(), events.ResolverMismatch{Message: w})
	}
	if len(found.errors) > 0 {
		return nil, &ResolverError{Violations: found.errors}
	}
	if o.InheritResolversFromInterfaces {
		inheritResolvers(validated, tree)
	}

	rt := newRuntime(validated, tree, o.DefaultFieldResolver)

	o.Logger.Debug("schema built",
		zap.Int("typeDefs", len(cfg.TypeDefs)),
		zap.Int("resolverTrees", len(cfg.Resolvers)),
		zap.Int("types", len(validated.Types)),
		zap.Duration("duration", time.Since(start)),
	)
	return &Schema{
		ast:       validated,
		exec:      executor.NewExecutor(rt, validated),
		rootValue: o.RootValue,
		logger:    o.Logger,
	}, nil
}

// dropPlaceholders removes bodiless object declarations ("type Query") that
// duplicate another declaration of the same name, keeping the first one
// when every declaration is a placeholder.
func dropPlaceholders(doc *language.SchemaDocument) {
	full := make(map[string]bool)
	for _, def := range doc.Definitions {
		if !isPlaceholder(def) {
			full[def.Name] = true
		}
	}
	kept := doc.Definitions[:0]
	seen := make(map[string]bool)
	for _, def := range doc.Definitions {
		if isPlaceholder(def) {
			if full[def.Name] || seen[def.Name] {
				continue
			}
			seen[def.Name] = true
		}
		kept = append(kept, def)
	}
	doc.Definitions = kept
}

func isPlaceholder(def *ast.Definition) bool {
	return def.Kind == ast.Object && len(def.Fields) == 0 && len(def.Interfaces) == 0 && len(def.Directives) == 0
}
