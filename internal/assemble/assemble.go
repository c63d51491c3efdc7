// Package assemble turns a manifest into the type definitions and resolver
// trees of one executable schema.
//
// Fragments and resolvers are taken in manifest order. Resolver trees are
// emitted one per module and merged by the schema builder. Root types that
// are only ever extended get a placeholder declaration so that every
// "extend type" has a base.
package assemble

import (
	"context"
	"strings"
	"time"

	eventbus "github.com/hanpama/gqlmodules/internal/eventbus"
	events "github.com/hanpama/gqlmodules/internal/events"
	"github.com/hanpama/gqlmodules/internal/executable"
	"github.com/hanpama/gqlmodules/internal/manifest"
	"github.com/hanpama/gqlmodules/internal/resolver"
)

// RootTypes are the operation types a placeholder may be synthesized for,
// in preamble order.
var RootTypes = [...]string{"Query", "Mutation", "Subscription"}

// Definition is the builder input derived from a manifest. TypeDefs starts
// with the root type preamble.
type Definition struct {
	TypeDefs  []string
	Resolvers []resolver.Map
}

// Config returns d as schema builder input.
func (d Definition) Config() executable.Config {
	return executable.Config{TypeDefs: d.TypeDefs, Resolvers: d.Resolvers}
}

// FromManifest builds the executable schema described by m. opts are passed
// to the builder unchanged, and so is its result.
func FromManifest(m manifest.Manifest, opts ...executable.Option) (*executable.Schema, error) {
	return executable.Build(Assemble(m).Config(), opts...)
}

// Assemble derives the type definitions and resolver trees of m.
func Assemble(m manifest.Manifest) Definition {
	start := time.Now()
	fragments := TypeDefs(m)
	preamble := BaseSchema(fragments)
	trees := ResolverTrees(m)

	typeDefs := make([]string, 0, len(fragments)+1)
	typeDefs = append(typeDefs, preamble)
	typeDefs = append(typeDefs, fragments...)

	var synthesized []string
	for _, line := range strings.Split(preamble, "\n") {
		if name, ok := strings.CutPrefix(line, "type "); ok {
			synthesized = append(synthesized, name)
		}
	}
	eventbus.Publish(context.Background(), events.ManifestAssembled{
		Modules:     len(m.Modules),
		TypeDefs:    len(fragments),
		Resolvers:   len(trees),
		Synthesized: synthesized,
		Duration:    time.Since(start),
	})
	return Definition{TypeDefs: typeDefs, Resolvers: trees}
}

// TypeDefs returns the schema fragments of m in manifest order. Fragments
// that are blank after trimming are skipped; kept fragments are returned as
// written.
func TypeDefs(m manifest.Manifest) []string {
	var out []string
	for _, name := range m.Names() {
		if s := m.Modules[name].Schema; strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// ResolverTrees returns one resolver tree per module with a resolver, in
// manifest order.
func ResolverTrees(m manifest.Manifest) []resolver.Map {
	out := make([]resolver.Map, 0, len(m.Modules))
	for _, name := range m.Names() {
		if r := m.Modules[name].Resolver; present(r) {
			out = append(out, ResolverTree(name, r))
		}
	}
	return out
}

// ResolverTree nests r under the segments of the dotted name, so that
// "Query.user.profile" yields {Query: {user: {profile: r}}}. Under a
// Subscription root the leaf becomes {subscribe: r}, except for scalar
// types.
func ResolverTree(name string, r resolver.Resolver) resolver.Map {
	segments := strings.Split(name, ".")
	leaf := r
	if _, scalar := r.(*resolver.ScalarType); segments[0] == "Subscription" && !scalar {
		leaf = resolver.Map{resolver.KeySubscribe: r}
	}
	for i := len(segments) - 1; i > 0; i-- {
		leaf = resolver.Map{segments[i]: leaf}
	}
	return resolver.Map{segments[0]: leaf}
}

// BaseSchema returns one line per root type: "type X" when a fragment
// contains "extend type X", empty otherwise.
func BaseSchema(typeDefs []string) string {
	lines := make([]string, len(RootTypes))
	for i, name := range RootTypes {
		marker := "extend type " + name
		for _, td := range typeDefs {
			if strings.Contains(td, marker) {
				lines[i] = "type " + name
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

func present(r resolver.Resolver) bool {
	switch r := r.(type) {
	case resolver.FieldResolver:
		return r != nil
	case *resolver.ScalarType:
		return r != nil
	case resolver.Map:
		return r != nil
	}
	return false
}
