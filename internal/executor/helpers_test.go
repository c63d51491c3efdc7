package executor

import (
	"context"
	"fmt"
	"sync"
	"testing"

	language "github.com/hanpama/gqlmodules/internal/language"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
)

const testSDL = `
type Query {
  user(id: ID!): User
  users: [User!]
  viewer: User!
  node: Node
  search: [SearchResult]
  echo(input: Filter, tags: [String!], color: Color = RED): String
  version: String
}
type Mutation { first: String second: String! }
type Subscription { tick(every: Int): Int }
interface Node { id: ID! }
type User implements Node { id: ID! name: String! friends: [User] bio: String }
type Post implements Node { id: ID! title: String }
union SearchResult = User | Post
enum Color { RED GREEN }
input Filter { q: String! limit: Int = 10 }
input Pick @oneOf { a: String b: Int }
`

func mustSchema(t *testing.T, sdl string) *ast.Schema {
	t.Helper()
	doc, err := language.ParseSchemas(&ast.Source{Name: "test.graphql", Input: sdl})
	require.NoError(t, err)
	s, err := language.ValidateSchema(doc)
	require.NoError(t, err)
	return s
}

func mustQuery(t *testing.T, s *ast.Schema, query string) *ast.QueryDocument {
	t.Helper()
	doc, errs := language.LoadQuery(s, query)
	require.Empty(t, errs)
	return doc
}

type fieldFunc func(source any, args map[string]any) (any, error)

// stubRuntime resolves fields from per-field functions, falling back to a
// map lookup on the source. It records every resolution it performs.
type stubRuntime struct {
	async   map[string]bool
	fields  map[string]fieldFunc
	leaves  map[string]func(any) (any, error)
	streams map[string]func(ctx context.Context, args map[string]any) (<-chan any, error)

	mu      sync.Mutex
	calls   []string
	batches [][]string
}

var _ Runtime = (*stubRuntime)(nil)

func (r *stubRuntime) IsAsync(objectType, field string) bool {
	return r.async[objectType+"."+field]
}

func (r *stubRuntime) resolve(objectType, field string, source any, args map[string]any) (any, error) {
	key := objectType + "." + field
	r.mu.Lock()
	r.calls = append(r.calls, key)
	r.mu.Unlock()
	if fn := r.fields[key]; fn != nil {
		return fn(source, args)
	}
	if m, ok := source.(map[string]any); ok {
		return m[field], nil
	}
	return nil, nil
}

func (r *stubRuntime) ResolveSync(_ context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	return r.resolve(objectType, field, source, args)
}

func (r *stubRuntime) BatchResolveAsync(_ context.Context, tasks []AsyncResolveTask) []AsyncResolveResult {
	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.ObjectType + "." + t.Field
	}
	r.mu.Lock()
	r.batches = append(r.batches, names)
	r.mu.Unlock()

	results := make([]AsyncResolveResult, len(tasks))
	for i, t := range tasks {
		v, err := r.resolve(t.ObjectType, t.Field, t.Source, t.Args)
		results[i] = AsyncResolveResult{Value: v, Error: err}
	}
	return results
}

func (r *stubRuntime) ResolveType(_ context.Context, abstractType string, value any) (string, error) {
	if m, ok := value.(map[string]any); ok {
		if name, ok := m["__typename"].(string); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("cannot resolve %s for %T", abstractType, value)
}

func (r *stubRuntime) Subscribe(ctx context.Context, objectType, field string, _ any, args map[string]any) (<-chan any, error) {
	fn := r.streams[objectType+"."+field]
	if fn == nil {
		return nil, fmt.Errorf("no stream for %s.%s", objectType, field)
	}
	return fn(ctx, args)
}

func (r *stubRuntime) SerializeLeafValue(_ context.Context, typeName string, value any) (any, error) {
	if fn := r.leaves[typeName]; fn != nil {
		return fn(value)
	}
	return value, nil
}

func (r *stubRuntime) count(key string) int {
	n := 0
	for _, c := range r.calls {
		if c == key {
			n++
		}
	}
	return n
}

func execute(t *testing.T, rt Runtime, query string, vars map[string]any) *ExecutionResult {
	t.Helper()
	s := mustSchema(t, testSDL)
	return NewExecutor(rt, s).ExecuteRequest(context.Background(), mustQuery(t, s, query), "", vars, nil)
}

func value(v any) fieldFunc {
	return func(any, map[string]any) (any, error) { return v, nil }
}

func failing(msg string) fieldFunc {
	return func(any, map[string]any) (any, error) { return nil, fmt.Errorf("%s", msg) }
}
