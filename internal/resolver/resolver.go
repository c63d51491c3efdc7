// Package resolver defines the values a module can register at a dotted
// type or field path.
//
// A Resolver is one of three cases:
//
//   - FieldResolver: a function producing a field value.
//   - *ScalarType: the runtime behaviour of a custom scalar.
//   - Map: a nested map from type or field names to resolvers. A map stored
//     at a field is a field config and may carry the "resolve" and
//     "subscribe" keys; a map stored at an interface or union may carry
//     "__resolveType".
package resolver

import "context"

// Well-known field config keys.
const (
	KeyResolve     = "resolve"
	KeySubscribe   = "subscribe"
	KeyResolveType = "__resolveType"
)

// Resolver is the closed set of values accepted in a resolver tree.
type Resolver interface {
	isResolver()
}

// FieldResolver produces the value of a field from its parent value and
// coerced arguments. On the Subscription root, when stored under
// KeySubscribe, it returns the source stream as a receive channel.
type FieldResolver func(ctx context.Context, source any, args map[string]any) (any, error)

// ScalarType describes a custom scalar. Serialize converts an internal value
// to its output form; ParseValue converts an input value to the internal
// form. Either may be nil, in which case values pass through unchanged.
type ScalarType struct {
	Name        string
	Description string
	Serialize   func(value any) (any, error)
	ParseValue  func(value any) (any, error)
}

// Map is a nested resolver map.
type Map map[string]Resolver

func (FieldResolver) isResolver() {}
func (*ScalarType) isResolver()   {}
func (Map) isResolver()           {}

// Value returns a FieldResolver that always yields v.
func Value(v any) FieldResolver {
	return func(context.Context, any, map[string]any) (any, error) { return v, nil }
}

// Lookup returns the resolver stored under the given path.
func (m Map) Lookup(path ...string) (Resolver, bool) {
	var cur Resolver = m
	for _, seg := range path {
		next, ok := cur.(Map)
		if !ok {
			return nil, false
		}
		cur, ok = next[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// Merge deep-merges trees into a new Map. Maps present under the same key
// are merged recursively; otherwise the later tree wins. Inputs are not
// modified.
func Merge(trees ...Map) Map {
	out := Map{}
	for _, t := range trees {
		mergeInto(out, t)
	}
	return out
}

func mergeInto(dst, src Map) {
	for k, v := range src {
		srcMap, srcIsMap := v.(Map)
		if !srcIsMap {
			dst[k] = v
			continue
		}
		dstMap, dstIsMap := dst[k].(Map)
		if !dstIsMap {
			dstMap = Map{}
			dst[k] = dstMap
		}
		mergeInto(dstMap, srcMap)
	}
}

// FieldConfig splits the resolver stored at a field into its resolve and
// subscribe functions. ok is false when r is neither a FieldResolver nor a
// Map carrying one of the field config keys.
func FieldConfig(r Resolver) (resolve, subscribe FieldResolver, ok bool) {
	switch r := r.(type) {
	case FieldResolver:
		return r, nil, r != nil
	case Map:
		resolve, _ = r[KeyResolve].(FieldResolver)
		subscribe, _ = r[KeySubscribe].(FieldResolver)
		return resolve, subscribe, resolve != nil || subscribe != nil
	}
	return nil, nil, false
}

// IsFieldConfig reports whether m only holds field config keys.
func IsFieldConfig(m Map) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		switch k {
		case KeyResolve, KeySubscribe:
		default:
			return false
		}
	}
	return true
}
