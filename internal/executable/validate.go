package executable

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hanpama/gqlmodules/internal/resolver"
	"github.com/vektah/gqlparser/v2/ast"
)

// ResolverError reports resolvers that do not match the schema. Error joins
// the violations with newlines.
type ResolverError struct {
	Violations []string
}

func (e *ResolverError) Error() string { return strings.Join(e.Violations, "\n") }

type violations struct {
	errors   []string
	warnings []string
}

func (v *violations) add(mode ValidationMode, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	switch mode {
	case ValidationError:
		v.errors = append(v.errors, msg)
	case ValidationWarn:
		v.warnings = append(v.warnings, msg)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// checkResolvers compares the merged resolver tree with the validated
// schema.
func checkResolvers(s *ast.Schema, tree resolver.Map, cfg ResolverValidation) violations {
	var v violations
	if mode := cfg.RequireResolversToMatchSchema; mode != ValidationIgnore {
		checkMatch(&v, mode, s, tree)
	}
	if cfg.RequireResolversForArgs == ValidationIgnore && cfg.RequireResolversForNonScalar == ValidationIgnore {
		return v
	}
	for _, typeName := range sortedKeys(s.Types) {
		def := s.Types[typeName]
		if def.Kind != ast.Object || def.BuiltIn || strings.HasPrefix(typeName, "__") {
			continue
		}
		fields, _ := tree[typeName].(resolver.Map)
		for _, fd := range def.Fields {
			if strings.HasPrefix(fd.Name, "__") {
				continue
			}
			if _, ok := fields[fd.Name]; ok {
				continue
			}
			if len(fd.Arguments) > 0 {
				v.add(cfg.RequireResolversForArgs, "Resolver missing for %q", typeName+"."+fd.Name)
				continue
			}
			if ret := s.Types[fd.Type.Name()]; ret != nil && isComposite(ret.Kind) {
				v.add(cfg.RequireResolversForNonScalar, "Resolver missing for %q", typeName+"."+fd.Name)
			}
		}
	}
	return v
}

func isComposite(kind ast.DefinitionKind) bool {
	return kind == ast.Object || kind == ast.Interface || kind == ast.Union
}

func checkMatch(v *violations, mode ValidationMode, s *ast.Schema, tree resolver.Map) {
	for _, typeName := range sortedKeys(tree) {
		def := s.Types[typeName]
		if def == nil {
			v.add(mode, "%q defined in resolvers, but not in schema", typeName)
			continue
		}
		switch r := tree[typeName].(type) {
		case *resolver.ScalarType:
			if def.Kind != ast.Scalar {
				v.add(mode, "%q defined in resolvers as a scalar type, but is %s in schema", typeName, def.Kind)
			}
		case resolver.Map:
			checkTypeMap(v, mode, def, r)
		default:
			v.add(mode, "%q resolver must be a map or a scalar type, got %T", typeName, r)
		}
	}
}

func checkTypeMap(v *violations, mode ValidationMode, def *ast.Definition, m resolver.Map) {
	switch def.Kind {
	case ast.Object, ast.Interface, ast.Union:
	default:
		v.add(mode, "%q defined in resolvers as a map, but is %s in schema", def.Name, def.Kind)
		return
	}
	for _, name := range sortedKeys(m) {
		r := m[name]
		if name == resolver.KeyResolveType {
			if def.Kind == ast.Object {
				v.add(mode, "%s.%s defined in resolvers, but %q is an object type", def.Name, name, def.Name)
			} else if _, ok := r.(resolver.FieldResolver); !ok {
				v.add(mode, "%s.%s must be a function", def.Name, name)
			}
			continue
		}
		if def.Kind == ast.Union || def.Fields.ForName(name) == nil {
			v.add(mode, "%s.%s defined in resolvers, but not in schema", def.Name, name)
			continue
		}
		switch r := r.(type) {
		case resolver.FieldResolver:
		case resolver.Map:
			for _, key := range sortedKeys(r) {
				if key != resolver.KeyResolve && key != resolver.KeySubscribe {
					v.add(mode, "%s.%s.%s defined in resolvers, but is not a field config key", def.Name, name, key)
				} else if _, ok := r[key].(resolver.FieldResolver); !ok {
					v.add(mode, "%s.%s.%s must be a function", def.Name, name, key)
				}
			}
		default:
			v.add(mode, "%s.%s resolver must be a function or a field config, got %T", def.Name, name, r)
		}
	}
}

// inheritResolvers copies interface field resolvers to implementing object
// fields that have none. tree is modified in place.
func inheritResolvers(s *ast.Schema, tree resolver.Map) {
	for _, typeName := range sortedKeys(s.Types) {
		def := s.Types[typeName]
		if def.Kind != ast.Object || len(def.Interfaces) == 0 {
			continue
		}
		fields, ok := tree[typeName].(resolver.Map)
		if !ok && tree[typeName] != nil {
			continue
		}
		for _, iface := range def.Interfaces {
			ifaceFields, ok := tree[iface].(resolver.Map)
			if !ok {
				continue
			}
			for _, name := range sortedKeys(ifaceFields) {
				if name == resolver.KeyResolveType || def.Fields.ForName(name) == nil {
					continue
				}
				if _, ok := fields[name]; ok {
					continue
				}
				if fields == nil {
					fields = resolver.Map{}
					tree[typeName] = fields
				}
				fields[name] = ifaceFields[name]
			}
		}
	}
}
