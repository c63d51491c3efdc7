package language

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

// FormatSchema renders the user-defined part of s as SDL. Built-in types and
// directives and the introspection meta fields are left out. Types are
// ordered by name.
func FormatSchema(s *Schema) string {
	if s == nil {
		return ""
	}
	out := *s
	out.Types = make(map[string]*ast.Definition, len(s.Types))
	for name, def := range s.Types {
		if def.BuiltIn || strings.HasPrefix(name, "__") {
			continue
		}
		d := *def
		d.Fields = nil
		for _, f := range def.Fields {
			if !strings.HasPrefix(f.Name, "__") {
				d.Fields = append(d.Fields, f)
			}
		}
		out.Types[name] = &d
	}
	out.Directives = make(map[string]*ast.DirectiveDefinition, len(s.Directives))
	for name, dir := range s.Directives {
		if dir.Position != nil && dir.Position.Src != nil && dir.Position.Src.BuiltIn {
			continue
		}
		out.Directives[name] = dir
	}

	var b strings.Builder
	formatter.NewFormatter(&b, formatter.WithIndent("  ")).FormatSchema(&out)
	return strings.TrimSpace(b.String()) + "\n"
}
