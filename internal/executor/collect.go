package executor

import "github.com/vektah/gqlparser/v2/ast"

// fieldGroup holds the fields sharing one response key, in document order.
type fieldGroup struct {
	key    string
	fields []*ast.Field
}

// collect groups the fields of sel that apply to obj by response key,
// following fragments and honoring @skip and @include.
func (ex *execution) collect(obj *ast.Definition, sel ast.SelectionSet) []fieldGroup {
	var groups []fieldGroup
	index := make(map[string]int)
	visited := make(map[string]bool)

	var walk func(ast.SelectionSet)
	walk = func(sel ast.SelectionSet) {
		for _, s := range sel {
			switch s := s.(type) {
			case *ast.Field:
				if !ex.included(s.Directives) {
					continue
				}
				key := s.Alias
				if key == "" {
					key = s.Name
				}
				if i, ok := index[key]; ok {
					groups[i].fields = append(groups[i].fields, s)
					continue
				}
				index[key] = len(groups)
				groups = append(groups, fieldGroup{key: key, fields: []*ast.Field{s}})
			case *ast.InlineFragment:
				if ex.included(s.Directives) && ex.applies(s.TypeCondition, obj) {
					walk(s.SelectionSet)
				}
			case *ast.FragmentSpread:
				if visited[s.Name] || !ex.included(s.Directives) {
					continue
				}
				visited[s.Name] = true
				frag := ex.doc.Fragments.ForName(s.Name)
				if frag != nil && ex.applies(frag.TypeCondition, obj) {
					walk(frag.SelectionSet)
				}
			}
		}
	}
	walk(sel)
	return groups
}

func (ex *execution) included(dirs ast.DirectiveList) bool {
	if d := dirs.ForName("skip"); d != nil && ex.condition(d) {
		return false
	}
	if d := dirs.ForName("include"); d != nil && !ex.condition(d) {
		return false
	}
	return true
}

func (ex *execution) condition(d *ast.Directive) bool {
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return false
	}
	b, _ := valueFromAST(arg.Value, ex.vars).(bool)
	return b
}

func (ex *execution) applies(typeCondition string, obj *ast.Definition) bool {
	if typeCondition == "" || typeCondition == obj.Name {
		return true
	}
	cond := ex.schema.Types[typeCondition]
	return cond != nil && cond.Kind != ast.Object && ex.possible(cond, obj)
}
