package executor

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// execution is one run of a request. Synchronous fields are completed depth
// first as they are reached; asynchronous fields are queued and resolved with
// one BatchResolveAsync call per round.
type execution struct {
	*request
	ctx    context.Context
	data   any
	errs   []GraphQLError
	queue  []*pending
	pruned []Path
}

// slot is a position in the response a value is written to.
type slot struct {
	path Path
	set  func(any)
	// up is the slot a null lands in when this position is Non-Null.
	up *slot
}

// landing returns the slot that becomes null when a value of type t at s
// cannot be produced.
func (s *slot) landing(t *ast.Type) *slot {
	if t.NonNull {
		return s.up
	}
	return s
}

type pending struct {
	task   AsyncResolveTask
	typ    *ast.Type
	fields []*ast.Field
	at     *slot
}

func (r *request) start(ctx context.Context) *execution {
	return &execution{request: r, ctx: ctx}
}

func (r *request) execute(ctx context.Context, rootValue any) *ExecutionResult {
	ex := r.start(ctx)
	root := &slot{set: func(v any) { ex.data = v }}
	ex.object(r.root, r.op.SelectionSet, rootValue, root, root)
	for len(ex.queue) > 0 {
		ex.flush()
	}
	return &ExecutionResult{Data: ex.data, Errors: ex.errs}
}

// flush resolves the queued fields. Fields they reach are queued for the
// next round.
func (ex *execution) flush() {
	batch := make([]*pending, 0, len(ex.queue))
	for _, p := range ex.queue {
		if !ex.isPruned(p.at.path) {
			batch = append(batch, p)
		}
	}
	ex.queue = nil
	if len(batch) == 0 {
		return
	}

	tasks := make([]AsyncResolveTask, len(batch))
	for i, p := range batch {
		tasks[i] = p.task
	}
	results := ex.runtime.BatchResolveAsync(ex.ctx, tasks)

	for i, p := range batch {
		if ex.isPruned(p.at.path) {
			continue
		}
		switch {
		case i >= len(results):
			ex.fail(p.at, p.typ, fmt.Errorf("runtime returned %d results for %d tasks", len(results), len(tasks)))
		case results[i].Error != nil:
			ex.fail(p.at, p.typ, results[i].Error)
		default:
			ex.complete(p.typ, p.fields, results[i].Value, p.at)
		}
	}
}

// object writes the selected fields of source as def into at. Non-Null
// failures of its fields land in bubble.
func (ex *execution) object(def *ast.Definition, sel ast.SelectionSet, source any, at, bubble *slot) {
	out := make(map[string]any)
	at.set(out)
	serial := ex.op.Operation == ast.Mutation && len(at.path) == 0
	for _, g := range ex.collect(def, sel) {
		key := g.key
		fs := &slot{path: at.path.with(key), set: func(v any) { out[key] = v }, up: bubble}
		ex.field(def, g.fields, source, fs, serial)
		if ex.isPruned(at.path) {
			return
		}
	}
}

func (ex *execution) field(parent *ast.Definition, fields []*ast.Field, source any, at *slot, serial bool) {
	f := fields[0]
	if f.Name == "__typename" {
		at.set(parent.Name)
		return
	}
	def := parent.Fields.ForName(f.Name)
	if def == nil {
		ex.addError(at.path, fmt.Sprintf("Cannot query field %q on type %q", f.Name, parent.Name))
		return
	}
	if strings.HasPrefix(def.Name, "__") {
		ex.addError(at.path, fmt.Sprintf("introspection field %s is not supported", def.Name))
		return
	}
	args, err := coerceArgumentValues(ex.schema, def, f.Arguments, ex.vars)
	if err != nil {
		ex.fail(at, def.Type, err)
		return
	}
	if !serial && ex.runtime.IsAsync(parent.Name, f.Name) {
		ex.queue = append(ex.queue, &pending{
			task:   AsyncResolveTask{ObjectType: parent.Name, Field: f.Name, Source: source, Args: args},
			typ:    def.Type,
			fields: fields,
			at:     at,
		})
		return
	}
	v, err := ex.runtime.ResolveSync(ex.ctx, parent.Name, f.Name, source, args)
	if err != nil {
		ex.fail(at, def.Type, err)
		return
	}
	ex.complete(def.Type, fields, v, at)
}

func (ex *execution) complete(t *ast.Type, fields []*ast.Field, v any, at *slot) {
	if isNull(v) {
		if t.NonNull {
			ex.addError(at.path, fmt.Sprintf("Cannot return null for non-nullable field %s", at.path))
			ex.null(at.up)
			return
		}
		at.set(nil)
		return
	}
	if t.Elem != nil {
		ex.list(t, fields, v, at)
		return
	}

	def := ex.schema.Types[t.NamedType]
	if def == nil {
		ex.fail(at, t, fmt.Errorf("unknown type %s", t.NamedType))
		return
	}
	switch def.Kind {
	case ast.Scalar, ast.Enum:
		out, err := ex.runtime.SerializeLeafValue(ex.ctx, def.Name, v)
		if err != nil {
			ex.fail(at, t, err)
			return
		}
		if isNull(out) {
			ex.complete(t, fields, nil, at)
			return
		}
		at.set(out)
	case ast.Object:
		ex.object(def, subSelection(fields), v, at, at.landing(t))
	case ast.Interface, ast.Union:
		obj, err := ex.resolveType(def, v)
		if err != nil {
			ex.fail(at, t, err)
			return
		}
		ex.object(obj, subSelection(fields), v, at, at.landing(t))
	default:
		ex.fail(at, t, fmt.Errorf("%s is not an output type", def.Name))
	}
}

func (ex *execution) list(t *ast.Type, fields []*ast.Field, v any, at *slot) {
	items, ok := v.([]any)
	if !ok {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			ex.fail(at, t, fmt.Errorf("expected a list for %s, got %T", at.path, v))
			return
		}
		items = make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
	}
	out := make([]any, len(items))
	at.set(out)
	bubble := at.landing(t)
	for i, item := range items {
		is := &slot{path: at.path.with(i), set: func(v any) { out[i] = v }, up: bubble}
		ex.complete(t.Elem, fields, item, is)
		if ex.isPruned(at.path) {
			return
		}
	}
}

func (ex *execution) resolveType(abstract *ast.Definition, v any) (*ast.Definition, error) {
	name, err := ex.runtime.ResolveType(ex.ctx, abstract.Name, v)
	if err != nil {
		return nil, err
	}
	obj := ex.schema.Types[name]
	if obj == nil || obj.Kind != ast.Object || !ex.possible(abstract, obj) {
		return nil, fmt.Errorf("abstract type %s resolved to %q, which is not one of its possible types", abstract.Name, name)
	}
	return obj, nil
}

func (ex *execution) possible(abstract, obj *ast.Definition) bool {
	for _, d := range ex.schema.GetPossibleTypes(abstract) {
		if d.Name == obj.Name {
			return true
		}
	}
	return false
}

// fail records err at s and nulls the position it lands in.
func (ex *execution) fail(at *slot, t *ast.Type, err error) {
	ex.addError(at.path, err.Error())
	ex.null(at.landing(t))
}

// null writes null into s and drops any work queued below it.
func (ex *execution) null(s *slot) {
	s.set(nil)
	ex.pruned = append(ex.pruned, s.path)
}

func (ex *execution) isPruned(p Path) bool {
	for _, q := range ex.pruned {
		if p.hasPrefix(q) {
			return true
		}
	}
	return false
}

func (ex *execution) addError(path Path, msg string) {
	ex.errs = append(ex.errs, GraphQLError{Message: msg, Path: append(Path(nil), path...)})
}

func subSelection(fields []*ast.Field) ast.SelectionSet {
	if len(fields) == 1 {
		return fields[0].SelectionSet
	}
	var sel ast.SelectionSet
	for _, f := range fields {
		sel = append(sel, f.SelectionSet...)
	}
	return sel
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
