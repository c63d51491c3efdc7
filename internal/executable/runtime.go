package executable

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"sync"

	executor "github.com/hanpama/gqlmodules/internal/executor"
	"github.com/hanpama/gqlmodules/internal/resolver"
	"github.com/vektah/gqlparser/v2/ast"
)

type fieldKey struct {
	typeName string
	field    string
}

type fieldResolvers struct {
	resolve   resolver.FieldResolver
	subscribe resolver.FieldResolver
}

// runtime dispatches executor callbacks to a merged resolver tree.
type runtime struct {
	schema        *ast.Schema
	fields        map[fieldKey]fieldResolvers
	typeResolvers map[string]resolver.FieldResolver
	scalars       map[string]*resolver.ScalarType
	defaultField  resolver.FieldResolver
	parseInputs   bool
}

var _ executor.Runtime = (*runtime)(nil)

func newRuntime(s *ast.Schema, tree resolver.Map, defaultField resolver.FieldResolver) *runtime {
	rt := &runtime{
		schema:        s,
		fields:        make(map[fieldKey]fieldResolvers),
		typeResolvers: make(map[string]resolver.FieldResolver),
		scalars:       make(map[string]*resolver.ScalarType),
		defaultField:  defaultField,
	}
	for typeName, r := range tree {
		switch r := r.(type) {
		case *resolver.ScalarType:
			rt.scalars[typeName] = r
			if r.ParseValue != nil {
				rt.parseInputs = true
			}
		case resolver.Map:
			for field, fr := range r {
				if field == resolver.KeyResolveType {
					if fn, ok := fr.(resolver.FieldResolver); ok {
						rt.typeResolvers[typeName] = fn
					}
					continue
				}
				if resolve, subscribe, ok := resolver.FieldConfig(fr); ok {
					rt.fields[fieldKey{typeName, field}] = fieldResolvers{resolve: resolve, subscribe: subscribe}
				}
			}
		}
	}
	return rt
}

// IsAsync reports whether the field has a resolve function. Fields served
// by the default resolver are projections of their source and stay
// synchronous.
func (rt *runtime) IsAsync(typeName, field string) bool {
	return rt.fields[fieldKey{typeName, field}].resolve != nil
}

func (rt *runtime) resolve(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	args, err := rt.parseArgs(objectType, field, args)
	if err != nil {
		return nil, err
	}
	ctx = resolver.WithInfo(ctx, resolver.Info{ParentType: objectType, FieldName: field})
	if fn := rt.fields[fieldKey{objectType, field}].resolve; fn != nil {
		return fn(ctx, source, args)
	}
	return rt.defaultField(ctx, source, args)
}

func (rt *runtime) ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	return rt.resolve(ctx, objectType, field, source, args)
}

// BatchResolveAsync runs the tasks of one depth concurrently.
func (rt *runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	if len(tasks) == 1 {
		v, err := rt.resolve(ctx, tasks[0].ObjectType, tasks[0].Field, tasks[0].Source, tasks[0].Args)
		results[0] = executor.AsyncResolveResult{Value: v, Error: err}
		return results
	}
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, t := range tasks {
		go func() {
			defer wg.Done()
			v, err := rt.resolve(ctx, t.ObjectType, t.Field, t.Source, t.Args)
			results[i] = executor.AsyncResolveResult{Value: v, Error: err}
		}()
	}
	wg.Wait()
	return results
}

func (rt *runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	if fn := rt.typeResolvers[abstractType]; fn != nil {
		ctx = resolver.WithInfo(ctx, resolver.Info{ParentType: abstractType, FieldName: resolver.KeyResolveType})
		v, err := fn(ctx, value, nil)
		if err != nil {
			return "", err
		}
		name, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("%s resolved type name of %T, want string", abstractType, v)
		}
		return name, nil
	}
	if m, ok := value.(map[string]any); ok {
		if name, ok := m["__typename"].(string); ok {
			return name, nil
		}
	}
	if t := reflect.TypeOf(value); t != nil {
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if rt.isPossibleType(abstractType, t.Name()) {
			return t.Name(), nil
		}
	}
	return "", fmt.Errorf("Abstract type %q must resolve to an Object type at runtime. Provide a %q resolver for it", abstractType, resolver.KeyResolveType)
}

func (rt *runtime) isPossibleType(abstractType, name string) bool {
	abstract := rt.schema.Types[abstractType]
	if name == "" || abstract == nil {
		return false
	}
	for _, t := range rt.schema.GetPossibleTypes(abstract) {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Subscribe calls the subscribe function of a root field. It accepts any
// receive channel as the source stream.
func (rt *runtime) Subscribe(ctx context.Context, objectType string, field string, source any, args map[string]any) (<-chan any, error) {
	fn := rt.fields[fieldKey{objectType, field}].subscribe
	if fn == nil {
		return nil, fmt.Errorf("Subscription field %s.%s has no %q resolver", objectType, field, resolver.KeySubscribe)
	}
	args, err := rt.parseArgs(objectType, field, args)
	if err != nil {
		return nil, err
	}
	ctx = resolver.WithInfo(ctx, resolver.Info{ParentType: objectType, FieldName: field})
	v, err := fn(ctx, source, args)
	if err != nil {
		return nil, err
	}
	switch ch := v.(type) {
	case <-chan any:
		return ch, nil
	case chan any:
		return ch, nil
	}
	cv := reflect.ValueOf(v)
	if cv.Kind() != reflect.Chan || cv.Type().ChanDir()&reflect.RecvDir == 0 {
		return nil, fmt.Errorf("Subscription field %s.%s must return a receive channel, got %T", objectType, field, v)
	}
	out := make(chan any)
	go func() {
		defer close(out)
		cases := []reflect.SelectCase{
			{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())},
			{Dir: reflect.SelectRecv, Chan: cv},
		}
		for {
			chosen, event, ok := reflect.Select(cases)
			if chosen == 0 || !ok {
				return
			}
			select {
			case out <- event.Interface():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (rt *runtime) SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error) {
	if s := rt.scalars[scalarOrEnumTypeName]; s != nil {
		if s.Serialize == nil {
			return value, nil
		}
		return s.Serialize(value)
	}
	switch scalarOrEnumTypeName {
	case "String":
		return serializeString(value)
	case "ID":
		return serializeID(value)
	case "Int":
		return serializeInt(value)
	case "Float":
		return serializeFloat(value)
	case "Boolean":
		return serializeBoolean(value)
	}
	if t := rt.schema.Types[scalarOrEnumTypeName]; t != nil && t.Kind == ast.Enum {
		return serializeEnum(t, value)
	}
	return value, nil
}

func serializeString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	}
	return nil, fmt.Errorf("String cannot represent value: %v", value)
}

func serializeID(value any) (any, error) {
	switch reflect.ValueOf(value).Kind() {
	case reflect.Float32, reflect.Float64, reflect.Bool:
		return nil, fmt.Errorf("ID cannot represent value: %v", value)
	}
	return serializeString(value)
}

func serializeInt(value any) (any, error) {
	rv := reflect.ValueOf(value)
	var n int64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt32 {
			return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %v", value)
		}
		n = int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %v", value)
		}
		if f > math.MaxInt32 || f < math.MinInt32 {
			return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %v", value)
		}
		n = int64(f)
	case reflect.Bool:
		if rv.Bool() {
			return 1, nil
		}
		return 0, nil
	default:
		return nil, fmt.Errorf("Int cannot represent non-integer value: %v", value)
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %v", value)
	}
	return int(n), nil
}

func serializeFloat(value any) (any, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("Float cannot represent non numeric value: %v", value)
		}
		return f, nil
	}
	return nil, fmt.Errorf("Float cannot represent non numeric value: %v", value)
}

func serializeBoolean(value any) (any, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0, nil
	}
	return nil, fmt.Errorf("Boolean cannot represent a non boolean value: %v", value)
}

func serializeEnum(t *ast.Definition, value any) (any, error) {
	s, err := serializeString(value)
	if err == nil && t.EnumValues.ForName(s.(string)) != nil {
		return s, nil
	}
	return nil, fmt.Errorf("Enum %q cannot represent value: %v", t.Name, value)
}

// parseArgs applies ParseValue of custom scalars to argument values.
func (rt *runtime) parseArgs(objectType, field string, args map[string]any) (map[string]any, error) {
	if !rt.parseInputs || len(args) == 0 {
		return args, nil
	}
	t := rt.schema.Types[objectType]
	if t == nil {
		return args, nil
	}
	f := t.Fields.ForName(field)
	if f == nil {
		return args, nil
	}
	var out map[string]any
	for _, arg := range f.Arguments {
		v, ok := args[arg.Name]
		if !ok {
			continue
		}
		parsed, err := rt.parseInput(v, arg.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", arg.Name, err)
		}
		if out == nil {
			out = make(map[string]any, len(args))
			for k, v := range args {
				out[k] = v
			}
		}
		out[arg.Name] = parsed
	}
	if out == nil {
		return args, nil
	}
	return out, nil
}

func (rt *runtime) parseInput(value any, typ *ast.Type) (any, error) {
	if value == nil {
		return nil, nil
	}
	if typ.Elem != nil {
		items, ok := value.([]any)
		if !ok {
			return rt.parseInput(value, typ.Elem)
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := rt.parseInput(item, typ.Elem)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	name := typ.NamedType
	if s := rt.scalars[name]; s != nil {
		if s.ParseValue == nil {
			return value, nil
		}
		return s.ParseValue(value)
	}
	t := rt.schema.Types[name]
	obj, ok := value.(map[string]any)
	if t == nil || t.Kind != ast.InputObject || !ok {
		return value, nil
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	for _, field := range t.Fields {
		v, ok := obj[field.Name]
		if !ok {
			continue
		}
		parsed, err := rt.parseInput(v, field.Type)
		if err != nil {
			return nil, err
		}
		out[field.Name] = parsed
	}
	return out, nil
}
