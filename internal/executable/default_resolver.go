package executable

import (
	"context"
	"reflect"
	"strings"

	"github.com/hanpama/gqlmodules/internal/resolver"
)

// DefaultFieldResolver resolves a field by reading the property of the same
// name from the source value:
//
//   - a map key,
//   - an exported struct field, matched by its json tag or case-insensitively
//     by name,
//   - an exported method taking no arguments and returning a value, or a
//     value and an error.
//
// Function values found in maps or struct fields are returned as they are.
func DefaultFieldResolver(ctx context.Context, source any, _ map[string]any) (any, error) {
	info, ok := resolver.InfoFromContext(ctx)
	if !ok {
		return nil, nil
	}
	return property(source, info.FieldName)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func property(source any, name string) (any, error) {
	if source == nil {
		return nil, nil
	}
	if m, ok := source.(map[string]any); ok {
		return m[name], nil
	}

	recv := reflect.ValueOf(source)
	v := recv
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String {
			if e := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key())); e.IsValid() {
				return e.Interface(), nil
			}
		}
		return nil, nil
	case reflect.Struct:
		if f, ok := structField(v, name); ok {
			return f.Interface(), nil
		}
	}
	if out, ok, err := callMethod(recv, name); ok {
		return out, err
	}
	return nil, nil
}

func structField(v reflect.Value, name string) (reflect.Value, bool) {
	var fallback []int
	for _, sf := range reflect.VisibleFields(v.Type()) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if tag == "-" {
			continue
		}
		if tag == name {
			return fieldByIndex(v, sf.Index)
		}
		if tag == "" && fallback == nil && strings.EqualFold(sf.Name, name) {
			fallback = sf.Index
		}
	}
	if fallback != nil {
		return fieldByIndex(v, fallback)
	}
	return reflect.Value{}, false
}

func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	f, err := v.FieldByIndexErr(index)
	if err != nil {
		// nil embedded pointer
		return reflect.Value{}, false
	}
	return f, true
}

func callMethod(v reflect.Value, name string) (any, bool, error) {
	t := v.Type()
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !strings.EqualFold(m.Name, name) {
			continue
		}
		ft := m.Type
		// receiver is the first input
		if ft.NumIn() != 1 {
			return nil, false, nil
		}
		switch {
		case ft.NumOut() == 1 && ft.Out(0) != errorType:
			out := v.Method(i).Call(nil)
			return out[0].Interface(), true, nil
		case ft.NumOut() == 2 && ft.Out(1) == errorType:
			out := v.Method(i).Call(nil)
			if err, _ := out[1].Interface().(error); err != nil {
				return nil, true, err
			}
			return out[0].Interface(), true, nil
		}
		return nil, false, nil
	}
	return nil, false, nil
}
