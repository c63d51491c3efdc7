package executor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// coerceVariableValues coerces the provided variables against the variable
// definitions of operation. Unset variables with a default take the default;
// unset nullable variables stay unset.
func coerceVariableValues(
	s *ast.Schema,
	operation *ast.OperationDefinition,
	variableValues map[string]any,
) (map[string]any, error) {
	coerced := make(map[string]any)
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		t := varDef.Type
		val, ok := lookupVariable(variableValues, name)
		if !ok {
			if varDef.DefaultValue != nil {
				val = valueFromAST(varDef.DefaultValue, nil)
			} else if t.NonNull {
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, t.String())
			} else {
				continue
			}
		}
		if val == nil && t.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s cannot be null", name, t.String())
		}
		cv, err := coerceValue(s, val, t)
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s cannot be coerced: %v", name, t.String(), err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

func lookupVariable(values map[string]any, name string) (any, bool) {
	if v, ok := values[name]; ok {
		return v, true
	}
	v, ok := values[strings.TrimPrefix(name, "$")]
	return v, ok
}

// coerceArgumentValues coerces the arguments of one field. Arguments bound to
// unset variables fall back to their default.
func coerceArgumentValues(
	s *ast.Schema,
	fieldDef *ast.FieldDefinition,
	arguments ast.ArgumentList,
	variableValues map[string]any,
) (map[string]any, error) {
	coerced := make(map[string]any, len(fieldDef.Arguments))
	for _, argDef := range fieldDef.Arguments {
		name := argDef.Name
		val, ok := any(nil), false
		if arg := arguments.ForName(name); arg != nil {
			if arg.Value.Kind == ast.Variable {
				val, ok = lookupVariable(variableValues, arg.Value.Raw)
			} else {
				val, ok = valueFromAST(arg.Value, variableValues), true
			}
		}
		if !ok {
			if argDef.DefaultValue == nil {
				if argDef.Type.NonNull {
					return nil, fmt.Errorf("argument %q of required type %s was not provided", name, argDef.Type)
				}
				continue
			}
			val = valueFromAST(argDef.DefaultValue, nil)
		}
		cv, err := coerceValue(s, val, argDef.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %q cannot be coerced: %w", name, err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// valueFromAST converts a literal to a Go value, substituting variables at
// any depth. Variables missing from vars become nil.
func valueFromAST(value *ast.Value, vars map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case ast.Variable:
		v, _ := lookupVariable(vars, value.Raw)
		return v
	case ast.IntValue:
		iv, _ := strconv.Atoi(value.Raw)
		return iv
	case ast.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case ast.StringValue, ast.BlockValue, ast.EnumValue:
		return value.Raw
	case ast.BooleanValue:
		return value.Raw == "true"
	case ast.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = valueFromAST(c.Value, vars)
		}
		return out
	case ast.ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			if f.Value.Kind == ast.Variable {
				if v, ok := lookupVariable(vars, f.Value.Raw); ok {
					m[f.Name] = v
				}
				continue
			}
			m[f.Name] = valueFromAST(f.Value, vars)
		}
		return m
	}
	return nil
}

// coerceValue coerces an input value to targetType. Custom scalars pass
// through unchanged; their parsing belongs to the runtime.
func coerceValue(s *ast.Schema, value any, targetType *ast.Type) (any, error) {
	if targetType.NonNull {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type %s", targetType)
		}
		nullable := *targetType
		nullable.NonNull = false
		return coerceValue(s, value, &nullable)
	}
	if value == nil {
		return nil, nil
	}
	if targetType.Elem != nil {
		return coerceListValue(s, value, targetType.Elem)
	}

	name := targetType.NamedType
	switch name {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		return coerceToString(value)
	case "Boolean":
		return coerceToBoolean(value)
	case "ID":
		return coerceToID(value)
	}
	var named *ast.Definition
	if s != nil {
		named = s.Types[name]
	}
	if named == nil {
		return value, nil
	}
	switch named.Kind {
	case ast.Enum:
		return coerceToEnum(named, value)
	case ast.InputObject:
		return coerceInputObject(s, named, value)
	}
	return value, nil
}

// coerceListValue coerces every item of a list. A single value becomes a
// list of one.
func coerceListValue(s *ast.Schema, value any, itemType *ast.Type) (any, error) {
	slice, ok := value.([]any)
	if !ok {
		item, err := coerceValue(s, value, itemType)
		if err != nil {
			return nil, err
		}
		return []any{item}, nil
	}
	out := make([]any, len(slice))
	for i, item := range slice {
		v, err := coerceValue(s, item, itemType)
		if err != nil {
			return nil, fmt.Errorf("at index %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func coerceInputObject(s *ast.Schema, def *ast.Definition, value any) (any, error) {
	in, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot coerce %v (%T) to input object %s", value, value, def.Name)
	}
	for key := range in {
		if def.Fields.ForName(key) == nil {
			return nil, fmt.Errorf("unknown field %q on input type %s", key, def.Name)
		}
	}
	out := make(map[string]any, len(def.Fields))
	for _, field := range def.Fields {
		v, ok := in[field.Name]
		if !ok {
			if field.DefaultValue != nil {
				v = valueFromAST(field.DefaultValue, nil)
			} else if field.Type.NonNull {
				return nil, fmt.Errorf("required field %q of type %s was not provided", field.Name, field.Type)
			} else {
				continue
			}
		}
		cv, err := coerceValue(s, v, field.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Name, err)
		}
		out[field.Name] = cv
	}
	if def.Directives.ForName("oneOf") != nil {
		set := 0
		for _, v := range out {
			if v != nil {
				set++
			}
		}
		if set != 1 || len(out) != 1 {
			return nil, fmt.Errorf("exactly one field of oneOf input type %s must be set", def.Name)
		}
	}
	return out, nil
}

func coerceToEnum(def *ast.Definition, value any) (any, error) {
	if name, ok := value.(string); ok && def.EnumValues.ForName(name) != nil {
		return name, nil
	}
	return nil, fmt.Errorf("value %v is not a member of enum %s", value, def.Name)
}

// integral returns v as an int64 when it is a whole number of any Go numeric
// kind.
func integral(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case float32:
		f := float64(v)
		if f == math.Trunc(f) && !math.IsInf(f, 0) {
			return int64(f), true
		}
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) && math.Abs(v) < 1<<63 {
			return int64(v), true
		}
	}
	return 0, false
}

func coerceToInt(value any) (any, error) {
	if n, ok := integral(value); ok && n >= math.MinInt32 && n <= math.MaxInt32 {
		return int(n), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Int", value, value)
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	}
	if n, ok := integral(value); ok {
		return float64(n), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to String", value, value)
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Boolean", value, value)
}

func coerceToID(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	if n, ok := integral(value); ok {
		return strconv.FormatInt(n, 10), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to ID", value, value)
}
