package executor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/samber/lo"

	language "github.com/hanpama/booksgraph/internal/language"
	schema "github.com/hanpama/booksgraph/internal/schema"
)

// coerceVariableValues coerces the request variables against the operation's
// variable definitions. All failures are reported, located at the variable
// definition.
func coerceVariableValues(
	sch *schema.Schema,
	operation *language.OperationDefinition,
	variableValues map[string]any,
) (map[string]any, []GraphQLError) {
	coerced := make(map[string]any)
	var errs []GraphQLError
	fail := func(varDef *language.VariableDefinition, format string, args ...any) {
		ge := GraphQLError{Message: fmt.Sprintf(format, args...)}
		if varDef.Position != nil {
			ge.Locations = []Location{{Line: varDef.Position.Line, Column: varDef.Position.Column}}
		}
		errs = append(errs, ge)
	}

	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		t := varDef.Type
		val, ok := variableValues[name]
		if !ok {
			switch {
			case varDef.DefaultValue != nil:
				val = astValueToGo(varDef.DefaultValue)
			case t.NonNull:
				fail(varDef, "Variable \"$%s\" of required type \"%s\" was not provided.", name, t.String())
				continue
			default:
				continue
			}
		}
		if val == nil && t.NonNull {
			fail(varDef, "Variable \"$%s\" of non-null type \"%s\" must not be null.", name, t.String())
			continue
		}
		cv, err := coerceValue(sch, val, typeRefFromAST(t))
		if err != nil {
			fail(varDef, "Variable \"$%s\" got invalid value: %v", name, err)
			continue
		}
		coerced[name] = cv
	}
	return coerced, errs
}

// coerceArgumentValues coerces the arguments of one field. Arguments given
// as variables that were not provided count as absent.
func coerceArgumentValues(
	sch *schema.Schema,
	fieldDef *schema.Field,
	arguments language.ArgumentList,
	variableValues map[string]any,
) (map[string]any, error) {
	coerced := make(map[string]any, len(fieldDef.Arguments))
	for _, argDef := range fieldDef.Arguments {
		name := argDef.Name
		var (
			val      any
			provided bool
		)
		if arg := arguments.ForName(name); arg != nil {
			val, provided = valueFromAST(arg.Value, variableValues)
		}
		if !provided {
			if argDef.DefaultValue != nil {
				val, provided = argDef.DefaultValue, true
			} else if schema.IsNonNull(argDef.Type) {
				return nil, fmt.Errorf("Argument %q of required type %q was not provided.", name, argDef.Type.String())
			} else {
				continue
			}
		}
		cv, err := coerceValue(sch, val, argDef.Type)
		if err != nil {
			return nil, fmt.Errorf("Argument %q has invalid value: %w", name, err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// valueFromAST converts an AST value to a runtime value, substituting
// variables at any depth. The second result is false when value is a
// variable that has no value.
func valueFromAST(value *language.Value, variableValues map[string]any) (any, bool) {
	if value == nil {
		return nil, false
	}
	switch value.Kind {
	case language.Variable:
		v, ok := variableValues[value.Raw]
		return v, ok
	case language.ListValue:
		out := make([]any, 0, len(value.Children))
		for _, c := range value.Children {
			v, _ := valueFromAST(c.Value, variableValues)
			out = append(out, v)
		}
		return out, true
	case language.ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			if v, ok := valueFromAST(f.Value, variableValues); ok {
				m[f.Name] = v
			}
		}
		return m, true
	default:
		return astValueToGo(value), true
	}
}

// astValueToGo converts a constant AST value to a Go value
func astValueToGo(value *language.Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.IntValue:
		iv, err := strconv.ParseInt(value.Raw, 10, 64)
		if err != nil {
			return value.Raw
		}
		return iv
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.NullValue:
		return nil
	case language.EnumValue:
		return value.Raw
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = astValueToGo(c.Value)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any)
		for _, f := range value.Children {
			m[f.Name] = astValueToGo(f.Value)
		}
		return m
	default:
		return nil
	}
}

// coerceValue coerces an input value to the specified GraphQL type
func coerceValue(sch *schema.Schema, value any, targetType *schema.TypeRef) (any, error) {
	if schema.IsNonNull(targetType) {
		if value == nil {
			return nil, fmt.Errorf("expected non-null value of type %s", targetType)
		}
		return coerceValue(sch, value, schema.Unwrap(targetType))
	}

	if value == nil {
		return nil, nil
	}

	if targetType.Kind == schema.TypeRefKindList {
		return coerceListValue(sch, value, targetType)
	}

	namedType := schema.GetNamedType(targetType)
	switch namedType {
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

	typ := sch.Types[namedType]
	if typ == nil {
		return nil, fmt.Errorf("unknown type %s", namedType)
	}
	switch typ.Kind {
	case schema.TypeKindEnum:
		name, ok := value.(string)
		if ok {
			for _, ev := range typ.EnumValues {
				if ev.Name == name {
					return name, nil
				}
			}
		}
		return nil, fmt.Errorf("value %v is not a member of enum %s", value, namedType)
	case schema.TypeKindInputObject:
		return coerceInputObject(sch, value, typ)
	default:
		// custom scalars pass through
		return value, nil
	}
}

func coerceInputObject(sch *schema.Schema, value any, typ *schema.Type) (any, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object for %s, got %T", typ.Name, value)
	}
	out := make(map[string]any, len(typ.InputFields))
	for name := range obj {
		if !lo.ContainsBy(typ.InputFields, func(f *schema.InputValue) bool { return f.Name == name }) {
			return nil, fmt.Errorf("field %q is not defined by type %s", name, typ.Name)
		}
	}
	for _, f := range typ.InputFields {
		v, present := obj[f.Name]
		if !present {
			if f.DefaultValue != nil {
				v, present = f.DefaultValue, true
			} else if schema.IsNonNull(f.Type) {
				return nil, fmt.Errorf("field %s.%s of required type %s was not provided", typ.Name, f.Name, f.Type)
			}
		}
		if !present {
			continue
		}
		cv, err := coerceValue(sch, v, f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", typ.Name, f.Name, err)
		}
		out[f.Name] = cv
	}
	return out, nil
}

// coerceListValue coerces a value to a list; a single value becomes a list of one
func coerceListValue(sch *schema.Schema, value any, listType *schema.TypeRef) (any, error) {
	innerType := schema.Unwrap(listType)
	if slice, ok := value.([]any); ok {
		coercedSlice := make([]any, len(slice))
		for i, item := range slice {
			coercedItem, err := coerceValue(sch, item, innerType)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			coercedSlice[i] = coercedItem
		}
		return coercedSlice, nil
	}

	coercedItem, err := coerceValue(sch, value, innerType)
	if err != nil {
		return nil, err
	}
	return []any{coercedItem}, nil
}

// coerceToInt accepts integral numbers within the 32-bit range GraphQL Int
// allows and returns them as int.
func coerceToInt(value any) (any, error) {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %v", v)
		}
		n = int64(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %v", v)
		}
		n = i
	default:
		return nil, fmt.Errorf("Int cannot represent non-integer value: %v", value)
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %d", n)
	}
	return int(n), nil
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("Float cannot represent non numeric value: %v", value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("String cannot represent a non string value: %v", value)
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("Boolean cannot represent a non boolean value: %v", value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return v.String(), nil
		}
	}
	return nil, fmt.Errorf("ID cannot represent value: %v", value)
}
