package introspection

import (
	"context"
	"fmt"
	"sort"

	executor "github.com/hanpama/booksgraph/internal/executor"
	schema "github.com/hanpama/booksgraph/internal/schema"
)

// IntrospectionWrapper holds both the runtime and extended schema
type IntrospectionWrapper struct {
	Runtime executor.Runtime
	Schema  *schema.Schema
}

// Wrap returns a Runtime that handles GraphQL introspection fields and
// delegates everything else to base. sch must have been built from SDL.
func Wrap(base executor.Runtime, sch *schema.Schema) (*IntrospectionWrapper, error) {
	extendedSchema, err := extendSchemaWithIntrospection(sch)
	if err != nil {
		return nil, err
	}
	rt := &runtime{base: base, schema: extendedSchema}
	return &IntrospectionWrapper{Runtime: rt, Schema: extendedSchema}, nil
}

type runtime struct {
	base   executor.Runtime
	schema *schema.Schema // extended schema; introspection answers describe it
}

func (r *runtime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	switch src := source.(type) {
	case *schema.Schema:
		if v, ok := r.resolveSchemaField(src, field); ok {
			return v, nil
		}
	case *schema.Type:
		if v, ok := r.resolveTypeField(src, field, args); ok {
			return v, nil
		}
	case *schema.TypeRef:
		if v, ok := r.resolveTypeRefField(src, field); ok {
			return v, nil
		}
	case *schema.Field:
		if v, ok := r.resolveFieldField(src, field, args); ok {
			return v, nil
		}
	case *schema.InputValue:
		if v, ok := r.resolveInputValueField(src, field); ok {
			return v, nil
		}
	case *schema.EnumValue:
		if v, ok := resolveEnumValueField(src, field); ok {
			return v, nil
		}
	case *schema.Directive:
		if v, ok := r.resolveDirectiveField(src, field, args); ok {
			return v, nil
		}
	}

	if objectType == r.schema.QueryType {
		switch field {
		case "__schema":
			return r.schema, nil
		case "__type":
			return r.resolveTypeQuery(args), nil
		}
	}

	return r.base.ResolveSync(ctx, objectType, field, source, args)
}

func (r *runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	return r.base.BatchResolveAsync(ctx, tasks)
}

func (r *runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	return r.base.ResolveType(ctx, abstractType, value)
}

func (r *runtime) SerializeLeafValue(ctx context.Context, typ string, value any) (any, error) {
	switch typ {
	case "__TypeKind", "__DirectiveLocation":
		return fmt.Sprint(value), nil
	}
	return r.base.SerializeLeafValue(ctx, typ, value)
}

// --- helpers ---

func (r *runtime) resolveTypeQuery(args map[string]any) any {
	name, _ := args["name"].(string)
	if t := r.schema.Types[name]; t != nil {
		return t
	}
	return nil
}

// typeOf returns the introspection source for tr: the named type definition
// for named references, tr itself for wrappers.
func (r *runtime) typeOf(tr *schema.TypeRef) any {
	if tr == nil {
		return nil
	}
	if tr.Kind == schema.TypeRefKindNamed {
		if def := r.schema.Types[tr.Named]; def != nil {
			return def
		}
		return nil
	}
	return tr
}

func (r *runtime) namedTypes(names []string) []*schema.Type {
	out := make([]*schema.Type, 0, len(names))
	for _, name := range names {
		if def := r.schema.Types[name]; def != nil {
			out = append(out, def)
		}
	}
	return out
}

func resolveSchemaTypes(sch *schema.Schema) []*schema.Type {
	out := make([]*schema.Type, 0, len(sch.Types))
	for _, t := range sch.Types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resolveSchemaDirectives(sch *schema.Schema) []*schema.Directive {
	dirs := make([]*schema.Directive, 0, len(sch.Directives))
	for _, d := range sch.Directives {
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
	return dirs
}

func resolveTypeFields(t *schema.Type, args map[string]any) any {
	if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated", false)
	out := []*schema.Field{}
	for _, f := range t.GetOrderedFields() {
		if schema.IsIntrospectionName(f.Name) {
			continue
		}
		if includeDeprecated || !f.IsDeprecated {
			out = append(out, f)
		}
	}
	return out
}

func resolveTypeEnumValues(t *schema.Type, args map[string]any) any {
	if t.Kind != schema.TypeKindEnum {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated", false)
	out := []*schema.EnumValue{}
	for _, ev := range t.EnumValues {
		if includeDeprecated || !ev.IsDeprecated {
			out = append(out, ev)
		}
	}
	return out
}

func resolveTypeInputFields(t *schema.Type, args map[string]any) any {
	if t.Kind != schema.TypeKindInputObject {
		return nil
	}
	return filterInputValues(t.GetOrderedInputFields(), args)
}

func filterInputValues(values []*schema.InputValue, args map[string]any) []*schema.InputValue {
	includeDeprecated := boolArg(args, "includeDeprecated", false)
	out := []*schema.InputValue{}
	for _, v := range values {
		if includeDeprecated || !v.IsDeprecated {
			out = append(out, v)
		}
	}
	return out
}

func (r *runtime) resolveSchemaField(sch *schema.Schema, field string) (any, bool) {
	switch field {
	case "types":
		return resolveSchemaTypes(sch), true
	case "queryType":
		return sch.GetQueryType(), true
	case "mutationType":
		return nullableType(sch.GetMutationType()), true
	case "subscriptionType":
		return nullableType(sch.GetSubscriptionType()), true
	case "directives":
		return resolveSchemaDirectives(sch), true
	case "description":
		return optionalString(sch.Description), true
	}
	return nil, false
}

func (r *runtime) resolveTypeField(t *schema.Type, field string, args map[string]any) (any, bool) {
	switch field {
	case "kind":
		return string(t.Kind), true
	case "name":
		return t.Name, true
	case "description":
		return optionalString(t.Description), true
	case "specifiedByURL":
		if t.SpecifiedByURL == nil {
			return nil, true
		}
		return *t.SpecifiedByURL, true
	case "fields":
		return resolveTypeFields(t, args), true
	case "interfaces":
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
			return nil, true
		}
		return r.namedTypes(t.Interfaces), true
	case "possibleTypes":
		if !t.Kind.IsAbstract() {
			return nil, true
		}
		return r.namedTypes(t.PossibleTypes), true
	case "enumValues":
		return resolveTypeEnumValues(t, args), true
	case "inputFields":
		return resolveTypeInputFields(t, args), true
	case "isOneOf":
		if t.Kind != schema.TypeKindInputObject {
			return nil, true
		}
		return t.OneOf, true
	case "ofType":
		// named types never wrap another type
		return nil, true
	}
	return nil, false
}

// resolveTypeRefField answers __Type fields for LIST and NON_NULL wrappers.
func (r *runtime) resolveTypeRefField(tr *schema.TypeRef, field string) (any, bool) {
	switch field {
	case "kind":
		return string(tr.Kind), true
	case "ofType":
		return r.typeOf(tr.OfType), true
	case "fields", "interfaces", "possibleTypes", "enumValues", "inputFields",
		"name", "description", "specifiedByURL", "isOneOf":
		return nil, true
	}
	return nil, false
}

func (r *runtime) resolveFieldField(f *schema.Field, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return f.Name, true
	case "description":
		return optionalString(f.Description), true
	case "args":
		return filterInputValues(f.GetOrderedArguments(), args), true
	case "type":
		return r.typeOf(f.Type), true
	case "isDeprecated":
		return f.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(f.IsDeprecated, f.DeprecationReason), true
	}
	return nil, false
}

func (r *runtime) resolveInputValueField(a *schema.InputValue, field string) (any, bool) {
	switch field {
	case "name":
		return a.Name, true
	case "description":
		return optionalString(a.Description), true
	case "type":
		return r.typeOf(a.Type), true
	case "defaultValue":
		if a.DefaultValue == nil {
			return nil, true
		}
		return schema.FormatValue(a.DefaultValue), true
	case "isDeprecated":
		return a.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(a.IsDeprecated, a.DeprecationReason), true
	}
	return nil, false
}

func resolveEnumValueField(ev *schema.EnumValue, field string) (any, bool) {
	switch field {
	case "name":
		return ev.Name, true
	case "description":
		return optionalString(ev.Description), true
	case "isDeprecated":
		return ev.IsDeprecated, true
	case "deprecationReason":
		return deprecationReason(ev.IsDeprecated, ev.DeprecationReason), true
	}
	return nil, false
}

func (r *runtime) resolveDirectiveField(d *schema.Directive, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return d.Name, true
	case "description":
		return optionalString(d.Description), true
	case "isRepeatable":
		return d.IsRepeatable, true
	case "locations":
		return append([]string(nil), d.Locations...), true
	case "args":
		return filterInputValues(d.Arguments, args), true
	}
	return nil, false
}

// nullableType keeps a missing root type a plain nil rather than a typed nil.
func nullableType(t *schema.Type) any {
	if t == nil {
		return nil
	}
	return t
}

func optionalString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deprecationReason(deprecated bool, reason string) any {
	if !deprecated {
		return nil
	}
	return reason
}

func boolArg(args map[string]any, name string, def bool) bool {
	if v, ok := args[name].(bool); ok {
		return v
	}
	return def
}
