package schema

import (
	"fmt"
	"sort"

	"github.com/vektah/gqlparser/v2/ast"

	language "github.com/hanpama/booksgraph/internal/language"
)

// BuildFromSDL parses and validates the given SDL sources and returns the
// executable schema. Build-time directives (see BatchDirective) are applied
// and stripped; their declarations must not appear in sources.
func BuildFromSDL(sources ...*language.Source) (*Schema, error) {
	doc, err := language.LoadSchema(append([]*language.Source{buildDirectiveSource}, sources...)...)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return BuildFromAST(doc)
}

// BuildFromString is a convenience wrapper around BuildFromSDL for a single
// source.
func BuildFromString(sdl string) (*Schema, error) {
	return BuildFromSDL(&language.Source{Name: "schema.graphql", Input: sdl})
}

// BuildFromAST converts a validated gqlparser schema into an executable
// Schema. Introspection types (__Schema, __Type, ...) are left out; they are
// added by the introspection package when enabled.
func BuildFromAST(doc *ast.Schema) (*Schema, error) {
	s := NewSchema("")
	s.AST = doc
	if doc.Query != nil {
		s.SetQueryType(doc.Query.Name)
	}
	if doc.Mutation != nil {
		s.SetMutationType(doc.Mutation.Name)
	}
	if doc.Subscription != nil {
		s.SetSubscriptionType(doc.Subscription.Name)
	}
	if s.QueryType == "" {
		return nil, fmt.Errorf("build schema: query root type is required")
	}

	for name, def := range doc.Types {
		if IsIntrospectionName(name) {
			continue
		}
		s.AddType(FromDefinition(doc, def))
	}
	for name, dir := range doc.Directives {
		if isBuildDirective(name) {
			continue
		}
		s.AddDirective(buildDirective(dir))
	}
	return s, nil
}

// FromDefinition converts a single gqlparser type definition.
func FromDefinition(doc *ast.Schema, def *ast.Definition) *Type {
	t := NewType(def.Name, TypeKind(def.Kind), def.Description)
	t.BuiltIn = def.BuiltIn

	switch def.Kind {
	case ast.Object, ast.Interface:
		for _, name := range def.Interfaces {
			t.AddInterface(name)
		}
		for _, fd := range def.Fields {
			if IsIntrospectionName(fd.Name) {
				continue
			}
			t.AddField(buildField(fd))
		}
		if def.Kind == ast.Interface && doc != nil {
			for _, impl := range doc.GetPossibleTypes(def) {
				t.AddPossibleType(impl.Name)
			}
			sort.Strings(t.PossibleTypes)
		}
	case ast.Union:
		for _, name := range def.Types {
			t.AddPossibleType(name)
		}
	case ast.Enum:
		for _, ev := range def.EnumValues {
			v := NewEnumValue(ev.Name, ev.Description)
			if reason, ok := deprecation(ev.Directives); ok {
				v.Deprecate(reason)
			}
			t.AddEnumValue(v)
		}
	case ast.InputObject:
		t.SetOneOf(def.Directives.ForName("oneOf") != nil)
		for _, fd := range def.Fields {
			t.AddInputField(buildInputValue(fd.Name, fd.Description, fd.Type, fd.DefaultValue, fd.Directives))
		}
	case ast.Scalar:
		if d := def.Directives.ForName("specifiedBy"); d != nil {
			if arg := d.Arguments.ForName("url"); arg != nil && arg.Value != nil {
				t.SetSpecifiedByURL(arg.Value.Raw)
			}
		}
	}
	return t
}

func buildField(fd *ast.FieldDefinition) *Field {
	f := NewField(fd.Name, fd.Description, buildTypeRef(fd.Type)).
		SetAsync(fd.Directives.ForName(BatchDirective) != nil)
	if reason, ok := deprecation(fd.Directives); ok {
		f.Deprecate(reason)
	}
	for _, arg := range fd.Arguments {
		f.AddArgument(buildInputValue(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives))
	}
	return f
}

func buildInputValue(name, description string, typ *ast.Type, def *ast.Value, directives ast.DirectiveList) *InputValue {
	in := NewInputValue(name, description, buildTypeRef(typ))
	if def != nil {
		if v, err := def.Value(nil); err == nil {
			in.SetDefault(v)
		}
	}
	if reason, ok := deprecation(directives); ok {
		in.Deprecate(reason)
	}
	return in
}

func buildTypeRef(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return NonNullType(buildTypeRef(&ast.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.Elem != nil {
		return ListType(buildTypeRef(t.Elem))
	}
	return NamedType(t.NamedType)
}

func buildDirective(dir *ast.DirectiveDefinition) *Directive {
	d := NewDirective(dir.Name, dir.Description).SetRepeatable(dir.IsRepeatable)
	d.BuiltIn = dir.Position != nil && dir.Position.Src != nil && dir.Position.Src.BuiltIn
	for _, loc := range dir.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, arg := range dir.Arguments {
		d.AddArgument(buildInputValue(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives))
	}
	return d
}

func deprecation(directives ast.DirectiveList) (string, bool) {
	d := directives.ForName("deprecated")
	if d == nil {
		return "", false
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return arg.Value.Raw, true
	}
	return "No longer supported", true
}
