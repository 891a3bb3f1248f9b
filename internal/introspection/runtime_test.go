package introspection

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	executor "github.com/hanpama/booksgraph/internal/executor"
	language "github.com/hanpama/booksgraph/internal/language"
	schema "github.com/hanpama/booksgraph/internal/schema"
)

// leafRuntime implements executor.Runtime for schemas without data: it
// serializes built-in scalars and fails everything else.
type leafRuntime struct{}

func (leafRuntime) ResolveSync(_ context.Context, objectType, field string, _ any, _ map[string]any) (any, error) {
	return nil, fmt.Errorf("unexpected resolve %s.%s", objectType, field)
}

func (leafRuntime) BatchResolveAsync(context.Context, []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	return nil
}

func (leafRuntime) ResolveType(context.Context, string, any) (string, error) {
	return "", fmt.Errorf("unexpected abstract type")
}

func (leafRuntime) SerializeLeafValue(_ context.Context, _ string, value any) (any, error) {
	return value, nil
}

const testSDL = `
"Entry point"
type Query {
  hello(greeting: String = "hi"): String
  shelf: Shelf!
}
type Mutation { ping: Int }
type Shelf {
  tags: [String!]!
  old: Int @deprecated(reason: "gone")
}
enum Color { RED GREEN @deprecated }
`

func run(t *testing.T, query string) map[string]any {
	t.Helper()
	sch, err := schema.BuildFromString(testSDL)
	require.NoError(t, err)
	wrapper, err := Wrap(leafRuntime{}, sch)
	require.NoError(t, err)

	doc, errs := language.LoadQuery(sch.AST, query)
	require.Empty(t, errs)
	res := executor.NewExecutor(wrapper.Runtime, wrapper.Schema).
		ExecuteRequest(context.Background(), doc, "", nil, nil)
	require.Empty(t, res.Errors)
	return res.Data.(map[string]any)
}

func TestSchemaRootTypes(t *testing.T) {
	data := run(t, `{ __schema { description queryType { name } mutationType { name } subscriptionType { name } } }`)
	want := map[string]any{
		"__schema": map[string]any{
			"description":      nil,
			"queryType":        map[string]any{"name": "Query"},
			"mutationType":     map[string]any{"name": "Mutation"},
			"subscriptionType": nil,
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestSchemaTypesIncludeIntrospection(t *testing.T) {
	data := run(t, `{ __schema { types { name } directives { name } } }`)
	sch := data["__schema"].(map[string]any)

	names := map[string]bool{}
	for _, typ := range sch["types"].([]any) {
		names[typ.(map[string]any)["name"].(string)] = true
	}
	for _, name := range []string{"Query", "Shelf", "Color", "String", "Boolean", "__Schema", "__Type", "__TypeKind"} {
		require.True(t, names[name], "missing type %s", name)
	}

	directives := []string{}
	for _, d := range sch["directives"].([]any) {
		directives = append(directives, d.(map[string]any)["name"].(string))
	}
	require.Contains(t, directives, "skip")
	require.Contains(t, directives, "include")
	require.NotContains(t, directives, schema.BatchDirective)
}

func TestTypeWrappersAndFields(t *testing.T) {
	data := run(t, `{
  __type(name: "Shelf") {
    kind
    name
    fields(includeDeprecated: true) {
      name
      isDeprecated
      deprecationReason
      type { kind name ofType { kind name ofType { kind name ofType { name } } } }
    }
  }
}`)
	want := map[string]any{
		"__type": map[string]any{
			"kind": "OBJECT",
			"name": "Shelf",
			"fields": []any{
				map[string]any{
					"name":              "tags",
					"isDeprecated":      false,
					"deprecationReason": nil,
					"type": map[string]any{
						"kind": "NON_NULL",
						"name": nil,
						"ofType": map[string]any{
							"kind": "LIST",
							"name": nil,
							"ofType": map[string]any{
								"kind": "NON_NULL",
								"name": nil,
								"ofType": map[string]any{"name": "String"},
							},
						},
					},
				},
				map[string]any{
					"name":              "old",
					"isDeprecated":      true,
					"deprecationReason": "gone",
					"type": map[string]any{
						"kind":   "SCALAR",
						"name":   "Int",
						"ofType": nil,
					},
				},
			},
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestDeprecatedFieldsHiddenByDefault(t *testing.T) {
	data := run(t, `{
  shelf: __type(name: "Shelf") { fields { name } }
  color: __type(name: "Color") { enumValues { name } all: enumValues(includeDeprecated: true) { name } }
}`)
	want := map[string]any{
		"shelf": map[string]any{"fields": []any{map[string]any{"name": "tags"}}},
		"color": map[string]any{
			"enumValues": []any{map[string]any{"name": "RED"}},
			"all":        []any{map[string]any{"name": "RED"}, map[string]any{"name": "GREEN"}},
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestArgumentsAndDescriptions(t *testing.T) {
	data := run(t, `{
  __type(name: "Query") {
    description
    fields { name args { name defaultValue type { name } } }
  }
}`)
	query := data["__type"].(map[string]any)
	require.Equal(t, "Entry point", query["description"])

	fields := query["fields"].([]any)
	names := []string{}
	for _, f := range fields {
		names = append(names, f.(map[string]any)["name"].(string))
	}
	require.Equal(t, []string{"hello", "shelf"}, names)

	hello := fields[0].(map[string]any)
	require.Equal(t, []any{map[string]any{
		"name":         "greeting",
		"defaultValue": `"hi"`,
		"type":         map[string]any{"name": "String"},
	}}, hello["args"])
}

func TestUnknownType(t *testing.T) {
	data := run(t, `{ __type(name: "Nope") { name } }`)
	require.Equal(t, map[string]any{"__type": nil}, data)
}

func TestTypenameField(t *testing.T) {
	sch, err := schema.BuildFromString(testSDL)
	require.NoError(t, err)
	exec := executor.NewExecutor(leafRuntime{}, sch)
	doc, err := language.ParseQuery("{__typename}")
	require.NoError(t, err)

	res := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"__typename": "Query"}, res.Data)
}

func TestWrapRequiresAST(t *testing.T) {
	sch := schema.NewSchema("").SetQueryType("Query")
	_, err := Wrap(leafRuntime{}, sch)
	require.ErrorIs(t, err, errNoAST)
}
