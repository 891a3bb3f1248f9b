package executor_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	executor "github.com/hanpama/booksgraph/internal/executor"
)

var ignoreFieldOrder = cmpopts.IgnoreUnexported(executor.ExecutionResult{})

type codedError struct{ code string }

func (e codedError) Error() string { return "failed with " + e.code }
func (e codedError) Extensions() map[string]any { return map[string]any{"code": e.code} }

func TestBatchResolveAsync_OncePerDepth(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.hero":    value(luke),
		"Human.friends": friendsOf,
	})

	got := execute(t, rt, `{
  hero {
    name
    ... on Human {
      friends {
        name
        ... on Human { friends { name } }
      }
    }
  }
}`, nil)

	want := &executor.ExecutionResult{
		Data: map[string]any{
			"hero": map[string]any{
				"name": "Luke",
				"friends": []any{
					map[string]any{"name": "Han", "friends": []any{map[string]any{"name": "Luke"}}},
					map[string]any{"name": "R2-D2"},
				},
			},
		},
		Errors: []executor.GraphQLError{},
	}
	if diff := cmp.Diff(want, got, ignoreFieldOrder); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}

	wantBatches := [][]string{{"Human.friends"}, {"Human.friends"}}
	if diff := cmp.Diff(wantBatches, rt.Batches()); diff != "" {
		t.Fatalf("batches mismatch (-want +got):\n%s", diff)
	}
}

func TestBatchResolveAsync_SameDepthAggregated(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.search":  value([]any{luke, han, r2}),
		"Human.friends": friendsOf,
		"Query.remote":  value("R"),
	})

	got := execute(t, rt, `{ remote search { ... on Human { friends { name } } } }`, nil)
	require.Empty(t, got.Errors)

	// search is sync, so the friends of its items share the first depth
	wantBatches := [][]string{
		{"Query.remote", "Human.friends", "Human.friends"},
	}
	if diff := cmp.Diff(wantBatches, rt.Batches()); diff != "" {
		t.Fatalf("batches mismatch (-want +got):\n%s", diff)
	}
}

func TestArguments_DefaultsAndVariables(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{"Query.human": value(luke)})

	got := execute(t, rt, `query ($id: Int!) { human(id: $id) { name } }`, map[string]any{"id": float64(7)})
	require.Empty(t, got.Errors)

	wantCalls := []Call{{Key: "Query.human", Args: map[string]any{"id": 7, "limit": 3}}}
	if diff := cmp.Diff(wantCalls, rt.Calls()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestVariables_CoercionErrors(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{"Query.human": value(luke)})
	query := `query ($id: Int!) { human(id: $id) { name } }`

	got := execute(t, rt, query, nil)
	require.Nil(t, got.Data)
	require.Len(t, got.Errors, 1)
	require.Equal(t, `Variable "$id" of required type "Int!" was not provided.`, got.Errors[0].Message)

	got = execute(t, rt, query, map[string]any{"id": 1.5})
	require.Nil(t, got.Data)
	require.Len(t, got.Errors, 1)
	require.Equal(t, `Variable "$id" got invalid value: Int cannot represent non-integer value: 1.5`, got.Errors[0].Message)

	got = execute(t, rt, query, map[string]any{"id": "1"})
	require.Len(t, got.Errors, 1)

	require.Empty(t, rt.Calls(), "resolvers must not run when variables are invalid")
}

func TestNonNull_SyncPropagatesToNullableParent(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.human":   value(map[string]any{"__typename": "Human", "id": 1, "name": nil}),
		"Human.friends": friendsOf,
	})

	got := execute(t, rt, `{ human(id: 1) { friends { name } name } }`, nil)

	want := &executor.ExecutionResult{
		Data: map[string]any{"human": nil},
		Errors: []executor.GraphQLError{{
			Message:   "Cannot return null for non-nullable field human.name.",
			Locations: []executor.Location{{Line: 1, Column: 35}},
			Path:      executor.Path{"human", "name"},
		}},
	}
	if diff := cmp.Diff(want, got, ignoreFieldOrder); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	require.Empty(t, rt.Batches(), "tasks under a nullified parent must be dropped")
}

func TestNonNull_RootFieldNullsData(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{"Query.strict": value(nil)})

	got := execute(t, rt, `{ strict { name } }`, nil)

	require.Nil(t, got.Data)
	require.Len(t, got.Errors, 1)
	require.Equal(t, "Cannot return null for non-nullable field strict.", got.Errors[0].Message)
	require.Equal(t, executor.Path{"strict"}, got.Errors[0].Path)
}

func TestNonNull_AsyncErrorPropagatesWithExtensions(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.hero":       value(luke),
		"Query.human":      value(han),
		"Human.bestFriend": failing(codedError{code: "NOT_FOUND"}),
	})

	got := execute(t, rt, `{ hero { name ... on Human { bestFriend { name } } } other: human(id: 2) { name } }`, nil)

	want := &executor.ExecutionResult{
		Data: map[string]any{
			"hero":  nil,
			"other": map[string]any{"name": "Han"},
		},
		Errors: []executor.GraphQLError{{
			Message:    "failed with NOT_FOUND",
			Locations:  []executor.Location{{Line: 1, Column: 30}},
			Path:       executor.Path{"hero", "bestFriend"},
			Extensions: map[string]any{"code": "NOT_FOUND"},
		}},
	}
	if diff := cmp.Diff(want, got, ignoreFieldOrder); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestNullableAsyncError_OnlyFieldIsNull(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.hero":    value(luke),
		"Human.friends": failing(errors.New("backend down")),
	})

	got := execute(t, rt, `{ hero { name ... on Human { friends { name } } } }`, nil)

	want := map[string]any{"hero": map[string]any{"name": "Luke", "friends": nil}}
	if diff := cmp.Diff(want, got.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, got.Errors, 1)
	require.Equal(t, executor.Path{"hero", "friends"}, got.Errors[0].Path)
}

func TestCompleteList(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.numbers":      value([]any{1, nil, 3}),
		"Query.maybeNumbers": value([]int{1, 2}),
	})

	got := execute(t, rt, `{ numbers maybeNumbers }`, nil)

	want := &executor.ExecutionResult{
		Data: map[string]any{
			"numbers":      nil,
			"maybeNumbers": []any{1, 2},
		},
		Errors: []executor.GraphQLError{{
			Message:   "Cannot return null for non-nullable field numbers[1].",
			Locations: []executor.Location{{Line: 1, Column: 3}},
			Path:      executor.Path{"numbers", 1},
		}},
	}
	if diff := cmp.Diff(want, got, ignoreFieldOrder); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestAbstractTypesAndFragments(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.search": value([]any{luke, r2}),
		"Query.hero":   value(r2),
	})

	got := execute(t, rt, `
query {
  search {
    __typename
    ... on Human { name }
    ... on Droid { primaryFunction }
  }
  hero { ...named }
}
fragment named on Character { name }
`, nil)

	want := &executor.ExecutionResult{
		Data: map[string]any{
			"search": []any{
				map[string]any{"__typename": "Human", "name": "Luke"},
				map[string]any{"__typename": "Droid", "primaryFunction": "Astromech"},
			},
			"hero": map[string]any{"name": "R2-D2"},
		},
		Errors: []executor.GraphQLError{},
	}
	if diff := cmp.Diff(want, got, ignoreFieldOrder); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestAbstractType_UnresolvableValue(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.hero": value(map[string]any{"__typename": "Starship", "name": "Falcon"}),
	})

	got := execute(t, rt, `{ hero { name } }`, nil)

	require.Equal(t, map[string]any{"hero": nil}, got.Data)
	require.Len(t, got.Errors, 1)
	require.Equal(t, "Abstract type Character must resolve to an Object type at runtime. Got: Starship", got.Errors[0].Message)
}

func TestSkipAndInclude(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{"Query.hero": value(luke)})

	got := execute(t, rt, `query ($s: Boolean!) { hero { name @skip(if: $s) __typename @include(if: true) } }`,
		map[string]any{"s": true})

	want := map[string]any{"hero": map[string]any{"__typename": "Human"}}
	if diff := cmp.Diff(want, got.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestMutationFieldsRunSerially(t *testing.T) {
	var order []string
	record := func(name string, n int) MockResolver {
		return func(context.Context, any, map[string]any) (any, error) {
			order = append(order, name)
			return n, nil
		}
	}
	rt := NewMockRuntime(map[string]MockResolver{
		"Mutation.first":  record("first", 1),
		"Mutation.second": record("second", 2),
	})

	got := execute(t, rt, `mutation { a: first b: second c: first }`, nil)

	require.Equal(t, []string{"first", "second", "first"}, order)
	require.Equal(t, map[string]any{"a": 1, "b": 2, "c": 1}, got.Data)
}

func TestMutationBatchesCompleteBeforeNextField(t *testing.T) {
	var order []string
	rt := NewMockRuntime(map[string]MockResolver{
		"Mutation.promote": func(context.Context, any, map[string]any) (any, error) {
			order = append(order, "promote")
			return luke, nil
		},
		"Mutation.first": func(context.Context, any, map[string]any) (any, error) {
			order = append(order, "first")
			return 1, nil
		},
		"Human.friends": func(ctx context.Context, source any, args map[string]any) (any, error) {
			order = append(order, "friends")
			return friendsOf(ctx, source, args)
		},
	})

	got := execute(t, rt, `mutation {
  a: promote { friends { name ... on Human { friends { name } } } }
  b: first
  c: promote { name }
}`, nil)

	require.Empty(t, got.Errors)
	require.Equal(t, []string{"promote", "friends", "friends", "first", "promote"}, order)

	want := map[string]any{
		"a": map[string]any{"friends": []any{
			map[string]any{"name": "Han", "friends": []any{map[string]any{"name": "Luke"}}},
			map[string]any{"name": "R2-D2"},
		}},
		"b": 1,
		"c": map[string]any{"name": "Luke"},
	}
	if diff := cmp.Diff(want, got.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	wantBatches := [][]string{{"Human.friends"}, {"Human.friends"}}
	if diff := cmp.Diff(wantBatches, rt.Batches()); diff != "" {
		t.Fatalf("batches mismatch (-want +got):\n%s", diff)
	}
}

func TestCanceledContextSkipsBatches(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{"Query.remote": value("R")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := executeContext(ctx, t, rt, `{ remote }`, nil)

	require.Empty(t, rt.Batches())
	require.Equal(t, map[string]any{"remote": nil}, got.Data)
	require.Len(t, got.Errors, 1)
	require.Equal(t, context.Canceled.Error(), got.Errors[0].Message)
	require.Equal(t, executor.Path{"remote"}, got.Errors[0].Path)
}

func TestOperationSelection(t *testing.T) {
	exec := executor.NewExecutor(NewMockRuntime(nil), mustLoadSchema(t))
	doc := mustParseQuery(t, `query A { remote } query B { numbers }`)

	got := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)
	require.Equal(t, "Must provide operation name if query contains multiple operations.", got.Errors[0].Message)

	got = exec.ExecuteRequest(context.Background(), doc, "C", nil, nil)
	require.Equal(t, `Unknown operation named "C".`, got.Errors[0].Message)

	got = exec.ExecuteRequest(context.Background(), doc, "B", nil, nil)
	require.Empty(t, got.Errors)
	require.Equal(t, map[string]any{"numbers": nil}, got.Data)

	got = exec.ExecuteRequest(context.Background(), mustParseQuery(t, `subscription { remote }`), "", nil, nil)
	require.Equal(t, "schema does not support subscription operations", got.Errors[0].Message)
}

func TestRuntimeResultCountMismatch(t *testing.T) {
	rt := shortBatchRuntime{NewMockRuntime(nil)}

	got := execute(t, rt, `{ remote }`, nil)

	require.Equal(t, map[string]any{"remote": nil}, got.Data)
	require.Len(t, got.Errors, 1)
	require.Equal(t, "runtime returned 0 results for 1 tasks", got.Errors[0].Message)
}

type shortBatchRuntime struct{ *MockRuntime }

func (shortBatchRuntime) BatchResolveAsync(context.Context, []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	return nil
}

func TestResultJSONKeepsSelectionOrder(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.hero":    value(luke),
		"Human.friends": friendsOf,
		"Query.remote":  value("R"),
	})

	got := execute(t, rt, `{
  remote
  hero {
    name
    __typename
    ... on Human { zFriends: friends { name ... on Human { height } } }
  }
}`, nil)
	require.Empty(t, got.Errors)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	require.Equal(t,
		`{"data":{"remote":"R","hero":{"name":"Luke","__typename":"Human","zFriends":[{"name":"Han","height":null},{"name":"R2-D2"}]}}}`,
		string(b))

	b, err = json.Marshal(executor.ErrorResult(executor.GraphQLError{Message: "boom"}))
	require.NoError(t, err)
	require.Equal(t, `{"data":null,"errors":[{"message":"boom"}]}`, string(b))
}
