package executor_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	executor "github.com/hanpama/booksgraph/internal/executor"
	language "github.com/hanpama/booksgraph/internal/language"
	schema "github.com/hanpama/booksgraph/internal/schema"
)

// MockResolver resolves a single item; MockRuntime adapts it for batched calls.
type MockResolver func(ctx context.Context, source any, args map[string]any) (any, error)

// Call records one resolver invocation. Async calls of the same flush share
// a BatchID; sync calls have BatchID 0.
type Call struct {
	Key     string
	Args    map[string]any
	BatchID int
}

// MockRuntime implements executor.Runtime. Fields without a registered
// resolver read the same-named key of a map[string]any source and are not
// recorded.
type MockRuntime struct {
	mu        sync.Mutex
	resolvers map[string]MockResolver
	calls     []Call
	batches   [][]string
}

func NewMockRuntime(resolvers map[string]MockResolver) *MockRuntime {
	return &MockRuntime{resolvers: resolvers}
}

func value(v any) MockResolver {
	return func(context.Context, any, map[string]any) (any, error) { return v, nil }
}

func failing(err error) MockResolver {
	return func(context.Context, any, map[string]any) (any, error) { return nil, err }
}

func (m *MockRuntime) resolve(ctx context.Context, key, field string, source any, args map[string]any, batchID int) (any, error) {
	m.mu.Lock()
	r := m.resolvers[key]
	if r != nil {
		m.calls = append(m.calls, Call{Key: key, Args: args, BatchID: batchID})
	}
	m.mu.Unlock()
	if r == nil {
		if obj, ok := source.(map[string]any); ok {
			return obj[field], nil
		}
		return nil, nil
	}
	return r(ctx, source, args)
}

func (m *MockRuntime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	return m.resolve(ctx, objectType+"."+field, field, source, args, 0)
}

func (m *MockRuntime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	m.mu.Lock()
	keys := make([]string, len(tasks))
	for i, t := range tasks {
		keys[i] = t.ObjectType + "." + t.Field
	}
	m.batches = append(m.batches, keys)
	batchID := len(m.batches)
	m.mu.Unlock()

	results := make([]executor.AsyncResolveResult, len(tasks))
	for i, t := range tasks {
		v, err := m.resolve(ctx, keys[i], t.Field, t.Source, t.Args, batchID)
		results[i] = executor.AsyncResolveResult{Value: v, Error: err}
	}
	return results
}

func (m *MockRuntime) ResolveType(_ context.Context, abstractType string, v any) (string, error) {
	if obj, ok := v.(map[string]any); ok {
		if name, ok := obj["__typename"].(string); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("cannot resolve concrete type of %s", abstractType)
}

func (m *MockRuntime) SerializeLeafValue(_ context.Context, _ string, v any) (any, error) {
	return v, nil
}

func (m *MockRuntime) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func (m *MockRuntime) Batches() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.batches...)
}

func mustLoadSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sdl, err := os.ReadFile("testdata/starwars.graphql")
	if err != nil {
		t.Fatal(err)
	}
	sch, err := schema.BuildFromString(string(sdl))
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}
	return sch
}

func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

func execute(t *testing.T, rt executor.Runtime, query string, vars map[string]any) *executor.ExecutionResult {
	t.Helper()
	return executeContext(context.Background(), t, rt, query, vars)
}

func executeContext(ctx context.Context, t *testing.T, rt executor.Runtime, query string, vars map[string]any) *executor.ExecutionResult {
	t.Helper()
	exec := executor.NewExecutor(rt, mustLoadSchema(t))
	return exec.ExecuteRequest(ctx, mustParseQuery(t, query), "", vars, nil)
}

var (
	luke = map[string]any{"__typename": "Human", "id": 1, "name": "Luke"}
	han  = map[string]any{"__typename": "Human", "id": 2, "name": "Han"}
	r2   = map[string]any{"__typename": "Droid", "name": "R2-D2", "primaryFunction": "Astromech"}
)

func friendsOf(_ context.Context, source any, _ map[string]any) (any, error) {
	switch source.(map[string]any)["id"] {
	case 1:
		return []any{han, r2}, nil
	case 2:
		return []any{luke}, nil
	}
	return nil, nil
}
