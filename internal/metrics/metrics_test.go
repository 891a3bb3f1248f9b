package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	eventbus "github.com/hanpama/booksgraph/internal/eventbus"
	events "github.com/hanpama/booksgraph/internal/events"
)

func subscribed(t *testing.T) *Metrics {
	t.Helper()
	prev := eventbus.Current()
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(prev) })

	m := New(false)
	t.Cleanup(m.Subscribe())
	return m
}

func TestHTTPRequests(t *testing.T) {
	m := subscribed(t)
	ctx := context.Background()
	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)

	eventbus.Publish(ctx, events.HTTPFinish{Request: req, Status: 200, Duration: 5 * time.Millisecond})
	eventbus.Publish(ctx, events.HTTPFinish{Request: req, Status: 200})
	eventbus.Publish(ctx, events.HTTPFinish{Request: req, Status: 400})

	require.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "400")))
	require.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))
}

func TestOperations(t *testing.T) {
	m := subscribed(t)
	ctx := context.Background()

	eventbus.Publish(ctx, events.GraphQLFinish{OperationType: "query"})
	eventbus.Publish(ctx, events.GraphQLFinish{OperationType: "mutation", Errors: []error{errors.New("x")}})
	eventbus.Publish(ctx, events.GraphQLFinish{Errors: []error{errors.New("syntax")}})

	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("query", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("mutation", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("unknown", "error")))
}

func TestBatchSizeAndMutations(t *testing.T) {
	m := subscribed(t)
	ctx := context.Background()

	eventbus.Publish(ctx, events.BatchResolve{TypeName: "Book", FieldName: "author", Size: 8})
	eventbus.Publish(ctx, events.AuthorAdded{ID: 4, Name: "New"})
	eventbus.Publish(ctx, events.BookAdded{ID: 9, Name: "Title", AuthorID: 4})
	eventbus.Publish(ctx, events.BookAdded{ID: 10, Name: "Other", AuthorID: 4})
	eventbus.Publish(ctx, events.AuthorRenamed{ID: 4, OldName: "New", NewName: "Newer"})

	expected := `
# HELP booksgraph_library_mutations_total Store mutations by kind
# TYPE booksgraph_library_mutations_total counter
booksgraph_library_mutations_total{kind="add_author"} 1
booksgraph_library_mutations_total{kind="add_book"} 2
booksgraph_library_mutations_total{kind="update_author"} 1
`
	require.NoError(t, testutil.CollectAndCompare(m.Mutations, strings.NewReader(expected)))
	require.Equal(t, 1, testutil.CollectAndCount(m.BatchSize, "booksgraph_graphql_batch_size"))
}

func TestUnsubscribe(t *testing.T) {
	prev := eventbus.Current()
	eventbus.Use(eventbus.New())
	defer eventbus.Use(prev)

	m := New(false)
	m.Subscribe()()
	eventbus.Publish(context.Background(), events.AuthorAdded{ID: 4})
	require.Equal(t, 0, testutil.CollectAndCount(m.Mutations))
}

func TestHandler(t *testing.T) {
	m := subscribed(t)
	eventbus.Publish(context.Background(), events.BookAdded{ID: 9})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `booksgraph_library_mutations_total{kind="add_book"} 1`)
}

func TestRuntimeCollectors(t *testing.T) {
	m := New(true)
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["go_goroutines"])
}
