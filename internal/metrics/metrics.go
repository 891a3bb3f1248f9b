// Package metrics exposes request, operation and store counters in the
// prometheus text format. Collectors are fed by eventbus subscribers.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	eventbus "github.com/hanpama/booksgraph/internal/eventbus"
	events "github.com/hanpama/booksgraph/internal/events"
)

const namespace = "booksgraph"

// Metrics owns a dedicated registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	BatchSize         *prometheus.HistogramVec
	Mutations         *prometheus.CounterVec
}

// New creates the collectors. withRuntime adds the go and process collectors.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code",
		}, []string{"method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "Duration of HTTP requests in ms",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graphql_operations_total",
			Help:      "GraphQL operations by type and outcome",
		}, []string{"type", "outcome"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graphql_operation_duration_ms",
			Help:      "Duration of GraphQL operations in ms",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		BatchSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graphql_batch_size",
			Help:      "Number of sources resolved by one batched field resolution",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}, []string{"field"}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "library_mutations_total",
			Help:      "Store mutations by kind",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.Operations,
		m.OperationDuration,
		m.BatchSize,
		m.Mutations,
	)
	if withRuntime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Subscribe feeds the collectors from the global bus and returns a function
// removing the subscriptions.
func (m *Metrics) Subscribe() (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(_ context.Context, e events.HTTPFinish) {
			method := e.Request.Method
			m.HTTPRequests.WithLabelValues(method, strconv.Itoa(e.Status)).Inc()
			m.HTTPDuration.WithLabelValues(method).Observe(ms(e.Duration))
		}),
		eventbus.Subscribe(func(_ context.Context, e events.GraphQLFinish) {
			typ := e.OperationType
			if typ == "" {
				typ = "unknown"
			}
			outcome := "ok"
			if len(e.Errors) > 0 {
				outcome = "error"
			}
			m.Operations.WithLabelValues(typ, outcome).Inc()
			m.OperationDuration.WithLabelValues(typ).Observe(ms(e.Duration))
		}),
		eventbus.Subscribe(func(_ context.Context, e events.BatchResolve) {
			m.BatchSize.WithLabelValues(e.TypeName + "." + e.FieldName).Observe(float64(e.Size))
		}),
		eventbus.Subscribe(func(context.Context, events.AuthorAdded) {
			m.Mutations.WithLabelValues("add_author").Inc()
		}),
		eventbus.Subscribe(func(context.Context, events.BookAdded) {
			m.Mutations.WithLabelValues("add_book").Inc()
		}),
		eventbus.Subscribe(func(context.Context, events.AuthorRenamed) {
			m.Mutations.WithLabelValues("update_author").Inc()
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func ms(d time.Duration) float64 { return float64(d.Milliseconds()) }
