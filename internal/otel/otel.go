package otel

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	eventbus "github.com/hanpama/booksgraph/internal/eventbus"
	events "github.com/hanpama/booksgraph/internal/events"
	reqid "github.com/hanpama/booksgraph/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const instrumentationName = "github.com/hanpama/booksgraph"

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(ctx context.Context, endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := register(tp.Tracer(instrumentationName))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

// Middleware starts the server span of every request and stores it in the
// request context, so spans and attributes recorded further down attach to it.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := otel.Tracer(instrumentationName).Start(r.Context(), "http.request",
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethodKey.String(r.Method),
				attribute.String("http.target", r.URL.Path),
			))
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type subscriber struct {
	tracer   trace.Tracer
	gqlSpans sync.Map // rid -> trace.Span
}

// register subscribes span handlers on the global bus and returns a function
// removing them.
func register(tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			span := trace.SpanFromContext(ctx)
			span.SetAttributes(
				semconv.HTTPStatusCodeKey.Int(e.Status),
				attribute.Int("http.response_size", e.Bytes),
			)
			if e.Status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(e.Status))
			}
			if rid, ok := reqid.FromContext(ctx); ok {
				span.SetAttributes(attribute.String("http.request_id", rid))
			}
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLStart) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(ctx, "graphql.operation")
			span.SetAttributes(
				attribute.String("graphql.operation.name", e.OperationName),
				attribute.String("graphql.operation.type", e.OperationType),
			)
			s.gqlSpans.Store(rid, span)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
			rid, _ := reqid.FromContext(ctx)
			v, ok := s.gqlSpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(attribute.Int("graphql.error_count", len(e.Errors)))
			if len(e.Errors) > 0 {
				span.RecordError(errors.Join(e.Errors...))
			}
			span.End()
		}),

		// batches publish after they ran, so the span is backdated
		eventbus.Subscribe(func(ctx context.Context, e events.BatchResolve) {
			rid, _ := reqid.FromContext(ctx)
			parent := ctx
			if v, ok := s.gqlSpans.Load(rid); ok {
				parent = trace.ContextWithSpan(ctx, v.(trace.Span))
			}
			end := time.Now()
			_, span := s.tracer.Start(parent, "graphql.batch", trace.WithTimestamp(end.Add(-e.Duration)))
			span.SetAttributes(
				attribute.String("graphql.field", e.TypeName+"."+e.FieldName),
				attribute.Int("graphql.batch_size", e.Size),
			)
			span.End(trace.WithTimestamp(end))
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.AuthorAdded) {
			trace.SpanFromContext(ctx).AddEvent("library.author_added",
				trace.WithAttributes(attribute.Int("author_id", e.ID)))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.BookAdded) {
			trace.SpanFromContext(ctx).AddEvent("library.book_added",
				trace.WithAttributes(attribute.Int("book_id", e.ID), attribute.Int("author_id", e.AuthorID)))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.AuthorRenamed) {
			trace.SpanFromContext(ctx).AddEvent("library.author_renamed",
				trace.WithAttributes(attribute.Int("author_id", e.ID)))
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
