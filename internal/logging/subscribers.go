package logging

import (
	"context"

	"go.uber.org/zap"

	"github.com/hanpama/booksgraph/internal/eventbus"
	"github.com/hanpama/booksgraph/internal/events"
	"github.com/hanpama/booksgraph/internal/reqid"
)

// Subscribe logs request completions and store mutations published on the
// global bus. It returns a function removing all handlers.
func Subscribe(l *zap.Logger) (unsubscribe func()) {
	if l == nil {
		return func() {}
	}
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			l.Info("http.request",
				requestID(ctx),
				zap.String("method", e.Request.Method),
				zap.String("path", e.Request.URL.Path),
				zap.Int("status", e.Status),
				zap.Int("bytes", e.Bytes),
				zap.Duration("duration", e.Duration),
			)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
			fields := []zap.Field{
				requestID(ctx),
				zap.String("operation", e.OperationName),
				zap.String("type", e.OperationType),
				zap.Duration("duration", e.Duration),
			}
			if len(e.Errors) > 0 {
				l.Warn("graphql.operation", append(fields, zap.Errors("errors", e.Errors))...)
				return
			}
			l.Debug("graphql.operation", fields...)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.AuthorAdded) {
			l.Info("library.author_added", requestID(ctx), zap.Int("author_id", e.ID), zap.String("author_name", e.Name))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.BookAdded) {
			l.Info("library.book_added", requestID(ctx), zap.Int("book_id", e.ID), zap.String("book_name", e.Name), zap.Int("author_id", e.AuthorID))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.AuthorRenamed) {
			l.Info("library.author_renamed", requestID(ctx), zap.Int("author_id", e.ID), zap.String("old_name", e.OldName), zap.String("author_name", e.NewName))
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func requestID(ctx context.Context) zap.Field {
	if id, ok := reqid.FromContext(ctx); ok {
		return zap.String("request_id", id)
	}
	return zap.Skip()
}
