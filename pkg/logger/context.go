package logger

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// With stores a logger carrying the given fields in the context. Request
// middleware uses this to stamp every log line with the trace id.
func With(ctx context.Context, fields ...any) context.Context {
	l := From(ctx).With(fields...)
	return context.WithValue(ctx, contextKey{}, l)
}

// From returns the logger stored in the context, falling back to the
// process-wide logger.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return l
	}
	return LoggerWrapper()
}
