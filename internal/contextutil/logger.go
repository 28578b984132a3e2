// Package contextutil carries the request-scoped logger through context.
package contextutil

import (
	"context"
	"log/slog"
)

type contextKey struct{}

var loggerKey contextKey

// LoggerFromContext returns the logger stored in ctx, or slog.Default when there is none.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// With returns a copy of ctx whose logger carries the given attributes in addition to
// those already set.
func With(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, LoggerFromContext(ctx).With(args...))
}
