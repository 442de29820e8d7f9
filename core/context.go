package core

import (
	"context"
	"log/slog"
)

// Context keys for pipeline options
type contextKey string

const (
	suppressHeaderKey contextKey = "suppressHeader"
	loggerKey         contextKey = "logger"
)

// WithSuppressHeader marks the context so that progress headers are not printed.
// The MCP server uses it to keep stdio clean for the protocol.
func WithSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey, true)
}

// shouldSuppressHeader returns whether headers should be suppressed from context
func shouldSuppressHeader(ctx context.Context) bool {
	val := ctx.Value(suppressHeaderKey)
	if val == nil {
		return false // default: show headers
	}
	suppress, ok := val.(bool)
	return ok && suppress
}

// WithLogger attaches the logger used by pipeline components.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// loggerFrom returns the logger attached to ctx, or slog.Default.
func loggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
