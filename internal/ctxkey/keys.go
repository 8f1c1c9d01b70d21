// Package ctxkey defines shared context keys used across multiple packages.
// This package should have no dependencies on other internal packages to avoid import cycles.
package ctxkey

import (
	"context"
	"log/slog"
)

// LoggerKey is the context key type for the request-scoped logger.
// The resolution service stores a logger carrying the request_id field so
// outbound adapters log with the same correlation ID.
type LoggerKey struct{}

// RequestIDKey is the context key type for the resolution request ID.
type RequestIDKey struct{}

// WithRequest stores the request ID and its enriched logger in ctx.
func WithRequest(ctx context.Context, requestID string, logger *slog.Logger) context.Context {
	ctx = context.WithValue(ctx, RequestIDKey{}, requestID)
	return context.WithValue(ctx, LoggerKey{}, logger)
}

// Logger retrieves the request-scoped logger from ctx.
// Returns fallback if no logger is in context.
func Logger(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(LoggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return fallback
}

// RequestID retrieves the request ID from ctx, or "" if none.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey{}).(string)
	return id
}
