package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey int

const (
	// loggerKey is the context key for the logger.
	loggerKey contextKey = iota
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}

	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}

	return Default()
}

// Lookup returns the logger stored in ctx, if any.
func Lookup(ctx context.Context) (*zerolog.Logger, bool) {
	if ctx == nil {
		return nil, false
	}
	logger, ok := ctx.Value(loggerKey).(*zerolog.Logger)
	return logger, ok && logger != nil
}

// Ctx is a shorter alias for FromContext.
func Ctx(ctx context.Context) *zerolog.Logger {
	return FromContext(ctx)
}

// WithFields adds structured fields to the logger in the context.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	logCtx := FromContext(ctx).With()
	for key, value := range fields {
		logCtx = addField(logCtx, key, value)
	}
	newLogger := logCtx.Logger()
	return WithLogger(ctx, &newLogger)
}

// WithField adds a single field to the logger in the context.
func WithField(ctx context.Context, key string, value any) context.Context {
	logCtx := addField(FromContext(ctx).With(), key, value)
	newLogger := logCtx.Logger()
	return WithLogger(ctx, &newLogger)
}

// WithJob adds the export job (stanza) name to the logger.
func WithJob(ctx context.Context, job string) context.Context {
	return WithField(ctx, "job", job)
}

// WithResource adds the NetBox resource path to the logger.
func WithResource(ctx context.Context, resource string) context.Context {
	return WithField(ctx, "resource", resource)
}

// WithOperation adds operation context to the logger.
func WithOperation(ctx context.Context, operation string) context.Context {
	return WithField(ctx, "operation", operation)
}

// WithError adds an error to the context logger.
func WithError(ctx context.Context, err error) context.Context {
	if err == nil {
		return ctx
	}
	return WithField(ctx, "error", err)
}
