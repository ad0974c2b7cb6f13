package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	sessionIDKey
)

// ContextWithRequestID stores a request ID for WithContext to pick up.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithSessionID stores a recording session ID for WithContext to pick up.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// WithContext returns a logger carrying the active span's trace and span IDs
// and the request and session IDs stored in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	c := l.zl.With()
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		c = c.Str(FieldTraceID, sc.TraceID().String()).Str(FieldSpanID, sc.SpanID().String())
	}
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		c = c.Str(FieldRequestID, id)
	}
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		c = c.Str(FieldSessionID, id)
	}
	return l.derive(c)
}

// WithContext is WithContext on the global logger.
func WithContext(ctx context.Context) *Logger { return GetGlobalLogger().WithContext(ctx) }

// WithComponent is WithComponent on the global logger.
func WithComponent(name string) *Logger { return GetGlobalLogger().WithComponent(name) }
