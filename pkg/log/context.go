package log

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type contextKey struct{}

var loggerContextKey = contextKey{}

// SetContextLogger attaches lg to ctx. When ctx carries a valid OpenTelemetry
// span, lg is wrapped in a SpanLogger so entries are mirrored onto the span.
// A nil lg stores a NoopLogger.
func SetContextLogger(ctx context.Context, lg Logger) context.Context {
	if lg == nil {
		lg = NewNoopLogger()
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return context.WithValue(ctx, loggerContextKey, lg)
	}

	return context.WithValue(ctx, loggerContextKey, NewSpanLogger(lg, NewOtelSpanEventRecorder(span)))
}

// FromContext returns the logger stored in ctx, or a NoopLogger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerContextKey).(Logger); ok {
		return l
	}
	return NewNoopLogger()
}
