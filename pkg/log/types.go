package log

// Logger is the structured logger used across the provider packages.
type Logger interface {
	// Debug logs low-level details such as message routing and slot transitions.
	Debug(msg string, keysAndValues ...any)
	// Info logs routine state changes (connected, accounts updated).
	Info(msg string, keysAndValues ...any)
	// Warn logs unexpected situations the provider can continue from.
	Warn(msg string, keysAndValues ...any)
	// Error logs failures that abort an operation.
	Error(msg string, keysAndValues ...any)
	// Fatal logs an unrecoverable failure and may terminate the program.
	Fatal(msg string, keysAndValues ...any)
	// WithKV returns a logger that adds the key-value pair to every entry.
	WithKV(key string, value any) Logger
	// GetAllKV returns the persistent key-value pairs of this logger.
	GetAllKV() []any
	// WithName returns a logger named after a component (e.g. "ws-conn").
	WithName(name string) Logger
	// Name returns the logger's name.
	Name() string
	// AddCallerSkip returns a logger that skips extra stack frames when
	// reporting the caller; implementations without caller info return themselves.
	AddCallerSkip(skip int) Logger
}

// Level represents the severity level of a log message.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// SpanEventRecorder records log entries onto a tracing span.
type SpanEventRecorder interface {
	TraceID() string
	SpanID() string

	// RecordEvent records an event; keysAndValues are key-value pairs.
	RecordEvent(name string, keysAndValues ...any)
	// RecordError records an error event; keysAndValues are key-value pairs.
	RecordError(name string, keysAndValues ...any)
}
