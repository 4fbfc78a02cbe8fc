package logger

import "context"

// contextKey is a type for context keys to avoid collisions.
type contextKey string

const (
	// loggerKey is the context key for the logger.
	loggerKey contextKey = "credvault.logger"
	// operationKey is the context key for the running CLI operation.
	operationKey contextKey = "credvault.operation"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithOperation tags the context with the name of the CLI operation
// (login, refresh, agent) so log lines across packages can be tied to
// the command that caused them.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey, op)
}

// OperationFromContext extracts the operation name from context.
func OperationFromContext(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey).(string); ok {
		return op
	}
	return ""
}

// L extracts the context logger enriched with the operation name.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)
	if op := OperationFromContext(ctx); op != "" {
		l = l.With("op", op)
	}
	return l
}
