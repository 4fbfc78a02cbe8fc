package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the application logger interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format is the output format (text, json).
	Format string
	// Output is the output writer (defaults to os.Stderr).
	Output io.Writer
	// AddSource adds source file information to log entries.
	AddSource bool
}

// globalLevel backs every logger created by New, so SetLevel applies
// to all of them at once.
var globalLevel = new(slog.LevelVar)

// appLogger binds an slog.Logger to the context its records carry.
type appLogger struct {
	s   *slog.Logger
	ctx context.Context
}

// New creates a logger. Every string attribute passes through the
// redaction filter before it is written.
func New(cfg Config) (Logger, error) {
	globalLevel.Set(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     globalLevel,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return &appLogger{
		s:   slog.New(handler),
		ctx: context.Background(),
	}, nil
}

// SetLevel adjusts the level of every logger created by New. The agent
// uses this to apply log.level changes from a config reload.
func SetLevel(level string) {
	globalLevel.Set(parseLevel(level))
}

func (l *appLogger) Debug(msg string, args ...any) {
	l.s.DebugContext(l.ctx, msg, args...)
}

func (l *appLogger) Info(msg string, args ...any) {
	l.s.InfoContext(l.ctx, msg, args...)
}

func (l *appLogger) Warn(msg string, args ...any) {
	l.s.WarnContext(l.ctx, msg, args...)
}

func (l *appLogger) Error(msg string, args ...any) {
	l.s.ErrorContext(l.ctx, msg, args...)
}

func (l *appLogger) With(args ...any) Logger {
	return &appLogger{s: l.s.With(args...), ctx: l.ctx}
}

func (l *appLogger) WithContext(ctx context.Context) Logger {
	return &appLogger{s: l.s, ctx: ctx}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var defaultLogger atomic.Pointer[appLogger]

func init() {
	l, _ := New(Config{Level: "info", Format: "text"})
	defaultLogger.Store(l.(*appLogger))
}

// SetDefault sets the process-wide default logger. It also rebinds
// slog's own default so packages logging through plain slog share the
// same handler and redaction.
func SetDefault(l Logger) {
	al, ok := l.(*appLogger)
	if !ok {
		return
	}
	defaultLogger.Store(al)
	slog.SetDefault(al.s)
}

// Default returns the process-wide default logger.
func Default() Logger {
	return defaultLogger.Load()
}
