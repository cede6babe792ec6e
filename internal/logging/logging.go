// Package logging provides the structured logger shared by directio
// packages.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level is a minimum log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel converts a level name into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// Config configures a Logger.
type Config struct {
	Level Level

	// JSON selects the JSON handler instead of the text handler.
	JSON bool

	// Output defaults to stderr.
	Output io.Writer
}

// Logger is a structured logger. A nil or zero Logger discards everything.
type Logger struct {
	logger *slog.Logger
}

// New creates a Logger writing to cfg.Output.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level.slogLevel()}
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return &Logger{logger: slog.New(handler)}
}

// Nop returns a Logger that discards all messages.
func Nop() *Logger {
	return &Logger{}
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}

func (l *Logger) enabled() bool {
	return l != nil && l.logger != nil
}

// Debug logs a debug message.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	if l.enabled() {
		l.logger.DebugContext(ctx, msg, args...)
	}
}

// Info logs an info message.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	if l.enabled() {
		l.logger.InfoContext(ctx, msg, args...)
	}
}

// Warn logs a warning.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	if l.enabled() {
		l.logger.WarnContext(ctx, msg, args...)
	}
}

// Error logs an error.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	if l.enabled() {
		l.logger.ErrorContext(ctx, msg, args...)
	}
}

// With returns a logger with additional fields.
func (l *Logger) With(args ...any) *Logger {
	if !l.enabled() {
		return l
	}
	return &Logger{logger: l.logger.With(args...)}
}

// WithOperation returns a logger tagged with an operation name.
func (l *Logger) WithOperation(operation string) *Logger {
	return l.With("operation", operation)
}

// WithBackend returns a logger tagged with a data source id.
func (l *Logger) WithBackend(id string) *Logger {
	return l.With("backend", id)
}

// WithTransaction returns a logger tagged with transaction and output ids.
func (l *Logger) WithTransaction(transactionID, outputID string) *Logger {
	return l.With("transaction", transactionID, "output", outputID)
}

// WithAttempt returns a logger tagged with transaction, attempt and output
// ids.
func (l *Logger) WithAttempt(transactionID, attemptID, outputID string) *Logger {
	return l.With("transaction", transactionID, "attempt", attemptID, "output", outputID)
}
