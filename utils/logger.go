package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Logger provides structured, leveled logging throughout the application.
// Call sites keep printf-style formatting; records are emitted through slog.
type Logger struct {
	slog *slog.Logger
}

// NewLogger creates a Logger writing colourised records to stdout at the
// given level ("debug", "info", "warn", "error").
func NewLogger(level string) *Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo creates a Logger writing to w.
func NewLoggerTo(w io.Writer, level string) *Logger {
	handler := tint.NewHandler(w, &tint.Options{
		Level:      parseLevel(level),
		TimeFormat: time.DateTime,
	})
	return &Logger{slog: slog.New(handler)}
}

// Slog exposes the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

func (l *Logger) Info(format string, args ...any) {
	l.slog.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...any) {
	l.slog.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	l.slog.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) {
	l.slog.Debug(fmt.Sprintf(format, args...))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
