// Package logging provides the application logger.
package logging

import (
	"log/slog"
	"os"
)

// Logger is a key/value console logger.
type Logger struct {
	s *slog.Logger
}

// NewLogger creates a new Logger.
func NewLogger() *Logger {
	return &Logger{
		s: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
}

// Info logs an informational message.
func (l *Logger) Info(msg string, args ...any) { l.s.Info(msg, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) { l.s.Warn(msg, args...) }

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) { l.s.Error(msg, args...) }

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) { l.s.Debug(msg, args...) }
