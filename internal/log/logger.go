// Package log provides the process-wide structured logger for policygate.
//
// Verdict output (PASS/FAIL lines, reports) never goes through this logger;
// it is reserved for diagnostics on stderr.
package log

import (
	"io"
	"log/slog"
	"os"
)

var (
	// Logger is the global logger instance.
	Logger *slog.Logger
)

func init() {
	Logger = newLogger(os.Stderr, slog.LevelWarn)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// SetLevel sets the logging level.
func SetLevel(level slog.Level) {
	Logger = newLogger(os.Stderr, level)
}

// SetOutput redirects diagnostics, mainly for tests.
func SetOutput(w io.Writer, level slog.Level) {
	Logger = newLogger(w, level)
}

// SetVerbose switches between debug and the default warn level.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(slog.LevelDebug)
		return
	}
	SetLevel(slog.LevelWarn)
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// With returns a logger with additional attributes.
func With(args ...any) *slog.Logger {
	return Logger.With(args...)
}
