package logger

import (
	"io"
	"log/slog"
	"os"
)

// SlogLogger adapts log/slog to ports.Logger.
type SlogLogger struct {
	log *slog.Logger
}

// NewStd creates a logger writing text records to stderr.
// Debug records are emitted only when verbose; otherwise only warnings and errors.
func NewStd(verbose bool) *SlogLogger {
	return New(os.Stderr, verbose)
}

// New creates a logger writing to w.
func New(w io.Writer, verbose bool) *SlogLogger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &SlogLogger{log: slog.New(handler)}
}

// Discard returns a logger that drops everything.
func Discard() *SlogLogger {
	return New(io.Discard, false)
}

func (l *SlogLogger) Debug(msg string, fields map[string]interface{}) {
	l.log.Debug(msg, attrs(fields)...)
}

func (l *SlogLogger) Info(msg string, fields map[string]interface{}) {
	l.log.Info(msg, attrs(fields)...)
}

func (l *SlogLogger) Warn(msg string, fields map[string]interface{}) {
	l.log.Warn(msg, attrs(fields)...)
}

func (l *SlogLogger) Error(msg string, err error, fields map[string]interface{}) {
	args := attrs(fields)
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	l.log.Error(msg, args...)
}

func attrs(fields map[string]interface{}) []any {
	if len(fields) == 0 {
		return nil
	}
	out := make([]any, 0, len(fields))
	for key, value := range fields {
		out = append(out, slog.Any(key, value))
	}
	return out
}
