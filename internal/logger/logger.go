// Package logger provides logging utilities for the pipeline job.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	slogmulti "github.com/samber/slog-multi"
)

// Logger provides structured logging functionality.
type Logger struct {
	internal *slog.Logger
	level    *slog.LevelVar
}

// NewLogger creates a new logger instance with the specified level, writing
// slog text lines to stderr.
func NewLogger(level string) *Logger {
	lvl := parseLevel(level)

	opts := &slog.HandlerOptions{
		Level: lvl,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)

	return &Logger{
		internal: slog.New(handler),
		level:    lvl,
	}
}

// Setup builds the job logger: a stderr text sink fanned out with a plain
// line-format file sink at path. If the file cannot be opened the logger
// degrades to stderr only and the open error is reported through the
// returned logger. An empty path means stderr only. The returned func closes
// the file sink.
func Setup(path, level string) (*Logger, func() error) {
	lvl := parseLevel(level)

	opts := &slog.HandlerOptions{
		Level: lvl,
	}

	stderrHandler := slog.NewTextHandler(os.Stderr, opts)

	if path == "" {
		return &Logger{internal: slog.New(stderrHandler), level: lvl}, func() error { return nil }
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log := &Logger{internal: slog.New(stderrHandler), level: lvl}
		log.Warn("could not open log file, logging to stderr only", "path", path, "error", err)

		return log, func() error { return nil }
	}

	fileHandler := newLineHandler(file, lvl)
	internal := slog.New(slogmulti.Fanout(stderrHandler, fileHandler))

	return &Logger{internal: internal, level: lvl}, file.Close
}

// NewWithWriters creates a logger with explicit stderr and file-line sinks.
func NewWithWriters(stderr, file io.Writer, level string) *Logger {
	lvl := parseLevel(level)

	opts := &slog.HandlerOptions{
		Level: lvl,
	}

	stderrHandler := slog.NewTextHandler(stderr, opts)
	fileHandler := newLineHandler(file, lvl)

	return &Logger{
		internal: slog.New(slogmulti.Fanout(stderrHandler, fileHandler)),
		level:    lvl,
	}
}

func parseLevel(level string) *slog.LevelVar {
	lvl := new(slog.LevelVar)

	switch strings.ToLower(level) {
	case "debug":
		lvl.Set(slog.LevelDebug)
	case "info":
		lvl.Set(slog.LevelInfo)
	case "warn":
		lvl.Set(slog.LevelWarn)
	case "error":
		lvl.Set(slog.LevelError)
	default:
		lvl.Set(slog.LevelInfo)
	}

	return lvl
}

// Info logs an info level message.
func (l *Logger) Info(msg string, args ...any) {
	l.internal.Info(msg, args...)
}

// Error logs an error level message.
func (l *Logger) Error(msg string, args ...any) {
	l.internal.Error(msg, args...)
}

// Debug logs a debug level message.
func (l *Logger) Debug(msg string, args ...any) {
	l.internal.Debug(msg, args...)
}

// Warn logs a warning level message.
func (l *Logger) Warn(msg string, args ...any) {
	l.internal.Warn(msg, args...)
}

// With creates a child logger with the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		internal: l.internal.With(args...),
		level:    l.level,
	}
}

// Log logs a message with the given level and attributes.
func (l *Logger) Log(ctx context.Context, level slog.Level, msg string, args ...any) {
	l.internal.Log(ctx, level, msg, args...)
}

// lineHandler writes "timestamp - LEVEL - message" lines, the format the
// job's historical log files use. Attributes are appended as key=value pairs.
type lineHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	attrs []slog.Attr
}

func newLineHandler(w io.Writer, level slog.Leveler) *lineHandler {
	return &lineHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
	}
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	sb.WriteString(r.Time.Format("2006-01-02 15:04:05,000"))
	sb.WriteString(" - ")
	sb.WriteString(levelName(r.Level))
	sb.WriteString(" - ")
	sb.WriteString(r.Message)

	for _, attr := range h.attrs {
		writeAttr(&sb, attr)
	}

	r.Attrs(func(attr slog.Attr) bool {
		writeAttr(&sb, attr)

		return true
	})

	sb.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := io.WriteString(h.w, sb.String())

	return err
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)

	return &lineHandler{
		mu:    h.mu,
		w:     h.w,
		level: h.level,
		attrs: merged,
	}
}

func (h *lineHandler) WithGroup(_ string) slog.Handler {
	// Groups are not used by this job's loggers.
	return h
}

func writeAttr(sb *strings.Builder, attr slog.Attr) {
	sb.WriteString(" ")
	sb.WriteString(attr.Key)
	sb.WriteString("=")
	sb.WriteString(fmt.Sprint(attr.Value.Any()))
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARNING"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
