// Package logging wires log/slog for the CLI and offers field-map helpers.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// Fields represents structured logging fields.
type Fields map[string]any

// ParseLevel maps a config string to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q (use debug, info, warn or error)", s)
}

// Setup installs the default logger writing to stderr.
func Setup(level slog.Level, format string) error {
	return SetupWriter(os.Stderr, level, format)
}

// SetupWriter installs the default logger writing to w. Format is "json",
// "text" or "console"; anything else falls back to text.
func SetupWriter(w io.Writer, level slog.Level, format string) error {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "", "text", "console":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
		slog.New(handler).Warn("unknown log format, using text", "format", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// Error logs err with additional context.
func Error(err error, msg string, fields Fields) {
	attrs := make([]slog.Attr, 0, len(fields)+1)
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	log(slog.LevelError, msg, append(attrs, toAttrs(fields)...))
}

// Warn logs a warning with fields.
func Warn(msg string, fields Fields) {
	log(slog.LevelWarn, msg, toAttrs(fields))
}

// Info logs an info message with fields.
func Info(msg string, fields Fields) {
	log(slog.LevelInfo, msg, toAttrs(fields))
}

// Debug logs a debug message with fields.
func Debug(msg string, fields Fields) {
	log(slog.LevelDebug, msg, toAttrs(fields))
}

func log(level slog.Level, msg string, attrs []slog.Attr) {
	slog.LogAttrs(context.Background(), level, msg, attrs...)
}

// toAttrs sorts keys so output is stable between runs.
func toAttrs(fields Fields) []slog.Attr {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	return attrs
}
