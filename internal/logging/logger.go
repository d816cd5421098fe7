// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides the diagnostic logger shared by every fredchat
// component. Output is JSON lines (datetime, level, message plus any fields).
//
// The CLI and key server log to stderr. The full-screen UI owns the terminal,
// so it redirects output to a file with UseFile before starting.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gookit/slog"
	"github.com/gookit/slog/handler"
)

// Logger is the minimal logging surface the rest of the code depends on.
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Fields carries structured context for a single log line.
type Fields map[string]any

var (
	mu      sync.RWMutex
	current Logger = New("info", os.Stderr)
	closer  io.Closer
)

// New builds a gookit/slog logger writing JSON lines to w at the given level.
// Unknown level names fall back to info.
func New(level string, w io.Writer) *slog.Logger {
	logLevel := slog.LevelByName(strings.ToLower(strings.TrimSpace(level)))

	var levels slog.Levels
	for _, lv := range slog.AllLevels {
		if lv <= logLevel {
			levels = append(levels, lv)
		}
	}

	h := handler.NewIOWriterHandler(w, levels)
	h.SetFormatter(slog.NewJSONFormatter(func(f *slog.JSONFormatter) {
		f.Fields = []string{
			slog.FieldKeyDatetime,
			slog.FieldKeyLevel,
			slog.FieldKeyMessage,
		}
		f.Aliases = slog.StringMap{
			slog.FieldKeyDatetime: "datetime",
			slog.FieldKeyLevel:    "level",
			slog.FieldKeyMessage:  "message",
		}
		f.TimeFormat = "2006-01-02T15:04:05"
	}))

	return slog.NewWithHandlers(h)
}

// L returns the process-wide logger.
func L() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set replaces the process-wide logger.
func Set(l Logger) {
	mu.Lock()
	defer mu.Unlock()
	current = l
}

// Init configures the process-wide logger to write to w at level.
func Init(level string, w io.Writer) {
	Set(New(level, w))
}

// UseFile appends log output to path, creating parent directories with
// owner-only permissions. Call Close on shutdown.
func UseFile(level, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		closer.Close()
	}
	current = New(level, f)
	closer = f
	return nil
}

// Close flushes the current logger and closes any log file opened by UseFile.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if sl, ok := current.(*slog.Logger); ok {
		_ = sl.Flush()
	}
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	current = New("info", os.Stderr)
	return err
}

// =============================================================================
// STRUCTURED HELPERS
// =============================================================================

// InfoWithFields logs msg at info level with structured fields.
func InfoWithFields(msg string, fields Fields) {
	withFields(fields, func(l Logger) { l.Info(msg) })
}

// WarnWithFields logs msg at warn level with structured fields.
func WarnWithFields(msg string, fields Fields) {
	withFields(fields, func(l Logger) { l.Warn(msg) })
}

// ErrorWithFields logs msg at error level with structured fields.
func ErrorWithFields(msg string, fields Fields) {
	withFields(fields, func(l Logger) { l.Error(msg) })
}

// DebugWithFields logs msg at debug level with structured fields.
func DebugWithFields(msg string, fields Fields) {
	withFields(fields, func(l Logger) { l.Debug(msg) })
}

func withFields(fields Fields, emit func(Logger)) {
	l := L()
	if sl, ok := l.(*slog.Logger); ok && len(fields) > 0 {
		emit(sl.WithFields(slog.M(fields)))
		return
	}
	emit(l)
}
