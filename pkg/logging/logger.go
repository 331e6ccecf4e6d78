// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging provides the structured logger used by osscheck.
//
// The logger is built on log/slog and writes to two destinations:
//
//   - stderr (default, text or JSON) following Unix conventions
//   - an optional JSON log file per service and day
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelInfo,
//	    LogDir:  "~/.conceptoss/logs",  // Supports ~ expansion
//	    Service: "osscheck",
//	})
//	defer logger.Close()
//
//	run, runID := logger.WithRunID()
//	run.Info("validating", "file", path)
//
// Library packages never import this package. They accept a *slog.Logger,
// which callers obtain from Logger.Slog.
//
// # Thread Safety
//
// Logger is safe for concurrent use. The underlying slog.Logger is
// thread-safe and Close is protected by a mutex.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Log Levels
// =============================================================================

// Level represents log severity levels, ordered Debug < Info < Warn < Error.
type Level int

const (
	// LevelDebug is for per-stage assembly and validation detail.
	LevelDebug Level = iota

	// LevelInfo is for run start/end and file-level results.
	LevelInfo

	// LevelWarn is for non-fatal findings, e.g. differing definitions.
	LevelWarn

	// LevelError is for failed runs.
	LevelError
)

// String returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a case-insensitive level name to a Level.
//
// Unknown names map to LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// toSlogLevel converts Level to slog.Level.
func (l Level) toSlogLevel() slog.Level {
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

// =============================================================================
// Configuration
// =============================================================================

// Config configures the Logger behavior.
//
// A zero-value Config creates a logger that writes Info+ messages to
// stderr in text format.
type Config struct {
	// Level sets the minimum log level.
	// Default: LevelInfo
	Level Level

	// LogDir enables file logging to the specified directory.
	//
	// The file is named "{Service}_{YYYY-MM-DD}.log" and is always JSON.
	// The directory is created with 0750 permissions. Supports ~.
	// Default: "" (file logging disabled)
	LogDir string

	// Service is attached to every entry as the "service" attribute.
	// Default: "" (no service attribute)
	Service string

	// JSON switches the console output to JSON.
	JSON bool

	// Quiet disables console output.
	Quiet bool

	// Output replaces stderr as the console destination.
	// Default: nil (stderr)
	Output io.Writer
}

// =============================================================================
// Logger
// =============================================================================

// Logger provides structured logging with console and file output.
//
// Always call Close when file logging is enabled:
//
//	logger := logging.New(config)
//	defer logger.Close()
type Logger struct {
	slog   *slog.Logger
	config Config

	// file is the optional log file handle (nil if file logging disabled)
	file *os.File

	// mu protects file
	mu sync.Mutex
}

// New creates a new Logger with the given configuration.
//
// File logging failures (unwritable directory) are not fatal; the logger
// falls back to console output only.
func New(config Config) *Logger {
	var handlers []slog.Handler

	opts := &slog.HandlerOptions{
		Level: config.Level.toSlogLevel(),
	}

	console := config.Output
	if console == nil {
		console = os.Stderr
	}
	if !config.Quiet {
		if config.JSON {
			handlers = append(handlers, slog.NewJSONHandler(console, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(console, opts))
		}
	}

	logger := &Logger{config: config}

	if config.LogDir != "" {
		logDir := expandPath(config.LogDir)
		if err := os.MkdirAll(logDir, 0750); err == nil {
			serviceName := config.Service
			if serviceName == "" {
				serviceName = "osscheck"
			}
			filename := fmt.Sprintf("%s_%s.log", serviceName, time.Now().Format("2006-01-02"))
			file, err := os.OpenFile(filepath.Join(logDir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
			if err == nil {
				logger.file = file
				handlers = append(handlers, slog.NewJSONHandler(file, opts))
			}
		}
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.NewTextHandler(io.Discard, opts)
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}

	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{
			slog.String("service", config.Service),
		})
	}

	logger.slog = slog.New(handler)
	return logger
}

// Default returns an Info-level stderr logger for service "osscheck".
func Default() *Logger {
	return New(Config{
		Level:   LevelInfo,
		Service: "osscheck",
	})
}

// Debug logs a message at Debug level.
func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }

// Info logs a message at Info level.
func (l *Logger) Info(msg string, args ...any) { l.slog.Info(msg, args...) }

// Warn logs a message at Warn level.
func (l *Logger) Warn(msg string, args ...any) { l.slog.Warn(msg, args...) }

// Error logs a message at Error level.
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a child Logger with additional attributes.
//
// The child shares the parent's file handle; only the parent should be
// closed.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
	}
}

// WithRunID returns a child Logger tagged with a fresh "run_id" and the id.
//
// Run ids are the first 12 characters of a random UUID.
func (l *Logger) WithRunID() (*Logger, string) {
	runID := NewRunID()
	return l.With("run_id", runID), runID
}

// NewRunID returns a short random identifier for one CLI run.
func NewRunID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Slog returns the underlying slog.Logger for library packages.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Close syncs and closes the log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync log file: %w", err)
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	l.file = nil
	return nil
}

// =============================================================================
// Multi-Handler (Internal)
// =============================================================================

// multiHandler fans out log records to multiple slog handlers.
type multiHandler struct {
	handlers []slog.Handler
}

// Enabled returns true if any handler is enabled for the level.
func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle sends the record to all enabled handlers.
func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

// WithAttrs returns a new handler with additional attributes.
func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

// WithGroup returns a new handler with a group name.
func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
