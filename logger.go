// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package lod

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called while a monitoring loop is logging.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for lod and all its sub-packages.
// By default, lod produces no log output. Pass nil to restore silence.
//
// Log levels used by lod:
//   - [slog.LevelDebug]: per-sample diagnostics (fps, cache hits)
//   - [slog.LevelInfo]: device detection, quality changes, stage completion
//   - [slog.LevelWarn]: detection fallback, budget substitution, stage failures
//
// Example:
//
//	lod.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by lod.
// Sub-packages (viewer/, probe/, prefs/) call this to share the same
// logger configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
