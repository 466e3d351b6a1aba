// Copyright (c) 2020 The CodeChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// Logger is the logging handle used across the codebase.
type Logger = *slog.Logger

var rootHandler atomic.Pointer[slog.Handler]

func init() {
	h := DiscardHandler()
	rootHandler.Store(&h)
}

// SetRootHandler replaces the handler backing every logger, including
// loggers created via WithContext before the call.
func SetRootHandler(h slog.Handler) {
	rootHandler.Store(&h)
}

var rootLogger = slog.New(&swapHandler{})

// Root returns the root logger.
func Root() Logger {
	return rootLogger
}

// WithContext returns a logger carrying the given key-value context.
// Conventionally the first pair is ("pkg", <package name>).
func WithContext(kvs ...any) Logger {
	return Root().With(kvs...)
}

// swapHandler resolves the root handler at log time, so package-level
// loggers built at init follow a later SetRootHandler.
type swapHandler struct {
	attrs  []slog.Attr
	groups []string
}

func (h *swapHandler) resolve() slog.Handler {
	inner := *rootHandler.Load()
	if len(h.attrs) > 0 {
		inner = inner.WithAttrs(h.attrs)
	}
	for _, name := range h.groups {
		inner = inner.WithGroup(name)
	}
	return inner
}

func (h *swapHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.resolve().Handle(ctx, r)
}

func (h *swapHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return (*rootHandler.Load()).Enabled(ctx, level)
}

func (h *swapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &swapHandler{attrs: merged, groups: h.groups}
}

func (h *swapHandler) WithGroup(name string) slog.Handler {
	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)
	return &swapHandler{attrs: h.attrs, groups: groups}
}

// Verbosity maps a 0..5 verbosity number onto slog levels.
// 0=crit(silent-ish), 1=error, 2=warn, 3=info, 4=debug, 5=trace(debug).
func Verbosity(v int) slog.Level {
	switch {
	case v <= 1:
		return slog.LevelError
	case v == 2:
		return slog.LevelWarn
	case v == 3:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// NewTerminalLevel builds a LevelVar set at the given verbosity.
func NewTerminalLevel(v int) *slog.LevelVar {
	var lvl slog.LevelVar
	lvl.Set(Verbosity(v))
	return &lvl
}

// InitTerminal is a convenience for command entries: routes the root logger
// to stderr at the given verbosity.
func InitTerminal(verbosity int, useColor bool) {
	SetRootHandler(NewTerminalHandlerWithLevel(os.Stderr, NewTerminalLevel(verbosity), useColor))
}
