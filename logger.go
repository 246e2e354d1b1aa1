package nftpreview

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

// loggerPtr stores the package logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the package logger. By default nftpreview produces no
// log output. Compositors, loaders and previews created without their own
// logger pick up the package logger at log time.
//
// Pass nil to restore the silent default.
//
// Log levels used by nftpreview:
//   - [slog.LevelDebug]: per-layer draws, cache hits
//   - [slog.LevelInfo]: composite completion
//   - [slog.LevelWarn]: layers skipped after a load or draw failure, invalid
//     background colors
//
// Example:
//
//	nftpreview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the package logger. It is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// orLogger returns l, or the package logger when l is nil.
func orLogger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return Logger()
}
