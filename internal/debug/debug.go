// Package debug carries the --debug switch through contexts and configures
// the process-wide slog logger.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type ctxKey struct{}

// WithDebug returns a context with request tracing switched on or off.
func WithDebug(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, ctxKey{}, enabled)
}

// IsEnabled reports whether request tracing is on for ctx.
func IsEnabled(ctx context.Context) bool {
	if v, ok := ctx.Value(ctxKey{}).(bool); ok {
		return v
	}
	return false
}

// SetupLogger installs a text logger on w (stderr when nil) as the slog
// default. With debug off only warnings and errors are written, and
// timestamps are dropped so that CLI output stays stable.
func SetupLogger(w io.Writer, enabled bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelWarn
	if enabled {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if !enabled {
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		}
	}

	logger := slog.New(slog.NewTextHandler(w, opts)).With("app", "fashion")
	slog.SetDefault(logger)
	return logger
}
