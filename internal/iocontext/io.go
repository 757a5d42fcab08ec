// Package iocontext carries the command's I/O streams in a context so tests
// can capture output and feed stdin.
package iocontext

import (
	"context"
	"io"
	"os"

	"golang.org/x/term"
)

// IO holds the streams a command reads from and writes to.
type IO struct {
	Out    io.Writer
	ErrOut io.Writer
	In     io.Reader
}

// DefaultIO returns the process streams.
func DefaultIO() *IO {
	return &IO{Out: os.Stdout, ErrOut: os.Stderr, In: os.Stdin}
}

// IsTerminal reports whether In is an interactive terminal. Injected readers
// never are.
func (s *IO) IsTerminal() bool {
	f, ok := s.In.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type ioKey struct{}

// WithIO adds streams to a context.
func WithIO(ctx context.Context, streams *IO) context.Context {
	return context.WithValue(ctx, ioKey{}, streams)
}

// GetIO returns the streams stored in ctx, or the process streams.
func GetIO(ctx context.Context) *IO {
	if streams, ok := ctx.Value(ioKey{}).(*IO); ok && streams != nil {
		return streams
	}
	return DefaultIO()
}
