// Package logger provides progress and diagnostic logging for the ghvault CLI.
// Informational lines go to stdout so a backup run can be followed or piped;
// warnings and errors go to stderr. Components receive a Logger rather than
// writing to the process streams directly, which keeps them testable without
// capturing os.Stdout.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Logger is the logging capability injected into the fetcher, the mirror
// syncer and the orchestrator.
type Logger interface {
	// Infof prints an informational progress line.
	Infof(format string, args ...any)

	// Warnf prints a warning line.
	Warnf(format string, args ...any)

	// Errorf prints an error line.
	Errorf(format string, args ...any)
}

// Standard writes info lines to one writer and warnings/errors to another.
type Standard struct {
	mu    sync.Mutex
	out   io.Writer
	errw  io.Writer
	quiet bool
}

// New creates a logger writing to stdout and stderr.
func New(quiet bool) *Standard {
	return &Standard{out: os.Stdout, errw: os.Stderr, quiet: quiet}
}

// NewWithWriters creates a logger with explicit writers. Useful for testing.
func NewWithWriters(out, errw io.Writer, quiet bool) *Standard {
	return &Standard{out: out, errw: errw, quiet: quiet}
}

// Infof prints an informational line unless quiet mode is enabled.
func (l *Standard) Infof(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.quiet {
		return
	}
	fmt.Fprintf(l.out, format+"\n", args...)
}

// Warnf prints a warning line to the error stream.
func (l *Standard) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.errw, "warning: "+format+"\n", args...)
}

// Errorf prints an error line to the error stream. Quiet mode does not
// suppress errors.
func (l *Standard) Errorf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.errw, "error: "+format+"\n", args...)
}

// Discard is a Logger that drops everything. Useful for tests that do not
// assert on output.
type Discard struct{}

func (Discard) Infof(string, ...any)  {}
func (Discard) Warnf(string, ...any)  {}
func (Discard) Errorf(string, ...any) {}
