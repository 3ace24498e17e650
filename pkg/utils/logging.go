package utils

import (
	"fmt"
	"io"
	"log/slog"
)

// NewLogger creates the structured logger handed to every pipeline stage.
// Output goes to w so the report files stay clean.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// VerboseLogger provides consistent verbose progress lines across packages
type VerboseLogger struct {
	out     io.Writer
	verbose bool
}

// NewVerboseLogger creates a new verbose logger writing to out
func NewVerboseLogger(out io.Writer, verbose bool) *VerboseLogger {
	return &VerboseLogger{out: out, verbose: verbose}
}

// Logf logs a formatted message if verbose mode is enabled
func (v *VerboseLogger) Logf(format string, args ...interface{}) {
	if v.verbose {
		fmt.Fprintf(v.out, format, args...)
	}
}
