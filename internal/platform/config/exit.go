package config

import (
	"fmt"
	"io"
	"os"
)

// Exitf writes a formatted error message to stderr and exits with code 1.
// It provides a consistent fatal-exit pattern for CLI entry points.
func Exitf(format string, args ...any) {
	Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

// Fprintf writes one newline-terminated message to w.
func Fprintf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}
