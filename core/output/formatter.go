// Package output provides output formatting interfaces.
// This package produces human and machine-readable renderings of query results.
package output

import (
	"fmt"
	"io"
	"strings"

	"cloudkeeper/core/query"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// Formats lists the supported formats
func Formats() []Format {
	return []Format{FormatCLI, FormatJSON}
}

// ParseFormat resolves a format name
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatCLI, "":
		return FormatCLI, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (supported: cli, json)", name)
}

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given result
	Render(w io.Writer, result *query.Result) error
}

// Options tune rendering
type Options struct {
	// NoColor disables ANSI colors in CLI output
	NoColor bool

	// Charts includes the chart summaries in CLI output
	Charts bool

	// Indent pretty-prints JSON output
	Indent bool
}

// New returns the formatter for f
func New(f Format, opts Options) (Formatter, error) {
	switch f {
	case FormatCLI:
		return &CLIFormatter{opts: opts}, nil
	case FormatJSON:
		return &JSONFormatter{opts: opts}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", f)
}
