// Package output renders analysis reports for the CLI.
package output

import (
	"fmt"

	"github.com/julianshen/gitnote/internal/analysis"
)

// Formatter formats a Report into output bytes.
type Formatter interface {
	Format(report *analysis.Report) ([]byte, error)
}

// NewFormatter returns the formatter registered under name. width is the
// word-wrap column for the terminal formatter.
func NewFormatter(name string, width int) (Formatter, error) {
	switch name {
	case "", "markdown":
		return NewMarkdownFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "terminal":
		return NewTerminalFormatter(width)
	default:
		return nil, fmt.Errorf("unknown output format %q (want markdown, json or terminal)", name)
	}
}
