package output

import (
	"strings"

	"github.com/julianshen/gitnote/internal/analysis"
)

// MarkdownFormatter outputs the article as plain Markdown.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format returns the article followed by a single newline.
func (f *MarkdownFormatter) Format(report *analysis.Report) ([]byte, error) {
	return []byte(strings.TrimRight(report.Article, "\n") + "\n"), nil
}
