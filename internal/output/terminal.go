package output

import (
	"fmt"

	"github.com/charmbracelet/glamour"

	"github.com/julianshen/gitnote/internal/analysis"
)

// Renderer wraps Glamour for rendering markdown to styled terminal output.
type Renderer struct {
	renderer *glamour.TermRenderer
}

// NewRenderer creates a Renderer with the dark style and the given word wrap
// width.
func NewRenderer(width int) (*Renderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("creating glamour renderer: %w", err)
	}
	return &Renderer{renderer: r}, nil
}

// Render processes markdown text into styled terminal output.
func (m *Renderer) Render(md string) (string, error) {
	if md == "" {
		return "", nil
	}
	return m.renderer.Render(md)
}

// TerminalFormatter renders the article for a terminal.
type TerminalFormatter struct {
	renderer *Renderer
}

// NewTerminalFormatter creates a TerminalFormatter wrapping at width.
func NewTerminalFormatter(width int) (*TerminalFormatter, error) {
	r, err := NewRenderer(width)
	if err != nil {
		return nil, err
	}
	return &TerminalFormatter{renderer: r}, nil
}

// Format renders the article with Glamour.
func (f *TerminalFormatter) Format(report *analysis.Report) ([]byte, error) {
	out, err := f.renderer.Render(report.Article)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}
