package output

import (
	"encoding/json"

	"github.com/julianshen/gitnote/internal/analysis"
)

// PerspectiveJSON is one perspective's outcome in wire form.
type PerspectiveJSON struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// ReportJSON is the wire form of an analysis.Report, shared by the JSON
// formatter and the HTTP API.
type ReportJSON struct {
	Repo         string            `json:"repo"`
	Language     string            `json:"language"`
	Model        string            `json:"model"`
	SnapshotURL  string            `json:"snapshot_url,omitempty"`
	Unified      bool              `json:"unified"`
	DurationMs   int64             `json:"duration_ms"`
	Article      string            `json:"article"`
	Perspectives []PerspectiveJSON `json:"perspectives"`
}

// NewReportJSON converts r, listing perspectives in their fixed order.
func NewReportJSON(r *analysis.Report) ReportJSON {
	out := ReportJSON{
		Repo:         r.Repo,
		Language:     r.Language,
		Model:        r.Model,
		SnapshotURL:  r.SnapshotURL,
		Unified:      r.Unified,
		DurationMs:   r.Duration.Milliseconds(),
		Article:      r.Article,
		Perspectives: make([]PerspectiveJSON, 0, len(analysis.Perspectives())),
	}
	for _, p := range analysis.Perspectives() {
		o := r.Perspectives[p.Key]
		pj := PerspectiveJSON{Key: string(p.Key), Label: p.Label(r.Language), Text: o.Text}
		if o.Err != nil {
			pj.Error = o.Err.Error()
		}
		out.Perspectives = append(out.Perspectives, pj)
	}
	return out
}

// JSONFormatter outputs the report as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format marshals the report as indented JSON.
func (f *JSONFormatter) Format(report *analysis.Report) ([]byte, error) {
	return json.MarshalIndent(NewReportJSON(report), "", "  ")
}
