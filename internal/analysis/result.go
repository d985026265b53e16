package analysis

import (
	"strings"
	"time"
)

// Outcome is one perspective's settled result. Text always holds something
// displayable: the generated content, or the inline error message when Err
// is set.
type Outcome struct {
	Text string
	Err  *PerspectiveError
}

// Failed reports whether the perspective produced no usable content.
func (o Outcome) Failed() bool {
	return o.Err != nil || strings.TrimSpace(o.Text) == ""
}

// Result maps every perspective key to its outcome. A completed run always
// holds all four keys.
type Result map[Key]Outcome

// Report is the full output of one analysis run.
type Report struct {
	Repo         string
	Language     string
	Model        string
	SnapshotURL  string
	Perspectives Result
	Article      string
	Unified      bool
	Duration     time.Duration
}
