package analysis

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a run is requested while another is in flight.
var ErrBusy = errors.New("analysis already in progress")

// ErrEmptyResponse marks a generation call that returned no text.
var ErrEmptyResponse = errors.New("empty response")

// PerspectiveError records the failure of one perspective's generation call.
// It is absorbed into the result rather than aborting the run.
type PerspectiveError struct {
	Perspective Key
	StatusCode  int
	Timeout     bool
	Err         error
}

func (e *PerspectiveError) Error() string {
	msg := fmt.Sprintf("perspective %s: %v", e.Perspective, e.Err)
	switch {
	case e.Timeout:
		msg += " (timeout)"
	case e.StatusCode != 0:
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	return msg
}

func (e *PerspectiveError) Unwrap() error {
	return e.Err
}

// Inline renders the error as the text stored in the perspective's slot.
func (e *PerspectiveError) Inline(lang string) string {
	p, ok := LookupPerspective(e.Perspective)
	label := string(e.Perspective)
	if ok {
		label = p.Label(lang)
	}

	primary := tierOf(lang) == tierPrimary
	if errors.Is(e.Err, ErrEmptyResponse) {
		if primary {
			return fmt.Sprintf("[%s] の分析結果を取得できませんでした (空の応答)。", label)
		}
		return fmt.Sprintf("[%s] analysis returned an empty response.", label)
	}

	var msg string
	if primary {
		msg = fmt.Sprintf("[%s] の分析中にエラーが発生しました: %v", label, e.Err)
	} else {
		msg = fmt.Sprintf("[%s] analysis failed: %v", label, e.Err)
	}
	switch {
	case e.Timeout && primary:
		msg += " (タイムアウト)"
	case e.Timeout:
		msg += " (timeout)"
	case e.StatusCode != 0 && primary:
		msg += fmt.Sprintf(" (ステータス: %d)", e.StatusCode)
	case e.StatusCode != 0:
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	return msg
}

// UnificationError records a failed merge call. It is only logged; the
// unifier recovers with the template article.
type UnificationError struct {
	Err error
}

func (e *UnificationError) Error() string {
	return fmt.Sprintf("unification failed: %v", e.Err)
}

func (e *UnificationError) Unwrap() error {
	return e.Err
}
