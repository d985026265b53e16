package chat

import (
	"errors"
	"fmt"
)

// ErrBusy is returned by Send while a previous turn is still streaming.
var ErrBusy = errors.New("chat turn already in progress")

// ErrEmptyAnswer is reported when a stream completes without any text.
var ErrEmptyAnswer = errors.New("no answer received")

// ErrStreamClosed is reported when the stream ends without a completion event.
var ErrStreamClosed = errors.New("stream closed before completion")

// ChatError wraps any failure of a chat turn. The turn is rolled back before
// it is returned.
type ChatError struct {
	Err error
}

func (e *ChatError) Error() string {
	return fmt.Sprintf("chat: %v", e.Err)
}

func (e *ChatError) Unwrap() error {
	return e.Err
}
