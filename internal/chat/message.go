// Package chat implements a bounded question-and-answer conversation scoped
// to a single generated article.
package chat

import "github.com/google/uuid"

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is one conversation entry. Streaming is true only while an AI
// answer is still arriving; it turns false exactly once.
type Message struct {
	ID        string `json:"id"`
	Sender    Sender `json:"sender"`
	Text      string `json:"text"`
	Streaming bool   `json:"isStreaming,omitempty"`
}

func newMessage(sender Sender, text string, streaming bool) Message {
	return Message{ID: uuid.NewString(), Sender: sender, Text: text, Streaming: streaming}
}

// Snapshot is an immutable view of a session, delivered to subscribers on
// every change.
type Snapshot struct {
	Messages  []Message
	IsLoading bool
	Err       error
}

func cloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// trimFront drops the oldest entries so at most limit remain.
func trimFront(msgs []Message, limit int) []Message {
	if limit <= 0 || len(msgs) <= limit {
		return msgs
	}
	return msgs[len(msgs)-limit:]
}
