package provider

import (
	"context"
	"fmt"
)

// Stream event types.
const (
	EventTextDelta = "text_delta"
	EventStop      = "stop"
	EventError     = "error"
)

// Message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// LLMProvider defines the interface for interacting with an LLM provider.
type LLMProvider interface {
	// Complete issues a non-streaming request and returns the full text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Stream issues a streaming request. The channel is closed after a stop
	// or error event.
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error)
}

// CompletionRequest represents a request to an LLM for completion.
type CompletionRequest struct {
	Model       string         `json:"model"`
	System      string         `json:"system,omitempty"`
	Messages    []Message      `json:"messages"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature *float64       `json:"temperature,omitempty"`
	Extra       map[string]any `json:"-"`
}

// Message represents a single message in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamEvent represents a single event in a streaming response.
type StreamEvent struct {
	Type  string
	Text  string
	Error error
}

// NewUserMessage creates a new user message.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// APIError is returned when the generation API answers with a non-success
// status.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}
