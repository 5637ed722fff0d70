package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// ChatSession is a stateful conversation with a language model. Every Send
// appends the prompt and the reply to the transcript, so later turns see
// earlier ones.
type ChatSession interface {
	// Send submits prompt as the next user turn and returns the model's reply.
	Send(ctx context.Context, prompt string) (string, error)

	// History returns a copy of the transcript in chronological order.
	History() []Message
}
