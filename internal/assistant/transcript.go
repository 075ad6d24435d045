package assistant

import (
	"context"
	"sync"
	"time"
)

// ErrorReply is shown in place of an answer when a question fails.
const ErrorReply = "I apologize, but I encountered an error while processing your request. Please try again."

// Roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	Cards     []Card    `json:"cards,omitempty"`
}

// Transcript is the in-memory conversation of one client session.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
	now      func() time.Time
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{now: time.Now}
}

// Add appends a message.
func (t *Transcript) Add(m Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, m)
}

// Messages returns a copy of the conversation.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Message(nil), t.messages...)
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// Ask records q, asks a, and records the reply. A failure records
// ErrorReply and returns the error.
func (t *Transcript) Ask(ctx context.Context, a Answerer, q string) (Message, error) {
	t.Add(Message{Role: RoleUser, Content: q, Timestamp: t.now()})

	reply := Message{Role: RoleAssistant, Content: ErrorReply}
	answer, err := a.Answer(ctx, q)
	if err == nil {
		reply.Content = answer.Text
		reply.Cards = answer.Cards
	}
	reply.Timestamp = t.now()
	t.Add(reply)
	return reply, err
}
