package models

import "errors"

// ErrNoFinalTurn is returned when a conversation has no messages to engineer.
var ErrNoFinalTurn = errors.New("conversation has no messages")

// SelectedModel identifies the model a conversation targets.
type SelectedModel struct {
	ID         string       `json:"id"`
	Name       string       `json:"name,omitempty"`
	TokenLimit int          `json:"tokenLimit,omitempty"`
	Provider   ProviderKind `json:"provider"`
}

// Conversation is the application's chat history for one thread.
type Conversation struct {
	ID          string        `json:"id"`
	Name        string        `json:"name,omitempty"`
	Model       SelectedModel `json:"model"`
	Prompt      string        `json:"prompt,omitempty"` // static system prompt template for the thread
	Temperature float32       `json:"temperature"`
	UserEmail   string        `json:"userEmail,omitempty"`
	ProjectName string        `json:"projectName,omitempty"`
	Messages    []Message     `json:"messages"`
}

// FinalTurn returns the index of the turn that gets the engineered prompt.
func (c *Conversation) FinalTurn() (int, error) {
	if len(c.Messages) == 0 {
		return -1, ErrNoFinalTurn
	}
	return len(c.Messages) - 1, nil
}

// IsFinalTurn reports whether index i is the turn being answered.
func (c *Conversation) IsFinalTurn(i int) bool {
	final, err := c.FinalTurn()
	return err == nil && i == final
}

// WithFinalTurn returns a shallow copy whose message slice is copied and
// whose final turn was replaced by fn's result. The receiver is not modified.
func (c Conversation) WithFinalTurn(fn func(Message) Message) (Conversation, error) {
	final, err := c.FinalTurn()
	if err != nil {
		return c, err
	}
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	msgs[final] = fn(msgs[final])
	c.Messages = msgs
	return c, nil
}
