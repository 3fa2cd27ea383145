// Package memory gives the assistant long-term recall. Conversation turns
// feed an asynchronous pipeline that extracts preferences into the user
// profile and stores searchable memory records; completions read the
// accumulated context back synchronously.
package memory

import (
	"fmt"
	"time"
)

// Record types.
const (
	TypeConversation = "conversation"
	TypePreference   = "preference"
	TypeNote         = "note"
)

// Record is one stored memory.
type Record struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	UserID      string            `json:"user_id"`
	Content     string            `json:"content"`
	UserMessage string            `json:"user_message,omitempty"`
	AIResponse  string            `json:"ai_response,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ContextLine renders a record the way it appears in the model's memory
// context block.
func (r Record) ContextLine() string {
	switch r.Type {
	case TypePreference:
		return fmt.Sprintf("- User %s", r.Content)
	case TypeConversation:
		return fmt.Sprintf("- From a previous conversation: %s", r.Content)
	case TypeNote:
		return fmt.Sprintf("- Note: %s", r.Content)
	default:
		return fmt.Sprintf("- %s", r.Content)
	}
}
