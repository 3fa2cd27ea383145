// Package chat maintains the conversational context sent to the language
// model and a durable per-session log of user/assistant exchanges.
//
// History is the in-memory message list (system prompt + alternating turns).
// Logger writes one JSON file per session so conversations survive restarts.
package chat

// Role identifies who authored a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversational turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
