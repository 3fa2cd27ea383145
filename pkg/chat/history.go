package chat

import "sync"

// History is the mutable conversational context. All methods are safe for
// concurrent use; reads return snapshots so callers never observe a partial
// append.
type History struct {
	mu       sync.Mutex
	messages []Message
	system   string
}

// NewHistory creates a history seeded with a system prompt. An empty prompt
// starts the history blank.
func NewHistory(systemPrompt string) *History {
	h := &History{system: systemPrompt}
	if systemPrompt != "" {
		h.messages = append(h.messages, Message{Role: RoleSystem, Content: systemPrompt})
	}
	return h
}

// AddSystem appends a system message.
func (h *History) AddSystem(content string) {
	h.add(RoleSystem, content)
}

// AddUser appends a user message.
func (h *History) AddUser(content string) {
	h.add(RoleUser, content)
}

// AddAssistant appends an assistant message.
func (h *History) AddAssistant(content string) {
	h.add(RoleAssistant, content)
}

func (h *History) add(role Role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, Message{Role: role, Content: content})
}

// Messages returns a snapshot of the full history.
func (h *History) Messages() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// LastN returns a snapshot of the most recent n messages.
func (h *History) LastN(n int) []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 || len(h.messages) == 0 {
		return nil
	}
	if n > len(h.messages) {
		n = len(h.messages)
	}
	out := make([]Message, n)
	copy(out, h.messages[len(h.messages)-n:])
	return out
}

// Len returns the number of messages.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

// Clear drops all turns but keeps the original system prompt.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = h.messages[:0]
	if h.system != "" {
		h.messages = append(h.messages, Message{Role: RoleSystem, Content: h.system})
	}
}
