// Package speech coordinates transcripts between the recognizer, the
// completion engine, and the UI. It keeps the visible conversation
// history (what the dashboard renders) separate from the durable chat
// context owned by the engine.
package speech

import "time"

// Entry is a single line in the visible conversation history.
type Entry struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
	Time string `json:"time"`
}

func newEntry(kind, text string) Entry {
	return Entry{
		Type: kind,
		Text: text,
		Time: time.Now().Format("15:04:05"),
	}
}
