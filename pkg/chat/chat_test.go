package chat

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
)

func TestHistoryAppendAndSnapshot(t *testing.T) {
	h := NewHistory("You are a helpful rabbit.")

	h.AddUser("Hello")
	h.AddAssistant("Hi!")

	msgs := h.Messages()
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleSystem {
		t.Errorf("Expected system first, got %s", msgs[0].Role)
	}
	if msgs[1].Role != RoleUser || msgs[1].Content != "Hello" {
		t.Error("User message mismatch")
	}
	if msgs[2].Role != RoleAssistant || msgs[2].Content != "Hi!" {
		t.Error("Assistant message mismatch")
	}

	// Mutating the snapshot must not affect the history
	msgs[0].Content = "tampered"
	if h.Messages()[0].Content != "You are a helpful rabbit." {
		t.Error("Snapshot mutation leaked into history")
	}
}

func TestHistoryLastN(t *testing.T) {
	h := NewHistory("")
	h.AddUser("one")
	h.AddAssistant("two")
	h.AddUser("three")

	last := h.LastN(2)
	if len(last) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(last))
	}
	if last[0].Content != "two" || last[1].Content != "three" {
		t.Errorf("Unexpected tail: %v", last)
	}

	if got := h.LastN(10); len(got) != 3 {
		t.Errorf("Expected all 3 messages, got %d", len(got))
	}
	if got := h.LastN(0); got != nil {
		t.Errorf("Expected nil for n=0, got %v", got)
	}
}

func TestHistoryClearKeepsSystemPrompt(t *testing.T) {
	h := NewHistory("prompt")
	h.AddUser("hello")
	h.AddAssistant("hi")

	h.Clear()

	msgs := h.Messages()
	if len(msgs) != 1 {
		t.Fatalf("Expected only system prompt after clear, got %d messages", len(msgs))
	}
	if msgs[0].Role != RoleSystem || msgs[0].Content != "prompt" {
		t.Error("System prompt not preserved across clear")
	}
}

func TestHistoryConcurrentAppend(t *testing.T) {
	h := NewHistory("")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.AddUser("msg")
			}
		}()
	}
	wg.Wait()

	if h.Len() != 500 {
		t.Errorf("Expected 500 messages, got %d", h.Len())
	}
}

func TestLoggerWritesSessionFile(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(dir, slog.Default())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	if !strings.HasPrefix(strings.TrimPrefix(l.Path(), dir+"/"), "chat_") {
		t.Errorf("Unexpected session file name: %s", l.Path())
	}

	if err := l.Append("user", "hello"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := l.Append("assistant", "hi there"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("Read session file: %v", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("Unmarshal session file: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].From != "user" || entries[0].Value != "hello" {
		t.Errorf("Entry mismatch: %+v", entries[0])
	}
	if entries[1].From != "assistant" || entries[1].Value != "hi there" {
		t.Errorf("Entry mismatch: %+v", entries[1])
	}
}

func TestLoggerSystemMessages(t *testing.T) {
	l, err := NewLogger(t.TempDir(), slog.Default())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	if err := l.AddSystemMessage("Listening started"); err != nil {
		t.Fatalf("AddSystemMessage failed: %v", err)
	}
	if err := l.AddSystemMessage("Timer stopped"); err != nil {
		t.Fatalf("AddSystemMessage failed: %v", err)
	}

	msgs := l.SystemMessages()
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 system messages, got %d", len(msgs))
	}
	if msgs[0] != "Listening started" || msgs[1] != "Timer stopped" {
		t.Errorf("System messages mismatch: %v", msgs)
	}

	// System messages also land in the durable entries
	entries := l.Entries()
	if len(entries) != 2 || entries[0].From != "system" {
		t.Errorf("Expected system entries in log, got %+v", entries)
	}
}

func TestLoggerSessionFilesAreUnique(t *testing.T) {
	dir := t.TempDir()

	a, err := NewLogger(dir, slog.Default())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	b, err := NewLogger(dir, slog.Default())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	if a.Path() == b.Path() {
		t.Error("Expected distinct session files for distinct sessions")
	}
}
