package chat

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one line in the durable session log.
type Entry struct {
	From  string `json:"from"`
	Value string `json:"value"`
}

// Logger writes the session's exchanges to a JSON file as they happen.
// Each session gets its own file so past conversations are never touched.
type Logger struct {
	mu      sync.Mutex
	path    string
	entries []Entry
	system  []string
	logger  *slog.Logger
}

// NewLogger creates the log directory if needed and opens a fresh session
// file named with the start time and a short unique suffix.
func NewLogger(dir string, logger *slog.Logger) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	name := fmt.Sprintf("chat_%s_%s.json",
		time.Now().Format("20060102_150405"),
		uuid.NewString()[:8],
	)

	l := &Logger{
		path:    filepath.Join(dir, name),
		entries: []Entry{},
		logger:  logger.With("component", "chat.logger"),
	}

	if err := l.flush(); err != nil {
		return nil, err
	}

	l.logger.Info("session log opened", "path", l.path)
	return l, nil
}

// Append records one exchange entry and rewrites the session file.
func (l *Logger) Append(from, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{From: from, Value: value})
	return l.flush()
}

// AddSystemMessage records an operator note. It goes to the session file
// and is also kept in memory for the UI state snapshot.
func (l *Logger) AddSystemMessage(msg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.system = append(l.system, msg)
	l.entries = append(l.entries, Entry{From: "system", Value: msg})
	return l.flush()
}

// SystemMessages returns a snapshot of recorded operator notes.
func (l *Logger) SystemMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.system))
	copy(out, l.system)
	return out
}

// Entries returns a snapshot of the session's entries.
func (l *Logger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Path returns the session file path.
func (l *Logger) Path() string {
	return l.path
}

// flush rewrites the session file. Caller holds the mutex.
func (l *Logger) flush() error {
	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal log entries: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return fmt.Errorf("write session log: %w", err)
	}
	return nil
}
