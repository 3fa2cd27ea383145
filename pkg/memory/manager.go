package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// Profiles is the slice of the profile manager the memory pipeline needs.
type Profiles interface {
	ExtractAndStore(text, userID string) error
	Summary(userID string) (map[string][]string, error)
}

const (
	defaultQueueSize  = 1024
	defaultContextLen = 3
	stopTimeout       = 2 * time.Second
)

type taskKind int

const (
	taskExtractPreferences taskKind = iota
	taskStoreMemory
)

type task struct {
	kind   taskKind
	userID string
	text   string
	record Record
}

// Manager runs the asynchronous memory pipeline: a single background
// consumer drains queued extraction and storage tasks so completions are
// never blocked on memory work. Context reads are synchronous and touch
// only already-persisted state.
type Manager struct {
	storage  *Storage
	profiles Profiles
	logger   *slog.Logger

	queue chan task

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewManager creates the pipeline. profiles may be nil, in which case
// preference extraction is skipped.
func NewManager(storage *Storage, profiles Profiles, logger *slog.Logger) *Manager {
	return &Manager{
		storage:  storage,
		profiles: profiles,
		logger:   logger.With("component", "memory.manager"),
		queue:    make(chan task, defaultQueueSize),
	}
}

// Start launches the consumer goroutine. Idempotent.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.run(m.stop, m.done)
	m.logger.Info("memory pipeline started")
}

// Stop signals the consumer and waits up to two seconds for it to drain.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	done := m.done
	m.mu.Unlock()

	select {
	case <-done:
	case <-time.After(stopTimeout):
		m.logger.Warn("memory worker did not stop in time")
	}
}

func (m *Manager) run(stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case t := <-m.queue:
			m.handle(t)
		}
	}
}

// handle processes one task. Errors are logged and swallowed so a bad
// task never takes down the pipeline.
func (m *Manager) handle(t task) {
	switch t.kind {
	case taskExtractPreferences:
		if m.profiles == nil {
			return
		}
		if err := m.profiles.ExtractAndStore(t.text, t.userID); err != nil {
			m.logger.Error("preference extraction failed", "user_id", t.userID, "error", err)
		}
	case taskStoreMemory:
		if _, err := m.storage.Store(context.Background(), t.record); err != nil {
			m.logger.Error("memory store failed", "user_id", t.record.UserID, "error", err)
		}
	}
}

// enqueue adds a task without blocking. Under sustained overload the
// oldest queued task is dropped to make room.
func (m *Manager) enqueue(t task) {
	for {
		select {
		case m.queue <- t:
			return
		default:
		}
		select {
		case <-m.queue:
			m.logger.Warn("memory queue full, dropped oldest task")
		default:
		}
	}
}

// ProcessConversation queues preference extraction for the user's message
// and a conversation memory for the exchange.
func (m *Manager) ProcessConversation(userID, userMessage, aiResponse string) {
	m.enqueue(task{
		kind:   taskExtractPreferences,
		userID: userID,
		text:   userMessage,
	})
	m.enqueue(task{
		kind: taskStoreMemory,
		record: Record{
			Type:        TypeConversation,
			UserID:      userID,
			Content:     fmt.Sprintf("User said %q and I replied %q", userMessage, aiResponse),
			UserMessage: userMessage,
			AIResponse:  aiResponse,
			Timestamp:   time.Now(),
		},
	})
}

// AddExplicitMemory stores a memory the user asked to be remembered.
// Synchronous, unlike the conversation pipeline.
func (m *Manager) AddExplicitMemory(ctx context.Context, userID, content, memType string, metadata map[string]string) (Record, error) {
	if memType == "" {
		memType = TypeNote
	}
	return m.storage.Store(ctx, Record{
		Type:     memType,
		UserID:   userID,
		Content:  content,
		Metadata: metadata,
	})
}

// GetMemoryContext assembles the recall block injected into the model's
// context: relevant stored memories plus the profile summary. Returns ""
// when there is nothing to recall.
func (m *Manager) GetMemoryContext(ctx context.Context, userID, query string) string {
	relevant := m.storage.Search(ctx, userID, query, defaultContextLen)

	var summary map[string][]string
	if m.profiles != nil {
		s, err := m.profiles.Summary(userID)
		if err != nil {
			m.logger.Warn("profile summary failed", "user_id", userID, "error", err)
		} else {
			summary = s
		}
	}

	hasProfile := false
	for _, items := range summary {
		if len(items) > 0 {
			hasProfile = true
			break
		}
	}
	if len(relevant) == 0 && !hasProfile {
		return ""
	}

	parts := []string{"I recall the following about this user:"}

	categories := make([]string, 0, len(summary))
	for category := range summary {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		items := summary[category]
		if len(items) == 0 {
			continue
		}
		var likes, dislikes []string
		for _, item := range items {
			if rest, ok := strings.CutPrefix(item, "doesn't like "); ok {
				dislikes = append(dislikes, rest)
			} else {
				likes = append(likes, item)
			}
		}
		if len(likes) > 0 {
			parts = append(parts, fmt.Sprintf("- User likes %s: %s", category, strings.Join(likes, ", ")))
		}
		if len(dislikes) > 0 {
			parts = append(parts, fmt.Sprintf("- User dislikes %s: %s", category, strings.Join(dislikes, ", ")))
		}
	}

	for _, rec := range relevant {
		parts = append(parts, rec.ContextLine())
	}

	return strings.Join(parts, "\n")
}

// QueueDepth reports how many tasks are waiting.
func (m *Manager) QueueDepth() int {
	return len(m.queue)
}
