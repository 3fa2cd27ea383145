package speech

import (
	"log/slog"
	"strings"
	"sync"
)

// defaultInterim is shown before any speech has been heard.
const defaultInterim = "Waiting for speech..."

// Submitter accepts finished user turns for completion.
type Submitter interface {
	Submit(text string) bool
}

// Prompter is notified about conversational activity so it can pause
// or re-arm the idle timer.
type Prompter interface {
	OnVoiceActivityStarted()
	OnVoiceActivityEnded()
	OnTranscript(text string)
}

// Commands preprocesses raw transcripts before they reach the engine.
// It reports whether the text was consumed as a control command.
type Commands interface {
	Process(text string) (string, bool)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger used by the coordinator.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Coordinator routes transcripts from the recognizer to the completion
// engine and maintains the visible conversation state for the UI.
type Coordinator struct {
	submitter Submitter
	prompter  Prompter
	commands  Commands
	logger    *slog.Logger

	mu        sync.RWMutex
	history   []Entry
	responses []Entry
	interim   string

	obsMu   sync.RWMutex
	onEntry []func(Entry)
}

// NewCoordinator creates a coordinator. Any of submitter, prompter, or
// commands may be nil; the matching step is skipped.
func NewCoordinator(submitter Submitter, prompter Prompter, commands Commands, opts ...Option) *Coordinator {
	c := &Coordinator{
		submitter: submitter,
		prompter:  prompter,
		commands:  commands,
		logger:    slog.Default().With("component", "speech"),
		history:   []Entry{},
		responses: []Entry{},
		interim:   defaultInterim,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnEntry registers an observer called for every new visible entry.
func (c *Coordinator) OnEntry(fn func(Entry)) {
	if fn == nil {
		return
	}
	c.obsMu.Lock()
	c.onEntry = append(c.onEntry, fn)
	c.obsMu.Unlock()
}

func (c *Coordinator) notify(entry Entry) {
	c.obsMu.RLock()
	observers := make([]func(Entry), len(c.onEntry))
	copy(observers, c.onEntry)
	c.obsMu.RUnlock()
	for _, fn := range observers {
		fn(entry)
	}
}

// HandleInterimTranscript updates the in-progress transcript shown in
// the UI. It never touches the history.
func (c *Coordinator) HandleInterimTranscript(text string) {
	c.mu.Lock()
	c.interim = text
	c.mu.Unlock()
}

// HandleFinalTranscript records a finished utterance, runs it through
// command preprocessing, and submits it to the engine unless it was a
// control command. Repeated identical transcripts are recorded once.
func (c *Coordinator) HandleFinalTranscript(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	entry := newEntry("", text)
	c.mu.Lock()
	appended := !containsText(c.history, text)
	if appended {
		c.history = append(c.history, entry)
	}
	c.interim = ""
	c.mu.Unlock()
	if appended {
		c.notify(entry)
	}

	if c.prompter != nil {
		c.prompter.OnTranscript(text)
	}

	processed := text
	isCommand := false
	if c.commands != nil {
		processed, isCommand = c.commands.Process(text)
	}
	if isCommand {
		c.logger.Info("voice command handled", "command", processed)
		return
	}

	if c.submitter != nil {
		if !c.submitter.Submit(processed) {
			c.logger.Debug("transcript merged into pending turn", "text", processed)
		}
	}
}

// HandleCompletion records an assistant response for the UI. Identical
// responses are recorded once.
func (c *Coordinator) HandleCompletion(text string) {
	if text == "" {
		return
	}
	entry := newEntry("assistant", text)
	c.mu.Lock()
	if containsText(c.responses, text) {
		c.mu.Unlock()
		return
	}
	c.responses = append(c.responses, entry)
	c.mu.Unlock()
	c.notify(entry)
}

// AddUserMessage records a typed message in the visible history without
// dedup, matching the manual send path.
func (c *Coordinator) AddUserMessage(text string) {
	entry := newEntry("", text)
	c.mu.Lock()
	c.history = append(c.history, entry)
	c.mu.Unlock()
	c.notify(entry)
}

// AddSystemMessage records a system notice in the visible history.
func (c *Coordinator) AddSystemMessage(text string) {
	entry := newEntry("system", text)
	c.mu.Lock()
	c.history = append(c.history, entry)
	c.mu.Unlock()
	c.notify(entry)
}

// OnVoiceActivityStarted forwards voice onset to the prompter.
func (c *Coordinator) OnVoiceActivityStarted() {
	if c.prompter != nil {
		c.prompter.OnVoiceActivityStarted()
	}
}

// OnVoiceActivityEnded forwards end of voice activity to the prompter.
func (c *Coordinator) OnVoiceActivityEnded() {
	if c.prompter != nil {
		c.prompter.OnVoiceActivityEnded()
	}
}

// InterimText returns the current in-progress transcript.
func (c *Coordinator) InterimText() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.interim
}

// History returns a snapshot of the visible transcript history.
func (c *Coordinator) History() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.history))
	copy(out, c.history)
	return out
}

// Responses returns a snapshot of recorded assistant responses.
func (c *Coordinator) Responses() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.responses))
	copy(out, c.responses)
	return out
}

// Clear resets the visible history and responses. The engine's chat
// context is not touched.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	c.history = []Entry{}
	c.responses = []Entry{}
	c.mu.Unlock()
	c.logger.Info("visible history cleared, chat context retained")
}

func containsText(entries []Entry, text string) bool {
	for _, e := range entries {
		if e.Text == text {
			return true
		}
	}
	return false
}
