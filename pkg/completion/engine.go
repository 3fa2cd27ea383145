package completion

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/LumiBunny/BnuuyBotApp/pkg/chat"
	"github.com/LumiBunny/BnuuyBotApp/pkg/inference"
)

const (
	queueSize   = 64
	stopTimeout = 2 * time.Second
)

// Speaker receives finished responses for speech synthesis.
type Speaker interface {
	AddToQueue(text string) bool
}

// Memory is the slice of the memory pipeline the engine needs.
type Memory interface {
	GetMemoryContext(ctx context.Context, userID, query string) string
	ProcessConversation(userID, userMessage, aiResponse string)
}

// TurnLog records exchanges durably. Satisfied by the chat session logger.
type TurnLog interface {
	Append(from, value string) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithSpeaker routes finished responses to a speech engine.
func WithSpeaker(s Speaker) Option {
	return func(e *Engine) { e.speaker = s }
}

// WithMemory wires the memory pipeline.
func WithMemory(m Memory) Option {
	return func(e *Engine) { e.memory = m }
}

// WithTurnLog wires the durable session log.
func WithTurnLog(l TurnLog) Option {
	return func(e *Engine) { e.turnLog = l }
}

// WithUserID sets the initial user identity.
func WithUserID(id string) Option {
	return func(e *Engine) { e.userID = id }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine is the turn dispatcher and completion worker. Submit is safe to
// call from any goroutine; at most one completion runs at a time, and
// text submitted while busy is merged and replayed when the turn ends.
type Engine struct {
	provider inference.Provider
	history  *chat.History
	speaker  Speaker
	memory   Memory
	turnLog  TurnLog
	logger   *slog.Logger

	queue chan Turn

	mu      sync.Mutex
	busy    bool
	pending string
	userID  string
	running bool
	stop    chan struct{}
	done    chan struct{}

	obsMu      sync.Mutex
	onComplete []func(string)
	onFragment []func(string)
	onTurnDone []func()
}

// NewEngine creates a completion engine over the provider and history.
func NewEngine(provider inference.Provider, history *chat.History, opts ...Option) *Engine {
	e := &Engine{
		provider: provider,
		history:  history,
		logger:   slog.Default(),
		queue:    make(chan Turn, queueSize),
		userID:   "default_user",
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "completion.engine")
	return e
}

// OnCompletion registers a callback fired with each finished response.
func (e *Engine) OnCompletion(fn func(string)) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.onComplete = append(e.onComplete, fn)
}

// OnStreamFragment registers a callback fired with each streamed delta.
func (e *Engine) OnStreamFragment(fn func(string)) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.onFragment = append(e.onFragment, fn)
}

// OnTurnDone registers a callback fired when a turn finishes, success or
// not.
func (e *Engine) OnTurnDone(fn func()) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.onTurnDone = append(e.onTurnDone, fn)
}

// SetUserID changes the user identity for subsequent turns. Rejects
// empty or whitespace-only ids.
func (e *Engine) SetUserID(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.userID = id
	e.logger.Info("user id set", "user_id", id)
	return true
}

// UserID returns the current user identity.
func (e *Engine) UserID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userID
}

// IsBusy reports whether a completion is in flight.
func (e *Engine) IsBusy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// Submit offers text to the dispatcher. Empty input is dropped. While a
// completion is in flight the text is appended to the pending buffer and
// replayed after the turn; Submit then returns false. Otherwise the text
// is logged, classified, and queued, and Submit returns true.
func (e *Engine) Submit(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	e.mu.Lock()
	if e.busy {
		if e.pending != "" {
			e.pending += " " + text
		} else {
			e.pending = text
		}
		e.mu.Unlock()
		e.logger.Debug("busy, buffered input", "chars", len(text))
		return false
	}
	e.busy = true
	e.mu.Unlock()

	// Log before queueing so the durable log preserves arrival order,
	// continuation markers included.
	if e.turnLog != nil {
		if err := e.turnLog.Append("user", text); err != nil {
			e.logger.Warn("session log append failed", "error", err)
		}
	}

	turn := Turn{Kind: TurnUser, Text: text}
	if IsContinuationMarker(text) {
		turn.Kind = TurnContinue
	}

	select {
	case e.queue <- turn:
	default:
		// Queue saturation with busy held should not happen; recover
		// by releasing the turn.
		e.logger.Error("turn queue full, dropping turn")
		e.finishTurn()
		return false
	}
	return true
}

// Start launches the worker. Idempotent.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	go e.run(e.stop, e.done)
	e.logger.Info("completion engine started")
}

// Stop signals the worker and waits up to two seconds. The in-flight
// turn completes; queued turns stay queued for a restart.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stop)
	done := e.done
	e.mu.Unlock()

	select {
	case <-done:
	case <-time.After(stopTimeout):
		e.logger.Warn("completion worker did not stop in time")
	}
}

func (e *Engine) run(stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case turn := <-e.queue:
			e.processTurn(turn)
		}
	}
}

// processTurn runs one streaming completion and publishes the result.
// The busy flag is always released, and pending input replayed, whether
// the backend succeeded or not.
func (e *Engine) processTurn(turn Turn) {
	defer e.finishTurn()

	prompt := turn.Text
	if turn.Kind == TurnContinue {
		prompt = ContinuationPrompt
	}

	e.history.AddUser(prompt)

	userID := e.UserID()
	ctx := context.Background()

	if e.memory != nil {
		if recall := e.memory.GetMemoryContext(ctx, userID, prompt); recall != "" {
			// Context goes to the model, never to the durable log
			e.history.AddSystem(recall)
		}
	}

	req := &inference.ChatRequest{Messages: toInferenceMessages(e.history.Messages())}

	stream, err := e.provider.Stream(ctx, req)
	if err != nil {
		e.logger.Error("completion failed", "error", err)
		return
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		chunk, err := stream.Recv()
		if err != nil {
			e.logger.Error("stream broke mid-completion", "error", err)
			return
		}
		if chunk.Delta != "" {
			sb.WriteString(chunk.Delta)
			e.obsMu.Lock()
			fragments := append([]func(string){}, e.onFragment...)
			e.obsMu.Unlock()
			for _, fn := range fragments {
				fn(chunk.Delta)
			}
		}
		if chunk.Done {
			break
		}
	}

	response := sb.String()
	if response == "" {
		e.logger.Warn("empty completion, nothing to publish")
		return
	}

	e.publish(userID, prompt, response)
}

func (e *Engine) publish(userID, prompt, response string) {
	e.history.AddAssistant(response)

	if e.turnLog != nil {
		if err := e.turnLog.Append("assistant", response); err != nil {
			e.logger.Warn("session log append failed", "error", err)
		}
	}

	if e.speaker != nil {
		e.speaker.AddToQueue(response)
	}

	e.obsMu.Lock()
	complete := append([]func(string){}, e.onComplete...)
	e.obsMu.Unlock()
	for _, fn := range complete {
		fn(response)
	}

	if e.memory != nil {
		e.memory.ProcessConversation(userID, prompt, response)
	}
}

// finishTurn clears the busy flag, replays pending input, and notifies
// turn-done observers.
func (e *Engine) finishTurn() {
	e.mu.Lock()
	e.busy = false
	pending := e.pending
	e.pending = ""
	e.mu.Unlock()

	if pending != "" {
		e.Submit(pending)
	}

	e.obsMu.Lock()
	turnDone := append([]func(){}, e.onTurnDone...)
	e.obsMu.Unlock()
	for _, fn := range turnDone {
		fn()
	}
}

func toInferenceMessages(msgs []chat.Message) []inference.Message {
	out := make([]inference.Message, len(msgs))
	for i, m := range msgs {
		out[i] = inference.Message{Role: inference.Role(m.Role), Content: m.Content}
	}
	return out
}
