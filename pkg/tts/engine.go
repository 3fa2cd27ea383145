package tts

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
)

var (
	stageDirectionRE = regexp.MustCompile(`\*[^*]*\*`)
	whitespaceRE     = regexp.MustCompile(`\s+`)
)

// CleanText strips *stage directions* the model writes for itself and
// collapses whitespace. Returns "" when nothing speakable remains.
func CleanText(text string) string {
	cleaned := stageDirectionRE.ReplaceAllString(text, "")
	cleaned = whitespaceRE.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// Engine serializes speech: responses queue up and a single worker
// synthesizes and plays them in order. IsSpeaking covers the whole
// synthesize-and-play span of the current item.
type Engine struct {
	provider Provider
	sink     Sink
	logger   *slog.Logger

	queue chan string

	mu        sync.Mutex
	speaking  bool
	running   bool
	stop      chan struct{}
	done      chan struct{}
	onStarted []func()
	onDone    []func()
}

// NewEngine creates a speech engine over the given provider and sink.
func NewEngine(provider Provider, sink Sink, opts ...Option) *Engine {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &Engine{
		provider: provider,
		sink:     sink,
		logger:   cfg.Logger.With("component", "tts.engine"),
		queue:    make(chan string, cfg.QueueSize),
	}
}

// OnPlaybackStarted registers a callback fired when an item begins.
func (e *Engine) OnPlaybackStarted(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onStarted = append(e.onStarted, fn)
}

// OnPlaybackFinished registers a callback fired when an item ends,
// whether playback succeeded or failed.
func (e *Engine) OnPlaybackFinished(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onDone = append(e.onDone, fn)
}

// AddToQueue cleans the text and queues it for speech. Returns false when
// nothing speakable remains or the queue is full.
func (e *Engine) AddToQueue(text string) bool {
	cleaned := CleanText(text)
	if cleaned == "" {
		return false
	}

	select {
	case e.queue <- cleaned:
		return true
	default:
		e.logger.Warn("speech queue full, dropping text", "chars", len(cleaned))
		return false
	}
}

// IsSpeaking reports whether an item is currently being synthesized or
// played.
func (e *Engine) IsSpeaking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speaking
}

// QueueDepth reports how many items wait behind the current one.
func (e *Engine) QueueDepth() int {
	return len(e.queue)
}

// Start launches the speech worker. Idempotent.
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
	e.logger.Info("speech engine started")
}

// Stop signals the worker and waits up to two seconds. The item being
// spoken finishes; queued items stay queued for a restart.
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
	case <-time.After(2 * time.Second):
		e.logger.Warn("speech worker did not stop in time")
	}
}

func (e *Engine) run(stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case text := <-e.queue:
			e.speak(text)
		}
	}
}

func (e *Engine) speak(text string) {
	e.mu.Lock()
	e.speaking = true
	started := append([]func(){}, e.onStarted...)
	finished := append([]func(){}, e.onDone...)
	e.mu.Unlock()

	for _, fn := range started {
		fn()
	}

	defer func() {
		e.mu.Lock()
		e.speaking = false
		e.mu.Unlock()
		for _, fn := range finished {
			fn()
		}
	}()

	ctx := context.Background()

	result, err := e.provider.Synthesize(ctx, text)
	if err != nil {
		e.logger.Error("synthesis failed, dropping audio", "error", err)
		return
	}

	if e.sink == nil {
		return
	}
	if err := e.sink.Play(ctx, result.Audio, result.Format); err != nil {
		e.logger.Error("playback failed", "error", err)
	}
}
