// Package selfprompt keeps the conversation alive. When the user has
// been quiet for a sampled interval, the prompter submits a continuation
// marker so the assistant picks its thought back up, pausing whenever the
// user is speaking or a turn is already in flight.
package selfprompt

import (
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/LumiBunny/BnuuyBotApp/pkg/completion"
)

// ErrSpeaking is returned from Start while the assistant is talking.
var ErrSpeaking = errors.New("selfprompt: cannot start while speaking")

const defaultTick = 100 * time.Millisecond

// Config holds prompter timing.
type Config struct {
	// Min and Max bound the sampled quiet interval.
	Min time.Duration
	Max time.Duration

	// Tick is the scheduler check period.
	Tick time.Duration

	// Rand drives interval and marker selection.
	Rand *rand.Rand

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Option configures the prompter.
type Option func(*Config)

// WithInterval bounds the sampled quiet interval.
func WithInterval(min, max time.Duration) Option {
	return func(c *Config) {
		c.Min = min
		c.Max = max
	}
}

// WithTick sets the scheduler check period.
func WithTick(d time.Duration) Option {
	return func(c *Config) { c.Tick = d }
}

// WithRand sets the random source, for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(c *Config) { c.Rand = r }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns the stock timing: quiet intervals between five
// and thirty seconds, checked every hundred milliseconds.
func DefaultConfig() *Config {
	return &Config{
		Min:    5 * time.Second,
		Max:    30 * time.Second,
		Tick:   defaultTick,
		Rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		Logger: slog.Default(),
	}
}

// Apply applies functional options.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Prompter schedules continuation markers during silence.
type Prompter struct {
	submit   func(string) bool
	speaking func() bool
	cfg      *Config
	logger   *slog.Logger

	mu              sync.Mutex
	running         bool
	timerActive     bool
	lastInteraction time.Time
	interval        time.Duration
	stop            chan struct{}
	done            chan struct{}
}

// NewPrompter creates a prompter. submit sends a marker to the completion
// engine; speaking reports whether the assistant is mid-speech and may be
// nil.
func NewPrompter(submit func(string) bool, speaking func() bool, opts ...Option) *Prompter {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	return &Prompter{
		submit:   submit,
		speaking: speaking,
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "selfprompt.prompter"),
	}
}

// Start begins scheduling. Refuses to start while the assistant is
// speaking. Idempotent while running.
func (p *Prompter) Start() error {
	if p.speaking != nil && p.speaking() {
		return ErrSpeaking
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	p.running = true
	p.timerActive = true
	p.lastInteraction = time.Now()
	p.interval = p.sampleInterval()
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.loop(p.stop, p.done)
	p.logger.Info("self-prompt timer started", "interval", p.interval)
	return nil
}

// Stop halts scheduling, waiting up to two seconds for the loop. Safe to
// call when not running, and the prompter can be started again after.
func (p *Prompter) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stop)
	done := p.done
	p.mu.Unlock()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		p.logger.Warn("self-prompt loop did not stop in time")
	}
	p.logger.Info("self-prompt timer stopped")
}

// IsRunning reports whether the scheduler loop is alive.
func (p *Prompter) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// TimerActive reports whether the countdown is currently armed.
func (p *Prompter) TimerActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running && p.timerActive
}

// ResetTimer restarts the countdown from now.
func (p *Prompter) ResetTimer() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastInteraction = time.Now()
}

// OnVoiceActivityStarted pauses the countdown while the user speaks.
func (p *Prompter) OnVoiceActivityStarted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timerActive = false
}

// OnVoiceActivityEnded re-arms the countdown.
func (p *Prompter) OnVoiceActivityEnded() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timerActive = true
	p.lastInteraction = time.Now()
}

// OnPlaybackFinished restarts the countdown after the assistant spoke.
func (p *Prompter) OnPlaybackFinished() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastInteraction = time.Now()
	p.interval = p.sampleInterval()
}

// OnTranscript pauses the countdown when a real utterance arrives; the
// turn it triggers will re-arm via OnTurnDone.
func (p *Prompter) OnTranscript(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timerActive = false
}

// OnTurnDone re-arms the countdown after a completion finishes.
func (p *Prompter) OnTurnDone() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timerActive = true
	p.lastInteraction = time.Now()
}

func (p *Prompter) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick fires at most one marker when the armed countdown has elapsed.
// Speech suppresses the firing and restarts the countdown instead.
func (p *Prompter) tick() {
	p.mu.Lock()
	if !p.running || !p.timerActive || time.Since(p.lastInteraction) < p.interval {
		p.mu.Unlock()
		return
	}

	if p.speaking != nil && p.speaking() {
		p.lastInteraction = time.Now()
		p.interval = p.sampleInterval()
		p.mu.Unlock()
		return
	}

	markers := completion.Markers()
	marker := markers[p.cfg.Rand.Intn(len(markers))]
	p.lastInteraction = time.Now()
	p.interval = p.sampleInterval()
	p.mu.Unlock()

	p.logger.Debug("sending continuation marker", "marker", marker)
	p.submit(marker)
}

// sampleInterval draws uniformly from [Min, Max]. Caller holds the mutex.
func (p *Prompter) sampleInterval() time.Duration {
	if p.cfg.Max <= p.cfg.Min {
		return p.cfg.Min
	}
	return p.cfg.Min + time.Duration(p.cfg.Rand.Int63n(int64(p.cfg.Max-p.cfg.Min)+1))
}
