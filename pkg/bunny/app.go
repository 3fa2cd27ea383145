package bunny

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/LumiBunny/BnuuyBotApp/internal/log"
	"github.com/LumiBunny/BnuuyBotApp/pkg/chat"
	"github.com/LumiBunny/BnuuyBotApp/pkg/completion"
	"github.com/LumiBunny/BnuuyBotApp/pkg/inference"
	"github.com/LumiBunny/BnuuyBotApp/pkg/memory"
	"github.com/LumiBunny/BnuuyBotApp/pkg/profile"
	"github.com/LumiBunny/BnuuyBotApp/pkg/selfprompt"
	"github.com/LumiBunny/BnuuyBotApp/pkg/speech"
	"github.com/LumiBunny/BnuuyBotApp/pkg/stt"
	"github.com/LumiBunny/BnuuyBotApp/pkg/tts"
	"github.com/LumiBunny/BnuuyBotApp/pkg/voicecmd"
	"github.com/LumiBunny/BnuuyBotApp/pkg/web"
)

// Option overrides a component before Init constructs the rest. Used by
// tests to swap real backends for mocks.
type Option func(*App)

// WithProvider sets the inference backend.
func WithProvider(p inference.Provider) Option {
	return func(a *App) { a.provider = p }
}

// WithSpeechProvider sets the TTS backend.
func WithSpeechProvider(p tts.Provider) Option {
	return func(a *App) { a.ttsProvider = p }
}

// WithAudioSink sets the audio playback sink.
func WithAudioSink(s tts.Sink) Option {
	return func(a *App) { a.sink = s }
}

// WithRecognizer sets the speech recognition engine.
func WithRecognizer(e stt.Engine) Option {
	return func(a *App) { a.stt = e }
}

// App is the application orchestrator. It owns every component and
// their lifecycle, and implements the web Controller surface.
type App struct {
	config Config
	logger *slog.Logger

	// Injected or constructed in Init.
	provider    inference.Provider
	ttsProvider tts.Provider
	sink        tts.Sink
	stt         stt.Engine

	chatLogger  *chat.Logger
	history     *chat.History
	profiles    *profile.Manager
	memories    *memory.Manager
	engine      *completion.Engine
	speaker     *tts.Engine
	prompter    *selfprompt.Prompter
	coordinator *speech.Coordinator
	webServer   *web.Server

	mu        sync.Mutex
	listening bool
	userID    string
	stopped   bool
}

// embedAdapter exposes the provider's embedding endpoint in the shape
// the memory store wants.
type embedAdapter struct {
	provider inference.Provider
}

func (e embedAdapter) EmbedText(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.provider.Embed(ctx, &inference.EmbedRequest{Input: texts})
	if err != nil {
		return nil, err
	}
	return resp.Embeddings, nil
}

// New creates the application from configuration. Environment overrides
// are applied and the config validated before anything is constructed.
func New(cfg Config, opts ...Option) (*App, error) {
	cfg.LoadEnvConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := "info"
	if cfg.Debug {
		level = "debug"
	}
	log.Init(level)

	app := &App{
		config: cfg,
		logger: log.With("component", "bunny"),
		userID: cfg.UserID,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app, nil
}

// Init constructs all components and wires their observers. Call after
// New and before Run. Storage failures are fatal here, before any
// worker has started.
func (a *App) Init() error {
	cfg := a.config

	chatLogger, err := chat.NewLogger(cfg.LogDir, a.logger)
	if err != nil {
		return fmt.Errorf("chat log: %w", err)
	}
	a.chatLogger = chatLogger
	a.history = chat.NewHistory(cfg.SystemPrompt)

	if a.provider == nil {
		client, err := inference.NewClient(
			inference.WithBaseURL(cfg.InferenceURL),
			inference.WithAPIKey(cfg.InferenceKey),
			inference.WithModel(cfg.Model),
			inference.WithLogger(a.logger),
		)
		if err != nil {
			return fmt.Errorf("inference client: %w", err)
		}
		a.provider = client
	}

	profiles, err := profile.NewManager(cfg.ProfileDir, profile.NewRegexExtractor(), chatLogger, a.logger)
	if err != nil {
		return fmt.Errorf("profile store: %w", err)
	}
	a.profiles = profiles

	store, err := memory.NewStorage(cfg.MemoryDir, embedAdapter{a.provider}, a.logger)
	if err != nil {
		return fmt.Errorf("memory store: %w", err)
	}
	a.memories = memory.NewManager(store, profiles, a.logger)

	if a.ttsProvider == nil {
		edge, err := tts.NewEdge(
			tts.WithBaseURL(cfg.TTSURL),
			tts.WithVoice(cfg.TTSVoice),
			tts.WithSpeed(cfg.TTSSpeed),
			tts.WithLogger(a.logger),
		)
		if err != nil {
			return fmt.Errorf("tts provider: %w", err)
		}
		a.ttsProvider = edge
	}
	if a.sink == nil {
		a.sink = tts.NewCommandSink("")
	}
	a.speaker = tts.NewEngine(a.ttsProvider, a.sink, tts.WithLogger(a.logger))

	if a.stt == nil {
		a.stt = stt.NewClient(cfg.STTURL, a.logger)
	}

	a.engine = completion.NewEngine(a.provider, a.history,
		completion.WithSpeaker(a.speaker),
		completion.WithMemory(a.memories),
		completion.WithTurnLog(chatLogger),
		completion.WithUserID(cfg.UserID),
		completion.WithLogger(a.logger),
	)

	a.prompter = selfprompt.NewPrompter(a.engine.Submit, a.speaker.IsSpeaking,
		selfprompt.WithInterval(cfg.PromptMin, cfg.PromptMax),
		selfprompt.WithLogger(a.logger),
	)

	a.coordinator = speech.NewCoordinator(a.engine, a.prompter, voicecmd.NewManager(),
		speech.WithLogger(a.logger),
	)

	a.wire()

	if cfg.WebPort != "" {
		a.webServer = web.NewServer(cfg.WebPort, a, a.logger)
		a.coordinator.OnEntry(func(e speech.Entry) {
			a.webServer.BroadcastEvent(e)
		})
	}

	return nil
}

// wire connects the observer callbacks between components. All the
// cross-component plumbing lives here so the data flow is visible in
// one place.
func (a *App) wire() {
	// Playback state gates both echo suppression and the idle timer.
	a.speaker.OnPlaybackStarted(a.stt.NotifyTTSStarted)
	a.speaker.OnPlaybackFinished(func() {
		a.stt.NotifyTTSFinished()
		a.prompter.OnPlaybackFinished()
	})

	// Recognized speech flows through the coordinator.
	a.stt.OnVoiceActivityStarted(a.coordinator.OnVoiceActivityStarted)
	a.stt.OnVoiceActivityEnded(a.coordinator.OnVoiceActivityEnded)
	a.stt.OnInterimTranscript(a.coordinator.HandleInterimTranscript)
	a.stt.OnFinalTranscript(a.coordinator.HandleFinalTranscript)

	// Finished completions feed the UI and re-arm the idle timer.
	a.engine.OnCompletion(a.coordinator.HandleCompletion)
	a.engine.OnTurnDone(a.prompter.OnTurnDone)
}

// Run starts the workers and blocks until the context is cancelled.
// The recognizer and the idle timer start on demand through the API,
// so only the always-on pipeline spins up here.
func (a *App) Run(ctx context.Context) error {
	a.memories.Start()
	a.speaker.Start()
	a.engine.Start()
	if a.webServer != nil {
		a.webServer.StartAsync()
	}

	a.logger.Info("bnuuybot is up",
		"model", a.config.Model,
		"user", a.config.UserID,
		"web_port", a.config.WebPort)

	<-ctx.Done()
	return nil
}

// Shutdown stops every component. Producers go down before consumers:
// prompter, then recognition, then speech, then completions, then the
// memory pipeline, then the web server.
func (a *App) Shutdown() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	a.listening = false
	a.mu.Unlock()

	a.logger.Info("shutting down")

	if a.prompter != nil {
		a.prompter.Stop()
	}
	if a.stt != nil {
		if err := a.stt.Stop(); err != nil {
			a.logger.Warn("stt stop", "error", err)
		}
	}
	if a.speaker != nil {
		a.speaker.Stop()
	}
	if a.engine != nil {
		a.engine.Stop()
	}
	if a.memories != nil {
		a.memories.Stop()
	}
	if a.webServer != nil {
		if err := a.webServer.Shutdown(); err != nil {
			a.logger.Warn("web shutdown", "error", err)
		}
	}
	if a.provider != nil {
		a.provider.Close()
	}
}

// Snapshot assembles the poll payload for the UI.
func (a *App) Snapshot() web.State {
	a.mu.Lock()
	listening := a.listening
	userID := a.userID
	a.mu.Unlock()

	var system []speech.Entry
	for _, msg := range a.chatLogger.SystemMessages() {
		system = append(system, speech.Entry{Type: "system", Text: msg})
	}

	return web.State{
		CurrentText:    a.coordinator.InterimText(),
		History:        a.coordinator.History(),
		Responses:      a.coordinator.Responses(),
		SystemMessages: system,
		IsActive:       listening,
		TimerActive:    a.prompter.TimerActive(),
		UserID:         userID,
	}
}

// StartListening connects the recognizer.
func (a *App) StartListening() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listening {
		return errors.New("transcription already active")
	}
	if err := a.stt.Start(); err != nil {
		return err
	}
	a.listening = true
	return nil
}

// StopListening disconnects the recognizer.
func (a *App) StopListening() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.listening {
		return errors.New("transcription already inactive")
	}
	a.listening = false
	return a.stt.Stop()
}

// StartTimer arms the self-prompt timer.
func (a *App) StartTimer() error {
	return a.prompter.Start()
}

// StopTimer disarms the self-prompt timer.
func (a *App) StopTimer() error {
	a.prompter.Stop()
	return nil
}

// SendMessage submits typed text as a user turn.
func (a *App) SendMessage(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("empty message")
	}
	a.coordinator.AddUserMessage(text)
	a.engine.Submit(text)
	return nil
}

// AddSystemMessage records an operator note in the chat context, the
// session log, and the visible history.
func (a *App) AddSystemMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("empty message")
	}
	a.history.AddSystem(text)
	a.coordinator.AddSystemMessage(text)
	return a.chatLogger.AddSystemMessage(text)
}

// SetUserID switches the active user for memory and profiles.
func (a *App) SetUserID(id string) error {
	if !a.engine.SetUserID(id) {
		return errors.New("invalid user id")
	}
	a.mu.Lock()
	a.userID = strings.TrimSpace(id)
	a.mu.Unlock()
	return nil
}

// Clear resets the visible conversation. The model's chat context is
// kept so the conversation can continue.
func (a *App) Clear() {
	a.coordinator.Clear()
}

// EndSession stops the conversational services but leaves the web
// server up so the UI can report the result.
func (a *App) EndSession() error {
	a.prompter.Stop()

	a.mu.Lock()
	wasListening := a.listening
	a.listening = false
	a.mu.Unlock()
	if wasListening {
		if err := a.stt.Stop(); err != nil {
			a.logger.Warn("stt stop", "error", err)
		}
	}

	a.speaker.Stop()
	a.engine.Stop()

	if err := a.AddSystemMessage("Chat session ended. All services have been stopped."); err != nil {
		a.logger.Warn("could not record session end", "error", err)
	}
	return nil
}

var _ web.Controller = (*App)(nil)
