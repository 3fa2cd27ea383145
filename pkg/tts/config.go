package tts

import (
	"log/slog"
	"time"
)

// Config holds TTS configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Provider connection
	APIKey  string
	BaseURL string

	// Voice configuration
	Voice string
	Speed float64

	// Audio output
	OutputFormat string

	// Engine queue
	QueueSize int

	// Timeouts
	Timeout time.Duration

	// Retry configuration
	MaxRetries int
	RetryDelay time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring TTS.
type Option func(*Config)

// WithAPIKey sets the API key for the provider.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL overrides the synthesis endpoint URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithVoice sets the voice name.
func WithVoice(voice string) Option {
	return func(c *Config) { c.Voice = voice }
}

// WithSpeed sets the speech rate multiplier.
func WithSpeed(speed float64) Option {
	return func(c *Config) { c.Speed = speed }
}

// WithOutputFormat sets the audio output format.
func WithOutputFormat(format string) Option {
	return func(c *Config) { c.OutputFormat = format }
}

// WithQueueSize sets the engine queue capacity.
func WithQueueSize(n int) Option {
	return func(c *Config) { c.QueueSize = n }
}

// WithTimeout sets the synthesis request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

// WithRetry configures retry behavior for failed requests.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig returns sensible default configuration for a local
// openai-edge-tts server.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      "http://localhost:5050/v1/audio/speech",
		Voice:        "en-US-AnaNeural",
		Speed:        1.15,
		OutputFormat: "mp3",
		QueueSize:    32,
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		RetryDelay:   100 * time.Millisecond,
		Logger:       slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}
	if c.Voice == "" {
		return ErrNoVoice
	}
	return nil
}
