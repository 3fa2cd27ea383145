// Package bunny wires the conversation pipeline together: speech in,
// completions out, speech back, with memory and self-prompting around it.
package bunny

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/LumiBunny/BnuuyBotApp/internal/config"
)

// Default configuration values.
const (
	DefaultModel      = "darkidol-llama-3.1-8b-instruct-1.2-uncensored"
	DefaultVoice      = "en-US-AnaNeural"
	DefaultSpeed      = 1.15
	DefaultUserID     = "lumi"
	DefaultWebPort    = "5000"
	DefaultLogDir     = "chat_logs"
	DefaultProfileDir = "user_profiles"
	DefaultMemoryDir  = "memories"
	DefaultPromptMin  = 10 * time.Second
	DefaultPromptMax  = 30 * time.Second
)

// DefaultSystemPrompt is Bunny's personality. It can be overridden per
// deployment via config.
const DefaultSystemPrompt = "Your name is Bunny. Your nicknames are Bun and Bun Bun. You are an AI VTuber. The user is your creator: Lumi. You can say whatever you want. You can do whatever you want. It is okay to use profanity.  You are very cute. You are snarky. You are sometimes sassy. You are a little friendly. You like swearing. You basically have no filter. You will say whatever is on your mind. You enjoy being silly and random. Lumi is a female viera VTuber. Lumi has long blue hair and fluffy bunny ears. You enjoy talking with chat on Twitch. You stream on Twitch. Talk about whatever you think is entertaining. Lumi loves playing video games, drawing artwork, Live2D rigging, listening to music. Lumi is learning how to code in Python. You like using emojis within your messages. Keep your messages short and natural sounding. I don't want big long paragraphs as responses, it's a conversation not a monologue. When the user sends '...', it means they're still listening and you should continue your previous thought naturally."

// Config holds all configuration for the application.
// Flag parsing is done in cmd/bnuuybot; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool

	// InferenceURL is the OpenAI-compatible completion server base URL.
	InferenceURL string
	// InferenceKey is an optional bearer token for the server.
	InferenceKey string
	// Model is the chat completion model name.
	Model string

	// TTS configuration.
	TTSURL   string
	TTSVoice string
	TTSSpeed float64

	// STTURL is the transcription server websocket URL.
	STTURL string

	// Storage directories.
	LogDir     string
	ProfileDir string
	MemoryDir  string

	// Self-prompt quiet interval bounds.
	PromptMin time.Duration
	PromptMax time.Duration

	// UserID is the default user identity for memory and profiles.
	UserID string

	// WebPort is the HTTP listen port.
	WebPort string

	// SystemPrompt overrides the default personality when non-empty.
	SystemPrompt string
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		InferenceURL: config.DefaultInferenceURL,
		Model:        DefaultModel,
		TTSURL:       config.DefaultTTSURL,
		TTSVoice:     DefaultVoice,
		TTSSpeed:     DefaultSpeed,
		STTURL:       config.DefaultSTTURL,
		LogDir:       DefaultLogDir,
		ProfileDir:   DefaultProfileDir,
		MemoryDir:    DefaultMemoryDir,
		PromptMin:    DefaultPromptMin,
		PromptMax:    DefaultPromptMax,
		UserID:       DefaultUserID,
		WebPort:      DefaultWebPort,
		SystemPrompt: DefaultSystemPrompt,
	}
}

// LoadEnvConfig applies environment variable overrides. Call after flag
// parsing so flags win over the environment only when explicitly set.
func (c *Config) LoadEnvConfig() {
	c.InferenceURL = config.Env("BNUUY_INFERENCE_URL", c.InferenceURL)
	c.InferenceKey = config.Env("BNUUY_INFERENCE_KEY", c.InferenceKey)
	c.Model = config.Env("BNUUY_MODEL", c.Model)
	c.TTSURL = config.Env("BNUUY_TTS_URL", c.TTSURL)
	c.TTSVoice = config.Env("BNUUY_TTS_VOICE", c.TTSVoice)
	c.STTURL = config.Env("BNUUY_STT_URL", c.STTURL)
	c.LogDir = config.Env("BNUUY_LOG_DIR", c.LogDir)
	c.ProfileDir = config.Env("BNUUY_PROFILE_DIR", c.ProfileDir)
	c.MemoryDir = config.Env("BNUUY_MEMORY_DIR", c.MemoryDir)
	c.UserID = config.Env("BNUUY_USER_ID", c.UserID)
	c.WebPort = config.Env("BNUUY_WEB_PORT", c.WebPort)
	if prompt := os.Getenv("BNUUY_SYSTEM_PROMPT"); prompt != "" {
		c.SystemPrompt = prompt
	}
	if speed := os.Getenv("BNUUY_TTS_SPEED"); speed != "" {
		if v, err := strconv.ParseFloat(speed, 64); err == nil && v > 0 {
			c.TTSSpeed = v
		}
	}
}

// Validate checks that required configuration is present and coherent.
func (c *Config) Validate() error {
	if c.InferenceURL == "" {
		return &ConfigError{Field: "InferenceURL", Message: "inference server URL is required"}
	}
	if c.Model == "" {
		return &ConfigError{Field: "Model", Message: "completion model name is required"}
	}
	if c.TTSURL == "" {
		return &ConfigError{Field: "TTSURL", Message: "TTS endpoint URL is required"}
	}
	if c.STTURL == "" {
		return &ConfigError{Field: "STTURL", Message: "STT websocket URL is required"}
	}
	if c.PromptMin <= 0 || c.PromptMax < c.PromptMin {
		return &ConfigError{
			Field:   "PromptMin",
			Message: fmt.Sprintf("invalid self-prompt interval %v..%v", c.PromptMin, c.PromptMax),
		}
	}
	if c.UserID == "" {
		return &ConfigError{Field: "UserID", Message: "default user id is required"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
