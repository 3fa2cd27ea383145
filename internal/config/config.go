// Package config provides environment configuration helpers for BnuuyBot commands.
package config

import "os"

// Default service endpoints.
const (
	DefaultInferenceURL = "http://127.0.0.1:1234/v1"
	DefaultTTSURL       = "http://127.0.0.1:5050/v1/audio/speech"
	DefaultSTTURL       = "ws://127.0.0.1:5052/ws/stt"
)

// Env returns the value of the named environment variable,
// falling back to def when unset or empty.
func Env(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// InferenceURL returns the completion server base URL from BNUUY_INFERENCE_URL.
func InferenceURL() string {
	return Env("BNUUY_INFERENCE_URL", DefaultInferenceURL)
}

// TTSURL returns the speech synthesis endpoint from BNUUY_TTS_URL.
func TTSURL() string {
	return Env("BNUUY_TTS_URL", DefaultTTSURL)
}

// STTURL returns the transcription server websocket URL from BNUUY_STT_URL.
func STTURL() string {
	return Env("BNUUY_STT_URL", DefaultSTTURL)
}
