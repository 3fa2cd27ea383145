// Package tts queues assistant responses for speech synthesis and
// playback. A Provider turns text into audio (the default backend is an
// openai-edge-tts compatible server), a Sink plays it, and the Engine
// serializes the two behind a queue so responses never talk over each
// other.
package tts

import "context"

// Provider defines the synthesis backend interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult is a complete synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data.
	Audio []byte

	// Format names the container/codec, e.g. "mp3".
	Format string

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the synthesis round trip in milliseconds.
	LatencyMs int64
}

// Sink plays synthesized audio. Implementations must block until playback
// completes so the engine's speaking state stays truthful.
type Sink interface {
	Play(ctx context.Context, audio []byte, format string) error
}
