// Package stt is the contract with the external speech-to-text service.
// Audio capture and transcription run out of process; this package
// receives voice-activity and transcript events over a websocket and
// fans them out to observers.
package stt

// Engine is the transcription collaborator interface. Start begins
// listening for events; observers must be registered before Start.
type Engine interface {
	// Start begins transcription.
	Start() error

	// Stop halts transcription. Safe to call when not running.
	Stop() error

	// IsListening reports whether transcription is active.
	IsListening() bool

	// OnVoiceActivityStarted fires when the user begins speaking.
	OnVoiceActivityStarted(fn func())

	// OnVoiceActivityEnded fires when the user stops speaking.
	OnVoiceActivityEnded(fn func())

	// OnInterimTranscript fires with partial recognition results.
	OnInterimTranscript(fn func(text string))

	// OnFinalTranscript fires with completed utterances.
	OnFinalTranscript(fn func(text string))

	// NotifyTTSStarted tells the recognizer the assistant is speaking so
	// it can ignore its own voice.
	NotifyTTSStarted()

	// NotifyTTSFinished tells the recognizer the assistant went quiet.
	NotifyTTSFinished()
}
