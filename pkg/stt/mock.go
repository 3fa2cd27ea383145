package stt

import "sync"

// Mock implements Engine for testing, with helpers to inject the events a
// real recognizer would produce.
type Mock struct {
	mu          sync.Mutex
	listening   bool
	ttsSpeaking bool

	onVADStart []func()
	onVADEnd   []func()
	onInterim  []func(string)
	onFinal    []func(string)
}

// NewMock creates a mock recognizer.
func NewMock() *Mock {
	return &Mock{}
}

// Start marks the mock as listening.
func (m *Mock) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listening = true
	return nil
}

// Stop marks the mock as stopped.
func (m *Mock) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listening = false
	return nil
}

// IsListening reports the listening flag.
func (m *Mock) IsListening() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listening
}

// OnVoiceActivityStarted registers a VAD-start observer.
func (m *Mock) OnVoiceActivityStarted(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onVADStart = append(m.onVADStart, fn)
}

// OnVoiceActivityEnded registers a VAD-end observer.
func (m *Mock) OnVoiceActivityEnded(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onVADEnd = append(m.onVADEnd, fn)
}

// OnInterimTranscript registers a partial-result observer.
func (m *Mock) OnInterimTranscript(fn func(string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onInterim = append(m.onInterim, fn)
}

// OnFinalTranscript registers a final-result observer.
func (m *Mock) OnFinalTranscript(fn func(string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFinal = append(m.onFinal, fn)
}

// NotifyTTSStarted records that the assistant is speaking.
func (m *Mock) NotifyTTSStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttsSpeaking = true
}

// NotifyTTSFinished records that the assistant went quiet.
func (m *Mock) NotifyTTSFinished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttsSpeaking = false
}

// TTSSpeaking reports the last notified assistant speech state.
func (m *Mock) TTSSpeaking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttsSpeaking
}

// InjectVoiceStart simulates the user starting to speak.
func (m *Mock) InjectVoiceStart() {
	for _, fn := range m.snapshotVADStart() {
		fn()
	}
}

// InjectVoiceEnd simulates the user stopping.
func (m *Mock) InjectVoiceEnd() {
	for _, fn := range m.snapshotVADEnd() {
		fn()
	}
}

// InjectInterim simulates a partial recognition result.
func (m *Mock) InjectInterim(text string) {
	m.mu.Lock()
	fns := append([]func(string){}, m.onInterim...)
	m.mu.Unlock()
	for _, fn := range fns {
		fn(text)
	}
}

// InjectFinal simulates a completed utterance.
func (m *Mock) InjectFinal(text string) {
	m.mu.Lock()
	fns := append([]func(string){}, m.onFinal...)
	m.mu.Unlock()
	for _, fn := range fns {
		fn(text)
	}
}

func (m *Mock) snapshotVADStart() []func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]func(){}, m.onVADStart...)
}

func (m *Mock) snapshotVADEnd() []func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]func(){}, m.onVADEnd...)
}

// Verify Mock implements Engine at compile time.
var _ Engine = (*Mock)(nil)
