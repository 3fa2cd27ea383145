package selfprompt

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LumiBunny/BnuuyBotApp/pkg/completion"
)

type submitRecorder struct {
	mu      sync.Mutex
	markers []string
}

func (r *submitRecorder) submit(text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers = append(r.markers, text)
	return true
}

func (r *submitRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.markers)
}

func (r *submitRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.markers...)
}

func fastOpts() []Option {
	return []Option{
		WithInterval(20*time.Millisecond, 30*time.Millisecond),
		WithTick(5 * time.Millisecond),
		WithRand(rand.New(rand.NewSource(1))),
	}
}

func TestPrompterFiresAfterQuietInterval(t *testing.T) {
	rec := &submitRecorder{}
	p := NewPrompter(rec.submit, nil, fastOpts()...)

	if err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && rec.count() == 0 {
		time.Sleep(5 * time.Millisecond)
	}

	if rec.count() == 0 {
		t.Fatal("Prompter never fired")
	}
	if !completion.IsContinuationMarker(rec.all()[0]) {
		t.Errorf("Expected a continuation marker, got %q", rec.all()[0])
	}
}

func TestPrompterSuppressedWhileSpeaking(t *testing.T) {
	rec := &submitRecorder{}
	var speaking atomic.Bool
	speaking.Store(true)

	p := NewPrompter(rec.submit, speaking.Load, fastOpts()...)

	// Start refuses while speaking
	if err := p.Start(); err != ErrSpeaking {
		t.Fatalf("Expected ErrSpeaking, got %v", err)
	}

	speaking.Store(false)
	if err := p.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()

	// Speech begins again: intervals elapse but nothing fires
	speaking.Store(true)
	time.Sleep(150 * time.Millisecond)
	if rec.count() != 0 {
		t.Errorf("Expected no markers while speaking, got %d", rec.count())
	}

	// Quiet again: the prompter resumes
	speaking.Store(false)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && rec.count() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if rec.count() == 0 {
		t.Error("Prompter should fire after speech ends")
	}
}

func TestVoiceActivityPausesTimer(t *testing.T) {
	rec := &submitRecorder{}
	p := NewPrompter(rec.submit, nil, fastOpts()...)

	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	p.OnVoiceActivityStarted()
	if p.TimerActive() {
		t.Error("Timer should pause during voice activity")
	}

	time.Sleep(100 * time.Millisecond)
	if rec.count() != 0 {
		t.Errorf("Expected no markers while user speaks, got %d", rec.count())
	}

	p.OnVoiceActivityEnded()
	if !p.TimerActive() {
		t.Error("Timer should re-arm after voice activity ends")
	}
}

func TestTranscriptPausesUntilTurnDone(t *testing.T) {
	rec := &submitRecorder{}
	p := NewPrompter(rec.submit, nil, fastOpts()...)

	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	p.OnTranscript("hello bunny")
	if p.TimerActive() {
		t.Error("Timer should pause after a real transcript")
	}

	// Whitespace transcripts do not pause
	p.OnTurnDone()
	if !p.TimerActive() {
		t.Error("Timer should re-arm after the turn completes")
	}
	p.OnTranscript("   ")
	if !p.TimerActive() {
		t.Error("Blank transcript must not pause the timer")
	}
}

func TestStopIsBoundedAndRestartable(t *testing.T) {
	rec := &submitRecorder{}
	p := NewPrompter(rec.submit, nil, fastOpts()...)

	if err := p.Start(); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	p.Stop()
	if time.Since(start) > time.Second {
		t.Error("Stop took too long")
	}
	if p.IsRunning() {
		t.Error("Expected not running after Stop")
	}

	// No firing while stopped
	n := rec.count()
	time.Sleep(100 * time.Millisecond)
	if rec.count() != n {
		t.Error("Prompter fired while stopped")
	}

	if err := p.Start(); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && rec.count() == n {
		time.Sleep(5 * time.Millisecond)
	}
	if rec.count() == n {
		t.Error("Prompter did not fire after restart")
	}
}

func TestResetTimerDelaysFiring(t *testing.T) {
	rec := &submitRecorder{}
	p := NewPrompter(rec.submit, nil,
		WithInterval(60*time.Millisecond, 61*time.Millisecond),
		WithTick(5*time.Millisecond),
		WithRand(rand.New(rand.NewSource(1))),
	)

	if err := p.Start(); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	// Keep resetting faster than the interval: nothing may fire
	for i := 0; i < 10; i++ {
		time.Sleep(20 * time.Millisecond)
		p.ResetTimer()
	}
	if rec.count() != 0 {
		t.Errorf("Expected no markers while being reset, got %d", rec.count())
	}
}

func TestSampledIntervalWithinBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Apply(WithInterval(5*time.Second, 30*time.Second), WithRand(rand.New(rand.NewSource(42))))
	p := &Prompter{cfg: cfg}

	for i := 0; i < 1000; i++ {
		d := p.sampleInterval()
		if d < 5*time.Second || d > 30*time.Second {
			t.Fatalf("Interval %v out of bounds", d)
		}
	}
}
