package speech

import (
	"strings"
	"sync"
	"testing"

	"github.com/LumiBunny/BnuuyBotApp/pkg/voicecmd"
)

type stubSubmitter struct {
	mu    sync.Mutex
	texts []string
	ok    bool
}

func newStubSubmitter() *stubSubmitter { return &stubSubmitter{ok: true} }

func (s *stubSubmitter) Submit(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return s.ok
}

func (s *stubSubmitter) submitted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.texts))
	copy(out, s.texts)
	return out
}

type stubPrompter struct {
	mu          sync.Mutex
	vadStarts   int
	vadEnds     int
	transcripts []string
}

func (p *stubPrompter) OnVoiceActivityStarted() {
	p.mu.Lock()
	p.vadStarts++
	p.mu.Unlock()
}

func (p *stubPrompter) OnVoiceActivityEnded() {
	p.mu.Lock()
	p.vadEnds++
	p.mu.Unlock()
}

func (p *stubPrompter) OnTranscript(text string) {
	p.mu.Lock()
	p.transcripts = append(p.transcripts, text)
	p.mu.Unlock()
}

func TestFinalTranscriptSubmitted(t *testing.T) {
	sub := newStubSubmitter()
	prompter := &stubPrompter{}
	c := NewCoordinator(sub, prompter, voicecmd.NewManager())

	c.HandleInterimTranscript("so I was think")
	c.HandleFinalTranscript("so I was thinking about dinner")

	got := sub.submitted()
	if len(got) != 1 || got[0] != "so I was thinking about dinner" {
		t.Fatalf("submitted = %v", got)
	}
	if c.InterimText() != "" {
		t.Errorf("interim text not cleared: %q", c.InterimText())
	}
	history := c.History()
	if len(history) != 1 || history[0].Text != "so I was thinking about dinner" {
		t.Errorf("history = %v", history)
	}
	prompter.mu.Lock()
	defer prompter.mu.Unlock()
	if len(prompter.transcripts) != 1 {
		t.Errorf("prompter saw %d transcripts, want 1", len(prompter.transcripts))
	}
}

func TestFinalTranscriptDedup(t *testing.T) {
	sub := newStubSubmitter()
	c := NewCoordinator(sub, nil, nil)

	var notified int
	c.OnEntry(func(Entry) { notified++ })

	c.HandleFinalTranscript("hello there")
	c.HandleFinalTranscript("hello there")

	if got := len(c.History()); got != 1 {
		t.Errorf("history length = %d, want 1", got)
	}
	// The event feed must match the visible history.
	if notified != 1 {
		t.Errorf("observers notified %d times, want 1", notified)
	}
	// Dedup only guards the visible list; both utterances still reach
	// the engine.
	if got := len(sub.submitted()); got != 2 {
		t.Errorf("submitted %d times, want 2", got)
	}
}

func TestEmptyFinalIgnored(t *testing.T) {
	sub := newStubSubmitter()
	c := NewCoordinator(sub, nil, nil)

	c.HandleFinalTranscript("")
	c.HandleFinalTranscript("   ")

	if len(c.History()) != 0 || len(sub.submitted()) != 0 {
		t.Errorf("blank transcripts were not ignored")
	}
}

func TestVoiceCommandNotSubmitted(t *testing.T) {
	sub := newStubSubmitter()
	c := NewCoordinator(sub, nil, voicecmd.NewManager())

	c.HandleFinalTranscript("please clear history now")

	if len(sub.submitted()) != 0 {
		t.Errorf("command was submitted to the engine: %v", sub.submitted())
	}
	if len(c.History()) != 1 {
		t.Errorf("command missing from visible history")
	}
}

func TestAttentionPhraseRewritten(t *testing.T) {
	sub := newStubSubmitter()
	c := NewCoordinator(sub, nil, voicecmd.NewManager())

	c.HandleFinalTranscript("hey bunny!")

	got := sub.submitted()
	if len(got) != 1 || got[0] != voicecmd.AttentionMarker {
		t.Errorf("submitted = %v, want attention marker", got)
	}
	// The raw phrase, not the marker, is what the UI shows.
	if history := c.History(); history[0].Text != "hey bunny!" {
		t.Errorf("history text = %q", history[0].Text)
	}
}

func TestCompletionDedup(t *testing.T) {
	c := NewCoordinator(nil, nil, nil)

	c.HandleCompletion("Hey Lumi!")
	c.HandleCompletion("Hey Lumi!")
	c.HandleCompletion("What's up?")

	responses := c.Responses()
	if len(responses) != 2 {
		t.Fatalf("responses = %v", responses)
	}
	if responses[1].Type != "assistant" {
		t.Errorf("response type = %q", responses[1].Type)
	}
}

func TestClearResetsVisibleOnly(t *testing.T) {
	sub := newStubSubmitter()
	c := NewCoordinator(sub, nil, nil)

	c.HandleFinalTranscript("remember this")
	c.HandleCompletion("Noted!")
	c.Clear()

	if len(c.History()) != 0 || len(c.Responses()) != 0 {
		t.Errorf("visible history not cleared")
	}
	// The submit already happened; clearing never recalls it.
	if len(sub.submitted()) != 1 {
		t.Errorf("submitted = %v", sub.submitted())
	}
}

func TestSystemAndUserMessages(t *testing.T) {
	c := NewCoordinator(nil, nil, nil)

	var notified []Entry
	c.OnEntry(func(e Entry) { notified = append(notified, e) })

	c.AddUserMessage("typed hello")
	c.AddSystemMessage("Chat session ended.")

	history := c.History()
	if len(history) != 2 {
		t.Fatalf("history = %v", history)
	}
	if history[0].Type != "" || history[1].Type != "system" {
		t.Errorf("entry types = %q, %q", history[0].Type, history[1].Type)
	}
	if len(notified) != 2 {
		t.Errorf("observers saw %d entries, want 2", len(notified))
	}
}

func TestVADForwarding(t *testing.T) {
	prompter := &stubPrompter{}
	c := NewCoordinator(nil, prompter, nil)

	c.OnVoiceActivityStarted()
	c.OnVoiceActivityStarted()
	c.OnVoiceActivityEnded()

	prompter.mu.Lock()
	defer prompter.mu.Unlock()
	if prompter.vadStarts != 2 || prompter.vadEnds != 1 {
		t.Errorf("vad starts=%d ends=%d", prompter.vadStarts, prompter.vadEnds)
	}
}

func TestConcurrentHandlers(t *testing.T) {
	sub := newStubSubmitter()
	c := NewCoordinator(sub, &stubPrompter{}, voicecmd.NewManager())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				c.HandleInterimTranscript("partial")
				c.HandleFinalTranscript(strings.Repeat("a", n+3))
				c.HandleCompletion(strings.Repeat("b", n+3))
			}
		}(i)
	}
	wg.Wait()

	if got := len(c.History()); got != 8 {
		t.Errorf("history length = %d, want 8", got)
	}
	if got := len(c.Responses()); got != 8 {
		t.Errorf("responses length = %d, want 8", got)
	}
}
