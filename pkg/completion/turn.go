// Package completion is the conversational core: it accepts turns, merges
// input that arrives while the model is busy, runs streaming completions
// against the inference backend, and publishes finished responses to the
// history, the session log, speech, and the memory pipeline.
package completion

// TurnKind distinguishes real user input from self-prompt continuations.
type TurnKind int

const (
	// TurnUser is ordinary user input.
	TurnUser TurnKind = iota

	// TurnContinue asks the model to keep its previous thought going.
	TurnContinue
)

// Turn is one unit of work for the completion worker.
type Turn struct {
	Kind TurnKind
	Text string
}

// ContinuationPrompt is what the model actually receives for a
// continuation turn. The system prompt teaches the model that "..." means
// the user is still listening.
const ContinuationPrompt = "..."

// continuationMarkers are the self-prompt texts that classify a turn as a
// continuation. Matched exactly.
var continuationMarkers = map[string]struct{}{
	"[continue]":     {},
	"[thinking]":     {},
	"[AI continues]": {},
	"[self-talk]":    {},
}

// Markers returns the continuation marker set as a slice, for callers
// that pick one at random.
func Markers() []string {
	return []string{"[continue]", "[thinking]", "[AI continues]", "[self-talk]"}
}

// IsContinuationMarker reports whether text is exactly one of the
// continuation markers.
func IsContinuationMarker(text string) bool {
	_, ok := continuationMarkers[text]
	return ok
}
