// Package voicecmd preprocesses transcripts before they reach the
// completion engine. It rewrites bare attention phrases into a marker the
// model understands and intercepts spoken control commands.
package voicecmd

import "strings"

// AttentionMarker replaces a transcript that is only a wake phrase.
const AttentionMarker = "[Lumi wants your attention]"

// Command tokens returned when a transcript contains a control phrase.
const (
	CmdClearHistory  = "COMMAND:CLEAR_HISTORY"
	CmdStopListening = "COMMAND:STOP_LISTENING"
	CmdPauseMusic    = "COMMAND:PAUSE_MUSIC"
	CmdVolumeUp      = "COMMAND:VOLUME_UP"
	CmdVolumeDown    = "COMMAND:VOLUME_DOWN"
)

// attentionPhrases are matched exactly after lowering and trimming
// trailing punctuation.
var attentionPhrases = map[string]struct{}{
	"bunny":        {},
	"bun":          {},
	"bun bun":      {},
	"hey bunny":    {},
	"hey bun":      {},
	"hey bun bun":  {},
	"okay bunny":   {},
	"okay bun bun": {},
	"okay bun":     {},
}

// commandPhrases are matched as substrings of the lowered transcript.
// Order matters only for overlapping phrases, so a slice keeps it stable.
var commandPhrases = []struct {
	phrase string
	token  string
}{
	{"clear history", CmdClearHistory},
	{"stop listening", CmdStopListening},
	{"pause music", CmdPauseMusic},
	{"volume up", CmdVolumeUp},
	{"volume down", CmdVolumeDown},
}

// Manager routes transcripts through attention and command handling.
type Manager struct{}

// NewManager creates a voice command manager.
func NewManager() *Manager {
	return &Manager{}
}

// Process inspects a transcript. It returns the (possibly rewritten) text
// and whether the text is a control command that should not be sent to the
// model. Transcripts shorter than two significant characters return
// ("", false) and should be ignored entirely.
func (m *Manager) Process(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 2 {
		return "", false
	}

	if token, ok := matchCommand(trimmed); ok {
		return token, true
	}

	return rewriteAttention(trimmed), false
}

func matchCommand(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, c := range commandPhrases {
		if strings.Contains(lower, c.phrase) {
			return c.token, true
		}
	}
	return "", false
}

func rewriteAttention(text string) string {
	cleaned := strings.Trim(strings.ToLower(strings.TrimSpace(text)), ",.!?")
	if _, ok := attentionPhrases[cleaned]; ok {
		return AttentionMarker
	}
	return text
}
