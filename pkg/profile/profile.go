// Package profile stores long-lived per-user preference profiles as JSON
// files. Profiles are versioned; old files are migrated forward on load.
package profile

// SchemaVersion is the current profile file version.
const SchemaVersion = 2

// Preference types.
const (
	TypeLikes    = "likes"
	TypeDislikes = "dislikes"
	TypeNeutral  = "neutral"
)

// defaultCategories are created on every new profile.
var defaultCategories = []string{
	"food", "hobbies", "interests", "colors", "music",
	"movies", "entertainment", "games", "general",
}

// Preference is one stored preference entry.
type Preference struct {
	Type    string `json:"type"`
	Value   string `json:"value"`
	Context string `json:"context,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// Profile is the on-disk per-user record.
type Profile struct {
	UserID              string                  `json:"user_id"`
	Version             int                     `json:"version"`
	Preferences         map[string][]Preference `json:"preferences"`
	ImportantDates      map[string]string       `json:"important_dates"`
	Reminders           []string                `json:"reminders"`
	ConversationHistory []string                `json:"conversation_history"`
}

// Record is an extracted preference before it is categorized and stored.
type Record struct {
	Type     string
	Value    string
	Category string
	Context  string
	Notes    string
}

// Extractor pulls preference statements out of free text.
type Extractor interface {
	ExtractPreferences(text, userID string) []Record
}

// AuditLog receives a note whenever a preference is added. Satisfied by
// the chat session logger.
type AuditLog interface {
	Append(from, value string) error
}

func newProfile(userID string) *Profile {
	p := &Profile{
		UserID:              userID,
		Version:             SchemaVersion,
		Preferences:         make(map[string][]Preference),
		ImportantDates:      make(map[string]string),
		Reminders:           []string{},
		ConversationHistory: []string{},
	}
	for _, c := range defaultCategories {
		p.Preferences[c] = []Preference{}
	}
	return p
}

func copyProfile(p *Profile) *Profile {
	out := &Profile{
		UserID:              p.UserID,
		Version:             p.Version,
		Preferences:         make(map[string][]Preference, len(p.Preferences)),
		ImportantDates:      make(map[string]string, len(p.ImportantDates)),
		Reminders:           append([]string(nil), p.Reminders...),
		ConversationHistory: append([]string(nil), p.ConversationHistory...),
	}
	for cat, prefs := range p.Preferences {
		out.Preferences[cat] = append([]Preference(nil), prefs...)
	}
	for k, v := range p.ImportantDates {
		out.ImportantDates[k] = v
	}
	return out
}
