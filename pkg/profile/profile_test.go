package profile

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir(), nil, nil, slog.Default())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestLazyCreatePersistsAllCategories(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, nil, nil, slog.Default())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	p, err := m.GetProfile("lumi")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p.Version != SchemaVersion {
		t.Errorf("Expected version %d, got %d", SchemaVersion, p.Version)
	}
	for _, c := range defaultCategories {
		if _, ok := p.Preferences[c]; !ok {
			t.Errorf("Missing default category %q", c)
		}
	}

	// The file must exist on disk after first access
	data, err := os.ReadFile(filepath.Join(dir, "lumi.json"))
	if err != nil {
		t.Fatalf("Profile file not persisted: %v", err)
	}
	var onDisk Profile
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("Persisted profile unreadable: %v", err)
	}
	if onDisk.UserID != "lumi" {
		t.Errorf("Expected user_id lumi, got %s", onDisk.UserID)
	}
}

func TestAddPreferenceAndSummary(t *testing.T) {
	m := newTestManager(t)

	added, err := m.AddPreference("lumi", Record{Type: TypeLikes, Value: "Pizza"}, "")
	if err != nil {
		t.Fatalf("AddPreference failed: %v", err)
	}
	if !added {
		t.Error("Expected preference to be added")
	}

	added, err = m.AddPreference("lumi", Record{Type: TypeDislikes, Value: "broccoli"}, "")
	if err != nil {
		t.Fatalf("AddPreference failed: %v", err)
	}
	if !added {
		t.Error("Expected dislike to be added")
	}

	summary, err := m.Summary("lumi")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}

	food := summary["food"]
	if len(food) != 2 {
		t.Fatalf("Expected 2 food entries, got %v", food)
	}
	if food[0] != "pizza" {
		t.Errorf("Expected lowercase 'pizza', got %q", food[0])
	}
	if food[1] != "doesn't like broccoli" {
		t.Errorf("Expected dislike prefix, got %q", food[1])
	}
}

func TestDuplicatePreferenceDiscarded(t *testing.T) {
	m := newTestManager(t)

	if added, _ := m.AddPreference("lumi", Record{Type: TypeLikes, Value: "pizza"}, ""); !added {
		t.Fatal("First add should succeed")
	}
	if added, _ := m.AddPreference("lumi", Record{Type: TypeLikes, Value: "Pizza"}, ""); added {
		t.Error("Exact duplicate should be discarded")
	}

	// Same value with a different type is a separate entry
	if added, _ := m.AddPreference("lumi", Record{Type: TypeDislikes, Value: "pizza"}, ""); !added {
		t.Error("Same value with different type should be added")
	}
}

func TestSubstringMergeLongerWins(t *testing.T) {
	m := newTestManager(t)

	if added, _ := m.AddPreference("lumi", Record{Type: TypeLikes, Value: "game"}, "games"); !added {
		t.Fatal("First add should succeed")
	}

	// Longer value replaces the shorter one in place
	added, err := m.AddPreference("lumi", Record{Type: TypeLikes, Value: "rpg games"}, "games")
	if err != nil {
		t.Fatalf("AddPreference failed: %v", err)
	}
	if added {
		t.Error("Substring merge should not count as a new entry")
	}

	p, err := m.GetProfile("lumi")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	games := p.Preferences["games"]
	if len(games) != 1 {
		t.Fatalf("Expected 1 games entry, got %d", len(games))
	}
	if games[0].Value != "rpg games" {
		t.Errorf("Expected 'rpg games' to win, got %q", games[0].Value)
	}

	// Shorter value arriving later is discarded
	if added, _ := m.AddPreference("lumi", Record{Type: TypeLikes, Value: "games"}, "games"); added {
		t.Error("Shorter substring should be discarded")
	}
}

func TestValidationRejectsJunk(t *testing.T) {
	m := newTestManager(t)

	cases := []Record{
		{Type: TypeLikes, Value: "x"},          // too short
		{Type: TypeLikes, Value: " "},          // empty after trim
		{Type: "loves", Value: "pizza"},        // bad type
		{Type: TypeLikes, Value: "the"},        // stopword
		{Type: TypeDislikes, Value: "because"}, // stopword
	}
	for _, rec := range cases {
		if added, err := m.AddPreference("lumi", rec, ""); err != nil || added {
			t.Errorf("Expected %+v to be rejected silently, got added=%v err=%v", rec, added, err)
		}
	}
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		value string
		want  string
	}{
		{"jazz", "music"},
		{"listening to jazz music", "music"},
		{"gaming", "hobbies"},
		{"playing games", "hobbies"},
		{"reading novels", "interests"},
		{"final fantasy", "games"},
		{"playing rpg games", "games"},
		{"pizza", "food"},
		{"swimming", "hobbies"},
		{"emerald green", "colors"},
		{"watching movies", "entertainment"},
		{"quantum physics", "interests"}, // fallback
	}
	for _, c := range cases {
		if got := Categorize(Record{Value: c.value}); got != c.want {
			t.Errorf("Categorize(%q) = %q, want %q", c.value, got, c.want)
		}
	}
}

func TestCategorizeHonorsExplicitCategory(t *testing.T) {
	if got := Categorize(Record{Value: "pizza", Category: "hobbies"}); got != "hobbies" {
		t.Errorf("Explicit category should win, got %q", got)
	}
	if got := Categorize(Record{Value: "pizza", Category: "general"}); got != "food" {
		t.Errorf("general should defer to keywords, got %q", got)
	}
}

func TestMigrationV1toV2(t *testing.T) {
	dir := t.TempDir()

	// Hand-write a v1 profile with deprecated categories
	v1 := map[string]interface{}{
		"user_id": "lumi",
		"version": 1,
		"preferences": map[string]interface{}{
			"color":     []map[string]string{{"type": "likes", "value": "teal"}},
			"colors":    []map[string]string{{"type": "likes", "value": "pink"}},
			"listening": []map[string]string{{"type": "likes", "value": "jazz"}},
			"activity":  []map[string]string{},
		},
		"important_dates":      map[string]string{},
		"reminders":            []string{},
		"conversation_history": []string{},
	}
	data, _ := json.Marshal(v1)
	if err := os.WriteFile(filepath.Join(dir, "lumi.json"), data, 0644); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(dir, nil, nil, slog.Default())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	p, err := m.GetProfile("lumi")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}

	if p.Version != SchemaVersion {
		t.Errorf("Expected migrated version %d, got %d", SchemaVersion, p.Version)
	}
	if _, ok := p.Preferences["color"]; ok {
		t.Error("Deprecated 'color' category should be gone")
	}
	if _, ok := p.Preferences["listening"]; ok {
		t.Error("Deprecated 'listening' category should be gone")
	}

	colors := p.Preferences["colors"]
	if len(colors) != 2 {
		t.Fatalf("Expected merged colors, got %v", colors)
	}

	// Migration is persisted; a fresh manager sees the new version
	m2, err := NewManager(dir, nil, nil, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	p2, err := m2.GetProfile("lumi")
	if err != nil {
		t.Fatal(err)
	}
	if p2.Version != SchemaVersion {
		t.Errorf("Migration not persisted: version %d", p2.Version)
	}
	if len(p2.Preferences["colors"]) != 2 {
		t.Error("Migration should be idempotent across reloads")
	}
}

func TestMissingVersionTreatedAsV1(t *testing.T) {
	dir := t.TempDir()

	raw := `{"user_id":"lumi","preferences":{"color":[{"type":"likes","value":"navy"}]}}`
	if err := os.WriteFile(filepath.Join(dir, "lumi.json"), []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(dir, nil, nil, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	p, err := m.GetProfile("lumi")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p.Version != SchemaVersion {
		t.Errorf("Expected version %d after migration, got %d", SchemaVersion, p.Version)
	}
	if len(p.Preferences["colors"]) != 1 || p.Preferences["colors"][0].Value != "navy" {
		t.Errorf("Expected navy merged into colors, got %v", p.Preferences["colors"])
	}
}

func TestRegexExtractor(t *testing.T) {
	e := NewRegexExtractor()

	recs := e.ExtractPreferences("I love pizza and I don't like broccoli", "lumi")
	if len(recs) != 2 {
		t.Fatalf("Expected 2 records, got %+v", recs)
	}
	if recs[0].Type != TypeLikes || recs[0].Value != "pizza" {
		t.Errorf("Unexpected first record: %+v", recs[0])
	}
	if recs[1].Type != TypeDislikes || recs[1].Value != "broccoli" {
		t.Errorf("Unexpected second record: %+v", recs[1])
	}
}

func TestRegexExtractorFavorites(t *testing.T) {
	e := NewRegexExtractor()

	recs := e.ExtractPreferences("My favorite color is teal!", "lumi")
	if len(recs) != 1 {
		t.Fatalf("Expected 1 record, got %+v", recs)
	}
	if recs[0].Category != "colors" || recs[0].Value != "teal" {
		t.Errorf("Unexpected record: %+v", recs[0])
	}
}

func TestRegexExtractorNothingToFind(t *testing.T) {
	e := NewRegexExtractor()
	if recs := e.ExtractPreferences("what time is it?", "lumi"); len(recs) != 0 {
		t.Errorf("Expected no records, got %+v", recs)
	}
}

func TestHasPreference(t *testing.T) {
	m := newTestManager(t)

	m.AddPreference("lumi", Record{Type: TypeLikes, Value: "teal"}, "")
	ok, err := m.HasPreference("lumi", "Teal")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("Expected HasPreference to find teal")
	}
	ok, _ = m.HasPreference("lumi", "mauve")
	if ok {
		t.Error("Did not expect mauve")
	}
}

func TestCreateBackup(t *testing.T) {
	m := newTestManager(t)
	m.AddPreference("lumi", Record{Type: TypeLikes, Value: "pizza"}, "")

	path, err := m.CreateBackup("lumi")
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Backup not written: %v", err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("Backup unreadable: %v", err)
	}
	if p.UserID != "lumi" {
		t.Errorf("Backup user mismatch: %s", p.UserID)
	}
}
