package profile

// migrations maps a source version to the step that upgrades a profile to
// the next version. Applied in sequence until SchemaVersion is reached.
var migrations = map[int]func(*Profile){
	1: migrateV1toV2,
}

// migrate upgrades a loaded profile in place. Returns true if any step ran.
func migrate(p *Profile) bool {
	if p.Version == 0 {
		p.Version = 1
	}

	changed := false
	for p.Version < SchemaVersion {
		step, ok := migrations[p.Version]
		if !ok {
			break
		}
		step(p)
		p.Version++
		changed = true
	}
	return changed
}

// migrateV1toV2 folds the deprecated singular "color" category into
// "colors", drops the abandoned "listening" and "activity" categories, and
// makes sure every current category exists.
func migrateV1toV2(p *Profile) {
	if p.Preferences == nil {
		p.Preferences = make(map[string][]Preference)
	}

	if old, ok := p.Preferences["color"]; ok {
		if len(old) > 0 {
			p.Preferences["colors"] = append(p.Preferences["colors"], old...)
		}
		delete(p.Preferences, "color")
	}

	delete(p.Preferences, "listening")
	delete(p.Preferences, "activity")

	for _, c := range defaultCategories {
		if _, ok := p.Preferences[c]; !ok {
			p.Preferences[c] = []Preference{}
		}
	}
}
