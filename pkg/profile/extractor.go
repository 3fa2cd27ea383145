package profile

import (
	"regexp"
	"strings"
)

// RegexExtractor is a lightweight preference extractor driven by common
// phrasing patterns. It covers the obvious first-person statements; the
// Extractor interface is the contract for anything smarter.
type RegexExtractor struct{}

// NewRegexExtractor creates the pattern-based extractor.
func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

type extractPattern struct {
	re       *regexp.Regexp
	prefType string
	category string
}

var extractPatterns = []extractPattern{
	{regexp.MustCompile(`\bmy favou?rite colou?r is ([a-z][a-z\s]*)`), TypeLikes, "colors"},
	{regexp.MustCompile(`\bmy favou?rite food is ([a-z][a-z\s]*)`), TypeLikes, "food"},
	{regexp.MustCompile(`\bmy favou?rite game is ([a-z][a-z0-9\s]*)`), TypeLikes, "games"},
	{regexp.MustCompile(`\bi really love ([a-z][a-z0-9\s]*)`), TypeLikes, ""},
	{regexp.MustCompile(`\bi love ([a-z][a-z0-9\s]*)`), TypeLikes, ""},
	{regexp.MustCompile(`\bi really like ([a-z][a-z0-9\s]*)`), TypeLikes, ""},
	{regexp.MustCompile(`\bi like ([a-z][a-z0-9\s]*)`), TypeLikes, ""},
	{regexp.MustCompile(`\bi enjoy ([a-z][a-z0-9\s]*)`), TypeLikes, ""},
	{regexp.MustCompile(`\bi do not like ([a-z][a-z0-9\s]*)`), TypeDislikes, ""},
	{regexp.MustCompile(`\bi don't like ([a-z][a-z0-9\s]*)`), TypeDislikes, ""},
	{regexp.MustCompile(`\bi don't enjoy ([a-z][a-z0-9\s]*)`), TypeDislikes, ""},
	{regexp.MustCompile(`\bi hate ([a-z][a-z0-9\s]*)`), TypeDislikes, ""},
	{regexp.MustCompile(`\bi dislike ([a-z][a-z0-9\s]*)`), TypeDislikes, ""},
}

// trailing words that pad out a spoken value without carrying meaning
var valueTrimWords = []string{
	"a lot", "so much", "very much", "too", "really", "right now", "today",
}

// ExtractPreferences scans text for preference statements.
func (e *RegexExtractor) ExtractPreferences(text, userID string) []Record {
	lower := strings.ToLower(text)

	var records []Record
	seen := make(map[string]struct{})

	for _, p := range extractPatterns {
		for _, match := range p.re.FindAllStringSubmatch(lower, -1) {
			value := cleanValue(match[1])
			if len(value) < 2 {
				continue
			}

			key := p.prefType + "|" + value
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			records = append(records, Record{
				Type:     p.prefType,
				Value:    value,
				Category: p.category,
				Context:  strings.TrimSpace(text),
			})
		}
	}

	return records
}

func cleanValue(v string) string {
	v = strings.TrimSpace(v)

	// Cut at clause boundaries the capture group ran past
	for _, stop := range []string{" because ", " but ", " and i ", " when ", " though "} {
		if idx := strings.Index(v, stop); idx > 0 {
			v = v[:idx]
		}
	}

	for _, w := range valueTrimWords {
		v = strings.TrimSuffix(v, " "+w)
	}

	return strings.TrimSpace(v)
}

var _ Extractor = (*RegexExtractor)(nil)
