package profile

import "strings"

// Keyword tables for deterministic categorization. Checked in order;
// earlier tables win for ambiguous values.
var (
	musicKeywords = []string{
		"music", "jazz", "song", "band", "artist", "album", "concert",
		"sing", "singing", "instrument", "rock", "pop", "classical",
		"hip hop", "rap", "blues", "country", "piano", "guitar", "drum",
		"violin", "viola", "cello", "saxophone", "flute", "clarinet",
		"trombone", "trumpet", "soprano", "alto", "tenor", "baritone",
		"piccolo", "edm", "dance", "euro pop", "euro dance",
		"electro", "electronic", "house", "techno",
		"indie", "sheet music", "chord", "chords", "chord progression",
	}

	gameKeywords = []string{"rpg", "game", "final fantasy", "video game", "videogame"}

	foodKeywords = []string{
		"food", "eat", "eating", "cuisine", "meal", "drink", "pizza",
		"pasta", "cheese", "broccoli", "vegetable", "fruit", "meat",
		"dessert", "breakfast", "lunch", "dinner", "snack", "sandwich",
		"vegetarian", "vegan", "gluten free", "dairy", "egg", "butter",
		"buttery",
	}

	hobbyKeywords = []string{
		"hobby", "swimming", "run", "running",
		"cycling", "bike", "hike", "draw", "drawing", "paint",
		"painting", "craft", "crafting", "reading", "learning",
		"write", "writing", "cook", "cooking", "cookbook",
		"playing music", "programming", "coding", "streaming",
		"vtubing", "baking",
	}

	colorKeywords = []string{
		"color", "blue", "red", "green", "yellow", "purple", "orange",
		"black", "white", "pink", "brown", "teal", "maroon", "navy",
		"grey", "silver", "gold", "turquoise", "violet",
		"magenta", "cyan", "indigo", "lavender", "lilac",
		"emerald",
	}

	entertainmentKeywords = []string{
		"movie", "film", "cinema", "series", "episode",
		"actor", "actress", "director", "watch", "watching",
		"podcast", "concert", "streaming", "youtube", "theatre",
		"show", "tv",
	}

	interestKeywords = []string{
		"interest", "book", "science", "history", "art",
		"technology", "cooking", "like", "enjoy", "love",
		"passionate", "fan", "enthusiast", "collect", "explore",
		"discover", "follow", "read", "study",
	}
)

// Categorize picks a category for a preference record. If the record
// already names a non-general category, that wins.
func Categorize(rec Record) string {
	value := strings.ToLower(rec.Value)

	if rec.Category != "" && rec.Category != "general" {
		return rec.Category
	}

	// Special cases before the keyword tables
	if value == "jazz" || value == "listening to jazz music" {
		return "music"
	}
	if value == "gaming" || value == "playing games" {
		return "hobbies"
	}
	if strings.Contains(value, "reading") || strings.Contains(value, "learning") || strings.Contains(value, "studying") {
		return "interests"
	}

	if containsAny(value, musicKeywords) {
		return "music"
	}

	if containsAny(value, gameKeywords) && value != "gaming" && value != "playing games" {
		return "games"
	}

	if strings.Contains(value, "playing") {
		for _, kw := range []string{"rpg", "game", "final fantasy", "video game"} {
			if strings.Contains(value, kw) && value != "playing games" {
				return "games"
			}
		}
		return "interests"
	}

	if containsAny(value, foodKeywords) {
		return "food"
	}
	if containsAny(value, hobbyKeywords) {
		return "hobbies"
	}
	if containsAny(value, colorKeywords) {
		return "colors"
	}
	if containsAny(value, entertainmentKeywords) {
		return "entertainment"
	}
	if containsAny(value, interestKeywords) {
		return "interests"
	}

	return "interests"
}

func containsAny(value string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(value, kw) {
			return true
		}
	}
	return false
}
