package ai

import "strings"

// stopwords per language, drawn from high-frequency function words
// common in agricultural program documents.
var stopwords = map[string][]string{
	"en": {"the", "and", "of", "to", "for", "in", "is", "are", "with", "from"},
	"de": {"der", "die", "das", "und", "für", "von", "mit", "ist", "auf", "werden"},
	"fr": {"le", "la", "les", "et", "des", "pour", "dans", "est", "une", "avec"},
	"es": {"el", "la", "los", "las", "de", "para", "en", "es", "una", "con"},
	"it": {"il", "la", "di", "per", "che", "una", "sono", "con", "del", "nel"},
	"pl": {"i", "w", "na", "do", "jest", "się", "oraz", "dla", "przez", "nie"},
}

// DetectLanguage guesses the document language by counting stopword
// hits per language over the first few thousand words. Returns "en"
// when nothing scores, so prompts always carry a language hint.
func DetectLanguage(text string) string {
	words := strings.Fields(strings.ToLower(text))
	if len(words) > 3000 {
		words = words[:3000]
	}
	if len(words) == 0 {
		return "en"
	}

	seen := make(map[string]int, len(words))
	for _, w := range words {
		seen[strings.Trim(w, ".,;:()\"'")]++
	}

	best, bestScore := "en", 0
	for lang, stops := range stopwords {
		score := 0
		for _, s := range stops {
			score += seen[s]
		}
		if score > bestScore {
			best, bestScore = lang, score
		}
	}
	return best
}
