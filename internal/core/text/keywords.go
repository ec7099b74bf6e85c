package text

import (
	"unicode/utf8"

	"github.com/baditaflorin/go_prompt_score/internal/ports"
)

// KeywordExtractor derives the significant words of a phrase.
type KeywordExtractor struct {
	normalizer ports.Normalizer
}

// NewKeywordExtractor creates an extractor that normalizes through n.
// A nil normalizer falls back to Normalize.
func NewKeywordExtractor(n ports.Normalizer) *KeywordExtractor {
	return &KeywordExtractor{normalizer: n}
}

// Extract returns the keywords of phrase in first-occurrence order.
// The result is never nil.
func (e *KeywordExtractor) Extract(phrase string) []string {
	normalized := e.normalize(phrase)
	return keywordsOf(normalized)
}

func (e *KeywordExtractor) normalize(s string) string {
	if e == nil || e.normalizer == nil {
		return Normalize(s)
	}
	return e.normalizer.Normalize(s)
}

// ExtractKeywords is Extract with the default normalizer.
func ExtractKeywords(phrase string) []string {
	return keywordsOf(Normalize(phrase))
}

func keywordsOf(normalized string) []string {
	words := Words(StripPunctuation(normalized))
	keywords := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) <= 1 || IsStopWord(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
	}
	return keywords
}
