package fuzzy

import (
	"fmt"
	"unicode/utf8"

	"github.com/baditaflorin/go_prompt_score/internal/core/text"
	"github.com/baditaflorin/go_prompt_score/internal/ports"
	"github.com/hbollon/go-edlib"
)

// Algorithm names a string similarity algorithm.
type Algorithm string

const (
	// Levenshtein is 1 - distance/maxLen over the unit-cost edit distance.
	Levenshtein Algorithm = "levenshtein"
	// DamerauLevenshtein also counts adjacent transpositions as a single edit.
	DamerauLevenshtein Algorithm = "damerau-levenshtein"
	// JaroWinkler favours strings sharing a common prefix.
	JaroWinkler Algorithm = "jaro-winkler"
)

// ParseAlgorithm resolves an algorithm name. The empty string selects Levenshtein.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case "", Levenshtein:
		return Levenshtein, nil
	case DamerauLevenshtein, JaroWinkler:
		return Algorithm(name), nil
	default:
		return "", fmt.Errorf("invalid fuzzy algorithm: %s (must be levenshtein, damerau-levenshtein or jaro-winkler)", name)
	}
}

// Similarity returns the Levenshtein similarity of a and b after normalization, in [0, 1].
// Identical normalized strings score 1; if exactly one side is empty the score is 0.
func Similarity(a, b string) float64 {
	return levenshteinSimilarity(text.Normalize(a), text.Normalize(b))
}

func levenshteinSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1
	}
	if s1 == "" || s2 == "" {
		return 0
	}
	maxLen := max(utf8.RuneCountInString(s1), utf8.RuneCountInString(s2))
	return 1 - float64(LevenshteinDistance(s1, s2))/float64(maxLen)
}

// Matcher computes similarity with a configurable algorithm and normalizer.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	algorithm  Algorithm
	normalizer ports.Normalizer
}

// NewMatcher creates a matcher. A nil normalizer falls back to text.Normalize.
func NewMatcher(algorithm Algorithm, normalizer ports.Normalizer) (*Matcher, error) {
	algo, err := ParseAlgorithm(string(algorithm))
	if err != nil {
		return nil, err
	}
	return &Matcher{algorithm: algo, normalizer: normalizer}, nil
}

// Algorithm returns the configured algorithm.
func (m *Matcher) Algorithm() Algorithm {
	return m.algorithm
}

// Similarity returns the similarity of a and b in [0, 1].
func (m *Matcher) Similarity(a, b string) float64 {
	s1, s2 := m.normalize(a), m.normalize(b)
	if m.algorithm == Levenshtein {
		return levenshteinSimilarity(s1, s2)
	}

	if s1 == s2 {
		return 1
	}
	if s1 == "" || s2 == "" {
		return 0
	}

	algo := edlib.JaroWinkler
	if m.algorithm == DamerauLevenshtein {
		algo = edlib.DamerauLevenshtein
	}
	score, err := edlib.StringsSimilarity(s1, s2, algo)
	if err != nil {
		return 0
	}
	return clamp(float64(score))
}

func (m *Matcher) normalize(s string) string {
	if m.normalizer == nil {
		return text.Normalize(s)
	}
	return m.normalizer.Normalize(s)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
