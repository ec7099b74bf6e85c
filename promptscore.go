// Package promptscore scores how closely text produced from a player's instruction
// matches a hidden target, on an integer scale from 0 to 5.
//
// The package-level functions share one lazily built engine with default settings.
// Callers that need a custom policy, logger or normalizer should build their own
// engine with pkg/scoring.
//
//	r := promptscore.Score("Life is unfair", output, prompt)
//	if r.Flagged {
//		// the prompt leaked the target
//	}
package promptscore

import (
	"sync"

	"github.com/baditaflorin/go_prompt_score/internal/core/fuzzy"
	"github.com/baditaflorin/go_prompt_score/internal/core/text"
	"github.com/baditaflorin/go_prompt_score/pkg/scoring"
)

// ScoringResult is the outcome of a scoring call.
type ScoringResult = scoring.Result

var defaultEngine = sync.OnceValue(func() *scoring.Engine {
	log, err := createDefaultLogger()
	if err != nil {
		panic("promptscore: " + err.Error())
	}
	e, err := scoring.New(scoring.WithLogger(log))
	if err != nil {
		panic("promptscore: " + err.Error())
	}
	return e
})

// Score rates generatedText against targetPhrase. A prompt that leaks the target
// is flagged and scores 0.
func Score(targetPhrase, generatedText, userPrompt string) ScoringResult {
	return defaultEngine().Score(targetPhrase, generatedText, userPrompt)
}

// ScoreArt rates generated ASCII art against targetArt.
func ScoreArt(targetArt, generatedArt, userPrompt string) ScoringResult {
	return defaultEngine().ScoreArt(targetArt, generatedArt, userPrompt)
}

// IsCheating reports whether userPrompt reveals targetPhrase.
func IsCheating(userPrompt, targetPhrase string) bool {
	return defaultEngine().IsCheating(userPrompt, targetPhrase)
}

// Normalize lower-cases s, trims it and collapses whitespace runs to one space.
func Normalize(s string) string {
	return text.Normalize(s)
}

// ExtractKeywords returns the distinct non-stop-words of phrase in first-occurrence order.
func ExtractKeywords(phrase string) []string {
	return text.ExtractKeywords(phrase)
}

// LevenshteinDistance is the edit distance between a and b, counted in runes.
func LevenshteinDistance(a, b string) int {
	return fuzzy.LevenshteinDistance(a, b)
}

// FuzzySimilarity returns 1 - distance/maxLen for the normalized inputs, in [0, 1].
func FuzzySimilarity(a, b string) float64 {
	return fuzzy.Similarity(a, b)
}
