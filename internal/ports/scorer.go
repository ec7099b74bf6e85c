package ports

import "github.com/baditaflorin/go_prompt_score/internal/core/domain"

// PhraseScorer scores generated text against a target phrase.
type PhraseScorer interface {
	Score(targetPhrase, generatedText, userPrompt string) domain.ScoringResult
}

// ArtScorer scores generated ASCII art against a target piece.
type ArtScorer interface {
	ScoreArt(targetArt, generatedArt, userPrompt string) domain.ScoringResult
}
