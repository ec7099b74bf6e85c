package phrase

import (
	"errors"

	"github.com/baditaflorin/go_prompt_score/internal/core/cheat"
	"github.com/baditaflorin/go_prompt_score/internal/core/fuzzy"
	"github.com/baditaflorin/go_prompt_score/internal/core/policy"
)

// Config holds configuration for the phrase scorer.
type Config struct {
	// KeywordSimilarity is the strict lower bound a generated word must exceed to
	// fuzzily match a keyword.
	KeywordSimilarity float64 `toml:"keyword_similarity"`
	// FuzzyAlgorithm selects the similarity algorithm for keyword and prompt matching.
	FuzzyAlgorithm fuzzy.Algorithm `toml:"fuzzy_algorithm"`
	// Stemming also counts a keyword as fuzzily matched when a generated word
	// shares its Porter2 stem.
	Stemming bool `toml:"stemming"`
	// Cheat holds the prompt leakage thresholds.
	Cheat cheat.Config `toml:"cheat"`
	// Tiers maps keyword match ratios to scores.
	Tiers policy.Table `toml:"tiers"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		KeywordSimilarity: 0.75,
		FuzzyAlgorithm:    fuzzy.Levenshtein,
		Stemming:          false,
		Cheat:             cheat.DefaultConfig(),
		Tiers:             policy.PhraseTiers(),
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.KeywordSimilarity < 0 || c.KeywordSimilarity > 1 {
		return errors.New("keyword similarity must be between 0 and 1")
	}
	if _, err := fuzzy.ParseAlgorithm(string(c.FuzzyAlgorithm)); err != nil {
		return err
	}
	if err := c.Cheat.Validate(); err != nil {
		return err
	}
	return c.Tiers.Validate()
}
