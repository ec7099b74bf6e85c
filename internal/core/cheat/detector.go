// Package cheat decides whether a player's instruction leaks the target phrase.
package cheat

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/baditaflorin/go_prompt_score/internal/core/fuzzy"
	"github.com/baditaflorin/go_prompt_score/internal/core/text"
	"github.com/baditaflorin/go_prompt_score/internal/ports"
)

// Rule identifies which leakage heuristic fired.
type Rule string

const (
	RuleNone           Rule = ""
	RuleExactPrompt    Rule = "exact_prompt"
	RuleContainsTarget Rule = "contains_target"
	RuleOrderedSubset  Rule = "ordered_subset"
	RuleHighSimilarity Rule = "high_similarity"
)

// Config holds the leakage thresholds.
type Config struct {
	// OrderedSubsetRatio flags prompts that reproduce at least this fraction of the
	// target words in order.
	OrderedSubsetRatio float64 `toml:"ordered_subset_ratio"`
	// SimilarityThreshold flags prompts whose whole-string similarity to the target
	// is strictly above it.
	SimilarityThreshold float64 `toml:"similarity_threshold"`
}

// DefaultConfig returns the default leakage thresholds.
func DefaultConfig() Config {
	return Config{
		OrderedSubsetRatio:  0.5,
		SimilarityThreshold: 0.85,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.OrderedSubsetRatio <= 0 || c.OrderedSubsetRatio > 1 {
		return errors.New("ordered subset ratio must be greater than 0 and at most 1")
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return errors.New("similarity threshold must be between 0 and 1")
	}
	return nil
}

// Verdict is the outcome of a leakage check.
type Verdict struct {
	Cheating bool
	Rule     Rule
	Reason   string
}

// Detector applies the leakage heuristics. Any single rule is sufficient.
type Detector struct {
	config     Config
	normalizer ports.Normalizer
	matcher    *fuzzy.Matcher
}

// NewDetector creates a detector. A nil normalizer falls back to text.Normalize and a
// nil matcher to Levenshtein similarity.
func NewDetector(config Config, normalizer ports.Normalizer, matcher *fuzzy.Matcher) (*Detector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if matcher == nil {
		var err error
		matcher, err = fuzzy.NewMatcher(fuzzy.Levenshtein, normalizer)
		if err != nil {
			return nil, err
		}
	}
	return &Detector{
		config:     config,
		normalizer: normalizer,
		matcher:    matcher,
	}, nil
}

var defaultDetector = mustDetector(DefaultConfig())

func mustDetector(config Config) *Detector {
	d, err := NewDetector(config, nil, nil)
	if err != nil {
		panic("cheat: " + err.Error())
	}
	return d
}

// IsCheating reports whether prompt leaks target under the default thresholds.
func IsCheating(prompt, target string) bool {
	return defaultDetector.IsCheating(prompt, target)
}

// IsCheating reports whether prompt leaks target.
func (d *Detector) IsCheating(prompt, target string) bool {
	return d.Detect(prompt, target).Cheating
}

// Detect runs the rules in order and reports the first one that fires.
// An empty target never flags.
func (d *Detector) Detect(prompt, target string) Verdict {
	normalizedPrompt := d.normalize(prompt)
	normalizedTarget := d.normalize(target)

	if normalizedTarget == "" {
		return Verdict{}
	}

	if normalizedPrompt == normalizedTarget {
		return Verdict{Cheating: true, Rule: RuleExactPrompt, Reason: "Prompt was the target phrase"}
	}

	if strings.Contains(normalizedPrompt, normalizedTarget) {
		return Verdict{Cheating: true, Rule: RuleContainsTarget, Reason: "Prompt contained target phrase"}
	}

	targetWords := text.Words(normalizedTarget)
	consumed := OrderedPrefixConsumed(text.Words(normalizedPrompt), targetWords)
	if float64(consumed)/float64(len(targetWords)) >= d.config.OrderedSubsetRatio {
		return Verdict{
			Cheating: true,
			Rule:     RuleOrderedSubset,
			Reason:   fmt.Sprintf("Prompt contained %d of %d target words in order", consumed, len(targetWords)),
		}
	}

	similarity := d.matcher.Similarity(normalizedPrompt, normalizedTarget)
	if similarity > d.config.SimilarityThreshold {
		return Verdict{
			Cheating: true,
			Rule:     RuleHighSimilarity,
			Reason:   fmt.Sprintf("Prompt was %d%% similar to the target phrase", int(math.Round(similarity*100))),
		}
	}

	return Verdict{}
}

func (d *Detector) normalize(s string) string {
	if d.normalizer == nil {
		return text.Normalize(s)
	}
	return d.normalizer.Normalize(s)
}

// OrderedPrefixConsumed walks promptWords once, greedily consuming targetWords in order,
// and returns how many target words were consumed.
func OrderedPrefixConsumed(promptWords, targetWords []string) int {
	next := 0
	for _, w := range promptWords {
		if next < len(targetWords) && w == targetWords[next] {
			next++
		}
	}
	return next
}
