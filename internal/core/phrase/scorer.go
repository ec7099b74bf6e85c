// Package phrase scores generated text against a hidden target phrase.
//
// Scoring is a single pass with a fixed priority: prompt leakage first, then an exact
// phrase match, then keyword overlap resolved through a tier table.
package phrase

import (
	"slices"
	"strings"

	"github.com/baditaflorin/go_prompt_score/internal/core/cheat"
	"github.com/baditaflorin/go_prompt_score/internal/core/domain"
	"github.com/baditaflorin/go_prompt_score/internal/core/fuzzy"
	"github.com/baditaflorin/go_prompt_score/internal/core/text"
	"github.com/baditaflorin/go_prompt_score/internal/ports"
	"github.com/surgebase/porter2"
)

// Calculator implements the phrase scoring policy.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	config     Config
	logger     ports.Logger
	normalizer ports.Normalizer
	extractor  *text.KeywordExtractor
	matcher    *fuzzy.Matcher
	detector   *cheat.Detector
}

// NewCalculator creates a new phrase scorer.
func NewCalculator(config Config, logger ports.Logger, normalizer ports.Normalizer) (*Calculator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	matcher, err := fuzzy.NewMatcher(config.FuzzyAlgorithm, normalizer)
	if err != nil {
		return nil, err
	}
	detector, err := cheat.NewDetector(config.Cheat, normalizer, matcher)
	if err != nil {
		return nil, err
	}

	return &Calculator{
		config:     config,
		logger:     logger,
		normalizer: normalizer,
		extractor:  text.NewKeywordExtractor(normalizer),
		matcher:    matcher,
		detector:   detector,
	}, nil
}

// Config returns the scorer configuration.
func (c *Calculator) Config() Config {
	return c.config
}

// IsCheating reports whether userPrompt leaks targetPhrase.
func (c *Calculator) IsCheating(userPrompt, targetPhrase string) bool {
	return c.detector.IsCheating(userPrompt, targetPhrase)
}

// Detect reports which leakage rule, if any, userPrompt trips for targetPhrase.
func (c *Calculator) Detect(userPrompt, targetPhrase string) cheat.Verdict {
	return c.detector.Detect(userPrompt, targetPhrase)
}

// Score rates how close generatedText is to targetPhrase on the 0-5 scale.
func (c *Calculator) Score(targetPhrase, generatedText, userPrompt string) domain.ScoringResult {
	c.logger.Debug("Starting phrase scoring",
		"target", targetPhrase,
		"generated", generatedText,
		"prompt", userPrompt,
	)

	keywords := c.extractor.Extract(targetPhrase)

	if verdict := c.detector.Detect(userPrompt, targetPhrase); verdict.Cheating {
		c.logger.Debug("Prompt flagged", "rule", verdict.Rule, "reason", verdict.Reason)
		return domain.ScoringResult{
			Kind:            domain.KindPhrase,
			Score:           domain.MinScore,
			Reasoning:       reasonFlagged,
			KeywordsMatched: []string{},
			KeywordsTotal:   keywords,
			FuzzyMatched:    []string{},
			Flagged:         true,
			FlagReason:      verdict.Reason,
		}
	}

	normalizedTarget := c.normalize(targetPhrase)
	normalizedGenerated := c.normalize(generatedText)
	c.logger.Debug("Normalized texts",
		"normalizedTarget", normalizedTarget,
		"normalizedGenerated", normalizedGenerated,
	)

	if normalizedTarget != "" && strings.Contains(normalizedGenerated, normalizedTarget) {
		c.logger.Debug("Exact phrase found", "score", domain.MaxScore)
		return domain.ScoringResult{
			Kind:            domain.KindPhrase,
			Score:           domain.MaxScore,
			Reasoning:       reasonExact,
			ExactMatch:      true,
			KeywordsMatched: slices.Clone(keywords),
			KeywordsTotal:   keywords,
			FuzzyMatched:    []string{},
		}
	}

	if len(keywords) == 0 {
		c.logger.Debug("No keywords extracted", "target", targetPhrase)
		return domain.ScoringResult{
			Kind:            domain.KindPhrase,
			Score:           domain.MinScore,
			Reasoning:       reasonNoKeywords,
			KeywordsMatched: []string{},
			KeywordsTotal:   keywords,
			FuzzyMatched:    []string{},
		}
	}

	o := c.matchKeywords(keywords, normalizedGenerated)
	ratio := o.ratio()
	score := c.config.Tiers.Resolve(ratio)

	c.logger.Debug("Computed keyword overlap",
		"exact", o.exact,
		"fuzzy", o.fuzzy,
		"ratio", ratio,
		"score", score,
	)

	return domain.ScoringResult{
		Kind:            domain.KindPhrase,
		Score:           score,
		Reasoning:       reasonFor(score, o),
		KeywordsMatched: o.exact,
		KeywordsTotal:   keywords,
		FuzzyMatched:    o.fuzzy,
	}
}

// matchKeywords classifies each keyword as an exact match (substring of the normalized
// generated text), a fuzzy match (similar to some generated word) or missing.
func (c *Calculator) matchKeywords(keywords []string, normalizedGenerated string) overlap {
	words := text.Words(text.StripPunctuation(normalizedGenerated))

	var stems map[string]struct{}
	if c.config.Stemming {
		stems = make(map[string]struct{}, len(words))
		for _, w := range words {
			stems[porter2.Stem(w)] = struct{}{}
		}
	}

	o := overlap{
		keywords: keywords,
		exact:    []string{},
		fuzzy:    []string{},
		matched:  []string{},
		missing:  []string{},
	}
	for _, keyword := range keywords {
		switch {
		case strings.Contains(normalizedGenerated, keyword):
			o.exact = append(o.exact, keyword)
		case c.fuzzyMatch(keyword, words, stems):
			o.fuzzy = append(o.fuzzy, keyword)
		default:
			o.missing = append(o.missing, keyword)
			continue
		}
		o.matched = append(o.matched, keyword)
	}
	return o
}

func (c *Calculator) fuzzyMatch(keyword string, words []string, stems map[string]struct{}) bool {
	for _, w := range words {
		if c.matcher.Similarity(keyword, w) > c.config.KeywordSimilarity {
			return true
		}
	}
	if stems != nil {
		_, ok := stems[porter2.Stem(keyword)]
		return ok
	}
	return false
}

func (c *Calculator) normalize(s string) string {
	if c.normalizer == nil {
		return text.Normalize(s)
	}
	return c.normalizer.Normalize(s)
}
