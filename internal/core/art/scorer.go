// Package art scores generated symbol art (ASCII art) against a target drawing.
package art

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/baditaflorin/go_prompt_score/internal/core/domain"
	"github.com/baditaflorin/go_prompt_score/internal/ports"
)

const (
	reasonFlagged = "⚠️ Your prompt contained the target ASCII art. This is not allowed!"
	reasonExact   = "🎉 Perfect! The ASCII art matches exactly!"
	flagReason    = "Prompt contained target ASCII art"
)

// Calculator implements the symbol-art scoring policy.
// Art is compared after trimming only; case and inner whitespace are significant.
type Calculator struct {
	config Config
	logger ports.Logger
}

// NewCalculator creates a new symbol-art scorer.
func NewCalculator(config Config, logger ports.Logger) (*Calculator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{config: config, logger: logger}, nil
}

// Config returns the scorer configuration.
func (c *Calculator) Config() Config {
	return c.config
}

// Components are the per-aspect similarities that make up an art score.
type Components struct {
	Symbol  float64
	Line    float64
	Char    float64
	Overall float64
}

// ScoreArt rates how close generatedArt is to targetArt on the 0-5 scale.
func (c *Calculator) ScoreArt(targetArt, generatedArt, userPrompt string) domain.ScoringResult {
	c.logger.Debug("Starting art scoring",
		"targetLength", len(targetArt),
		"generatedLength", len(generatedArt),
	)

	target := strings.TrimSpace(targetArt)
	generated := strings.TrimSpace(generatedArt)
	targetSymbols := symbols(target)

	if target != "" && strings.Contains(userPrompt, target) {
		c.logger.Debug("Prompt flagged", "reason", flagReason)
		return domain.ScoringResult{
			Kind:            domain.KindArt,
			Score:           domain.MinScore,
			Reasoning:       reasonFlagged,
			KeywordsMatched: []string{},
			KeywordsTotal:   targetSymbols,
			FuzzyMatched:    []string{},
			Flagged:         true,
			FlagReason:      flagReason,
		}
	}

	if target == generated {
		c.logger.Debug("Exact art match", "score", domain.MaxScore)
		return domain.ScoringResult{
			Kind:            domain.KindArt,
			Score:           domain.MaxScore,
			Reasoning:       reasonExact,
			ExactMatch:      true,
			KeywordsMatched: append([]string{}, targetSymbols...),
			KeywordsTotal:   targetSymbols,
			FuzzyMatched:    []string{},
		}
	}

	matched := matchSymbols(targetSymbols, generated)
	comp := c.components(target, generated, len(matched), len(targetSymbols))
	score := c.config.Tiers.Resolve(comp.Overall)

	c.logger.Debug("Computed art similarity",
		"symbol", comp.Symbol,
		"line", comp.Line,
		"char", comp.Char,
		"overall", comp.Overall,
		"score", score,
	)

	return domain.ScoringResult{
		Kind:            domain.KindArt,
		Score:           score,
		Reasoning:       reasonFor(score, comp.Overall, len(matched), len(targetSymbols)),
		KeywordsMatched: matched,
		KeywordsTotal:   targetSymbols,
		FuzzyMatched:    []string{},
	}
}

// Compare returns the similarity components of two trimmed drawings without applying
// the cheat or exact-match checks.
func (c *Calculator) Compare(targetArt, generatedArt string) Components {
	target := strings.TrimSpace(targetArt)
	generated := strings.TrimSpace(generatedArt)
	targetSymbols := symbols(target)
	common := len(matchSymbols(targetSymbols, generated))
	return c.components(target, generated, common, len(targetSymbols))
}

func (c *Calculator) components(target, generated string, common, total int) Components {
	var comp Components
	if total > 0 {
		comp.Symbol = float64(common) / float64(total)
	}
	comp.Line = countSimilarity(lineCount(target), lineCount(generated))
	comp.Char = countSimilarity(charCount(target), charCount(generated))
	comp.Overall = c.config.SymbolWeight*comp.Symbol +
		c.config.LineWeight*comp.Line +
		c.config.CharWeight*comp.Char
	return comp
}

// countSimilarity is 1 - |a-b|/max(a,b), or 0 when both counts are zero.
func countSimilarity(a, b int) float64 {
	larger := max(a, b)
	if larger == 0 {
		return 0
	}
	return 1 - math.Abs(float64(a-b))/float64(larger)
}

// matchSymbols returns the target symbols that also occur in generated.
func matchSymbols(targetSymbols []string, generated string) []string {
	present := make(map[string]struct{})
	for _, s := range symbols(generated) {
		present[s] = struct{}{}
	}
	matched := make([]string, 0, len(targetSymbols))
	for _, s := range targetSymbols {
		if _, ok := present[s]; ok {
			matched = append(matched, s)
		}
	}
	return matched
}

// symbols returns the distinct non-whitespace runes of s in first-occurrence order.
func symbols(s string) []string {
	seen := make(map[rune]struct{})
	out := []string{}
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, string(r))
	}
	return out
}

func lineCount(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

func charCount(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func reasonFor(score int, overall float64, matched, total int) string {
	pct := int(math.Floor(overall*100 + 0.5))
	switch score {
	case 4:
		return fmt.Sprintf("✨ Almost perfect! %d%% similarity. %d/%d symbols matched.", pct, matched, total)
	case 3:
		return fmt.Sprintf("👍 Good attempt! %d%% similarity. %d/%d symbols matched.", pct, matched, total)
	case 2:
		return fmt.Sprintf("👌 Decent effort! %d%% similarity. %d/%d symbols matched.", pct, matched, total)
	case 1:
		return fmt.Sprintf("🤔 Some similarity detected (%d%%). Try matching more symbols and structure.", pct)
	}
	return fmt.Sprintf("❌ Low similarity (%d%%). Make sure to create ASCII art!", pct)
}
