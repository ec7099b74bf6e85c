// Package policy maps similarity ratios onto the bounded 0-5 score scale.
package policy

import (
	"errors"
	"fmt"

	"github.com/baditaflorin/go_prompt_score/internal/core/domain"
)

// Tier awards Score to any ratio at or above Min.
type Tier struct {
	Min   float64 `toml:"min" json:"min"`
	Score int     `toml:"score" json:"score"`
}

// Table is an ordered list of tiers, highest Min first. Ratios below every tier score 0.
type Table []Tier

// PhraseTiers is the keyword match-ratio policy. Score 5 is reserved for exact phrase matches.
func PhraseTiers() Table {
	return Table{
		{Min: 1.0, Score: 4},
		{Min: 0.75, Score: 3},
		{Min: 0.5, Score: 2},
		{Min: 0.25, Score: 1},
	}
}

// ArtTiers is the overall-similarity policy for symbol art. Score 5 is reserved for exact matches.
func ArtTiers() Table {
	return Table{
		{Min: 0.9, Score: 4},
		{Min: 0.7, Score: 3},
		{Min: 0.5, Score: 2},
		{Min: 0.3, Score: 1},
	}
}

// Resolve returns the score of the first tier whose Min is at most ratio.
func (t Table) Resolve(ratio float64) int {
	for _, tier := range t {
		if ratio >= tier.Min {
			return tier.Score
		}
	}
	return domain.MinScore
}

// Validate checks that tiers are strictly descending in both Min and Score,
// and that scores stay below the exact-match score.
func (t Table) Validate() error {
	if len(t) == 0 {
		return errors.New("tier table must not be empty")
	}
	for i, tier := range t {
		if tier.Min < 0 || tier.Min > 1 {
			return fmt.Errorf("tier %d: min must be between 0 and 1, got %v", i, tier.Min)
		}
		if tier.Score <= domain.MinScore || tier.Score >= domain.MaxScore {
			return fmt.Errorf("tier %d: score must be between %d and %d exclusive, got %d", i, domain.MinScore, domain.MaxScore, tier.Score)
		}
		if i > 0 {
			prev := t[i-1]
			if tier.Min >= prev.Min {
				return fmt.Errorf("tier %d: min %v must be lower than previous %v", i, tier.Min, prev.Min)
			}
			if tier.Score >= prev.Score {
				return fmt.Errorf("tier %d: score %d must be lower than previous %d", i, tier.Score, prev.Score)
			}
		}
	}
	return nil
}
