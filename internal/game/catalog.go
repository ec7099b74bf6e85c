package game

import (
	"fmt"

	"github.com/baditaflorin/go_prompt_score/internal/core/domain"
)

// SubRound is one target the player must make the model produce.
type SubRound struct {
	ID     string      `json:"id"`
	Kind   domain.Kind `json:"kind"`
	Target string      `json:"target"`
}

// Round groups sub-rounds under a title. A round is scored as the sum of the best
// attempt of each of its sub-rounds.
type Round struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	SubRounds   []SubRound `json:"subRounds"`
}

// MaxScore is the highest score the round can award.
func (r Round) MaxScore() int {
	return len(r.SubRounds) * domain.MaxScore
}

// Catalog is an ordered, immutable set of rounds.
type Catalog struct {
	rounds    []Round
	subRounds map[string]subRoundRef
}

type subRoundRef struct {
	round    int // index into rounds
	subRound int // index into rounds[round].SubRounds
}

// NewCatalog validates rounds and builds a catalog. Round ids must be 1..n in order
// and sub-round ids must be unique.
func NewCatalog(rounds []Round) (*Catalog, error) {
	if len(rounds) == 0 {
		return nil, fmt.Errorf("catalog needs at least one round")
	}
	c := &Catalog{rounds: rounds, subRounds: make(map[string]subRoundRef)}
	for i, r := range rounds {
		if r.ID != i+1 {
			return nil, fmt.Errorf("round %d: expected id %d", r.ID, i+1)
		}
		if len(r.SubRounds) == 0 {
			return nil, fmt.Errorf("round %d has no sub-rounds", r.ID)
		}
		for j, sr := range r.SubRounds {
			if sr.Kind != domain.KindPhrase && sr.Kind != domain.KindArt {
				return nil, fmt.Errorf("sub-round %s: unknown kind %q", sr.ID, sr.Kind)
			}
			if _, dup := c.subRounds[sr.ID]; dup {
				return nil, fmt.Errorf("duplicate sub-round id %s", sr.ID)
			}
			c.subRounds[sr.ID] = subRoundRef{round: i, subRound: j}
		}
	}
	return c, nil
}

// DefaultCatalog returns the built-in rounds.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]Round{
		{
			ID:          1,
			Title:       "Phrase Master",
			Description: "Make the AI output these exact phrases. You can use any words except the target sentence itself.",
			SubRounds: []SubRound{
				{ID: "1a", Kind: domain.KindPhrase, Target: "The cage is out of the lion"},
				{ID: "1b", Kind: domain.KindPhrase, Target: "Don't use the exact words"},
				{ID: "1c", Kind: domain.KindPhrase, Target: "That's what she said"},
				{ID: "1d", Kind: domain.KindPhrase, Target: "Life is unfair"},
			},
		},
		{
			ID:          2,
			Title:       "JSON Architect",
			Description: "Make the model output this exact JSON structure for a user profile.",
			SubRounds: []SubRound{
				{ID: "2a", Kind: domain.KindPhrase, Target: `{"id":101,"active":true,"roles":["admin","editor"]}`},
			},
		},
		{
			ID:          3,
			Title:       "Symbol Sketch",
			Description: "Make the model draw this ASCII art without pasting it into your prompt.",
			SubRounds: []SubRound{
				{ID: "3a", Kind: domain.KindArt, Target: " /\\_/\\\n( o.o )\n > ^ <"},
			},
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Rounds returns the rounds in play order.
func (c *Catalog) Rounds() []Round {
	return c.rounds
}

// Round returns the round with the given id.
func (c *Catalog) Round(id int) (Round, error) {
	if id < 1 || id > len(c.rounds) {
		return Round{}, fmt.Errorf("round %d: %w", id, domain.ErrUnknownRound)
	}
	return c.rounds[id-1], nil
}

// SubRound returns a sub-round and the round containing it.
func (c *Catalog) SubRound(id string) (Round, SubRound, error) {
	ref, ok := c.subRounds[id]
	if !ok {
		return Round{}, SubRound{}, fmt.Errorf("sub-round %q: %w", id, domain.ErrUnknownRound)
	}
	r := c.rounds[ref.round]
	return r, r.SubRounds[ref.subRound], nil
}

// IsFinal reports whether roundID is the last round.
func (c *Catalog) IsFinal(roundID int) bool {
	return roundID == len(c.rounds)
}
