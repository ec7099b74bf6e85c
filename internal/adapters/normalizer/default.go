package normalizer

import (
	"github.com/baditaflorin/go_prompt_score/internal/core/text"
	"github.com/baditaflorin/go_prompt_score/internal/ports"
)

// DefaultNormalizer implements the default text normalization strategy.
type DefaultNormalizer struct{}

// NewDefaultNormalizer creates a new default normalizer.
func NewDefaultNormalizer() ports.Normalizer {
	return &DefaultNormalizer{}
}

// Normalize lower-cases the text, trims it and collapses whitespace runs to one space.
func (n *DefaultNormalizer) Normalize(s string) string {
	return text.Normalize(s)
}
