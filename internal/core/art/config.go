package art

import (
	"errors"
	"fmt"
	"math"

	"github.com/baditaflorin/go_prompt_score/internal/core/policy"
)

// Config holds configuration for the symbol-art scorer.
type Config struct {
	// SymbolWeight, LineWeight and CharWeight blend the three similarity components.
	// They must sum to 1.
	SymbolWeight float64      `toml:"symbol_weight"`
	LineWeight   float64      `toml:"line_weight"`
	CharWeight   float64      `toml:"char_weight"`
	Tiers        policy.Table `toml:"tiers"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		SymbolWeight: 0.5,
		LineWeight:   0.25,
		CharWeight:   0.25,
		Tiers:        policy.ArtTiers(),
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	for name, w := range map[string]float64{"symbol": c.SymbolWeight, "line": c.LineWeight, "char": c.CharWeight} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%s weight must be between 0 and 1, got %v", name, w)
		}
	}
	if math.Abs(c.SymbolWeight+c.LineWeight+c.CharWeight-1) > 1e-9 {
		return errors.New("art weights must sum to 1")
	}
	return c.Tiers.Validate()
}
