package ports

import "context"

// Generator produces text from a free-form player instruction.
// Implementations talk to an external model and may fail transiently.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
