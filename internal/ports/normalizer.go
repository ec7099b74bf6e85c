package ports

// Normalizer defines the interface for text normalization.
// Implementations must lower-case, trim and collapse whitespace runs to a single space,
// and must be idempotent.
type Normalizer interface {
	Normalize(text string) string
}
