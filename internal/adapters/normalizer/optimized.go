package normalizer

import (
	"unicode"
	"unicode/utf8"

	"github.com/baditaflorin/go_prompt_score/internal/pool"
	"github.com/baditaflorin/go_prompt_score/internal/ports"
)

const (
	asciiKeep byte = iota
	asciiSpace
	asciiLower
)

// OptimizedNormalizer produces the same output as DefaultNormalizer using a precomputed
// ASCII decision table and pooled output buffers.
type OptimizedNormalizer struct {
	// Pre-computed decision table for ASCII characters (0-127)
	asciiTable [128]byte

	bytePool *pool.BufferPool
}

// NewOptimizedNormalizer creates a new optimized normalizer
func NewOptimizedNormalizer() ports.Normalizer {
	n := &OptimizedNormalizer{
		bytePool: pool.NewBufferPool(1024),
	}

	for i := 0; i < 128; i++ {
		r := rune(i)
		switch {
		case unicode.IsSpace(r):
			n.asciiTable[i] = asciiSpace
		case unicode.IsUpper(r):
			n.asciiTable[i] = asciiLower
		default:
			n.asciiTable[i] = asciiKeep
		}
	}

	return n
}

// Normalize lower-cases the text, trims it and collapses whitespace runs to one space.
func (n *OptimizedNormalizer) Normalize(s string) string {
	if len(s) == 0 {
		return ""
	}

	buffer := n.bytePool.Get()
	defer n.bytePool.Put(buffer)

	if cap(*buffer) < len(s) {
		*buffer = make([]byte, 0, len(s))
	}
	out := (*buffer)[:0]

	// pending records a whitespace run seen after at least one written character;
	// it is flushed as a single space before the next non-space character.
	var pending, wrote bool
	for i := 0; i < len(s); {
		b := s[i]
		if b < utf8.RuneSelf {
			i++
			if n.asciiTable[b] == asciiSpace {
				pending = wrote
				continue
			}
			if pending {
				out = append(out, ' ')
				pending = false
			}
			if n.asciiTable[b] == asciiLower {
				b += 'a' - 'A'
			}
			out = append(out, b)
			wrote = true
			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if unicode.IsSpace(r) {
			pending = wrote
			continue
		}
		if pending {
			out = append(out, ' ')
			pending = false
		}
		out = utf8.AppendRune(out, unicode.ToLower(r))
		wrote = true
	}

	*buffer = out
	return string(out)
}

// NormalizerFactory creates the appropriate normalizer based on performance requirements
type NormalizerFactory struct{}

// NewNormalizerFactory creates a new normalizer factory
func NewNormalizerFactory() *NormalizerFactory {
	return &NormalizerFactory{}
}

// NormalizerType selects a normalizer implementation.
type NormalizerType int

const (
	// DefaultNormalizerType delegates to the reference implementation
	DefaultNormalizerType NormalizerType = iota
	// OptimizedNormalizerType uses buffer pooling and an ASCII fast path
	OptimizedNormalizerType
)

// CreateNormalizer creates a normalizer of the specified type
func (f *NormalizerFactory) CreateNormalizer(normalizerType NormalizerType) ports.Normalizer {
	switch normalizerType {
	case OptimizedNormalizerType:
		return NewOptimizedNormalizer()
	default:
		return NewDefaultNormalizer()
	}
}
