// Package text holds the normalization and keyword extraction shared by every scorer.
package text

import (
	"strings"
	"unicode"
)

// Normalize lower-cases text, trims it and collapses every whitespace run to a single space.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// StripPunctuation drops every rune that is neither a word character
// (letter, digit, underscore) nor whitespace.
func StripPunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)
}

// Words splits already-normalized text on whitespace.
func Words(normalized string) []string {
	return strings.Fields(normalized)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
