package phrase

import (
	"fmt"
	"strings"
)

const (
	reasonFlagged    = "⚠️ Your prompt contained the target phrase or was too similar to it. This is not allowed!"
	reasonExact      = "🎉 Perfect! The exact target phrase was found in the AI's output!"
	reasonNoKeywords = "Could not extract meaningful keywords from target phrase."
)

// overlap is the keyword matching outcome for one generated text.
type overlap struct {
	keywords []string
	exact    []string
	fuzzy    []string
	matched  []string // exact and fuzzy, in extraction order
	missing  []string
}

func (o overlap) ratio() float64 {
	return float64(len(o.matched)) / float64(len(o.keywords))
}

func reasonFor(score int, o overlap) string {
	found := strings.Join(o.matched, ", ")
	switch score {
	case 4:
		return fmt.Sprintf("✨ Excellent! All %d keywords matched (%d exact, %d fuzzy): %s. Just missing the exact phrase!",
			len(o.keywords), len(o.exact), len(o.fuzzy), found)
	case 3:
		return fmt.Sprintf("👍 Great job! %d/%d keywords matched. Keywords found: %s", len(o.matched), len(o.keywords), found)
	case 2:
		return fmt.Sprintf("👌 Good effort! %d/%d keywords matched. Keywords found: %s", len(o.matched), len(o.keywords), found)
	case 1:
		return fmt.Sprintf("🤔 Some keywords matched: %s. Missing: %s", found, strings.Join(o.missing, ", "))
	}
	if len(o.matched) == 0 {
		return fmt.Sprintf("❌ No keywords matched. Looking for: %s", strings.Join(o.keywords, ", "))
	}
	return fmt.Sprintf("❌ Few keywords matched (%s). Looking for: %s", found, strings.Join(o.keywords, ", "))
}
