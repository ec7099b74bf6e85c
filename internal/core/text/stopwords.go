package text

// stopWords are the English function words that never count as keywords.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "must": {}, "shall": {}, "can": {}, "need": {}, "dare": {},
	"ought": {}, "used": {}, "to": {}, "of": {}, "in": {}, "for": {}, "on": {}, "with": {}, "at": {}, "by": {},
	"from": {}, "as": {}, "into": {}, "through": {}, "during": {}, "before": {}, "after": {},
	"above": {}, "below": {}, "between": {}, "under": {}, "again": {}, "further": {}, "then": {},
	"once": {}, "here": {}, "there": {}, "when": {}, "where": {}, "why": {}, "how": {}, "all": {},
	"each": {}, "few": {}, "more": {}, "most": {}, "other": {}, "some": {}, "such": {}, "no": {}, "nor": {},
	"not": {}, "only": {}, "own": {}, "same": {}, "so": {}, "than": {}, "too": {}, "very": {}, "just": {},
	"and": {}, "but": {}, "if": {}, "or": {}, "because": {}, "until": {}, "while": {}, "it": {}, "its": {},
	"i": {}, "me": {}, "my": {}, "you": {}, "your": {}, "he": {}, "she": {}, "they": {}, "them": {}, "this": {}, "that": {},
}

// IsStopWord reports whether word (lower-case) is in the stop-word table.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// StopWordCount returns the size of the stop-word table.
func StopWordCount() int {
	return len(stopWords)
}
