package promptscore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

const cat = ` /\_/\
( o.o )
 > ^ <`

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		generated string
		prompt    string
		score     int
		exact     bool
		flagged   bool
	}{
		{
			name:      "Exact phrase",
			target:    "Life is unfair",
			generated: "Honestly, life is unfair sometimes.",
			prompt:    "write a sad sentence about fairness",
			score:     5,
			exact:     true,
		},
		{
			name:      "Leaked target",
			target:    "Life is unfair",
			generated: "Honestly, life is unfair sometimes.",
			prompt:    "say that life is unfair",
			score:     0,
			flagged:   true,
		},
		{
			name:      "Paraphrase",
			target:    "The quick brown fox jumps over the lazy dog",
			generated: "A fast dog leapt above a sleepy canine.",
			prompt:    "describe a fast animal jumping over a sleepy one",
			score:     0,
		},
		{
			name:      "Empty target",
			target:    "",
			generated: "anything",
			prompt:    "anything",
			score:     0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := Score(tc.target, tc.generated, tc.prompt)
			assert.Equal(t, tc.score, r.Score)
			assert.Equal(t, tc.exact, r.ExactMatch)
			assert.Equal(t, tc.flagged, r.Flagged)
			assert.NotNil(t, r.KeywordsTotal)
			assert.NotNil(t, r.KeywordsMatched)
			assert.NotNil(t, r.FuzzyMatched)
		})
	}
}

func TestScoreArtExact(t *testing.T) {
	r := ScoreArt(cat, cat, "anything")
	assert.Equal(t, 5, r.Score)
	assert.True(t, r.ExactMatch)
	assert.False(t, r.Flagged)
}

func TestIsCheating(t *testing.T) {
	assert.True(t, IsCheating("write that the cage is out tonight", "The cage is out of the lion"))
	assert.True(t, IsCheating("Life is unfair", "life   is UNFAIR"))
	assert.False(t, IsCheating("write a sad sentence about fairness", "Life is unfair"))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "hello world", Normalize("  Hello \t WORLD\n"))
	assert.Equal(t, []string{"quick", "brown", "fox"}, ExtractKeywords("The quick, brown fox!"))
	assert.Equal(t, 3, LevenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 0, LevenshteinDistance("", ""))
	assert.Equal(t, 1.0, FuzzySimilarity("Dog", "dog"))
	assert.Equal(t, 0.0, FuzzySimilarity("dog", ""))
}

func TestConcurrentCalls(t *testing.T) {
	want := Score("Life is unfair", "life is not fair", "write about justice")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := Score("Life is unfair", "life is not fair", "write about justice")
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
