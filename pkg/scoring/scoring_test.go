package scoring

import (
	"context"
	"fmt"
	"testing"

	"github.com/baditaflorin/go_prompt_score/internal/core/phrase"
	"github.com/baditaflorin/go_prompt_score/internal/core/policy"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(append([]Option{WithSilentLogger()}, opts...)...)
	require.NoError(t, err)
	return e
}

func TestEngineScore(t *testing.T) {
	e := newEngine(t)

	r := e.Score("Life is unfair", "Honestly, life is unfair sometimes.", "write a sad sentence about fairness")
	assert.Equal(t, 5, r.Score)
	assert.True(t, r.ExactMatch)

	r = e.Score("Life is unfair", "Honestly, life is unfair sometimes.", "say that life is unfair")
	assert.True(t, r.Flagged)
	assert.Equal(t, 0, r.Score)

	assert.True(t, e.IsCheating("The cage is out of the lion", "the cage is out of the lion"))
	assert.False(t, e.IsCheating("describe a zoo in reverse", "the cage is out of the lion"))
	assert.Equal(t, []string{"cage", "out", "lion"}, e.Keywords("The cage is out of the lion"))
}

func TestEngineScoreArt(t *testing.T) {
	e := newEngine(t)
	target := "+--+\n|  |\n+--+"
	r := e.ScoreArt(target, target, "anything")
	assert.Equal(t, 5, r.Score)
	assert.Equal(t, KindArt, r.Kind)
}

func TestEngineOptionsAgree(t *testing.T) {
	plain := newEngine(t)
	optimized := newEngine(t, WithOptimizedNormalizer(), WithWarmUp(true))

	cases := [][3]string{
		{"The quick brown fox jumps over the lazy dog", "A fast dog leapt above a sleepy canine.", "describe a fast animal"},
		{"That's what she said", "Well, that is what she said!", "give me a classic sitcom punchline"},
		{"  Don't   use the EXACT words ", "you should not use the exact words", "rephrase a warning"},
	}
	for _, c := range cases {
		if diff := cmp.Diff(plain.Score(c[0], c[1], c[2]), optimized.Score(c[0], c[1], c[2])); diff != "" {
			t.Errorf("normalizers disagree for %q (-default +optimized):\n%s", c[0], diff)
		}
	}
}

func TestEngineInvalidOptions(t *testing.T) {
	_, err := New(WithSilentLogger(), WithFuzzyAlgorithm("soundex"))
	assert.Error(t, err)

	_, err = New(WithSilentLogger(), WithCheatThresholds(0, 0.85))
	assert.Error(t, err)

	cfg := phrase.DefaultConfig()
	cfg.Tiers = policy.Table{{Min: 0.5, Score: 2}, {Min: 0.75, Score: 3}}
	_, err = New(WithSilentLogger(), WithPhraseConfig(cfg))
	assert.Error(t, err)
}

func TestEngineAlgorithmsAndStemming(t *testing.T) {
	for _, algo := range []string{"levenshtein", "damerau-levenshtein", "jaro-winkler"} {
		e := newEngine(t, WithFuzzyAlgorithm(algo), WithStemming(true))
		r := e.Score("Life is unfair", "Honestly, life is unfair sometimes.", "write a sad sentence about fairness")
		assert.Equal(t, 5, r.Score, algo)
	}
}

func TestScoreBatch(t *testing.T) {
	e := newEngine(t, WithConcurrency(4))

	var reqs []Request
	for i := 0; i < 50; i++ {
		reqs = append(reqs, Request{
			Target:    "Life is unfair",
			Generated: fmt.Sprintf("attempt %d: life is unfair", i),
			Prompt:    "write something sad",
		})
	}
	reqs = append(reqs, Request{Kind: KindArt, Target: "*", Generated: "*", Prompt: "draw a star"})

	results, err := e.ScoreBatch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, len(reqs))
	for i := 0; i < 50; i++ {
		assert.Equal(t, 5, results[i].Score)
		assert.Equal(t, KindPhrase, results[i].Kind)
	}
	assert.Equal(t, KindArt, results[50].Kind)
}

func TestScoreBatchErrors(t *testing.T) {
	e := newEngine(t)

	_, err := e.ScoreBatch(context.Background(), []Request{{Kind: "image"}})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.ScoreBatch(ctx, []Request{{Target: "a", Generated: "a", Prompt: "b"}})
	assert.ErrorIs(t, err, context.Canceled)

	results, err := e.ScoreBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
