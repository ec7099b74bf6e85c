package warmup

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/baditaflorin/go_prompt_score/internal/adapters/logger"
	"github.com/baditaflorin/go_prompt_score/internal/adapters/normalizer"
	"github.com/baditaflorin/go_prompt_score/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingScorer struct {
	calls atomic.Int64
}

func (c *countingScorer) Score(string, string, string) domain.ScoringResult {
	c.calls.Add(1)
	return domain.ScoringResult{}
}

func (c *countingScorer) ScoreArt(string, string, string) domain.ScoringResult {
	c.calls.Add(1)
	return domain.ScoringResult{}
}

func TestWarmUpRunsEveryComponent(t *testing.T) {
	m := NewManager(logger.Nop{}, WarmupConfig{Concurrency: 3, Iterations: 10, SampleTextSize: 100})
	phrase := &countingScorer{}
	art := &countingScorer{}
	m.RegisterPhraseScorer(phrase)
	m.RegisterArtScorer(art)
	m.RegisterNormalizer(normalizer.NewOptimizedNormalizer())
	m.RegisterNormalizer(normalizer.NewDefaultNormalizer())

	stats := m.WarmUp(context.Background())

	assert.Equal(t, int64(30), phrase.calls.Load())
	assert.Equal(t, int64(30), art.calls.Load())
	assert.Equal(t, int64(30), stats.PhraseCalls)
	assert.Equal(t, int64(30), stats.ArtCalls)
	assert.Equal(t, int64(60), stats.NormalizerCalls)
}

func TestWarmUpStopsOnCancelledContext(t *testing.T) {
	m := NewManager(logger.Nop{}, WarmupConfig{Concurrency: 2, Iterations: 1000, Duration: time.Second})
	phrase := &countingScorer{}
	m.RegisterPhraseScorer(phrase)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats := m.WarmUp(ctx)

	assert.Zero(t, phrase.calls.Load())
	assert.Zero(t, stats.PhraseCalls)
}

func TestWarmUpWithoutComponents(t *testing.T) {
	m := NewManager(logger.Nop{}, WarmupConfig{})
	stats := m.WarmUp(context.Background())
	assert.Zero(t, stats.NormalizerCalls+stats.PhraseCalls+stats.ArtCalls)
}

func TestGenerateSampleText(t *testing.T) {
	text := generateSampleText(100)
	assert.LessOrEqual(t, len(text), 100)
	assert.True(t, strings.HasPrefix(text, "the quick brown fox"))

	similar := generateSimilarText("a b c d", 0.5)
	assert.Equal(t, "replaced modified c d", similar)
}
