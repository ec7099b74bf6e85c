// Package warmup exercises scorers and normalizers before serving traffic so that
// buffer pools and lazily built tables are populated.
package warmup

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/baditaflorin/go_prompt_score/internal/ports"
)

// WarmupConfig defines configuration for warming up the system
type WarmupConfig struct {
	// Number of concurrent warmup routines to run
	Concurrency int
	// Number of iterations per routine
	Iterations int
	// Sample text size for warmup
	SampleTextSize int
	// Warmup duration (0 means no time limit)
	Duration time.Duration
	// Whether to perform GC after warmup
	ForceGC bool
}

// DefaultWarmupConfig returns the default warmup configuration
func DefaultWarmupConfig() WarmupConfig {
	return WarmupConfig{
		Concurrency:    runtime.NumCPU(),
		Iterations:     200,
		SampleTextSize: 400,
		Duration:       2 * time.Second,
		ForceGC:        true,
	}
}

// Stats reports how much work a warmup run performed.
type Stats struct {
	NormalizerCalls int64
	PhraseCalls     int64
	ArtCalls        int64
	Duration        time.Duration
}

// Manager handles system warmup operations
type Manager struct {
	logger      ports.Logger
	phrase      []ports.PhraseScorer
	art         []ports.ArtScorer
	normalizers []ports.Normalizer
	config      WarmupConfig
}

// NewManager creates a new warmup manager
func NewManager(logger ports.Logger, config WarmupConfig) *Manager {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &Manager{
		logger: logger,
		config: config,
	}
}

// RegisterPhraseScorer adds a phrase scorer to be warmed up
func (wm *Manager) RegisterPhraseScorer(s ports.PhraseScorer) {
	wm.phrase = append(wm.phrase, s)
}

// RegisterArtScorer adds an art scorer to be warmed up
func (wm *Manager) RegisterArtScorer(s ports.ArtScorer) {
	wm.art = append(wm.art, s)
}

// RegisterNormalizer adds a normalizer to be warmed up
func (wm *Manager) RegisterNormalizer(norm ports.Normalizer) {
	wm.normalizers = append(wm.normalizers, norm)
}

// WarmUp runs the warmup process for all registered components. It returns once
// every routine has finished or the configured duration has elapsed.
func (wm *Manager) WarmUp(ctx context.Context) Stats {
	startTime := time.Now()
	wm.logger.Info("Starting system warmup",
		"components", len(wm.phrase)+len(wm.art)+len(wm.normalizers),
		"concurrency", wm.config.Concurrency,
		"iterations", wm.config.Iterations,
	)

	if wm.config.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wm.config.Duration)
		defer cancel()
	}

	var stats Stats
	stats.NormalizerCalls = wm.warmUpNormalizers(ctx)
	stats.PhraseCalls = wm.warmUpPhraseScorers(ctx)
	stats.ArtCalls = wm.warmUpArtScorers(ctx)

	if wm.config.ForceGC {
		wm.logger.Debug("Forcing garbage collection after warmup")
		runtime.GC()
	}

	stats.Duration = time.Since(startTime)
	wm.logger.Info("System warmup completed",
		"duration", stats.Duration,
		"normalizerCalls", stats.NormalizerCalls,
		"phraseCalls", stats.PhraseCalls,
		"artCalls", stats.ArtCalls,
	)
	return stats
}

// fanOut runs step Iterations times on each of Concurrency goroutines and returns
// the number of steps completed before ctx ended.
func (wm *Manager) fanOut(ctx context.Context, step func(iteration int)) int64 {
	var (
		wg    sync.WaitGroup
		count atomic.Int64
	)
	for i := 0; i < wm.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < wm.config.Iterations; j++ {
				if ctx.Err() != nil {
					return
				}
				step(j)
				count.Add(1)
			}
		}()
	}
	wg.Wait()
	return count.Load()
}

func (wm *Manager) warmUpNormalizers(ctx context.Context) int64 {
	if len(wm.normalizers) == 0 {
		return 0
	}
	wm.logger.Debug("Warming up normalizers", "count", len(wm.normalizers))

	sample := generateSampleText(wm.config.SampleTextSize)
	return wm.fanOut(ctx, func(int) {
		for _, n := range wm.normalizers {
			_ = n.Normalize(sample)
		}
	}) * int64(len(wm.normalizers))
}

func (wm *Manager) warmUpPhraseScorers(ctx context.Context) int64 {
	if len(wm.phrase) == 0 {
		return 0
	}
	wm.logger.Debug("Warming up phrase scorers", "count", len(wm.phrase))

	target := "the quick brown fox jumps over the lazy dog"
	generated := []string{
		generateSampleText(wm.config.SampleTextSize),
		generateSimilarText(generateSampleText(wm.config.SampleTextSize), 0.5),
		"a fast dog leapt above a sleepy canine",
	}
	prompts := []string{"describe an agile animal", target}

	return wm.fanOut(ctx, func(j int) {
		for _, s := range wm.phrase {
			_ = s.Score(target, generated[j%len(generated)], prompts[j%len(prompts)])
		}
	}) * int64(len(wm.phrase))
}

func (wm *Manager) warmUpArtScorers(ctx context.Context) int64 {
	if len(wm.art) == 0 {
		return 0
	}
	wm.logger.Debug("Warming up art scorers", "count", len(wm.art))

	target := " /\\_/\\\n( o.o )\n > ^ <"
	generated := []string{target, "/\\_/\\\n( -.- )", "meow"}

	return wm.fanOut(ctx, func(j int) {
		for _, s := range wm.art {
			_ = s.ScoreArt(target, generated[j%len(generated)], "draw a cat")
		}
	}) * int64(len(wm.art))
}

// generateSampleText creates sample text of roughly the specified size
func generateSampleText(size int) string {
	words := []string{
		"the", "quick", "brown", "fox", "jumps", "over", "lazy", "dog",
		"cage", "lion", "life", "unfair", "exact", "words", "said", "she",
	}

	var sb strings.Builder
	wordsNeeded := size / 5

	for i := 0; i < wordsNeeded; i++ {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(words[i%len(words)])
	}

	result := sb.String()
	if len(result) > size {
		return result[:size]
	}
	return result
}

// generateSimilarText replaces the leading diffRatio share of words in original
func generateSimilarText(original string, diffRatio float64) string {
	words := strings.Fields(original)
	changeCount := int(float64(len(words)) * diffRatio)

	replacements := []string{
		"replaced", "modified", "changed", "altered", "updated",
	}

	for i := 0; i < changeCount && i < len(words); i++ {
		words[i] = replacements[i%len(replacements)]
	}

	return strings.Join(words, " ")
}
