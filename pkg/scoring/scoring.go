// Package scoring is the public entry point to the prompt scoring engine.
package scoring

import (
	"context"
	"fmt"
	"runtime"

	"github.com/baditaflorin/go_prompt_score/internal/adapters/logger"
	"github.com/baditaflorin/go_prompt_score/internal/adapters/normalizer"
	"github.com/baditaflorin/go_prompt_score/internal/core/art"
	"github.com/baditaflorin/go_prompt_score/internal/core/cheat"
	"github.com/baditaflorin/go_prompt_score/internal/core/domain"
	"github.com/baditaflorin/go_prompt_score/internal/core/fuzzy"
	"github.com/baditaflorin/go_prompt_score/internal/core/phrase"
	"github.com/baditaflorin/go_prompt_score/internal/core/text"
	"github.com/baditaflorin/go_prompt_score/internal/ports"
	"github.com/baditaflorin/go_prompt_score/internal/warmup"
	"github.com/baditaflorin/l"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of a scoring call.
type Result = domain.ScoringResult

// Verdict is the outcome of a leakage check.
type Verdict = cheat.Verdict

// Kind selects the phrase or art scoring path.
type Kind = domain.Kind

const (
	KindPhrase = domain.KindPhrase
	KindArt    = domain.KindArt
)

// Engine scores generated text. It is safe for concurrent use.
type Engine struct {
	phrase      *phrase.Calculator
	art         *art.Calculator
	normalizer  ports.Normalizer
	logger      ports.Logger
	concurrency int
}

// Option defines a functional option for configuring an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	Logger      ports.Logger
	Normalizer  ports.Normalizer
	Phrase      phrase.Config
	Art         art.Config
	WarmUp      bool
	Warmup      warmup.WarmupConfig
	Concurrency int
}

// WithLogger sets a custom logger.
func WithLogger(l l.Logger) Option {
	return func(cfg *engineConfig) {
		cfg.Logger = logger.FromExisting(l)
	}
}

// WithSilentLogger disables logging entirely.
func WithSilentLogger() Option {
	return func(cfg *engineConfig) {
		cfg.Logger = logger.Nop{}
	}
}

// WithNormalizer sets a custom normalizer. It must lower-case, trim and collapse whitespace.
func WithNormalizer(n ports.Normalizer) Option {
	return func(cfg *engineConfig) {
		cfg.Normalizer = n
	}
}

// WithOptimizedNormalizer selects the pooled ASCII fast-path normalizer.
func WithOptimizedNormalizer() Option {
	return func(cfg *engineConfig) {
		cfg.Normalizer = normalizer.NewNormalizerFactory().CreateNormalizer(normalizer.OptimizedNormalizerType)
	}
}

// WithPhraseConfig replaces the phrase scoring policy.
func WithPhraseConfig(c phrase.Config) Option {
	return func(cfg *engineConfig) {
		cfg.Phrase = c
	}
}

// WithArtConfig replaces the art scoring policy.
func WithArtConfig(c art.Config) Option {
	return func(cfg *engineConfig) {
		cfg.Art = c
	}
}

// WithFuzzyAlgorithm selects the similarity algorithm by name:
// "levenshtein", "damerau-levenshtein" or "jaro-winkler".
func WithFuzzyAlgorithm(name string) Option {
	return func(cfg *engineConfig) {
		cfg.Phrase.FuzzyAlgorithm = fuzzy.Algorithm(name)
	}
}

// WithStemming also matches keywords that share a Porter2 stem with a generated word.
func WithStemming(enabled bool) Option {
	return func(cfg *engineConfig) {
		cfg.Phrase.Stemming = enabled
	}
}

// WithCheatThresholds overrides the prompt leakage thresholds.
func WithCheatThresholds(orderedSubsetRatio, similarity float64) Option {
	return func(cfg *engineConfig) {
		cfg.Phrase.Cheat = cheat.Config{
			OrderedSubsetRatio:  orderedSubsetRatio,
			SimilarityThreshold: similarity,
		}
	}
}

// WithWarmUp exercises the engine once on construction.
func WithWarmUp(enabled bool) Option {
	return func(cfg *engineConfig) {
		cfg.WarmUp = enabled
	}
}

// WithConcurrency bounds the number of goroutines ScoreBatch uses.
func WithConcurrency(n int) Option {
	return func(cfg *engineConfig) {
		if n > 0 {
			cfg.Concurrency = n
		}
	}
}

// New creates a new Engine.
func New(opts ...Option) (*Engine, error) {
	config := &engineConfig{
		Phrase:      phrase.DefaultConfig(),
		Art:         art.DefaultConfig(),
		Warmup:      warmup.DefaultWarmupConfig(),
		Concurrency: runtime.NumCPU(),
	}

	for _, opt := range opts {
		opt(config)
	}

	if config.Logger == nil {
		var err error
		config.Logger, err = logger.NewDiscardLogger()
		if err != nil {
			return nil, err
		}
	}

	if config.Normalizer == nil {
		config.Normalizer = normalizer.NewDefaultNormalizer()
	}

	phraseCalc, err := phrase.NewCalculator(config.Phrase, config.Logger, config.Normalizer)
	if err != nil {
		return nil, fmt.Errorf("phrase config: %w", err)
	}
	artCalc, err := art.NewCalculator(config.Art, config.Logger)
	if err != nil {
		return nil, fmt.Errorf("art config: %w", err)
	}

	e := &Engine{
		phrase:      phraseCalc,
		art:         artCalc,
		normalizer:  config.Normalizer,
		logger:      config.Logger,
		concurrency: config.Concurrency,
	}

	if config.WarmUp {
		wm := warmup.NewManager(config.Logger, config.Warmup)
		wm.RegisterNormalizer(config.Normalizer)
		wm.RegisterPhraseScorer(phraseCalc)
		wm.RegisterArtScorer(artCalc)
		wm.WarmUp(context.Background())
	}

	return e, nil
}

// Score rates how close generatedText is to targetPhrase on the 0-5 scale,
// flagging prompts that leak the target.
func (e *Engine) Score(targetPhrase, generatedText, userPrompt string) Result {
	return e.phrase.Score(targetPhrase, generatedText, userPrompt)
}

// ScoreArt rates generated ASCII art against a target drawing on the 0-5 scale.
func (e *Engine) ScoreArt(targetArt, generatedArt, userPrompt string) Result {
	return e.art.ScoreArt(targetArt, generatedArt, userPrompt)
}

// IsCheating reports whether userPrompt leaks targetPhrase.
func (e *Engine) IsCheating(userPrompt, targetPhrase string) bool {
	return e.phrase.IsCheating(userPrompt, targetPhrase)
}

// DetectCheating reports which leakage rule userPrompt trips, using the same
// normalizer and fuzzy algorithm as Score.
func (e *Engine) DetectCheating(userPrompt, targetPhrase string) Verdict {
	return e.phrase.Detect(userPrompt, targetPhrase)
}

// Keywords returns the significant words of phrase in first-occurrence order.
func (e *Engine) Keywords(phrase string) []string {
	return text.NewKeywordExtractor(e.normalizer).Extract(phrase)
}

// PhraseScorer exposes the phrase path for wiring into other components.
func (e *Engine) PhraseScorer() ports.PhraseScorer {
	return e.phrase
}

// ArtScorer exposes the art path for wiring into other components.
func (e *Engine) ArtScorer() ports.ArtScorer {
	return e.art
}

// Request is one item of a batch.
type Request struct {
	Kind      Kind   `json:"kind,omitempty"`
	Target    string `json:"target"`
	Generated string `json:"generated"`
	Prompt    string `json:"prompt"`
}

// ScoreBatch scores every request concurrently and returns results in request order.
// An empty Kind means phrase scoring. Cancelling ctx stops scheduling further items.
func (e *Engine) ScoreBatch(ctx context.Context, reqs []Request) ([]Result, error) {
	for i, r := range reqs {
		if r.Kind != "" && r.Kind != KindPhrase && r.Kind != KindArt {
			return nil, fmt.Errorf("request %d: unknown kind %q", i, r.Kind)
		}
	}

	results := make([]Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, r := range reqs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if r.Kind == KindArt {
				results[i] = e.ScoreArt(r.Target, r.Generated, r.Prompt)
			} else {
				results[i] = e.Score(r.Target, r.Generated, r.Prompt)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.logger.Debug("Scored batch", "size", len(reqs))
	return results, nil
}

// Close releases the engine's logger.
func (e *Engine) Close() error {
	return e.logger.Close()
}
