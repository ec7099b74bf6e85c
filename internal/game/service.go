// Package game runs prompt challenges: it generates text for a player's instruction,
// scores it against the sub-round target and records the attempt.
package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/baditaflorin/go_prompt_score/internal/core/domain"
	"github.com/baditaflorin/go_prompt_score/internal/ports"
)

// DefaultMaxAttempts is the number of tries a player gets per sub-round.
const DefaultMaxAttempts = 3

// Service coordinates the generator, the scorers and the session store.
type Service struct {
	catalog     *Catalog
	phrase      ports.PhraseScorer
	art         ports.ArtScorer
	generator   ports.Generator
	store       ports.SessionStore
	logger      ports.Logger
	maxAttempts int
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithGenerator sets the text generator used by Play.
func WithGenerator(g ports.Generator) Option {
	return func(s *Service) { s.generator = g }
}

// WithCatalog replaces the built-in rounds.
func WithCatalog(c *Catalog) Option {
	return func(s *Service) { s.catalog = c }
}

// WithMaxAttempts sets the attempt limit per sub-round. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n >= 1 {
			s.maxAttempts = n
		}
	}
}

// NewService creates a game service.
func NewService(phrase ports.PhraseScorer, art ports.ArtScorer, store ports.SessionStore, logger ports.Logger, opts ...Option) *Service {
	s := &Service{
		catalog:     DefaultCatalog(),
		phrase:      phrase,
		art:         art,
		store:       store,
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the rounds served by this service.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// StartSession opens a new session for a player.
func (s *Service) StartSession(ctx context.Context, playerName, avatarURL string) (domain.Session, error) {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return domain.Session{}, domain.ErrEmptyPlayerName
	}
	sess, err := s.store.CreateSession(ctx, playerName, avatarURL)
	if err != nil {
		return domain.Session{}, fmt.Errorf("start session: %w", err)
	}
	s.logger.Info("Session started", "session", sess.ID, "player", playerName)
	return sess, nil
}

// PlayResult is the outcome of one Play call.
type PlayResult struct {
	Attempt           domain.Attempt        `json:"attempt"`
	SubRound          domain.SubRoundResult `json:"subRound"`
	AttemptsRemaining int                   `json:"attemptsRemaining"`
}

// Play generates text for prompt, scores it against the sub-round target and records
// the attempt.
func (s *Service) Play(ctx context.Context, sessionID, subRoundID, prompt string) (PlayResult, error) {
	if s.generator == nil {
		return PlayResult{}, domain.ErrNoGenerator
	}
	if strings.TrimSpace(prompt) == "" {
		return PlayResult{}, domain.ErrEmptyPrompt
	}

	round, sub, err := s.catalog.SubRound(subRoundID)
	if err != nil {
		return PlayResult{}, err
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return PlayResult{}, err
	}
	if !sess.RoundActive(round.ID) {
		return PlayResult{}, fmt.Errorf("round %d (current %d): %w", round.ID, sess.CurrentRound, domain.ErrRoundNotActive)
	}

	// Fail fast before spending a generation; the store enforces the limit again on save.
	previous, err := s.store.ListAttempts(ctx, sessionID, subRoundID)
	if err != nil {
		return PlayResult{}, fmt.Errorf("list attempts: %w", err)
	}
	if len(previous) >= s.maxAttempts {
		return PlayResult{}, fmt.Errorf("sub-round %s: %w", subRoundID, domain.ErrAttemptsExhausted)
	}

	output, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return PlayResult{}, fmt.Errorf("generate: %w", err)
	}

	result := s.score(sub, output, prompt)
	now := s.now()
	attempt, err := s.store.SaveAttempt(ctx, sessionID, domain.AttemptSlot{
		RoundID:     round.ID,
		SubRoundID:  subRoundID,
		MaxAttempts: s.maxAttempts,
	}, domain.Attempt{
		Prompt:    prompt,
		Output:    output,
		Result:    result,
		TimeTaken: now.Sub(sess.RoundStart()).Milliseconds(),
		CreatedAt: now,
	})
	if err != nil {
		return PlayResult{}, fmt.Errorf("save attempt: %w", err)
	}

	s.logger.Info("Attempt scored",
		"session", sessionID,
		"subRound", subRoundID,
		"attempt", attempt.Number,
		"score", result.Score,
		"flagged", result.Flagged,
	)

	res, err := s.SubRoundResult(ctx, sessionID, subRoundID)
	if err != nil {
		return PlayResult{}, err
	}
	return PlayResult{
		Attempt:           attempt,
		SubRound:          res,
		AttemptsRemaining: max(s.maxAttempts-len(res.Attempts), 0),
	}, nil
}

// Score rates output for a sub-round without generating or recording anything.
func (s *Service) Score(subRoundID, output, prompt string) (domain.ScoringResult, error) {
	_, sub, err := s.catalog.SubRound(subRoundID)
	if err != nil {
		return domain.ScoringResult{}, err
	}
	return s.score(sub, output, prompt), nil
}

func (s *Service) score(sub SubRound, output, prompt string) domain.ScoringResult {
	if sub.Kind == domain.KindArt {
		return s.art.ScoreArt(sub.Target, output, prompt)
	}
	return s.phrase.Score(sub.Target, output, prompt)
}

// SubRoundResult returns the recorded attempts for a sub-round.
func (s *Service) SubRoundResult(ctx context.Context, sessionID, subRoundID string) (domain.SubRoundResult, error) {
	_, sub, err := s.catalog.SubRound(subRoundID)
	if err != nil {
		return domain.SubRoundResult{}, err
	}
	attempts, err := s.store.ListAttempts(ctx, sessionID, subRoundID)
	if err != nil {
		return domain.SubRoundResult{}, fmt.Errorf("list attempts: %w", err)
	}
	return domain.NewSubRoundResult(subRoundID, sub.Target, attempts), nil
}

// CompleteRound closes the session's current round: the best attempt of every
// sub-round is summed into the session total and the session advances.
func (s *Service) CompleteRound(ctx context.Context, sessionID string, roundID int) (domain.Session, error) {
	round, err := s.catalog.Round(roundID)
	if err != nil {
		return domain.Session{}, err
	}
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if !sess.RoundActive(roundID) {
		return domain.Session{}, fmt.Errorf("round %d (current %d): %w", roundID, sess.CurrentRound, domain.ErrRoundNotActive)
	}

	total := 0
	for _, sub := range round.SubRounds {
		res, err := s.SubRoundResult(ctx, sessionID, sub.ID)
		if err != nil {
			return domain.Session{}, err
		}
		total += res.BestScore()
	}

	now := s.now()
	elapsed := now.Sub(sess.RoundStart())
	sess, err = s.store.CompleteRound(ctx, sessionID, domain.RoundCompletion{
		RoundID:  roundID,
		Score:    total,
		Final:    s.catalog.IsFinal(roundID),
		Duration: elapsed,
		At:       now,
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("complete round: %w", err)
	}

	s.logger.Info("Round completed",
		"session", sessionID,
		"round", roundID,
		"roundScore", total,
		"totalScore", sess.TotalScore,
		"roundTime", elapsed,
		"status", sess.Status,
	)
	return sess, nil
}

// Leaderboard returns the top limit sessions.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.Leaderboard(ctx, limit)
}
