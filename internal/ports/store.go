package ports

import (
	"context"

	"github.com/baditaflorin/go_prompt_score/internal/core/domain"
)

// SessionStore persists game sessions, scored attempts and the leaderboard.
// Lookups of unknown sessions return an error wrapping domain.ErrSessionNotFound.
//
// SaveAttempt and CompleteRound check the session state atomically with their write:
// they fail with domain.ErrRoundNotActive when the round is no longer current, and
// SaveAttempt fails with domain.ErrAttemptsExhausted once the slot is full. SaveAttempt
// assigns the attempt number and returns the stored attempt.
type SessionStore interface {
	CreateSession(ctx context.Context, playerName, avatarURL string) (domain.Session, error)
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
	SaveAttempt(ctx context.Context, sessionID string, slot domain.AttemptSlot, attempt domain.Attempt) (domain.Attempt, error)
	ListAttempts(ctx context.Context, sessionID, subRoundID string) ([]domain.Attempt, error)
	CompleteRound(ctx context.Context, sessionID string, completion domain.RoundCompletion) (domain.Session, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	Close() error
}
