package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/baditaflorin/go_prompt_score/internal/core/domain"
	"github.com/baditaflorin/go_prompt_score/internal/ports"
	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

const (
	sessionsTable = "game_sessions"
	attemptsTable = "round_attempts"
)

// Supabase is a SessionStore backed by Supabase tables game_sessions and round_attempts.
// Timestamp columns are expected to be timestamptz.
type Supabase struct {
	client *supa.Client
	logger ports.Logger
	now    func() time.Time
}

// NewSupabase connects to the Supabase project at url with the given API key.
func NewSupabase(url, key string, logger ports.Logger) (*Supabase, error) {
	if url == "" || key == "" {
		return nil, errors.New("supabase url and key are required")
	}
	client, err := supa.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("connect supabase: %w", err)
	}
	logger.Info("Session store opened", "driver", "supabase", "url", url)
	return &Supabase{client: client, logger: logger, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close is a no-op; the Supabase client holds no persistent connection.
func (s *Supabase) Close() error {
	return nil
}

type sessionInsert struct {
	PlayerName      string    `json:"player_name"`
	AvatarURL       string    `json:"avatar_url"`
	TotalScore      int       `json:"total_score"`
	RoundsCompleted int       `json:"rounds_completed"`
	CurrentRound    int       `json:"current_round"`
	Status          string    `json:"status"`
	RoundStartedAt  time.Time `json:"round_started_at"`
	RoundTimes      []int64   `json:"round_times"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type sessionUpdate struct {
	TotalScore      int       `json:"total_score"`
	RoundsCompleted int       `json:"rounds_completed"`
	CurrentRound    int       `json:"current_round"`
	Status          string    `json:"status"`
	RoundStartedAt  time.Time `json:"round_started_at"`
	RoundTimes      []int64   `json:"round_times"`
	TotalTime       int64     `json:"total_time"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type attemptRow struct {
	ID              string               `json:"id,omitempty"`
	SessionID       string               `json:"session_id"`
	SubRoundID      string               `json:"sub_round_id"`
	AttemptNumber   int                  `json:"attempt_number"`
	Prompt          string               `json:"prompt"`
	Output          string               `json:"output"`
	Score           int                  `json:"score"`
	Flagged         bool                 `json:"flagged"`
	FlagReason      string               `json:"flag_reason,omitempty"`
	KeywordsMatched []string             `json:"keywords_matched"`
	Result          domain.ScoringResult `json:"result"`
	TimeTaken       int64                `json:"time_taken"`
	CreatedAt       time.Time            `json:"created_at"`
}

func newAttemptRow(sessionID, subRoundID string, a domain.Attempt) attemptRow {
	return attemptRow{
		ID:              a.ID,
		SessionID:       sessionID,
		SubRoundID:      subRoundID,
		AttemptNumber:   a.Number,
		Prompt:          a.Prompt,
		Output:          a.Output,
		Score:           a.Result.Score,
		Flagged:         a.Result.Flagged,
		FlagReason:      a.Result.FlagReason,
		KeywordsMatched: a.Result.KeywordsMatched,
		Result:          a.Result,
		TimeTaken:       a.TimeTaken,
		CreatedAt:       a.CreatedAt,
	}
}

func (r attemptRow) attempt() domain.Attempt {
	return domain.Attempt{
		ID:        r.ID,
		Number:    r.AttemptNumber,
		Prompt:    r.Prompt,
		Output:    r.Output,
		Result:    r.Result,
		TimeTaken: r.TimeTaken,
		CreatedAt: r.CreatedAt,
	}
}

// CreateSession inserts a new session for playerName positioned at round 1.
func (s *Supabase) CreateSession(ctx context.Context, playerName, avatarURL string) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	now := s.now()
	var rows []domain.Session
	_, err := s.client.From(sessionsTable).
		Insert(sessionInsert{
			PlayerName:     playerName,
			AvatarURL:      avatarURL,
			CurrentRound:   1,
			Status:         domain.StatusPlaying,
			RoundStartedAt: now,
			RoundTimes:     []int64{},
			UpdatedAt:      now,
		}, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return domain.Session{}, fmt.Errorf("insert session: %w", err)
	}
	if len(rows) == 0 {
		return domain.Session{}, errors.New("insert session: no row returned")
	}
	s.logger.Debug("Session created", "id", rows[0].ID, "player", playerName)
	return rows[0], nil
}

// GetSession loads a session by id.
func (s *Supabase) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	var rows []domain.Session
	_, err := s.client.From(sessionsTable).
		Select("*", "", false).
		Eq("id", sessionID).
		ExecuteTo(&rows)
	if err != nil {
		return domain.Session{}, fmt.Errorf("query session: %w", err)
	}
	if len(rows) == 0 {
		return domain.Session{}, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	return rows[0], nil
}

// SaveAttempt records a scored attempt in slot and returns it with its number filled in.
// PostgREST offers no transactions, so the table's unique (session_id, sub_round_id,
// attempt_number) constraint rejects a concurrent insert that took the same number.
func (s *Supabase) SaveAttempt(ctx context.Context, sessionID string, slot domain.AttemptSlot, attempt domain.Attempt) (domain.Attempt, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if !sess.RoundActive(slot.RoundID) {
		return domain.Attempt{}, fmt.Errorf("round %d (current %d): %w", slot.RoundID, sess.CurrentRound, domain.ErrRoundNotActive)
	}
	existing, err := s.ListAttempts(ctx, sessionID, slot.SubRoundID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if slot.MaxAttempts > 0 && len(existing) >= slot.MaxAttempts {
		return domain.Attempt{}, fmt.Errorf("sub-round %s: %w", slot.SubRoundID, domain.ErrAttemptsExhausted)
	}
	attempt.Number = nextAttemptNumber(existing)
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = s.now()
	}

	var rows []attemptRow
	_, err = s.client.From(attemptsTable).
		Insert(newAttemptRow(sessionID, slot.SubRoundID, attempt), false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("insert attempt: %w", err)
	}
	if len(rows) > 0 {
		attempt.ID = rows[0].ID
	}
	return attempt, nil
}

// ListAttempts returns the attempts of one sub-round ordered by attempt number.
func (s *Supabase) ListAttempts(ctx context.Context, sessionID, subRoundID string) ([]domain.Attempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []attemptRow
	_, err := s.client.From(attemptsTable).
		Select("*", "", false).
		Eq("session_id", sessionID).
		Eq("sub_round_id", subRoundID).
		Order("attempt_number", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	attempts := make([]domain.Attempt, 0, len(rows))
	for _, r := range rows {
		attempts = append(attempts, r.attempt())
	}
	return attempts, nil
}

// CompleteRound adds the round score to the session and advances it. The update is
// filtered on the round still being current; when another caller got there first no
// row matches and the round is reported as not active.
func (s *Supabase) CompleteRound(ctx context.Context, sessionID string, completion domain.RoundCompletion) (domain.Session, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if !sess.RoundActive(completion.RoundID) {
		return domain.Session{}, fmt.Errorf("round %d (current %d): %w", completion.RoundID, sess.CurrentRound, domain.ErrRoundNotActive)
	}
	if completion.At.IsZero() {
		completion.At = s.now()
	}
	sess = completion.Apply(sess)
	sess.UpdatedAt = s.now()

	var rows []domain.Session
	_, err = s.client.From(sessionsTable).
		Update(newSessionUpdate(sess), "representation", "").
		Eq("id", sessionID).
		Eq("current_round", strconv.Itoa(completion.RoundID)).
		Neq("status", domain.StatusFinished).
		ExecuteTo(&rows)
	if err != nil {
		return domain.Session{}, fmt.Errorf("update session: %w", err)
	}
	if len(rows) == 0 {
		return domain.Session{}, fmt.Errorf("round %d: %w", completion.RoundID, domain.ErrRoundNotActive)
	}
	sess = rows[0]
	s.logger.Debug("Round completed", "session", sessionID, "round", completion.RoundID, "total", sess.TotalScore)
	return sess, nil
}

func newSessionUpdate(sess domain.Session) sessionUpdate {
	return sessionUpdate{
		TotalScore:      sess.TotalScore,
		RoundsCompleted: sess.RoundsCompleted,
		CurrentRound:    sess.CurrentRound,
		Status:          sess.Status,
		RoundStartedAt:  sess.RoundStartedAt,
		RoundTimes:      sess.RoundTimes,
		TotalTime:       sess.TotalTime,
		UpdatedAt:       sess.UpdatedAt,
	}
}

// Leaderboard returns the top sessions by total score; ties go to the earlier update.
func (s *Supabase) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []domain.Session
	_, err := s.client.From(sessionsTable).
		Select("player_name,avatar_url,total_score,status,updated_at", "", false).
		Order("total_score", &postgrest.OrderOpts{Ascending: false}).
		Order("updated_at", &postgrest.OrderOpts{Ascending: true}).
		Limit(limit, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	return rankSessions(rows), nil
}

func nextAttemptNumber(existing []domain.Attempt) int {
	next := 1
	for _, a := range existing {
		if a.Number >= next {
			next = a.Number + 1
		}
	}
	return next
}

// rankSessions converts already ordered sessions into leaderboard entries ranked from 1.
func rankSessions(sessions []domain.Session) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(sessions))
	for i, sess := range sessions {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:       i + 1,
			PlayerName: sess.PlayerName,
			AvatarURL:  sess.AvatarURL,
			Score:      sess.TotalScore,
			Status:     sess.Status,
		})
	}
	return entries
}

var _ ports.SessionStore = (*Supabase)(nil)
