// Package store implements ports.SessionStore over SQLite and Supabase.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/baditaflorin/go_prompt_score/internal/core/domain"
	"github.com/baditaflorin/go_prompt_score/internal/ports"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS game_sessions (
	id               TEXT PRIMARY KEY,
	player_name      TEXT NOT NULL,
	avatar_url       TEXT NOT NULL DEFAULT '',
	total_score      INTEGER NOT NULL DEFAULT 0,
	rounds_completed INTEGER NOT NULL DEFAULT 0,
	current_round    INTEGER NOT NULL DEFAULT 1,
	status           TEXT NOT NULL,
	round_started_at TEXT NOT NULL,
	round_times      TEXT NOT NULL DEFAULT '[]',
	total_time       INTEGER NOT NULL DEFAULT 0,
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS round_attempts (
	id             TEXT PRIMARY KEY,
	session_id     TEXT NOT NULL,
	sub_round_id   TEXT NOT NULL,
	attempt_number INTEGER NOT NULL,
	prompt         TEXT NOT NULL,
	output         TEXT NOT NULL,
	score          INTEGER NOT NULL,
	flagged        INTEGER NOT NULL DEFAULT 0,
	result_json    TEXT NOT NULL,
	time_taken     INTEGER NOT NULL DEFAULT 0,
	created_at     TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES game_sessions(id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_round_attempts_slot ON round_attempts(session_id, sub_round_id, attempt_number);
CREATE INDEX IF NOT EXISTS idx_game_sessions_score ON game_sessions(total_score DESC, updated_at ASC);
`

// timeLayout is fixed width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite is a SessionStore backed by a local SQLite database.
type SQLite struct {
	db     *sql.DB
	logger ports.Logger
	now    func() time.Time
}

// NewSQLite opens a SQLite database at path and runs migrations.
func NewSQLite(path string, logger ports.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps the pragmas in effect and serializes writers.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("Session store opened", "driver", "sqlite", "path", path)
	return &SQLite{db: db, logger: logger, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateSession inserts a new session for playerName positioned at round 1.
func (s *SQLite) CreateSession(ctx context.Context, playerName, avatarURL string) (domain.Session, error) {
	now := s.now()
	sess := domain.Session{
		ID:             uuid.New().String(),
		PlayerName:     playerName,
		AvatarURL:      avatarURL,
		CurrentRound:   1,
		Status:         domain.StatusPlaying,
		RoundStartedAt: now,
		RoundTimes:     []int64{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO game_sessions (id, player_name, avatar_url, total_score, rounds_completed, current_round, status,
		                            round_started_at, round_times, total_time, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, '[]', 0, ?, ?)`,
		sess.ID, sess.PlayerName, sess.AvatarURL, sess.TotalScore, sess.RoundsCompleted, sess.CurrentRound,
		sess.Status, now.Format(timeLayout), now.Format(timeLayout), now.Format(timeLayout),
	)
	if err != nil {
		return domain.Session{}, fmt.Errorf("insert session: %w", err)
	}

	s.logger.Debug("Session created", "id", sess.ID, "player", playerName)
	return sess, nil
}

// GetSession loads a session by id.
func (s *SQLite) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	return getSession(ctx, s.db, sessionID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getSession(ctx context.Context, q queryRower, sessionID string) (domain.Session, error) {
	var (
		sess                     domain.Session
		roundStarted, roundTimes string
		created, updated         string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, player_name, avatar_url, total_score, rounds_completed, current_round, status,
		        round_started_at, round_times, total_time, created_at, updated_at
		 FROM game_sessions WHERE id = ?`, sessionID,
	).Scan(&sess.ID, &sess.PlayerName, &sess.AvatarURL, &sess.TotalScore, &sess.RoundsCompleted,
		&sess.CurrentRound, &sess.Status, &roundStarted, &roundTimes, &sess.TotalTime, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("query session: %w", err)
	}
	if sess.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return domain.Session{}, fmt.Errorf("parse created_at: %w", err)
	}
	if sess.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return domain.Session{}, fmt.Errorf("parse updated_at: %w", err)
	}
	if sess.RoundStartedAt, err = time.Parse(timeLayout, roundStarted); err != nil {
		return domain.Session{}, fmt.Errorf("parse round_started_at: %w", err)
	}
	if err := json.Unmarshal([]byte(roundTimes), &sess.RoundTimes); err != nil {
		return domain.Session{}, fmt.Errorf("unmarshal round_times: %w", err)
	}
	return sess, nil
}

// SaveAttempt records a scored attempt in slot and returns it with its number,
// id and creation time filled in. The round check, the attempt count and the
// insert share one transaction.
func (s *SQLite) SaveAttempt(ctx context.Context, sessionID string, slot domain.AttemptSlot, attempt domain.Attempt) (domain.Attempt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	sess, err := getSession(ctx, tx, sessionID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if !sess.RoundActive(slot.RoundID) {
		return domain.Attempt{}, fmt.Errorf("round %d (current %d): %w", slot.RoundID, sess.CurrentRound, domain.ErrRoundNotActive)
	}

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM round_attempts WHERE session_id = ? AND sub_round_id = ?`,
		sessionID, slot.SubRoundID,
	).Scan(&count)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("count attempts: %w", err)
	}
	if slot.MaxAttempts > 0 && count >= slot.MaxAttempts {
		return domain.Attempt{}, fmt.Errorf("sub-round %s: %w", slot.SubRoundID, domain.ErrAttemptsExhausted)
	}

	attempt.Number = count + 1
	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = s.now()
	}

	resultJSON, err := json.Marshal(attempt.Result)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("marshal result: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO round_attempts (id, session_id, sub_round_id, attempt_number, prompt, output, score, flagged, result_json, time_taken, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.ID, sessionID, slot.SubRoundID, attempt.Number, attempt.Prompt, attempt.Output,
		attempt.Result.Score, attempt.Result.Flagged, string(resultJSON), attempt.TimeTaken,
		attempt.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("insert attempt: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE game_sessions SET updated_at = ? WHERE id = ?`,
		s.now().Format(timeLayout), sessionID); err != nil {
		return domain.Attempt{}, fmt.Errorf("touch session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Attempt{}, fmt.Errorf("commit: %w", err)
	}
	return attempt, nil
}

// ListAttempts returns the attempts of one sub-round ordered by attempt number.
func (s *SQLite) ListAttempts(ctx context.Context, sessionID, subRoundID string) ([]domain.Attempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, attempt_number, prompt, output, result_json, time_taken, created_at
		 FROM round_attempts WHERE session_id = ? AND sub_round_id = ?
		 ORDER BY attempt_number`, sessionID, subRoundID,
	)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	attempts := []domain.Attempt{}
	for rows.Next() {
		var (
			a                   domain.Attempt
			resultJSON, created string
		)
		if err := rows.Scan(&a.ID, &a.Number, &a.Prompt, &a.Output, &resultJSON, &a.TimeTaken, &created); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if err := json.Unmarshal([]byte(resultJSON), &a.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		if a.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// CompleteRound adds the round score to the session and advances it. The update only
// applies while the round is still current, so a round is never counted twice.
func (s *SQLite) CompleteRound(ctx context.Context, sessionID string, completion domain.RoundCompletion) (domain.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Session{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	sess, err := getSession(ctx, tx, sessionID)
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

	roundTimes, err := json.Marshal(sess.RoundTimes)
	if err != nil {
		return domain.Session{}, fmt.Errorf("marshal round_times: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE game_sessions
		 SET total_score = total_score + ?, rounds_completed = ?, current_round = ?, status = ?,
		     round_started_at = ?, round_times = ?, total_time = ?, updated_at = ?
		 WHERE id = ? AND current_round = ? AND status <> ?`,
		completion.Score, sess.RoundsCompleted, sess.CurrentRound, sess.Status,
		sess.RoundStartedAt.UTC().Format(timeLayout), string(roundTimes), sess.TotalTime, sess.UpdatedAt.Format(timeLayout),
		sessionID, completion.RoundID, domain.StatusFinished,
	)
	if err != nil {
		return domain.Session{}, fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Session{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.Session{}, fmt.Errorf("round %d: %w", completion.RoundID, domain.ErrRoundNotActive)
	}

	sess, err = getSession(ctx, tx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Session{}, fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("Round completed", "session", sessionID, "round", completion.RoundID, "total", sess.TotalScore)
	return sess, nil
}

// Leaderboard returns the top sessions by total score; ties go to the earlier update.
func (s *SQLite) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_name, avatar_url, total_score, status
		 FROM game_sessions
		 ORDER BY total_score DESC, updated_at ASC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []domain.LeaderboardEntry{}
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.PlayerName, &e.AvatarURL, &e.Score, &e.Status); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ ports.SessionStore = (*SQLite)(nil)
