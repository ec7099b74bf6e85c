package domain

import (
	"strconv"
	"time"
)

// Kind identifies which scoring path produced a result.
type Kind string

const (
	// KindPhrase marks results from the keyword-based phrase scorer.
	KindPhrase Kind = "phrase"
	// KindArt marks results from the symbol-art scorer.
	KindArt Kind = "art"
)

// Score bounds.
const (
	MinScore = 0
	MaxScore = 5
)

// ScoringResult holds the outcome of a single scoring call.
// Slices are never nil so that "no keywords" and "not computed" cannot be confused.
type ScoringResult struct {
	Kind            Kind     `json:"kind"`
	Score           int      `json:"score"`
	Reasoning       string   `json:"reasoning"`
	ExactMatch      bool     `json:"exactMatch"`
	KeywordsMatched []string `json:"keywordsMatched"`
	KeywordsTotal   []string `json:"keywordsTotal"`
	FuzzyMatched    []string `json:"fuzzyMatched"`
	Flagged         bool     `json:"flagged"`
	FlagReason      string   `json:"flagReason,omitempty"`
}

// Attempt is one scored player instruction within a sub-round.
type Attempt struct {
	ID     string        `json:"id"`
	Number int           `json:"attemptNumber"`
	Prompt string        `json:"prompt"`
	Output string        `json:"output"`
	Result ScoringResult `json:"result"`
	// TimeTaken is the milliseconds between the start of the round and the attempt.
	TimeTaken int64     `json:"timeTaken"`
	CreatedAt time.Time `json:"createdAt"`
}

// AttemptSlot identifies where an attempt is recorded and how many a sub-round allows.
// A MaxAttempts below 1 means no limit.
type AttemptSlot struct {
	RoundID     int
	SubRoundID  string
	MaxAttempts int
}

// SubRoundResult aggregates every attempt a player made on one target.
type SubRoundResult struct {
	SubRoundID       string    `json:"subRoundId"`
	Target           string    `json:"target"`
	Attempts         []Attempt `json:"attempts"`
	BestAttemptIndex int       `json:"bestAttemptIndex"`
}

// NewSubRoundResult summarises attempts, picking the highest score and the earliest
// attempt on ties. BestAttemptIndex is -1 when there are no attempts.
func NewSubRoundResult(subRoundID, target string, attempts []Attempt) SubRoundResult {
	best := -1
	for i, a := range attempts {
		if best < 0 || a.Result.Score > attempts[best].Result.Score {
			best = i
		}
	}
	if attempts == nil {
		attempts = []Attempt{}
	}
	return SubRoundResult{
		SubRoundID:       subRoundID,
		Target:           target,
		Attempts:         attempts,
		BestAttemptIndex: best,
	}
}

// BestScore returns the score of the best attempt, or 0 when there are none.
func (s SubRoundResult) BestScore() int {
	if s.BestAttemptIndex < 0 || s.BestAttemptIndex >= len(s.Attempts) {
		return 0
	}
	return s.Attempts[s.BestAttemptIndex].Result.Score
}

// Session is a player's game session as persisted by a session store.
type Session struct {
	ID              string `json:"id"`
	PlayerName      string `json:"player_name"`
	AvatarURL       string `json:"avatar_url"`
	TotalScore      int    `json:"total_score"`
	RoundsCompleted int    `json:"rounds_completed"`
	CurrentRound    int    `json:"current_round"`
	Status          string `json:"status"`
	// RoundStartedAt is when the current round became playable.
	RoundStartedAt time.Time `json:"round_started_at"`
	// RoundTimes holds the milliseconds spent on each completed round.
	RoundTimes []int64 `json:"round_times"`
	// TotalTime is the sum of RoundTimes, set once the game is finished.
	TotalTime int64     `json:"total_time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoundActive reports whether round can still be played or completed.
func (s Session) RoundActive(round int) bool {
	return s.Status != StatusFinished && s.CurrentRound == round
}

// RoundStart returns when the current round started, falling back to the session creation.
func (s Session) RoundStart() time.Time {
	if s.RoundStartedAt.IsZero() {
		return s.CreatedAt
	}
	return s.RoundStartedAt
}

// LeaderboardEntry is one ranked row of the leaderboard.
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	PlayerName string `json:"username"`
	AvatarURL  string `json:"avatarUrl"`
	Score      int    `json:"score"`
	Status     string `json:"status"`
}

// Session statuses.
const (
	StatusPlaying  = "Playing"
	StatusFinished = "Finished"
)

// RoundStatus is the status of a session that is about to play round n.
func RoundStatus(n int) string {
	return "Round " + strconv.Itoa(n)
}

// RoundCompletion records the outcome of one finished round.
type RoundCompletion struct {
	RoundID  int           `json:"roundId"`
	Score    int           `json:"score"`
	Final    bool          `json:"final"`
	Duration time.Duration `json:"duration"`
	// At is when the round was completed and the next one started.
	At time.Time `json:"at"`
}

// Next returns the round and status a session moves to after this completion.
func (rc RoundCompletion) Next() (round int, status string) {
	if rc.Final {
		return rc.RoundID, StatusFinished
	}
	return rc.RoundID + 1, RoundStatus(rc.RoundID + 1)
}

// Apply advances s past the completed round.
func (rc RoundCompletion) Apply(s Session) Session {
	s.TotalScore += rc.Score
	s.RoundsCompleted = rc.RoundID
	s.CurrentRound, s.Status = rc.Next()
	s.RoundTimes = append(append([]int64(nil), s.RoundTimes...), rc.Duration.Milliseconds())
	if rc.Final {
		s.TotalTime = 0
		for _, ms := range s.RoundTimes {
			s.TotalTime += ms
		}
	}
	if !rc.At.IsZero() {
		s.RoundStartedAt = rc.At
	}
	return s
}
