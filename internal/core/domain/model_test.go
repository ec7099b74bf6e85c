package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func attemptScoring(score int) Attempt {
	return Attempt{Result: ScoringResult{Score: score}}
}

func TestNewSubRoundResult(t *testing.T) {
	r := NewSubRoundResult("1a", "Life is unfair", nil)
	assert.Equal(t, -1, r.BestAttemptIndex)
	assert.Equal(t, 0, r.BestScore())
	assert.NotNil(t, r.Attempts)

	r = NewSubRoundResult("1a", "Life is unfair", []Attempt{attemptScoring(2), attemptScoring(4), attemptScoring(4)})
	assert.Equal(t, 1, r.BestAttemptIndex, "earliest attempt wins ties")
	assert.Equal(t, 4, r.BestScore())
}

func TestRoundCompletionApply(t *testing.T) {
	s := Session{TotalScore: 3, CurrentRound: 1, Status: StatusPlaying}

	s = RoundCompletion{RoundID: 1, Score: 12, Duration: 90 * time.Second}.Apply(s)
	assert.Equal(t, 15, s.TotalScore)
	assert.Equal(t, 1, s.RoundsCompleted)
	assert.Equal(t, 2, s.CurrentRound)
	assert.Equal(t, "Round 2", s.Status)

	assert.Equal(t, []int64{90000}, s.RoundTimes)
	assert.Zero(t, s.TotalTime, "total time is only set when the game ends")

	at := time.Date(2025, 1, 1, 12, 5, 0, 0, time.UTC)
	s = RoundCompletion{RoundID: 2, Score: 5, Final: true, Duration: 1500 * time.Millisecond, At: at}.Apply(s)
	assert.Equal(t, 20, s.TotalScore)
	assert.Equal(t, 2, s.CurrentRound)
	assert.Equal(t, StatusFinished, s.Status)
	assert.Equal(t, []int64{90000, 1500}, s.RoundTimes)
	assert.Equal(t, int64(91500), s.TotalTime)
	assert.Equal(t, at, s.RoundStartedAt)
}

func TestSessionRoundActive(t *testing.T) {
	created := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		session Session
		round   int
		want    bool
	}{
		{"current round", Session{CurrentRound: 1, Status: StatusPlaying}, 1, true},
		{"other round", Session{CurrentRound: 2, Status: RoundStatus(2)}, 1, false},
		{"finished", Session{CurrentRound: 3, Status: StatusFinished}, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.session.RoundActive(tt.round))
		})
	}

	s := Session{CreatedAt: created}
	assert.Equal(t, created, s.RoundStart())
	s.RoundStartedAt = created.Add(time.Minute)
	assert.Equal(t, created.Add(time.Minute), s.RoundStart())
}
