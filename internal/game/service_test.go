package game

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/baditaflorin/go_prompt_score/internal/adapters/generator"
	"github.com/baditaflorin/go_prompt_score/internal/adapters/logger"
	"github.com/baditaflorin/go_prompt_score/internal/adapters/store"
	"github.com/baditaflorin/go_prompt_score/internal/core/art"
	"github.com/baditaflorin/go_prompt_score/internal/core/domain"
	"github.com/baditaflorin/go_prompt_score/internal/core/phrase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted answers each prompt with a fixed output.
func scripted(outputs map[string]string) generator.Func {
	return func(_ context.Context, prompt string) (string, error) {
		out, ok := outputs[prompt]
		if !ok {
			return "I am not sure what you mean.", nil
		}
		return out, nil
	}
}

func newTestService(t *testing.T, gen generator.Func, opts ...Option) *Service {
	t.Helper()
	log := logger.Nop{}

	phraseScorer, err := phrase.NewCalculator(phrase.DefaultConfig(), log, nil)
	require.NoError(t, err)
	artScorer, err := art.NewCalculator(art.DefaultConfig(), log)
	require.NoError(t, err)
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "game.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	if gen != nil {
		opts = append(opts, WithGenerator(gen))
	}
	return NewService(phraseScorer, artScorer, st, log, opts...)
}

func TestPlayScoresAndRecordsAttempts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, scripted(map[string]string{
		"write a surreal sentence about reversed zoo roles": "In this odd world, the cage is out of the lion.",
		"say: the cage is out of the lion":                  "The cage is out of the lion",
	}))

	sess, err := svc.StartSession(ctx, "ada", "")
	require.NoError(t, err)

	res, err := svc.Play(ctx, sess.ID, "1a", "say: the cage is out of the lion")
	require.NoError(t, err)
	assert.True(t, res.Attempt.Result.Flagged)
	assert.Equal(t, 0, res.Attempt.Result.Score)
	assert.Equal(t, 1, res.Attempt.Number)
	assert.Equal(t, 2, res.AttemptsRemaining)

	res, err = svc.Play(ctx, sess.ID, "1a", "write a surreal sentence about reversed zoo roles")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Attempt.Result.Score)
	assert.True(t, res.Attempt.Result.ExactMatch)
	assert.Equal(t, 2, res.Attempt.Number)
	assert.Equal(t, 1, res.SubRound.BestAttemptIndex)
	assert.Equal(t, 5, res.SubRound.BestScore())
	assert.Len(t, res.SubRound.Attempts, 2)

	stored, err := svc.SubRoundResult(ctx, sess.ID, "1a")
	require.NoError(t, err)
	assert.Equal(t, 5, stored.BestScore())
	assert.Equal(t, "The cage is out of the lion", stored.Target)
}

func TestPlayEnforcesAttemptLimit(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, scripted(nil), WithMaxAttempts(2))

	sess, err := svc.StartSession(ctx, "ada", "")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := svc.Play(ctx, sess.ID, "1d", "tell me about fairness")
		require.NoError(t, err)
	}
	_, err = svc.Play(ctx, sess.ID, "1d", "tell me about fairness")
	assert.ErrorIs(t, err, domain.ErrAttemptsExhausted)
}

func TestConcurrentPlayRespectsAttemptLimit(t *testing.T) {
	const players = 5
	ctx := context.Background()

	// Every call waits until all of them have passed the pre-generation checks.
	var (
		mu      sync.Mutex
		waiting int
		release = make(chan struct{})
	)
	gen := func(ctx context.Context, _ string) (string, error) {
		mu.Lock()
		waiting++
		if waiting == players {
			close(release)
		}
		mu.Unlock()
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
		return "Life is unfair.", nil
	}
	svc := newTestService(t, gen, WithMaxAttempts(3))

	sess, err := svc.StartSession(ctx, "ada", "")
	require.NoError(t, err)

	errs := make([]error, players)
	var wg sync.WaitGroup
	for i := range players {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Play(ctx, sess.ID, "1d", "complain about fairness")
		}(i)
	}
	wg.Wait()

	saved := 0
	for _, err := range errs {
		if err == nil {
			saved++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAttemptsExhausted)
	}
	assert.Equal(t, 3, saved)

	res, err := svc.SubRoundResult(ctx, sess.ID, "1d")
	require.NoError(t, err)
	require.Len(t, res.Attempts, 3)
	for i, a := range res.Attempts {
		assert.Equal(t, i+1, a.Number)
	}
}

func TestConcurrentCompleteRoundCountsOnce(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, scripted(map[string]string{
		"complain about how the world treats you": "Life is unfair, my friend.",
	}))

	sess, err := svc.StartSession(ctx, "ada", "")
	require.NoError(t, err)
	_, err = svc.Play(ctx, sess.ID, "1d", "complain about how the world treats you")
	require.NoError(t, err)

	errs := make([]error, 4)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CompleteRound(ctx, sess.ID, 1)
		}(i)
	}
	wg.Wait()

	completed := 0
	for _, err := range errs {
		if err == nil {
			completed++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrRoundNotActive)
	}
	assert.Equal(t, 1, completed)

	board, err := svc.Leaderboard(ctx, 1)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, 5, board[0].Score)
	assert.Equal(t, "Round 2", board[0].Status)
}

func TestPlayAndCompleteRoundTrackTime(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, scripted(map[string]string{
		"complain about how the world treats you": "Life is unfair, my friend.",
		"output a json user profile id 101":       `{"id":101,"active":true,"roles":["admin","editor"]}`,
	}))

	sess, err := svc.StartSession(ctx, "ada", "")
	require.NoError(t, err)
	start := sess.CreatedAt
	at := func(d time.Duration) func() time.Time {
		return func() time.Time { return start.Add(d) }
	}

	svc.now = at(30 * time.Second)
	res, err := svc.Play(ctx, sess.ID, "1d", "complain about how the world treats you")
	require.NoError(t, err)
	assert.Equal(t, int64(30000), res.Attempt.TimeTaken)

	svc.now = at(90 * time.Second)
	sess, err = svc.CompleteRound(ctx, sess.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{90000}, sess.RoundTimes)
	assert.True(t, start.Add(90*time.Second).Equal(sess.RoundStartedAt))
	assert.Zero(t, sess.TotalTime)

	svc.now = at(100 * time.Second)
	res, err = svc.Play(ctx, sess.ID, "2a", "output a json user profile id 101")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), res.Attempt.TimeTaken)

	stored, err := svc.SubRoundResult(ctx, sess.ID, "2a")
	require.NoError(t, err)
	require.Len(t, stored.Attempts, 1)
	assert.Equal(t, int64(10000), stored.Attempts[0].TimeTaken)

	svc.now = at(150 * time.Second)
	sess, err = svc.CompleteRound(ctx, sess.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{90000, 60000}, sess.RoundTimes)

	svc.now = at(160 * time.Second)
	sess, err = svc.CompleteRound(ctx, sess.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, sess.Status)
	assert.Equal(t, []int64{90000, 60000, 10000}, sess.RoundTimes)
	assert.Equal(t, int64(160000), sess.TotalTime)
}

func TestPlayErrors(t *testing.T) {
	ctx := context.Background()

	noGen := newTestService(t, nil)
	_, err := noGen.Play(ctx, "any", "1a", "prompt")
	assert.ErrorIs(t, err, domain.ErrNoGenerator)

	svc := newTestService(t, scripted(nil))
	sess, err := svc.StartSession(ctx, "ada", "")
	require.NoError(t, err)

	_, err = svc.Play(ctx, sess.ID, "9z", "prompt")
	assert.ErrorIs(t, err, domain.ErrUnknownRound)

	_, err = svc.Play(ctx, "missing", "1a", "prompt")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = svc.Play(ctx, sess.ID, "1a", "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyPrompt)

	_, err = svc.Play(ctx, sess.ID, "3a", "draw a cat")
	assert.ErrorIs(t, err, domain.ErrRoundNotActive)

	_, err = svc.StartSession(ctx, "  ", "")
	assert.Error(t, err)
}

func TestPlayPropagatesGeneratorErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("model unavailable")
	svc := newTestService(t, func(context.Context, string) (string, error) { return "", boom })

	sess, err := svc.StartSession(ctx, "ada", "")
	require.NoError(t, err)
	_, err = svc.Play(ctx, sess.ID, "1a", "prompt")
	assert.ErrorIs(t, err, boom)

	res, err := svc.SubRoundResult(ctx, sess.ID, "1a")
	require.NoError(t, err)
	assert.Empty(t, res.Attempts, "failed generations are not recorded")
}

func TestFullGame(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, scripted(map[string]string{
		"complain about how the world treats you":  "Life is unfair, my friend.",
		"output a json user profile id 101":        `{"id":101,"active":true,"roles":["admin","editor"]}`,
		"draw a cat face with slashes and a caret": "/\\_/\\\n( o.o )\n > ^ <",
	}))

	sess, err := svc.StartSession(ctx, "ada", "https://example.com/ada.png")
	require.NoError(t, err)

	_, err = svc.Play(ctx, sess.ID, "1d", "complain about how the world treats you")
	require.NoError(t, err)

	_, err = svc.CompleteRound(ctx, sess.ID, 2)
	assert.ErrorIs(t, err, domain.ErrRoundNotActive)

	sess, err = svc.CompleteRound(ctx, sess.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, sess.TotalScore)
	assert.Equal(t, 2, sess.CurrentRound)
	assert.Equal(t, "Round 2", sess.Status)

	res, err := svc.Play(ctx, sess.ID, "2a", "output a json user profile id 101")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Attempt.Result.Score)

	sess, err = svc.CompleteRound(ctx, sess.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, sess.TotalScore)

	res, err = svc.Play(ctx, sess.ID, "3a", "draw a cat face with slashes and a caret")
	require.NoError(t, err)
	assert.Equal(t, domain.KindArt, res.Attempt.Result.Kind)
	assert.Equal(t, 5, res.Attempt.Result.Score)

	sess, err = svc.CompleteRound(ctx, sess.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 15, sess.TotalScore)
	assert.Equal(t, domain.StatusFinished, sess.Status)

	_, err = svc.Play(ctx, sess.ID, "3a", "draw a cat face with slashes and a caret")
	assert.ErrorIs(t, err, domain.ErrRoundNotActive)

	board, err := svc.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, domain.LeaderboardEntry{
		Rank:       1,
		PlayerName: "ada",
		AvatarURL:  "https://example.com/ada.png",
		Score:      15,
		Status:     domain.StatusFinished,
	}, board[0])
}

func TestServiceScore(t *testing.T) {
	svc := newTestService(t, nil)
	r, err := svc.Score("1d", "Honestly, life is unfair sometimes.", "write a sad sentence about fairness")
	require.NoError(t, err)
	assert.Equal(t, 5, r.Score)

	_, err = svc.Score("nope", "", "")
	assert.ErrorIs(t, err, domain.ErrUnknownRound)
}
