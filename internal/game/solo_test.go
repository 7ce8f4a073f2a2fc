package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordrush/backend/internal/models"
	"wordrush/backend/internal/scoring"
	"wordrush/backend/internal/tiles"
)

func TestStartSoloRun(t *testing.T) {
	engine, clock, _ := newSoloEngine(t)

	run, err := engine.StartSoloRun(7, 60)
	require.NoError(t, err)
	assert.Equal(t, uint(7), run.OwnerID)
	assert.Equal(t, models.SoloRunActive, run.Status)
	assert.Equal(t, int64(60_000), run.RemainingMs)
	assert.Equal(t, 0, run.RoundIndex)
	assert.NotEmpty(t, run.Seed)
	assert.WithinDuration(t, clock.Now(), run.LastEventAt, time.Second)

	_, err = engine.StartSoloRun(7, 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = engine.StartSoloRun(7, 900)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetSoloRunOwnership(t *testing.T) {
	engine, _, _ := newSoloEngine(t)
	run, err := engine.StartSoloRun(7, 60)
	require.NoError(t, err)

	_, err = engine.GetSoloRun(run.ID, 8)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = engine.GetSoloRun(999, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitSoloWordAccepted(t *testing.T) {
	engine, clock, dict := newSoloEngine(t)
	gen := tiles.NewGenerator(dict)

	run, err := engine.StartSoloRun(7, 60)
	require.NoError(t, err)

	clock.Advance(5 * time.Second)
	word := buildableWord(t, gen, dict, run.Seed, 0)

	res, err := engine.SubmitSoloWord(run.ID, 7, word)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	wantScore := scoring.FinalScore(word)
	wantBonus := scoring.TimeBonusSeconds(word)
	assert.Equal(t, wantScore, res.WordScore)
	assert.Equal(t, wantBonus, res.TimeBonusSeconds)

	assert.Equal(t, wantScore, res.Run.Score)
	assert.Equal(t, 1, res.Run.RoundIndex)
	assert.Equal(t, word, res.Run.BestWord)
	assert.Equal(t, wantScore, res.Run.BestWordScore)

	// 5s charged, bonus credited.
	assert.Equal(t, int64(60_000-5_000+wantBonus*1000), res.Run.RemainingMs)
	assert.Len(t, res.Tiles, tiles.DefaultCount)
}

func TestSubmitSoloWordInvalidStillChargesTime(t *testing.T) {
	engine, clock, _ := newSoloEngine(t)
	run, err := engine.StartSoloRun(7, 60)
	require.NoError(t, err)

	clock.Advance(10 * time.Second)
	res, err := engine.SubmitSoloWord(run.ID, 7, "ZZZZZ")
	require.NoError(t, err)

	assert.False(t, res.Accepted)
	assert.Equal(t, "invalid word", res.Reason)
	assert.Equal(t, 0, res.Run.Score)
	assert.Equal(t, 0, res.Run.RoundIndex)
	assert.Equal(t, int64(50_000), res.Run.RemainingMs)
	assert.WithinDuration(t, clock.Now(), res.Run.LastEventAt, time.Second)
}

func TestSubmitSoloWordAfterExpiryFinishesRun(t *testing.T) {
	engine, clock, dict := newSoloEngine(t)
	gen := tiles.NewGenerator(dict)
	run, err := engine.StartSoloRun(7, 60)
	require.NoError(t, err)

	clock.Advance(61 * time.Second)
	word := buildableWord(t, gen, dict, run.Seed, 0)

	res, err := engine.SubmitSoloWord(run.ID, 7, word)
	require.NoError(t, err)

	assert.False(t, res.Accepted)
	assert.Equal(t, "time expired", res.Reason)
	assert.Equal(t, models.SoloRunFinished, res.Run.Status)
	assert.Equal(t, int64(0), res.Run.RemainingMs)
	assert.Equal(t, 0, res.Run.Score, "an expired submission never mutates the score")
	require.NotNil(t, res.Run.EndedAt)

	// The run is terminal: another submission is an invalid-state error.
	_, err = engine.SubmitSoloWord(run.ID, 7, word)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSubmitSoloWordRemainingTimeCapped(t *testing.T) {
	engine, clock, dict := newSoloEngine(t)
	gen := tiles.NewGenerator(dict)
	run, err := engine.StartSoloRun(7, 120)
	require.NoError(t, err)

	clock.Advance(1 * time.Second)
	word := buildableWord(t, gen, dict, run.Seed, 0)
	res, err := engine.SubmitSoloWord(run.ID, 7, word)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	assert.LessOrEqual(t, res.Run.RemainingMs, int64(MaxRemainingMs))
}

func TestSubmitSoloWordAdvancesRound(t *testing.T) {
	engine, clock, dict := newSoloEngine(t)
	gen := tiles.NewGenerator(dict)
	run, err := engine.StartSoloRun(7, 60)
	require.NoError(t, err)

	clock.Advance(time.Second)
	first := buildableWord(t, gen, dict, run.Seed, 0)
	res, err := engine.SubmitSoloWord(run.ID, 7, first)
	require.NoError(t, err)
	require.True(t, res.Accepted)
	require.Equal(t, 1, res.Run.RoundIndex)

	// The same word again targets round 1's rack; it only counts if it
	// happens to be buildable there, so the same round can never be
	// credited twice.
	clock.Advance(time.Second)
	res2, err := engine.SubmitSoloWord(run.ID, 7, first)
	require.NoError(t, err)
	if res2.Accepted {
		assert.Equal(t, 2, res2.Run.RoundIndex)
	} else {
		assert.Equal(t, 1, res2.Run.RoundIndex)
	}
}

func TestFinishSoloRun(t *testing.T) {
	engine, clock, _ := newSoloEngine(t)
	run, err := engine.StartSoloRun(7, 60)
	require.NoError(t, err)

	clock.Advance(20 * time.Second)
	finished, err := engine.FinishSoloRun(run.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, models.SoloRunFinished, finished.Status)
	assert.Equal(t, int64(40_000), finished.RemainingMs)
	require.NotNil(t, finished.EndedAt)

	// Finishing again is a no-op, not an error.
	clock.Advance(5 * time.Second)
	again, err := engine.FinishSoloRun(run.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(40_000), again.RemainingMs)

	_, err = engine.FinishSoloRun(run.ID, 8)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSubmitSoloToLeaderboardExactlyOnce(t *testing.T) {
	engine, _, _ := newSoloEngine(t)
	run, err := engine.StartSoloRun(7, 60)
	require.NoError(t, err)

	_, err = engine.SubmitSoloToLeaderboard(run.ID, 7, "Ada")
	assert.ErrorIs(t, err, ErrInvalidState, "cannot submit an active run")

	_, err = engine.FinishSoloRun(run.ID, 7)
	require.NoError(t, err)

	entry, err := engine.SubmitSoloToLeaderboard(run.ID, 7, "Ada")
	require.NoError(t, err)
	assert.Equal(t, run.ID, entry.RunID)
	assert.Equal(t, "Ada", entry.DisplayName)

	_, err = engine.SubmitSoloToLeaderboard(run.ID, 7, "Ada")
	assert.ErrorIs(t, err, ErrConflict, "second submission must be a conflict, not a duplicate row")

	var count int64
	require.NoError(t, engine.db.Model(&models.LeaderboardEntry{}).
		Where("run_id = ?", run.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSubmitSoloToLeaderboardValidation(t *testing.T) {
	engine, _, _ := newSoloEngine(t)
	run, err := engine.StartSoloRun(7, 60)
	require.NoError(t, err)
	_, err = engine.FinishSoloRun(run.ID, 7)
	require.NoError(t, err)

	_, err = engine.SubmitSoloToLeaderboard(run.ID, 7, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = engine.SubmitSoloToLeaderboard(run.ID, 9, "Eve")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
