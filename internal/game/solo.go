package game

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wordrush/backend/internal/dictionary"
	"wordrush/backend/internal/leaderboard"
	"wordrush/backend/internal/models"
	"wordrush/backend/internal/scoring"
	"wordrush/backend/internal/tiles"
)

const (
	// MaxRemainingMs caps solo remaining time: time bonuses never push a
	// run above two minutes on the clock.
	MaxRemainingMs = 120_000

	MinSoloDurationSeconds = 30
	MaxSoloDurationSeconds = 120
)

// SoloEngine owns single-player timed runs. All time-dependent state is
// recomputed from stored timestamps on every call; no background timer
// ticks a run down.
type SoloEngine struct {
	db          *gorm.DB
	dict        *dictionary.Dictionary
	gen         *tiles.Generator
	leaderboard *leaderboard.Leaderboard // optional redis mirror, may be nil
	log         *logrus.Logger

	// Now is the engine clock; tests override it to drive expiry.
	Now func() time.Time
}

func NewSoloEngine(db *gorm.DB, dict *dictionary.Dictionary, gen *tiles.Generator, lb *leaderboard.Leaderboard, log *logrus.Logger) *SoloEngine {
	return &SoloEngine{
		db:          db,
		dict:        dict,
		gen:         gen,
		leaderboard: lb,
		log:         log,
		Now:         time.Now,
	}
}

// SoloWordResult reports the outcome of one word submission. A rejected
// word is not a Go error: the elapsed time is still charged and the run
// may expire on the same call.
type SoloWordResult struct {
	Run              *models.SoloRun
	Accepted         bool
	Reason           string
	WordScore        int
	TimeBonusSeconds int
	Tiles            []string // rack for the current round after the call
}

// StartSoloRun creates a run with a fresh seed and a full clock.
func (e *SoloEngine) StartSoloRun(ownerID uint, durationSeconds int) (*models.SoloRun, error) {
	if durationSeconds < MinSoloDurationSeconds || durationSeconds > MaxSoloDurationSeconds {
		return nil, fmt.Errorf("%w: duration must be %d-%d seconds", ErrInvalidInput, MinSoloDurationSeconds, MaxSoloDurationSeconds)
	}

	run := models.SoloRun{
		OwnerID:         ownerID,
		Seed:            uuid.NewString(),
		DurationSeconds: durationSeconds,
		RemainingMs:     int64(durationSeconds) * 1000,
		Status:          models.SoloRunActive,
		LastEventAt:     e.Now(),
	}
	if err := e.db.Create(&run).Error; err != nil {
		return nil, fmt.Errorf("failed to create solo run: %w", err)
	}
	return &run, nil
}

// GetSoloRun returns the owner's run; reconnecting clients re-derive the
// current rack from (seed, roundIndex) after this read.
func (e *SoloEngine) GetSoloRun(runID, ownerID uint) (*models.SoloRun, error) {
	return e.loadOwnedRun(e.db, runID, ownerID)
}

// SubmitSoloWord validates a word against the current rack and applies the
// score and time bonus atomically. If the recomputed remaining time is
// already zero the run is finished and the word rejected, which closes the
// race where a client submits just as time expires.
func (e *SoloEngine) SubmitSoloWord(runID, ownerID uint, word string) (*SoloWordResult, error) {
	word = strings.ToUpper(strings.TrimSpace(word))

	var result *SoloWordResult
	err := e.db.Transaction(func(tx *gorm.DB) error {
		run, err := e.loadOwnedRun(tx, runID, ownerID)
		if err != nil {
			return err
		}
		if run.Status != models.SoloRunActive {
			return fmt.Errorf("%w: run already finished", ErrInvalidState)
		}

		now := e.Now()
		remainingBefore := remainingAt(run, now)
		if remainingBefore <= 0 {
			if err := e.finishRun(tx, run, now); err != nil {
				return err
			}
			result = &SoloWordResult{Run: run, Accepted: false, Reason: "time expired"}
			return nil
		}

		rack, err := e.gen.Generate(run.Seed, run.RoundIndex, tiles.DefaultCount)
		if err != nil {
			return fmt.Errorf("failed to derive tiles: %w", err)
		}

		accepted := scoring.ValidWordPattern.MatchString(word) &&
			e.dict.Contains(word) &&
			scoring.BuildableFrom(word, rack)

		updates := map[string]interface{}{
			"last_event_at": now,
			"remaining_ms":  remainingBefore,
		}
		result = &SoloWordResult{Run: run, Accepted: accepted, Tiles: rack}

		if accepted {
			wordScore := scoring.FinalScore(word)
			bonus := scoring.TimeBonusSeconds(word)
			remaining := remainingBefore + int64(bonus)*1000
			if remaining > MaxRemainingMs {
				remaining = MaxRemainingMs
			}
			updates["remaining_ms"] = remaining
			updates["score"] = run.Score + wordScore
			updates["round_index"] = run.RoundIndex + 1
			if wordScore > run.BestWordScore {
				updates["best_word"] = word
				updates["best_word_score"] = wordScore
			}
			result.WordScore = wordScore
			result.TimeBonusSeconds = bonus
		} else {
			result.Reason = "invalid word"
		}

		// Guard on (status, round_index) so a concurrent mutation of the
		// same run cannot interleave between our read and this write.
		res := tx.Model(&models.SoloRun{}).
			Where("id = ? AND status = ? AND round_index = ?", run.ID, models.SoloRunActive, run.RoundIndex).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update solo run: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: run was modified concurrently", ErrConflict)
		}

		return tx.First(run, run.ID).Error
	})
	if err != nil {
		return nil, err
	}

	if result.Accepted {
		// Rack for the round the player is now on.
		if next, err := e.gen.Generate(result.Run.Seed, result.Run.RoundIndex, tiles.DefaultCount); err == nil {
			result.Tiles = next
		}
	}
	return result, nil
}

// FinishSoloRun ends a run explicitly. Finishing an already-finished run is
// a no-op so a teardown retry never surfaces an error to the client.
func (e *SoloEngine) FinishSoloRun(runID, ownerID uint) (*models.SoloRun, error) {
	var run *models.SoloRun
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		run, err = e.loadOwnedRun(tx, runID, ownerID)
		if err != nil {
			return err
		}
		if run.Status == models.SoloRunFinished {
			return nil
		}
		return e.finishRun(tx, run, e.Now())
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// SubmitSoloToLeaderboard records the finished run on the leaderboard,
// exactly once. The unique run_id constraint catches a duplicate racing
// past the flag check; both paths surface the same conflict.
func (e *SoloEngine) SubmitSoloToLeaderboard(runID, ownerID uint, displayName string) (*models.LeaderboardEntry, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrInvalidInput)
	}

	var entry models.LeaderboardEntry
	err := e.db.Transaction(func(tx *gorm.DB) error {
		run, err := e.loadOwnedRun(tx, runID, ownerID)
		if err != nil {
			return err
		}
		if run.Status != models.SoloRunFinished {
			return fmt.Errorf("%w: run is not finished", ErrInvalidState)
		}
		if run.SubmittedToLeaderboard {
			return fmt.Errorf("%w: already submitted", ErrConflict)
		}

		res := tx.Model(&models.SoloRun{}).
			Where("id = ? AND submitted_to_leaderboard = ?", run.ID, false).
			Update("submitted_to_leaderboard", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: already submitted", ErrConflict)
		}

		entry = models.LeaderboardEntry{
			RunID:           run.ID,
			UserID:          run.OwnerID,
			DisplayName:     displayName,
			Score:           run.Score,
			BestWord:        run.BestWord,
			BestWordScore:   run.BestWordScore,
			DurationSeconds: run.DurationSeconds,
		}
		if err := tx.Create(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: already submitted", ErrConflict)
			}
			return fmt.Errorf("failed to create leaderboard entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e.leaderboard != nil {
		// Best-effort mirror; a redis hiccup must not fail the submission.
		if err := e.leaderboard.RecordSolo(entry); err != nil {
			e.log.WithError(err).WithField("run_id", entry.RunID).Warn("failed to mirror leaderboard entry to redis")
		}
	}
	return &entry, nil
}

// CurrentTiles derives the rack for the run's current round.
func (e *SoloEngine) CurrentTiles(run *models.SoloRun) ([]string, error) {
	return e.gen.Generate(run.Seed, run.RoundIndex, tiles.DefaultCount)
}

func (e *SoloEngine) loadOwnedRun(tx *gorm.DB, runID, ownerID uint) (*models.SoloRun, error) {
	var run models.SoloRun
	if err := tx.First(&run, runID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: run not found", ErrNotFound)
		}
		return nil, err
	}
	if run.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: not your run", ErrUnauthorized)
	}
	return &run, nil
}

func (e *SoloEngine) finishRun(tx *gorm.DB, run *models.SoloRun, now time.Time) error {
	remaining := remainingAt(run, now)
	if remaining < 0 {
		remaining = 0
	}
	res := tx.Model(&models.SoloRun{}).
		Where("id = ? AND status = ?", run.ID, models.SoloRunActive).
		Updates(map[string]interface{}{
			"status":        models.SoloRunFinished,
			"remaining_ms":  remaining,
			"last_event_at": now,
			"ended_at":      now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to finish solo run: %w", res.Error)
	}
	return tx.First(run, run.ID).Error
}

// remainingAt charges the wall-clock gap since the last authoritative
// event against the stored remaining time. Never negative, except that the
// raw value is used by callers to detect expiry (<= 0).
func remainingAt(run *models.SoloRun, now time.Time) int64 {
	elapsed := now.Sub(run.LastEventAt).Milliseconds()
	remaining := run.RemainingMs - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}
