package game

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"wordrush/backend/internal/dictionary"
	"wordrush/backend/internal/hub"
	"wordrush/backend/internal/models"
	"wordrush/backend/internal/scoring"
	"wordrush/backend/internal/tiles"
)

const (
	MinMatchDurationSeconds = 30
	MaxMatchDurationSeconds = 600
	MinMatchPlayers         = 2
	MaxMatchPlayers         = 16

	joinCodeLength   = 6
	joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// MatchEngine owns multiplayer sessions: lobby, countdown, play, finish.
// Every state mutation runs as one transaction and is pushed to the
// match's hub topic afterwards.
type MatchEngine struct {
	db   *gorm.DB
	dict *dictionary.Dictionary
	gen  *tiles.Generator
	hub  *hub.Hub
	log  *logrus.Logger

	// StalenessWindow is the max heartbeat gap before a participant is
	// considered disconnected. Countdown is the lobby-to-start delay.
	StalenessWindow time.Duration
	Countdown       time.Duration

	// Now is the engine clock; tests override it.
	Now func() time.Time

	// pendingStarts holds the countdown target per match between the
	// countdown broadcast and the authoritative flip. The countdown is
	// never persisted; a restart simply re-runs it.
	mu            sync.Mutex
	pendingStarts map[uint]time.Time
}

func NewMatchEngine(db *gorm.DB, dict *dictionary.Dictionary, gen *tiles.Generator, h *hub.Hub, log *logrus.Logger) *MatchEngine {
	return &MatchEngine{
		db:              db,
		dict:            dict,
		gen:             gen,
		hub:             h,
		log:             log,
		StalenessWindow: 60 * time.Second,
		Countdown:       5 * time.Second,
		Now:             time.Now,
		pendingStarts:   make(map[uint]time.Time),
	}
}

// CreateMatch creates a lobby with a fresh seed and joins the host to it.
func (e *MatchEngine) CreateMatch(hostID uint, displayName string, durationSeconds, maxPlayers int) (*models.Match, error) {
	if err := validateSettings(durationSeconds, maxPlayers); err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrInvalidInput)
	}

	now := e.Now()
	var match models.Match
	// Retry on the (unlikely) join-code collision instead of failing the
	// create outright.
	for attempt := 0; ; attempt++ {
		match = models.Match{
			JoinCode:        newJoinCode(),
			HostID:          hostID,
			DurationSeconds: durationSeconds,
			MaxPlayers:      maxPlayers,
			Seed:            uuid.NewString(),
			Status:          models.MatchLobby,
		}
		err := e.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&match).Error; err != nil {
				return err
			}
			host := models.Participant{
				MatchID:     match.ID,
				UserID:      hostID,
				DisplayName: displayName,
				Team:        models.TeamA,
				JoinedAt:    now,
				LastSeenAt:  now,
			}
			return tx.Create(&host).Error
		})
		if err == nil {
			return e.GetMatch(match.ID)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < 5 {
			continue
		}
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
}

// GetMatch returns the match with its participants, the authoritative
// state clients reconcile against after any broadcast hint.
func (e *MatchEngine) GetMatch(matchID uint) (*models.Match, error) {
	var match models.Match
	err := e.db.Preload("Participants", func(db *gorm.DB) *gorm.DB {
		return db.Order("joined_at ASC")
	}).First(&match, matchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: match not found", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// GetMatchByCode resolves a join code to its match.
func (e *MatchEngine) GetMatchByCode(code string) (*models.Match, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != joinCodeLength {
		return nil, fmt.Errorf("%w: invalid join code", ErrInvalidInput)
	}
	var match models.Match
	err := e.db.Where("join_code = ?", code).First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: match not found", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return e.GetMatch(match.ID)
}

// JoinMatch adds the caller to a lobby, or refreshes their existing row on
// a rejoin. New players land on whichever team has fewer active members.
func (e *MatchEngine) JoinMatch(code string, userID uint, displayName string) (*models.Match, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrInvalidInput)
	}
	match, err := e.GetMatchByCode(code)
	if err != nil {
		return nil, err
	}

	now := e.Now()
	err = e.db.Transaction(func(tx *gorm.DB) error {
		var fresh models.Match
		if err := tx.Preload("Participants").First(&fresh, match.ID).Error; err != nil {
			return err
		}
		if fresh.Status != models.MatchLobby {
			return fmt.Errorf("%w: game already started", ErrInvalidState)
		}

		for _, p := range fresh.Participants {
			if p.UserID == userID {
				// Rejoin: refresh presence, keep team and ready state.
				return tx.Model(&models.Participant{}).
					Where("id = ?", p.ID).
					Updates(map[string]interface{}{
						"display_name": displayName,
						"last_seen_at": now,
					}).Error
			}
		}

		if len(fresh.Participants) >= fresh.MaxPlayers {
			return fmt.Errorf("%w: match is full", ErrConflict)
		}

		activeA, activeB := 0, 0
		for _, p := range fresh.Participants {
			if !p.ActiveWithin(e.StalenessWindow, now) {
				continue
			}
			if p.Team == models.TeamA {
				activeA++
			} else {
				activeB++
			}
		}
		team := models.TeamA
		if activeB < activeA {
			team = models.TeamB
		}

		participant := models.Participant{
			MatchID:     fresh.ID,
			UserID:      userID,
			DisplayName: displayName,
			Team:        team,
			JoinedAt:    now,
			LastSeenAt:  now,
		}
		if err := tx.Create(&participant).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost a race against our own retry; fall back to the
				// rejoin path and refresh the row that won.
				return tx.Model(&models.Participant{}).
					Where("match_id = ? AND user_id = ?", fresh.ID, userID).
					Updates(map[string]interface{}{
						"display_name": displayName,
						"last_seen_at": now,
					}).Error
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.broadcast(match.ID, "participant_joined", map[string]interface{}{
		"user_id":      userID,
		"display_name": displayName,
	})
	return e.GetMatch(match.ID)
}

// LeaveMatch removes the caller's own participant row. It is idempotent so
// the page-teardown beacon can fire it without caring about duplicates.
func (e *MatchEngine) LeaveMatch(matchID, userID uint) error {
	var left bool
	var newHostID uint
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var match models.Match
		if err := tx.Preload("Participants").First(&match, matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: match not found", ErrNotFound)
			}
			return err
		}

		// Hard delete: a soft-deleted row would still hold the
		// (match_id, user_id) unique key and block a later rejoin.
		res := tx.Unscoped().Where("match_id = ? AND user_id = ?", matchID, userID).Delete(&models.Participant{})
		if res.Error != nil {
			return res.Error
		}
		left = res.RowsAffected > 0
		if !left {
			return nil
		}

		// Host migration: hand the lobby to the earliest remaining player.
		if match.HostID == userID {
			var next models.Participant
			err := tx.Where("match_id = ? AND user_id <> ?", matchID, userID).
				Order("joined_at ASC").First(&next).Error
			if err == nil {
				newHostID = next.UserID
				return tx.Model(&models.Match{}).Where("id = ?", matchID).
					Update("host_id", next.UserID).Error
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			// Last player gone: the match ages out via pruning and the
			// duration sweep, never an active teardown.
		}
		return nil
	})
	if err != nil {
		return err
	}

	if left {
		payload := map[string]interface{}{"user_id": userID}
		if newHostID != 0 {
			payload["new_host_id"] = newHostID
		}
		e.broadcast(matchID, "participant_left", payload)
	}
	return nil
}

// SetTeam moves the caller to a team. Lobby only, own row only.
func (e *MatchEngine) SetTeam(matchID, userID uint, team models.Team) error {
	if team != models.TeamA && team != models.TeamB {
		return fmt.Errorf("%w: unknown team", ErrInvalidInput)
	}
	if err := e.updateOwnRow(matchID, userID, map[string]interface{}{"team": team}); err != nil {
		return err
	}
	e.broadcast(matchID, "team_changed", map[string]interface{}{"user_id": userID, "team": team})
	return nil
}

// SetReady toggles the caller's ready flag. Lobby only, own row only.
func (e *MatchEngine) SetReady(matchID, userID uint, ready bool) error {
	if err := e.updateOwnRow(matchID, userID, map[string]interface{}{"is_ready": ready}); err != nil {
		return err
	}
	e.broadcast(matchID, "ready_changed", map[string]interface{}{"user_id": userID, "is_ready": ready})
	return nil
}

// Heartbeat stamps the caller's presence. Allowed in any status.
func (e *MatchEngine) Heartbeat(matchID, userID uint) error {
	res := e.db.Model(&models.Participant{}).
		Where("match_id = ? AND user_id = ?", matchID, userID).
		Update("last_seen_at", e.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: not in this match", ErrNotFound)
	}
	return nil
}

// CleanupStaleParticipants prunes lobby participants whose heartbeat is
// older than the staleness window, so abandoned tabs cannot block start
// conditions. Idempotent; in-progress rows are never pruned (their scores
// are part of the result).
func (e *MatchEngine) CleanupStaleParticipants(matchID uint) (int, error) {
	now := e.Now()
	cutoff := now.Add(-e.StalenessWindow)

	var removed []models.Participant
	var newHostID uint
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var match models.Match
		if err := tx.First(&match, matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: match not found", ErrNotFound)
			}
			return err
		}
		if match.Status != models.MatchLobby {
			return nil
		}

		if err := tx.Where("match_id = ? AND last_seen_at < ?", matchID, cutoff).
			Find(&removed).Error; err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}
		// Hard delete, same as LeaveMatch: the unique key must be freed
		// so a pruned player can rejoin.
		if err := tx.Unscoped().Where("match_id = ? AND last_seen_at < ?", matchID, cutoff).
			Delete(&models.Participant{}).Error; err != nil {
			return err
		}

		for _, p := range removed {
			if p.UserID != match.HostID {
				continue
			}
			var next models.Participant
			err := tx.Where("match_id = ?", matchID).Order("joined_at ASC").First(&next).Error
			if err == nil {
				newHostID = next.UserID
				return tx.Model(&models.Match{}).Where("id = ?", matchID).
					Update("host_id", next.UserID).Error
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if len(removed) > 0 {
		ids := make([]uint, 0, len(removed))
		for _, p := range removed {
			ids = append(ids, p.UserID)
		}
		payload := map[string]interface{}{"user_ids": ids}
		if newHostID != 0 {
			payload["new_host_id"] = newHostID
		}
		e.broadcast(matchID, "participants_pruned", payload)
	}
	return len(removed), nil
}

// UpdateMatchSettings changes duration and capacity. Host only, lobby only.
func (e *MatchEngine) UpdateMatchSettings(matchID, callerID uint, durationSeconds, maxPlayers int) (*models.Match, error) {
	if err := validateSettings(durationSeconds, maxPlayers); err != nil {
		return nil, err
	}
	err := e.db.Transaction(func(tx *gorm.DB) error {
		match, err := e.loadHostedLobby(tx, matchID, callerID)
		if err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.Participant{}).Where("match_id = ?", matchID).Count(&count).Error; err != nil {
			return err
		}
		if int(count) > maxPlayers {
			return fmt.Errorf("%w: %d players already joined", ErrInvalidInput, count)
		}
		return tx.Model(&models.Match{}).
			Where("id = ? AND status = ?", match.ID, models.MatchLobby).
			Updates(map[string]interface{}{
				"duration_seconds": durationSeconds,
				"max_players":      maxPlayers,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	e.broadcast(matchID, "settings_updated", map[string]interface{}{
		"duration_seconds": durationSeconds,
		"max_players":      maxPlayers,
	})
	return e.GetMatch(matchID)
}

// StartResult reports where the start handshake stands. The first
// successful call broadcasts a shared countdown target; the call after the
// target elapses flips the match to in_progress on the server's clock.
type StartResult struct {
	Match           *models.Match
	Started         bool
	CountdownEndsAt time.Time
}

// StartMatch runs the two-phase start. Calling again while the countdown
// is still running returns the same target, so a retried request never
// restarts the countdown.
func (e *MatchEngine) StartMatch(matchID, callerID uint) (*StartResult, error) {
	now := e.Now()

	match, err := e.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	if match.HostID != callerID {
		return nil, fmt.Errorf("%w: only the host can start the match", ErrUnauthorized)
	}
	if match.Status != models.MatchLobby {
		return nil, fmt.Errorf("%w: game already started", ErrInvalidState)
	}
	if reason := e.startBlocker(match.Participants, now); reason != "" {
		e.clearPendingStart(matchID)
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, reason)
	}

	e.mu.Lock()
	target, pending := e.pendingStarts[matchID]
	if !pending {
		target = now.Add(e.Countdown)
		e.pendingStarts[matchID] = target
	}
	e.mu.Unlock()

	if !pending {
		e.broadcast(matchID, "countdown_started", map[string]interface{}{
			"starts_at": target.UTC(),
		})
	}
	if now.Before(target) {
		return &StartResult{Match: match, Started: false, CountdownEndsAt: target}, nil
	}

	// Countdown elapsed: authoritative flip, stamped with the server's own
	// clock so every participant computes time remaining from one instant.
	startedAt := e.Now()
	res := e.db.Model(&models.Match{}).
		Where("id = ? AND status = ?", matchID, models.MatchLobby).
		Updates(map[string]interface{}{
			"status":     models.MatchInProgress,
			"started_at": startedAt,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	e.clearPendingStart(matchID)
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: game already started", ErrInvalidState)
	}

	e.broadcast(matchID, "match_started", map[string]interface{}{
		"started_at":       startedAt.UTC(),
		"duration_seconds": match.DurationSeconds,
	})

	match, err = e.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	return &StartResult{Match: match, Started: true}, nil
}

// MatchWordResult reports the outcome of one multiplayer submission.
type MatchWordResult struct {
	Participant *models.Participant
	Accepted    bool
	Reason      string
	WordScore   int
	Tiles       []string // rack for the participant's next round when accepted
}

// SubmitMatchWord validates and credits a word for one participant's
// round. The client names the round it was playing; the submissions
// unique index makes a retried call land on "already recorded" instead of
// double credit. No time bonus in multiplayer.
func (e *MatchEngine) SubmitMatchWord(matchID, userID uint, roundIndex int, word string) (*MatchWordResult, error) {
	word = strings.ToUpper(strings.TrimSpace(word))
	now := e.Now()

	var result *MatchWordResult
	var seed string
	var expired bool
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var match models.Match
		if err := tx.First(&match, matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: match not found", ErrNotFound)
			}
			return err
		}
		seed = match.Seed
		if match.Status != models.MatchInProgress {
			return fmt.Errorf("%w: match is not in progress", ErrInvalidState)
		}
		if match.StartedAt == nil || !now.Before(match.StartedAt.Add(time.Duration(match.DurationSeconds)*time.Second)) {
			// Authoritative duration elapsed; finish outside this
			// transaction so the flip commits, and reject the word.
			expired = true
			return nil
		}

		var participant models.Participant
		err := tx.Where("match_id = ? AND user_id = ?", matchID, userID).First(&participant).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: not in this match", ErrNotFound)
		}
		if err != nil {
			return err
		}

		if roundIndex < participant.RoundIndex {
			return fmt.Errorf("%w: word already recorded for this round", ErrConflict)
		}
		if roundIndex > participant.RoundIndex {
			return fmt.Errorf("%w: round %d not reached", ErrInvalidInput, roundIndex)
		}

		rack, err := e.gen.Generate(match.Seed, roundIndex, tiles.DefaultCount)
		if err != nil {
			return fmt.Errorf("failed to derive tiles: %w", err)
		}

		if !scoring.ValidWordPattern.MatchString(word) || !e.dict.Contains(word) || !scoring.BuildableFrom(word, rack) {
			result = &MatchWordResult{Participant: &participant, Accepted: false, Reason: "invalid word", Tiles: rack}
			return nil
		}

		wordScore := scoring.FinalScore(word)
		submission := models.Submission{
			MatchID:    matchID,
			UserID:     userID,
			RoundIndex: roundIndex,
			Word:       word,
			Score:      wordScore,
		}
		if err := tx.Create(&submission).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: word already recorded for this round", ErrConflict)
			}
			return fmt.Errorf("failed to record submission: %w", err)
		}

		updates := map[string]interface{}{
			"score":        participant.Score + wordScore,
			"round_index":  roundIndex + 1,
			"last_seen_at": now,
		}
		if wordScore > participant.BestWordScore {
			updates["best_word"] = word
			updates["best_word_score"] = wordScore
		}
		res := tx.Model(&models.Participant{}).
			Where("id = ? AND round_index = ?", participant.ID, roundIndex).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: word already recorded for this round", ErrConflict)
		}

		if err := tx.Where("id = ?", participant.ID).First(&participant).Error; err != nil {
			return err
		}
		result = &MatchWordResult{Participant: &participant, Accepted: true, WordScore: wordScore}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired {
		if _, endErr := e.EndMatch(matchID); endErr != nil {
			e.log.WithError(endErr).WithField("match_id", matchID).Warn("failed to end expired match")
		}
		return nil, fmt.Errorf("%w: time is up", ErrExpired)
	}

	if result.Accepted {
		p := result.Participant
		e.broadcast(matchID, "score_update", map[string]interface{}{
			"user_id":         p.UserID,
			"score":           p.Score,
			"round_index":     p.RoundIndex,
			"word":            word,
			"word_score":      result.WordScore,
			"best_word":       p.BestWord,
			"best_word_score": p.BestWordScore,
		})
		if next, err := e.gen.Generate(seed, p.RoundIndex, tiles.DefaultCount); err == nil {
			result.Tiles = next
		}
	}
	return result, nil
}

// EndMatch flips an in-progress match to finished. A second call is a
// no-op, not an error, so the duration sweep and an explicit host end can
// race safely.
func (e *MatchEngine) EndMatch(matchID uint) (*models.Match, error) {
	match, err := e.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchFinished {
		return match, nil
	}
	if match.Status != models.MatchInProgress {
		return nil, fmt.Errorf("%w: match has not started", ErrInvalidState)
	}

	res := e.db.Model(&models.Match{}).
		Where("id = ? AND status = ?", matchID, models.MatchInProgress).
		Update("status", models.MatchFinished)
	if res.Error != nil {
		return nil, res.Error
	}
	e.clearPendingStart(matchID)
	if res.RowsAffected > 0 {
		e.broadcast(matchID, "match_ended", map[string]interface{}{"match_id": matchID})
	}
	return e.GetMatch(matchID)
}

// ResetMatchToLobby is the host's rematch escape hatch: new seed, back to
// lobby, all scores and ready flags zeroed, old submissions cleared so the
// new rounds start from a clean idempotency space.
func (e *MatchEngine) ResetMatchToLobby(matchID, callerID uint) (*models.Match, error) {
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var match models.Match
		if err := tx.First(&match, matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: match not found", ErrNotFound)
			}
			return err
		}
		if match.HostID != callerID {
			return fmt.Errorf("%w: only the host can reset the match", ErrUnauthorized)
		}
		if match.Status == models.MatchLobby {
			return fmt.Errorf("%w: match is already in the lobby", ErrInvalidState)
		}

		if err := tx.Model(&models.Match{}).
			Where("id = ? AND status = ?", matchID, match.Status).
			Updates(map[string]interface{}{
				"status":     models.MatchLobby,
				"seed":       uuid.NewString(),
				"started_at": nil,
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Participant{}).
			Where("match_id = ?", matchID).
			Updates(map[string]interface{}{
				"score":           0,
				"best_word":       "",
				"best_word_score": 0,
				"round_index":     0,
				"is_ready":        false,
			}).Error; err != nil {
			return err
		}
		// Hard delete: soft-deleted submissions would still occupy the
		// (match_id, user_id, round_index) unique key and reject round 0
		// of the rematch.
		return tx.Unscoped().Where("match_id = ?", matchID).Delete(&models.Submission{}).Error
	})
	if err != nil {
		return nil, err
	}

	e.clearPendingStart(matchID)
	e.broadcast(matchID, "match_reset", map[string]interface{}{"match_id": matchID})
	return e.GetMatch(matchID)
}

// SweepExpired ends every in-progress match whose duration has elapsed.
// Called periodically by the cleanup worker; failures are logged per match
// and never abort the sweep.
func (e *MatchEngine) SweepExpired() int {
	now := e.Now()
	var matches []models.Match
	if err := e.db.Where("status = ? AND started_at IS NOT NULL", models.MatchInProgress).
		Find(&matches).Error; err != nil {
		e.log.WithError(err).Warn("expired match sweep query failed")
		return 0
	}

	ended := 0
	for _, m := range matches {
		if now.Before(m.StartedAt.Add(time.Duration(m.DurationSeconds) * time.Second)) {
			continue
		}
		if _, err := e.EndMatch(m.ID); err != nil {
			e.log.WithError(err).WithField("match_id", m.ID).Warn("failed to end expired match")
			continue
		}
		ended++
	}
	return ended
}

// LobbyMatchIDs lists matches currently in the lobby, for the stale
// participant sweep.
func (e *MatchEngine) LobbyMatchIDs() ([]uint, error) {
	var ids []uint
	err := e.db.Model(&models.Match{}).
		Where("status = ?", models.MatchLobby).
		Pluck("id", &ids).Error
	return ids, err
}

// CanStart reports whether the lobby meets the start preconditions at now:
// at least two active participants, at least one on each team, and every
// active participant ready.
func (e *MatchEngine) CanStart(participants []models.Participant, now time.Time) bool {
	return e.startBlocker(participants, now) == ""
}

// startBlocker returns the specific unmet precondition, or "" when the
// match can start.
func (e *MatchEngine) startBlocker(participants []models.Participant, now time.Time) string {
	active, activeA, activeB := 0, 0, 0
	allReady := true
	for _, p := range participants {
		if !p.ActiveWithin(e.StalenessWindow, now) {
			continue
		}
		active++
		if p.Team == models.TeamA {
			activeA++
		} else {
			activeB++
		}
		if !p.IsReady {
			allReady = false
		}
	}
	if active < MinMatchPlayers {
		return "need at least 2 connected players"
	}
	if activeA == 0 || activeB == 0 {
		return "both teams need a player"
	}
	if !allReady {
		return "all players must be ready"
	}
	return ""
}

// CurrentTiles derives the rack a participant plays this round.
func (e *MatchEngine) CurrentTiles(match *models.Match, participant *models.Participant) ([]string, error) {
	return e.gen.Generate(match.Seed, participant.RoundIndex, tiles.DefaultCount)
}

func (e *MatchEngine) updateOwnRow(matchID, userID uint, updates map[string]interface{}) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		var match models.Match
		if err := tx.First(&match, matchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: match not found", ErrNotFound)
			}
			return err
		}
		if match.Status != models.MatchLobby {
			return fmt.Errorf("%w: game already started", ErrInvalidState)
		}
		updates["last_seen_at"] = e.Now()
		res := tx.Model(&models.Participant{}).
			Where("match_id = ? AND user_id = ?", matchID, userID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: not in this match", ErrNotFound)
		}
		return nil
	})
}

func (e *MatchEngine) loadHostedLobby(tx *gorm.DB, matchID, callerID uint) (*models.Match, error) {
	var match models.Match
	if err := tx.First(&match, matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: match not found", ErrNotFound)
		}
		return nil, err
	}
	if match.HostID != callerID {
		return nil, fmt.Errorf("%w: only the host can change settings", ErrUnauthorized)
	}
	if match.Status != models.MatchLobby {
		return nil, fmt.Errorf("%w: game already started", ErrInvalidState)
	}
	return &match, nil
}

func (e *MatchEngine) broadcast(matchID uint, eventType string, payload interface{}) {
	e.hub.Broadcast(hub.MatchTopic(matchID), hub.Event{Type: eventType, Payload: payload})
}

func (e *MatchEngine) clearPendingStart(matchID uint) {
	e.mu.Lock()
	delete(e.pendingStarts, matchID)
	e.mu.Unlock()
}

func validateSettings(durationSeconds, maxPlayers int) error {
	if durationSeconds < MinMatchDurationSeconds || durationSeconds > MaxMatchDurationSeconds {
		return fmt.Errorf("%w: duration must be %d-%d seconds", ErrInvalidInput, MinMatchDurationSeconds, MaxMatchDurationSeconds)
	}
	if maxPlayers < MinMatchPlayers || maxPlayers > MaxMatchPlayers {
		return fmt.Errorf("%w: max players must be %d-%d", ErrInvalidInput, MinMatchPlayers, MaxMatchPlayers)
	}
	return nil
}

func newJoinCode() string {
	buf := make([]byte, joinCodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is unrecoverable for code generation.
		panic(fmt.Sprintf("join code generation: %v", err))
	}
	code := make([]byte, joinCodeLength)
	for i, b := range buf {
		code[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(code)
}
