package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"wordrush/backend/internal/game"
	"wordrush/backend/internal/models"
)

// MatchHandler exposes the match engine over HTTP.
type MatchHandler struct {
	engine *game.MatchEngine
	log    *logrus.Logger
}

func NewMatchHandler(engine *game.MatchEngine, log *logrus.Logger) *MatchHandler {
	return &MatchHandler{engine: engine, log: log}
}

// region --- DTOs ---

type CreateMatchInput struct {
	DurationSeconds int `json:"duration_seconds" binding:"required,min=30,max=600" example:"120"`
	MaxPlayers      int `json:"max_players" binding:"required,min=2,max=16" example:"8"`
}

type JoinMatchInput struct {
	Code string `json:"code" binding:"required" example:"KQ7M2X"`
}

type SetTeamInput struct {
	Team string `json:"team" binding:"required,oneof=A B" example:"B"`
}

type SetReadyInput struct {
	Ready *bool `json:"ready" binding:"required" example:"true"`
}

type MatchSettingsInput struct {
	DurationSeconds int `json:"duration_seconds" binding:"required,min=30,max=600" example:"180"`
	MaxPlayers      int `json:"max_players" binding:"required,min=2,max=16" example:"6"`
}

type MatchWordInput struct {
	RoundIndex *int   `json:"round_index" binding:"required" example:"0"`
	Word       string `json:"word" binding:"required" example:"HOUSE"`
}

type ParticipantResponse struct {
	UserID        uint      `json:"user_id"`
	DisplayName   string    `json:"display_name"`
	Team          string    `json:"team"`
	Score         int       `json:"score"`
	BestWord      string    `json:"best_word"`
	BestWordScore int       `json:"best_word_score"`
	RoundIndex    int       `json:"round_index"`
	IsReady       bool      `json:"is_ready"`
	IsActive      bool      `json:"is_active"`
	JoinedAt      time.Time `json:"joined_at"`
}

type MatchResponse struct {
	ID              uint                  `json:"id"`
	JoinCode        string                `json:"join_code"`
	HostID          uint                  `json:"host_id"`
	DurationSeconds int                   `json:"duration_seconds"`
	MaxPlayers      int                   `json:"max_players"`
	Seed            string                `json:"seed"`
	Status          string                `json:"status"`
	StartedAt       *time.Time            `json:"started_at,omitempty"`
	CanStart        bool                  `json:"can_start"`
	Tiles           []string              `json:"tiles,omitempty"`
	Participants    []ParticipantResponse `json:"participants"`
}

type StartMatchResponse struct {
	Started         bool          `json:"started"`
	CountdownEndsAt *time.Time    `json:"countdown_ends_at,omitempty"`
	Match           MatchResponse `json:"match"`
}

type MatchWordResponse struct {
	Accepted   bool     `json:"accepted"`
	Reason     string   `json:"reason,omitempty"`
	WordScore  int      `json:"word_score,omitempty"`
	Score      int      `json:"score"`
	RoundIndex int      `json:"round_index"`
	Tiles      []string `json:"tiles,omitempty"`
}

func (h *MatchHandler) newMatchResponse(match *models.Match, viewerID uint) MatchResponse {
	now := h.engine.Now()
	var participantResponses []ParticipantResponse
	for _, p := range match.Participants {
		participantResponses = append(participantResponses, ParticipantResponse{
			UserID:        p.UserID,
			DisplayName:   p.DisplayName,
			Team:          string(p.Team),
			Score:         p.Score,
			BestWord:      p.BestWord,
			BestWordScore: p.BestWordScore,
			RoundIndex:    p.RoundIndex,
			IsReady:       p.IsReady,
			IsActive:      p.ActiveWithin(h.engine.StalenessWindow, now),
			JoinedAt:      p.JoinedAt,
		})
	}

	resp := MatchResponse{
		ID:              match.ID,
		JoinCode:        match.JoinCode,
		HostID:          match.HostID,
		DurationSeconds: match.DurationSeconds,
		MaxPlayers:      match.MaxPlayers,
		Seed:            match.Seed,
		Status:          string(match.Status),
		StartedAt:       match.StartedAt,
		CanStart:        h.engine.CanStart(match.Participants, now),
		Participants:    participantResponses,
	}

	// The viewer's current rack while the match is running.
	if match.Status == models.MatchInProgress && viewerID != 0 {
		for i := range match.Participants {
			if match.Participants[i].UserID == viewerID {
				if tiles, err := h.engine.CurrentTiles(match, &match.Participants[i]); err == nil {
					resp.Tiles = tiles
				}
				break
			}
		}
	}
	return resp
}

// endregion

// CreateMatch godoc
// @Summary      Create a match lobby
// @Description  Creates a lobby with a fresh seed and a join code, making the creator the host.
// @Tags         matches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CreateMatchInput true "Match settings"
// @Success      201  {object}  MatchResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /matches [post]
func (h *MatchHandler) CreateMatch(c *gin.Context) {
	var input CreateMatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	match, err := h.engine.CreateMatch(currentUserID(c), currentDisplayName(c), input.DurationSeconds, input.MaxPlayers)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, h.newMatchResponse(match, currentUserID(c)))
}

// GetMatch godoc
// @Summary      Get a match
// @Description  Returns the authoritative match state; clients reconcile broadcast hints against this.
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Success      200  {object}  MatchResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /matches/{id} [get]
func (h *MatchHandler) GetMatch(c *gin.Context) {
	matchID, _ := strconv.Atoi(c.Param("id"))

	match, err := h.engine.GetMatch(uint(matchID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.newMatchResponse(match, currentUserID(c)))
}

// GetMatchByCode godoc
// @Summary      Look up a match by join code
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Join code"
// @Success      200  {object}  MatchResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /matches/code/{code} [get]
func (h *MatchHandler) GetMatchByCode(c *gin.Context) {
	match, err := h.engine.GetMatchByCode(c.Param("code"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.newMatchResponse(match, currentUserID(c)))
}

// JoinMatch godoc
// @Summary      Join a match by code
// @Description  Joins a lobby, or refreshes the caller's row on a rejoin. New players land on the emptier team.
// @Tags         matches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body JoinMatchInput true "Join code"
// @Success      200  {object}  MatchResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Match is full or already started"
// @Router       /matches/join [post]
func (h *MatchHandler) JoinMatch(c *gin.Context) {
	var input JoinMatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	match, err := h.engine.JoinMatch(input.Code, currentUserID(c), currentDisplayName(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.newMatchResponse(match, currentUserID(c)))
}

// LeaveMatch godoc
// @Summary      Leave a match
// @Description  Removes the caller's own participant row. Idempotent so the page-teardown beacon can retry it.
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Success      200 {object} map[string]string "{"message": "Left match"}"
// @Failure      404 {object} ErrorResponse "Match not found"
// @Router       /matches/{id}/leave [post]
func (h *MatchHandler) LeaveMatch(c *gin.Context) {
	matchID, _ := strconv.Atoi(c.Param("id"))

	if err := h.engine.LeaveMatch(uint(matchID), currentUserID(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Left match"})
}

// SetTeam godoc
// @Summary      Switch team
// @Description  Moves the caller to a team. Lobby only, own row only.
// @Tags         matches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int          true "Match ID"
// @Param        input body SetTeamInput true "Team"
// @Success      200 {object} map[string]string "{"message": "Team updated"}"
// @Failure      409 {object} ErrorResponse "Game already started"
// @Router       /matches/{id}/team [post]
func (h *MatchHandler) SetTeam(c *gin.Context) {
	matchID, _ := strconv.Atoi(c.Param("id"))

	var input SetTeamInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.SetTeam(uint(matchID), currentUserID(c), models.Team(input.Team)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Team updated"})
}

// SetReady godoc
// @Summary      Toggle ready
// @Tags         matches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int           true "Match ID"
// @Param        input body SetReadyInput true "Ready flag"
// @Success      200 {object} map[string]string "{"message": "Ready updated"}"
// @Failure      409 {object} ErrorResponse "Game already started"
// @Router       /matches/{id}/ready [post]
func (h *MatchHandler) SetReady(c *gin.Context) {
	matchID, _ := strconv.Atoi(c.Param("id"))

	var input SetReadyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.SetReady(uint(matchID), currentUserID(c), *input.Ready); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ready updated"})
}

// Heartbeat godoc
// @Summary      Presence heartbeat
// @Description  Stamps the caller's lastSeenAt. Clients call this roughly every 10 seconds.
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Success      200 {object} map[string]string "{"message": "ok"}"
// @Failure      404 {object} ErrorResponse "Not in this match"
// @Router       /matches/{id}/heartbeat [post]
func (h *MatchHandler) Heartbeat(c *gin.Context) {
	matchID, _ := strconv.Atoi(c.Param("id"))

	if err := h.engine.Heartbeat(uint(matchID), currentUserID(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// CleanupStale godoc
// @Summary      Prune stale participants
// @Description  Removes lobby participants whose heartbeat is older than the staleness window. Idempotent.
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Success      200 {object} map[string]int "{"removed": 1}"
// @Failure      404 {object} ErrorResponse "Match not found"
// @Router       /matches/{id}/cleanup [post]
func (h *MatchHandler) CleanupStale(c *gin.Context) {
	matchID, _ := strconv.Atoi(c.Param("id"))

	removed, err := h.engine.CleanupStaleParticipants(uint(matchID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// UpdateSettings godoc
// @Summary      Update match settings (Host only)
// @Tags         matches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int                true "Match ID"
// @Param        input body MatchSettingsInput true "New settings"
// @Success      200  {object}  MatchResponse
// @Failure      403  {object}  ErrorResponse "Only the host can change settings"
// @Failure      409  {object}  ErrorResponse "Game already started"
// @Router       /matches/{id}/settings [put]
func (h *MatchHandler) UpdateSettings(c *gin.Context) {
	matchID, _ := strconv.Atoi(c.Param("id"))

	var input MatchSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	match, err := h.engine.UpdateMatchSettings(uint(matchID), currentUserID(c), input.DurationSeconds, input.MaxPlayers)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.newMatchResponse(match, currentUserID(c)))
}

// StartMatch godoc
// @Summary      Start the match (Host only)
// @Description  First call broadcasts a synchronized countdown target; the call after the countdown flips the match to in_progress on the server's clock.
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Success      200  {object}  StartMatchResponse
// @Failure      403  {object}  ErrorResponse "Only the host can start the match"
// @Failure      409  {object}  ErrorResponse "Start preconditions not met"
// @Router       /matches/{id}/start [post]
func (h *MatchHandler) StartMatch(c *gin.Context) {
	matchID, _ := strconv.Atoi(c.Param("id"))

	result, err := h.engine.StartMatch(uint(matchID), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp := StartMatchResponse{
		Started: result.Started,
		Match:   h.newMatchResponse(result.Match, currentUserID(c)),
	}
	if !result.Started {
		t := result.CountdownEndsAt
		resp.CountdownEndsAt = &t
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitWord godoc
// @Summary      Submit a word for a round
// @Description  Validates against the rack for the named round and credits the score atomically. Resubmitting the same round is a conflict.
// @Tags         matches
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int            true "Match ID"
// @Param        input body MatchWordInput true "Word and round"
// @Success      200  {object}  MatchWordResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Word already recorded for this round"
// @Failure      410  {object}  ErrorResponse "Time is up"
// @Router       /matches/{id}/words [post]
func (h *MatchHandler) SubmitWord(c *gin.Context) {
	matchID, _ := strconv.Atoi(c.Param("id"))

	var input MatchWordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.SubmitMatchWord(uint(matchID), currentUserID(c), *input.RoundIndex, input.Word)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, MatchWordResponse{
		Accepted:   result.Accepted,
		Reason:     result.Reason,
		WordScore:  result.WordScore,
		Score:      result.Participant.Score,
		RoundIndex: result.Participant.RoundIndex,
		Tiles:      result.Tiles,
	})
}

// EndMatch godoc
// @Summary      End the match (Host only)
// @Description  Flips an in-progress match to finished. A second call is a no-op.
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Success      200  {object}  MatchResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /matches/{id}/end [post]
func (h *MatchHandler) EndMatch(c *gin.Context) {
	matchID, _ := strconv.Atoi(c.Param("id"))

	match, err := h.engine.GetMatch(uint(matchID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if match.HostID != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the host can end the match"})
		return
	}

	match, err = h.engine.EndMatch(uint(matchID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.newMatchResponse(match, currentUserID(c)))
}

// ResetMatch godoc
// @Summary      Reset the match to the lobby (Host only)
// @Description  Mints a new seed, zeroes all scores and ready flags, and returns to the lobby for a rematch.
// @Tags         matches
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Success      200  {object}  MatchResponse
// @Failure      403  {object}  ErrorResponse "Only the host can reset the match"
// @Failure      409  {object}  ErrorResponse "Already in the lobby"
// @Router       /matches/{id}/reset [post]
func (h *MatchHandler) ResetMatch(c *gin.Context) {
	matchID, _ := strconv.Atoi(c.Param("id"))

	match, err := h.engine.ResetMatchToLobby(uint(matchID), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.newMatchResponse(match, currentUserID(c)))
}
