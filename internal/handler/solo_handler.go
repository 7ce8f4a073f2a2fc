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

// SoloHandler exposes the solo run engine over HTTP.
type SoloHandler struct {
	engine *game.SoloEngine
	log    *logrus.Logger
}

func NewSoloHandler(engine *game.SoloEngine, log *logrus.Logger) *SoloHandler {
	return &SoloHandler{engine: engine, log: log}
}

// region --- DTOs ---

type StartSoloInput struct {
	DurationSeconds int `json:"duration_seconds" binding:"required,min=30,max=120" example:"60"`
}

type SoloWordInput struct {
	Word string `json:"word" binding:"required" example:"HOUSE"`
}

type LeaderboardSubmitInput struct {
	DisplayName string `json:"display_name" binding:"required" example:"Ada"`
}

type SoloRunResponse struct {
	ID                     uint       `json:"id"`
	Seed                   string     `json:"seed"`
	DurationSeconds        int        `json:"duration_seconds"`
	RemainingMs            int64      `json:"remaining_ms"`
	Score                  int        `json:"score"`
	BestWord               string     `json:"best_word"`
	BestWordScore          int        `json:"best_word_score"`
	RoundIndex             int        `json:"round_index"`
	Status                 string     `json:"status"`
	Tiles                  []string   `json:"tiles,omitempty"`
	EndedAt                *time.Time `json:"ended_at,omitempty"`
	SubmittedToLeaderboard bool       `json:"submitted_to_leaderboard"`
}

type SoloWordResponse struct {
	Accepted         bool            `json:"accepted"`
	Reason           string          `json:"reason,omitempty"`
	WordScore        int             `json:"word_score,omitempty"`
	TimeBonusSeconds int             `json:"time_bonus_seconds,omitempty"`
	Run              SoloRunResponse `json:"run"`
}

type LeaderboardEntryResponse struct {
	RunID         uint   `json:"run_id"`
	DisplayName   string `json:"display_name"`
	Score         int    `json:"score"`
	BestWord      string `json:"best_word"`
	BestWordScore int    `json:"best_word_score"`
}

func (h *SoloHandler) newSoloRunResponse(run *models.SoloRun, withTiles bool) SoloRunResponse {
	resp := SoloRunResponse{
		ID:                     run.ID,
		Seed:                   run.Seed,
		DurationSeconds:        run.DurationSeconds,
		RemainingMs:            run.RemainingMs,
		Score:                  run.Score,
		BestWord:               run.BestWord,
		BestWordScore:          run.BestWordScore,
		RoundIndex:             run.RoundIndex,
		Status:                 string(run.Status),
		EndedAt:                run.EndedAt,
		SubmittedToLeaderboard: run.SubmittedToLeaderboard,
	}
	if withTiles && run.Status == models.SoloRunActive {
		if tiles, err := h.engine.CurrentTiles(run); err == nil {
			resp.Tiles = tiles
		}
	}
	return resp
}

// endregion

// StartRun godoc
// @Summary      Start a solo run
// @Description  Creates a timed solo run with a fresh seed and returns the first rack.
// @Tags         solo
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body StartSoloInput true "Run settings"
// @Success      201  {object}  SoloRunResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /solo/runs [post]
func (h *SoloHandler) StartRun(c *gin.Context) {
	var input StartSoloInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := h.engine.StartSoloRun(currentUserID(c), input.DurationSeconds)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, h.newSoloRunResponse(run, true))
}

// GetRun godoc
// @Summary      Get a solo run
// @Description  Returns the authoritative run state; reconnecting clients derive the current rack from it.
// @Tags         solo
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Run ID"
// @Success      200  {object}  SoloRunResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /solo/runs/{id} [get]
func (h *SoloHandler) GetRun(c *gin.Context) {
	runID, _ := strconv.Atoi(c.Param("id"))

	run, err := h.engine.GetSoloRun(uint(runID), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.newSoloRunResponse(run, true))
}

// SubmitWord godoc
// @Summary      Submit a word
// @Description  Validates the word against the current rack; a valid word scores points and buys time.
// @Tags         solo
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int           true "Run ID"
// @Param        input body SoloWordInput true "Word"
// @Success      200  {object}  SoloWordResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Run already finished"
// @Router       /solo/runs/{id}/words [post]
func (h *SoloHandler) SubmitWord(c *gin.Context) {
	runID, _ := strconv.Atoi(c.Param("id"))

	var input SoloWordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.SubmitSoloWord(uint(runID), currentUserID(c), input.Word)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	resp := SoloWordResponse{
		Accepted:         result.Accepted,
		Reason:           result.Reason,
		WordScore:        result.WordScore,
		TimeBonusSeconds: result.TimeBonusSeconds,
		Run:              h.newSoloRunResponse(result.Run, false),
	}
	resp.Run.Tiles = result.Tiles
	c.JSON(http.StatusOK, resp)
}

// FinishRun godoc
// @Summary      Finish a solo run
// @Description  Ends the run explicitly. Finishing twice is a no-op.
// @Tags         solo
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Run ID"
// @Success      200  {object}  SoloRunResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /solo/runs/{id}/finish [post]
func (h *SoloHandler) FinishRun(c *gin.Context) {
	runID, _ := strconv.Atoi(c.Param("id"))

	run, err := h.engine.FinishSoloRun(uint(runID), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.newSoloRunResponse(run, false))
}

// SubmitToLeaderboard godoc
// @Summary      Submit a finished run to the leaderboard
// @Description  Allowed exactly once per run; a second call returns a conflict.
// @Tags         solo
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int                    true "Run ID"
// @Param        input body LeaderboardSubmitInput true "Display name"
// @Success      201  {object}  LeaderboardEntryResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Already submitted"
// @Router       /solo/runs/{id}/leaderboard [post]
func (h *SoloHandler) SubmitToLeaderboard(c *gin.Context) {
	runID, _ := strconv.Atoi(c.Param("id"))

	var input LeaderboardSubmitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.engine.SubmitSoloToLeaderboard(uint(runID), currentUserID(c), input.DisplayName)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, LeaderboardEntryResponse{
		RunID:         entry.RunID,
		DisplayName:   entry.DisplayName,
		Score:         entry.Score,
		BestWord:      entry.BestWord,
		BestWordScore: entry.BestWordScore,
	})
}
