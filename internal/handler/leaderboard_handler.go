package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"wordrush/backend/internal/leaderboard"
)

// LeaderboardHandler reads ranks from the redis mirror.
type LeaderboardHandler struct {
	board *leaderboard.Leaderboard
	log   *logrus.Logger
}

func NewLeaderboardHandler(board *leaderboard.Leaderboard, log *logrus.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{board: board, log: log}
}

// region --- DTOs ---

type SoloRankResponse struct {
	RunID  uint  `json:"run_id"`
	Rank   int64 `json:"rank"`
	Ranked bool  `json:"ranked"`
}

// endregion

// GetSoloRank godoc
// @Summary      Get a solo run's leaderboard rank
// @Description  Returns the 1-based rank for a submitted run, best score first. ranked=false when the run was never submitted.
// @Tags         leaderboard
// @Produce      json
// @Security     BearerAuth
// @Param        runId path int true "Run ID"
// @Success      200  {object}  SoloRankResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /leaderboard/solo/rank/{runId} [get]
func (h *LeaderboardHandler) GetSoloRank(c *gin.Context) {
	runID, _ := strconv.Atoi(c.Param("runId"))

	if h.board == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Leaderboard is not configured"})
		return
	}

	rank, ranked, err := h.board.SoloRank(c.Request.Context(), uint(runID))
	if err != nil {
		h.log.WithError(err).Error("Leaderboard rank lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal error occurred"})
		return
	}
	c.JSON(http.StatusOK, SoloRankResponse{RunID: uint(runID), Rank: rank, Ranked: ranked})
}
