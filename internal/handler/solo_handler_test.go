package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wordrush/backend/internal/dictionary"
	"wordrush/backend/internal/game"
	"wordrush/backend/internal/models"
	"wordrush/backend/internal/tiles"
)

var handlerDBCounter int64

func newHandlerTestEngine(t *testing.T) *game.SoloEngine {
	t.Helper()
	n := atomic.AddInt64(&handlerDBCounter, 1)
	dsn := fmt.Sprintf("file:handlertest%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.SoloRun{},
		&models.Match{},
		&models.Participant{},
		&models.Submission{},
		&models.LeaderboardEntry{},
	))

	dict := dictionary.New([]string{
		"CAT", "DOG", "EAT", "TEA", "ATE", "RAT", "NOTE", "TONE", "HOUSE", "PLANET",
	})
	log := logrus.New()
	log.SetOutput(io.Discard)
	return game.NewSoloEngine(db, dict, tiles.NewGenerator(dict), nil, log)
}

// identityAs stubs the auth middleware so handler tests can pick a caller.
func identityAs(userID uint, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("displayName", name)
		c.Next()
	}
}

func newSoloTestRouter(t *testing.T, userID uint) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := NewSoloHandler(newHandlerTestEngine(t), log)

	router := gin.New()
	runs := router.Group("/solo/runs")
	runs.Use(identityAs(userID, "tester"))
	{
		runs.POST("", h.StartRun)
		runs.GET("/:id", h.GetRun)
		runs.POST("/:id/words", h.SubmitWord)
		runs.POST("/:id/finish", h.FinishRun)
		runs.POST("/:id/leaderboard", h.SubmitToLeaderboard)
	}
	return router
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStartRunEndpoint(t *testing.T) {
	router := newSoloTestRouter(t, 1)

	w := doJSON(router, http.MethodPost, "/solo/runs", `{"duration_seconds": 60}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp SoloRunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotZero(t, resp.ID)
	assert.NotEmpty(t, resp.Seed)
	assert.Equal(t, int64(60_000), resp.RemainingMs)
	assert.Len(t, resp.Tiles, tiles.DefaultCount)
	assert.Equal(t, "active", resp.Status)
}

func TestStartRunEndpointRejectsBadDuration(t *testing.T) {
	router := newSoloTestRouter(t, 1)

	w := doJSON(router, http.MethodPost, "/solo/runs", `{"duration_seconds": 5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRunEndpointHidesOtherUsersRuns(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)
	engine := newHandlerTestEngine(t)
	h := NewSoloHandler(engine, log)

	run, err := engine.StartSoloRun(1, 60)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/solo/runs/:id", identityAs(2, "intruder"), h.GetRun)

	w := doJSON(router, http.MethodGet, fmt.Sprintf("/solo/runs/%d", run.ID), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "not your run")
}

func TestGetRunEndpointNotFound(t *testing.T) {
	router := newSoloTestRouter(t, 1)

	w := doJSON(router, http.MethodGet, "/solo/runs/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitWordEndpointRejectsEmptyBody(t *testing.T) {
	router := newSoloTestRouter(t, 1)

	w := doJSON(router, http.MethodPost, "/solo/runs/1/words", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFinishAndLeaderboardEndpoints(t *testing.T) {
	router := newSoloTestRouter(t, 1)

	w := doJSON(router, http.MethodPost, "/solo/runs", `{"duration_seconds": 60}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var run SoloRunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))

	path := fmt.Sprintf("/solo/runs/%d", run.ID)

	w = doJSON(router, http.MethodPost, path+"/finish", "")
	require.Equal(t, http.StatusOK, w.Code)
	var finished SoloRunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &finished))
	assert.Equal(t, "finished", finished.Status)

	w = doJSON(router, http.MethodPost, path+"/leaderboard", `{"display_name": "Ada"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var entry LeaderboardEntryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, run.ID, entry.RunID)
	assert.Equal(t, "Ada", entry.DisplayName)

	// Submitting the same run twice is a conflict.
	w = doJSON(router, http.MethodPost, path+"/leaderboard", `{"display_name": "Ada"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubmitWordEndpointOnFinishedRun(t *testing.T) {
	router := newSoloTestRouter(t, 1)

	w := doJSON(router, http.MethodPost, "/solo/runs", `{"duration_seconds": 60}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var run SoloRunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))

	path := fmt.Sprintf("/solo/runs/%d", run.ID)
	w = doJSON(router, http.MethodPost, path+"/finish", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, path+"/words", `{"word": "CAT"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}
