package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"wordrush/backend/internal/game"
	"wordrush/backend/internal/hub"
)

// EventsHandler serves the per-match SSE stream backed by the hub.
type EventsHandler struct {
	engine *game.MatchEngine
	hub    *hub.Hub
	log    *logrus.Logger
}

func NewEventsHandler(engine *game.MatchEngine, h *hub.Hub, log *logrus.Logger) *EventsHandler {
	return &EventsHandler{engine: engine, hub: h, log: log}
}

const keepaliveInterval = 15 * time.Second

// StreamMatchEvents godoc
// @Summary      Subscribe to match events
// @Description  Server-Sent Events stream of state-change hints for one match. Events are best-effort; clients re-fetch the match to reconcile.
// @Tags         matches
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        id path int true "Match ID"
// @Success      200 {string} string "SSE stream"
// @Failure      404 {object} ErrorResponse "Match not found"
// @Router       /matches/{id}/events [get]
func (h *EventsHandler) StreamMatchEvents(c *gin.Context) {
	matchID, _ := strconv.Atoi(c.Param("id"))

	if _, err := h.engine.GetMatch(uint(matchID)); err != nil {
		respondError(c, h.log, err)
		return
	}

	topic := hub.MatchTopic(uint(matchID))
	client := h.hub.Subscribe(topic)
	defer h.hub.Unsubscribe(topic, client)

	h.log.WithFields(logrus.Fields{
		"match_id": matchID,
		"user_id":  currentUserID(c),
	}).Debug("SSE client connected")

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no") // nginx
	c.Writer.WriteHeader(http.StatusOK)

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case message, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("message", string(message))
			return true
		case <-keepalive.C:
			// Comment line keeps intermediaries from closing an idle stream.
			w.Write([]byte(":\n\n"))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})

	h.log.WithField("match_id", matchID).Debug("SSE client disconnected")
}
