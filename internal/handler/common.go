package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"wordrush/backend/internal/game"
)

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// respondError maps engine errors onto HTTP statuses with their specific
// reason. Anything unexpected collapses to one generic message; the real
// cause is only logged server-side.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, game.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrInvalidState), errors.Is(err, game.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, game.ErrExpired):
		status = http.StatusGone
	}

	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("internal error")
		c.JSON(status, gin.H{"error": "Something went wrong"})
		return
	}
	c.JSON(status, gin.H{"error": reasonOf(err)})
}

// reasonOf strips the sentinel prefix so the client sees "already
// submitted" rather than "conflict: already submitted".
func reasonOf(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{
		game.ErrNotFound, game.ErrUnauthorized, game.ErrInvalidState,
		game.ErrInvalidInput, game.ErrConflict, game.ErrExpired,
	} {
		prefix := sentinel.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

func currentUserID(c *gin.Context) uint {
	userID, _ := c.Get("userID")
	id, _ := userID.(uint)
	return id
}

func currentDisplayName(c *gin.Context) string {
	name, _ := c.Get("displayName")
	s, _ := name.(string)
	return s
}
