package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/pathtrack-backend-go/internal/middleware"
	"github.com/jengzang/pathtrack-backend-go/internal/repository"
	"github.com/jengzang/pathtrack-backend-go/internal/service"
	"github.com/jengzang/pathtrack-backend-go/internal/session"
	"github.com/jengzang/pathtrack-backend-go/pkg/response"
)

// writeError maps service errors onto the response envelope
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		response.NotFound(c, "Session not found")
	case errors.Is(err, repository.ErrPathNotFound):
		response.NotFound(c, "Path not found")
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, err.Error())
	case errors.Is(err, session.ErrSessionStopped):
		response.Conflict(c, "Session already stopped", nil)
	default:
		response.InternalError(c, err.Error())
	}
}

// currentUser returns the authenticated user, answering 401 when there is none
func currentUser(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		response.Unauthorized(c, "Authentication required")
		return "", false
	}
	return userID, true
}
