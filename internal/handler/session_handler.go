package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/pathtrack-backend-go/internal/service"
	"github.com/jengzang/pathtrack-backend-go/internal/session"
	"github.com/jengzang/pathtrack-backend-go/internal/tracking"
	"github.com/jengzang/pathtrack-backend-go/pkg/response"
)

// SessionHandler handles HTTP requests for tracking sessions
type SessionHandler struct {
	trackingService *service.TrackingService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(trackingService *service.TrackingService) *SessionHandler {
	return &SessionHandler{
		trackingService: trackingService,
	}
}

type startSessionRequest struct {
	Source string `json:"source"`
}

type ingestRequest struct {
	Fixes []fixRequest `json:"fixes"`
}

// StartSession handles POST /api/v1/sessions
func (h *SessionHandler) StartSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	// Body is optional
	var req startSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
	}

	state, err := h.trackingService.StartSession(userID, req.Source)
	if errors.Is(err, session.ErrSessionActive) {
		response.Conflict(c, "A tracking session is already active", state)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, state)
}

// GetSession handles GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	state, err := h.trackingService.GetState(userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, state)
}

// IngestFixes handles POST /api/v1/sessions/:id/fixes
func (h *SessionHandler) IngestFixes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	fixes := make([]tracking.LocationFix, len(req.Fixes))
	for i, f := range req.Fixes {
		fixes[i] = f.toFix()
	}

	outcomes, err := h.trackingService.ProcessFixes(userID, c.Param("id"), fixes)
	if err != nil {
		writeError(c, err)
		return
	}

	accepted := 0
	for _, o := range outcomes {
		if o.Accepted {
			accepted++
		}
	}

	response.Success(c, gin.H{
		"outcomes": outcomes,
		"accepted": accepted,
	})
}

// StopSession handles POST /api/v1/sessions/:id/stop
func (h *SessionHandler) StopSession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	summary, err := h.trackingService.StopSession(c.Request.Context(), userID, c.Param("id"))
	if err != nil && summary.SessionID != "" {
		// Stopped, but some paths could not be written yet
		response.ErrorWithData(c, 503, err.Error(), summary)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, summary)
}

// RetrySession handles POST /api/v1/sessions/:id/retry
func (h *SessionHandler) RetrySession(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	state, err := h.trackingService.RetrySession(c.Request.Context(), userID, c.Param("id"))
	if err != nil && state.ID != "" {
		response.ErrorWithData(c, 503, err.Error(), state)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, state)
}
