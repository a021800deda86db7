package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/pathtrack-backend-go/internal/models"
	"github.com/jengzang/pathtrack-backend-go/internal/service"
	"github.com/jengzang/pathtrack-backend-go/pkg/response"
)

// PathHandler handles HTTP requests for stored paths
type PathHandler struct {
	pathService *service.PathService
}

// NewPathHandler creates a new path handler
func NewPathHandler(pathService *service.PathService) *PathHandler {
	return &PathHandler{
		pathService: pathService,
	}
}

// GetPaths handles GET /api/v1/paths
func (h *PathHandler) GetPaths(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var filter models.PathFilter

	// Parse query parameters
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	filter.UserID = userID

	result, err := h.pathService.GetPaths(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// GetPath handles GET /api/v1/paths/:id
func (h *PathHandler) GetPath(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	simplify, err := strconv.ParseFloat(c.DefaultQuery("simplify", "0"), 64)
	if err != nil {
		response.BadRequest(c, "Invalid simplify parameter")
		return
	}

	path, err := h.pathService.GetPath(c.Request.Context(), userID, c.Param("id"), simplify)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, path)
}

// DeletePath handles DELETE /api/v1/paths/:id
func (h *PathHandler) DeletePath(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.pathService.DeletePath(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"id": c.Param("id")})
}
