package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carepulse/internal/service"
)

// SourceHandler implements health data connection endpoints
type SourceHandler struct {
	service *service.HealthSourceService
	logger  *zap.Logger
}

// NewSourceHandler creates a new SourceHandler
func NewSourceHandler(service *service.HealthSourceService, logger *zap.Logger) *SourceHandler {
	return &SourceHandler{
		service: service,
		logger:  logger,
	}
}

// List handles GET /api/v1/sources
func (h *SourceHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connections": h.service.Connections(),
		"active":      h.service.Active().ID,
	})
}

// Connect handles POST /api/v1/sources/:id/connect
func (h *SourceHandler) Connect(c *gin.Context) {
	sourceID := c.Param("id")

	conn, err := h.service.Connect(c.Request.Context(), c.GetString("user_id"), sourceID)
	if err != nil {
		if errors.Is(err, service.ErrConnectionFailed) {
			h.logger.Warn("source connection failed", zap.Error(err), zap.String("source_id", sourceID))
			c.JSON(http.StatusBadGateway, errorResponse("CONNECTION_FAILED", "Could not connect to the health data source", err))
			return
		}

		h.logger.Error("source connection failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to connect source", err))
		return
	}

	c.JSON(http.StatusOK, conn)
}

// Select handles POST /api/v1/sources/:id/select
func (h *SourceHandler) Select(c *gin.Context) {
	sourceID := c.Param("id")

	conn, err := h.service.Select(sourceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("CONNECTION_FAILED", "Source is not available for selection", err))
		return
	}

	c.JSON(http.StatusOK, conn)
}
