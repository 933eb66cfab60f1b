package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carepulse/internal/notify"
)

// NotificationHandler implements toast delivery and permission endpoints
type NotificationHandler struct {
	toasts *notify.Center
	gate   *notify.Gate
	logger *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(toasts *notify.Center, gate *notify.Gate, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		toasts: toasts,
		gate:   gate,
		logger: logger,
	}
}

// Drain handles GET /api/v1/notifications. Returned toasts are
// removed from the backlog.
func (h *NotificationHandler) Drain(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"toasts": h.toasts.Drain()})
}

// Permission handles GET /api/v1/notifications/permission
func (h *NotificationHandler) Permission(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"permission": h.gate.Permission(),
		"supported":  h.gate.Supported(),
	})
}

// RequestPermission handles POST /api/v1/notifications/permission
func (h *NotificationHandler) RequestPermission(c *gin.Context) {
	result := h.gate.RequestPermission(c.Request.Context())
	h.logger.Info("notification permission requested", zap.String("result", string(result)))

	c.JSON(http.StatusOK, gin.H{"permission": result})
}
