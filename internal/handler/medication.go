package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carepulse/internal/service"
	"carepulse/pkg/model"
)

// MedicationHandler implements medication and alarm endpoints
type MedicationHandler struct {
	service *service.MedicationService
	logger  *zap.Logger
}

// NewMedicationHandler creates a new MedicationHandler
func NewMedicationHandler(service *service.MedicationService, logger *zap.Logger) *MedicationHandler {
	return &MedicationHandler{
		service: service,
		logger:  logger,
	}
}

// SetAlarmTimeRequest carries a new time for one alarm
type SetAlarmTimeRequest struct {
	Time string `json:"time" binding:"required"`
}

// List handles GET /api/v1/medications
func (h *MedicationHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"medications": h.service.List()})
}

// Add handles POST /api/v1/medications
func (h *MedicationHandler) Add(c *gin.Context) {
	med, err := h.service.AddMedication(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		h.logger.Error("failed to add medication", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to add medication", err))
		return
	}

	c.JSON(http.StatusCreated, med)
}

// Edit handles PATCH /api/v1/medications/:id
func (h *MedicationHandler) Edit(c *gin.Context) {
	medicationID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var patch model.MedicationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "Invalid request body", err))
		return
	}

	med, err := h.service.EditMedication(c.Request.Context(), c.GetString("user_id"), medicationID, patch)
	if err != nil {
		h.respondServiceError(c, err, "Failed to update medication")
		return
	}

	c.JSON(http.StatusOK, med)
}

// Delete handles DELETE /api/v1/medications/:id
func (h *MedicationHandler) Delete(c *gin.Context) {
	medicationID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteMedication(c.Request.Context(), c.GetString("user_id"), medicationID); err != nil {
		h.respondServiceError(c, err, "Failed to delete medication")
		return
	}

	c.Status(http.StatusNoContent)
}

// ToggleTaken handles POST /api/v1/medications/:id/toggle
func (h *MedicationHandler) ToggleTaken(c *gin.Context) {
	medicationID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	med, err := h.service.ToggleTaken(c.Request.Context(), c.GetString("user_id"), medicationID)
	if err != nil {
		h.respondServiceError(c, err, "Failed to toggle medication")
		return
	}

	c.JSON(http.StatusOK, med)
}

// AddAlarm handles POST /api/v1/medications/:id/alarms
func (h *MedicationHandler) AddAlarm(c *gin.Context) {
	medicationID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	alarm, err := h.service.AddAlarm(c.Request.Context(), c.GetString("user_id"), medicationID)
	if err != nil {
		h.respondServiceError(c, err, "Failed to add alarm")
		return
	}

	c.JSON(http.StatusCreated, alarm)
}

// SetAlarmTime handles PATCH /api/v1/medications/:id/alarms/:alarmID
func (h *MedicationHandler) SetAlarmTime(c *gin.Context) {
	medicationID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	alarmID, ok := h.pathID(c, "alarmID")
	if !ok {
		return
	}

	var req SetAlarmTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "Invalid request body", err))
		return
	}

	alarm, err := h.service.SetAlarmTime(c.Request.Context(), c.GetString("user_id"), medicationID, alarmID, req.Time)
	if err != nil {
		h.respondServiceError(c, err, "Failed to set alarm time")
		return
	}

	c.JSON(http.StatusOK, alarm)
}

// ToggleAlarm handles POST /api/v1/medications/:id/alarms/:alarmID/toggle
func (h *MedicationHandler) ToggleAlarm(c *gin.Context) {
	medicationID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	alarmID, ok := h.pathID(c, "alarmID")
	if !ok {
		return
	}

	alarm, err := h.service.ToggleAlarm(c.Request.Context(), c.GetString("user_id"), medicationID, alarmID)
	if err != nil {
		h.respondServiceError(c, err, "Failed to toggle alarm")
		return
	}

	c.JSON(http.StatusOK, alarm)
}

// RemoveAlarm handles DELETE /api/v1/medications/:id/alarms/:alarmID
func (h *MedicationHandler) RemoveAlarm(c *gin.Context) {
	medicationID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	alarmID, ok := h.pathID(c, "alarmID")
	if !ok {
		return
	}

	if err := h.service.RemoveAlarm(c.Request.Context(), c.GetString("user_id"), medicationID, alarmID); err != nil {
		h.respondServiceError(c, err, "Failed to remove alarm")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *MedicationHandler) pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "Invalid id in path", err))
		return 0, false
	}

	return id, true
}

func (h *MedicationHandler) respondServiceError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, service.ErrMedicationNotFound), errors.Is(err, service.ErrAlarmNotFound):
		c.JSON(http.StatusNotFound, errorResponse("NOT_FOUND", err.Error(), nil))
	case errors.Is(err, service.ErrInvalidAlarmTime):
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", err.Error(), nil))
	default:
		h.logger.Error("medication operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", message, err))
	}
}
