package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carepulse/internal/ai"
	"carepulse/internal/service"
	"carepulse/pkg/model"
)

// medicalGreeting opens the medical assistant conversation
const medicalGreeting = "Hello! I'm your Medical AI assistant. How can I help you today?"

// ChatHandler implements the medical AI chat and the emotional
// check-in conversation
type ChatHandler struct {
	medical  ai.Responder
	checkIns *service.CheckInService
	logger   *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(medical ai.Responder, checkIns *service.CheckInService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		medical:  medical,
		checkIns: checkIns,
		logger:   logger,
	}
}

// ChatRequest carries the conversation so far; the last message is
// the user's newest
type ChatRequest struct {
	Messages []model.ChatMessage `json:"messages" binding:"required"`
}

// CheckInRequest carries a mood check-in submission
type CheckInRequest struct {
	Mood model.Mood `json:"mood" binding:"required"`
	Note string     `json:"note"`
}

// MedicalGreeting handles GET /api/v1/chat/greeting
func (h *ChatHandler) MedicalGreeting(c *gin.Context) {
	c.JSON(http.StatusOK, model.ChatMessage{
		ID:        1,
		Role:      model.MessageRoleAssistant,
		Content:   medicalGreeting,
		CreatedAt: time.Now(),
	})
}

// MedicalChat handles POST /api/v1/chat
func (h *ChatHandler) MedicalChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "Invalid request body", err))
		return
	}

	reply, err := h.medical.Respond(c.Request.Context(), req.Messages)
	if err != nil {
		h.logger.Error("medical chat reply failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, errorResponse("AI_UNAVAILABLE", "The assistant is unavailable right now", err))
		return
	}

	c.JSON(http.StatusOK, model.ChatMessage{
		ID:        nextID(req.Messages),
		Role:      model.MessageRoleAssistant,
		Content:   reply,
		CreatedAt: time.Now(),
	})
}

// SubmitCheckIn handles POST /api/v1/checkins
func (h *ChatHandler) SubmitCheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "Invalid request body", err))
		return
	}

	result, err := h.checkIns.Submit(c.Request.Context(), c.GetString("user_id"), req.Mood, req.Note)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMood) {
			c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", err.Error(), nil))
			return
		}

		h.logger.Error("check-in failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to record check-in", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"check_in": result.CheckIn,
		"messages": result.Messages,
	})
}

// ContinueCheckIn handles POST /api/v1/checkins/chat
func (h *ChatHandler) ContinueCheckIn(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "Invalid request body", err))
		return
	}

	reply, err := h.checkIns.Continue(c.Request.Context(), req.Messages)
	if err != nil {
		h.logger.Error("check-in reply failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, errorResponse("AI_UNAVAILABLE", "The companion is unavailable right now", err))
		return
	}

	c.JSON(http.StatusOK, reply)
}

// CheckInHistory handles GET /api/v1/checkins
func (h *ChatHandler) CheckInHistory(c *gin.Context) {
	checkIns, err := h.checkIns.History(c.Request.Context(), c.GetString("user_id"), 30)
	if err != nil {
		h.logger.Error("failed to load check-ins", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to load check-ins", err))
		return
	}

	if checkIns == nil {
		checkIns = []model.CheckIn{}
	}
	c.JSON(http.StatusOK, gin.H{"check_ins": checkIns})
}

func nextID(messages []model.ChatMessage) int {
	max := 0
	for _, msg := range messages {
		if msg.ID > max {
			max = msg.ID
		}
	}

	return max + 1
}
