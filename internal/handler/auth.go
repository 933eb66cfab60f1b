package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carepulse/internal/notify"
	"carepulse/internal/session"
	"carepulse/pkg/model"
)

// AuthHandler implements the session endpoints
type AuthHandler struct {
	sessions *session.Store
	gate     *notify.Gate
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(sessions *session.Store, gate *notify.Gate, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		gate:     gate,
		logger:   logger,
	}
}

// CredentialsRequest carries email/password authentication input
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse describes the current session to the client
type SessionResponse struct {
	User    *model.User `json:"user,omitempty"`
	Token   string      `json:"token,omitempty"`
	Loading bool        `json:"loading"`
	Ready   bool        `json:"ready"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "Invalid request body", err))
		return
	}

	user, token, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondAuthError(c, err, "Failed to log in")
		return
	}

	// A new session counts as a fresh mount for the permission nudge.
	h.gate.ResetPrompt()
	c.JSON(http.StatusOK, SessionResponse{User: user, Token: token, Ready: true})
}

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "Invalid request body", err))
		return
	}

	user, token, err := h.sessions.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondAuthError(c, err, "Failed to sign up")
		return
	}

	h.gate.ResetPrompt()
	c.JSON(http.StatusOK, SessionResponse{User: user, Token: token, Ready: true})
}

// Google handles POST /api/v1/auth/google
func (h *AuthHandler) Google(c *gin.Context) {
	user, token, err := h.sessions.GoogleLogin(c.Request.Context())
	if err != nil {
		h.respondAuthError(c, err, "Failed to sign in with Google")
		return
	}

	h.gate.ResetPrompt()
	c.JSON(http.StatusOK, SessionResponse{User: user, Token: token, Ready: true})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to log out", err))
		return
	}

	c.Status(http.StatusNoContent)
}

// Session handles GET /api/v1/auth/session
func (h *AuthHandler) Session(c *gin.Context) {
	resp := SessionResponse{
		Loading: h.sessions.Loading(),
		Ready:   h.sessions.Ready(),
	}
	if user, ok := h.sessions.Current(); ok {
		resp.User = user
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) respondAuthError(c *gin.Context, err error, message string) {
	if errors.Is(err, session.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, errorResponse("INVALID_CREDENTIALS", "Invalid email or password", nil))
		return
	}

	h.logger.Error("authentication failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", message, err))
}
