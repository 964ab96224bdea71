package handler

import (
	identityapp "github.com/clinicore/backend/internal/application/identity"
	"github.com/clinicore/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles session endpoints
type AuthHandler struct {
	BaseHandler
	sessionService *identityapp.SessionService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(sessionService *identityapp.SessionService) *AuthHandler {
	return &AuthHandler{
		sessionService: sessionService,
	}
}

// Login starts a clinic-scoped session for an upstream-authenticated user
func (h *AuthHandler) Login(c *gin.Context) {
	var req identityapp.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, session)
}

// Refresh rotates a refresh token into a new token pair
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req identityapp.RefreshSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	session, err := h.sessionService.Refresh(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, session)
}

// Logout revokes the presented access token
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "No active session")
		return
	}

	if err := h.sessionService.End(c.Request.Context(), claims); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"message": "Logged out"})
}
