package handlers

import (
	"errors"
	"net/http"

	"devcatalyst/portal/internal/services"

	"github.com/gin-gonic/gin"
)

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Logout revokes the refresh token. An unknown token still logs out.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	err := h.authService.Revoke(c.Request.Context(), req.RefreshToken)
	if err != nil && !errors.Is(err, services.ErrInvalidToken) {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully logged out",
	})
}
