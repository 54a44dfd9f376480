package handlers

import (
	"errors"
	"net/http"

	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	authService services.AuthService
	logger      logrus.FieldLogger
}

type LoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	services.TokenPair
	User        *models.User `json:"user"`
	Permissions []string     `json:"permissions"`
}

func NewAuthHandler(authService services.AuthService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: orStandard(log)}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, pair, err := h.authService.Login(c.Request.Context(), req.Name, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "invalid_credentials",
			"message": "Invalid name or password",
		})
		return
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		TokenPair:   *pair,
		User:        user,
		Permissions: models.PermissionsFor(user.Role),
	})
}

// Me returns the caller's identity and granted operations.
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":     actor.UserID,
		"name":        actor.Name,
		"role":        actor.Role,
		"permissions": models.PermissionsFor(actor.Role),
	})
}
