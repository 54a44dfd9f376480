package handlers

import (
	"net/http"

	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	userService services.UserService
	logger      logrus.FieldLogger
}

func NewUserHandler(userService services.UserService, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{userService: userService, logger: orStandard(log)}
}

// GetUsers lists the roster, narrowed by ?role= when given.
func (h *UserHandler) GetUsers(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	users, err := h.userService.List(c.Request.Context(), actor, models.Role(c.Query("role")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": len(users),
	})
}

func (h *UserHandler) GetUserByName(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), actor, c.Param("name"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
