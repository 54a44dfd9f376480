package handlers

import (
	"io"
	"net/http"

	"devcatalyst/portal/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	adminService services.AdminService
	logger       logrus.FieldLogger
}

type ConfirmRequest struct {
	Confirm string `json:"confirm"`
}

func NewAdminHandler(adminService services.AdminService, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{adminService: adminService, logger: orStandard(log)}
}

// bindConfirm accepts an empty body as the first step of a confirmation.
func bindConfirm(c *gin.Context) (string, bool) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		badRequest(c, err)
		return "", false
	}
	return req.Confirm, true
}

func (h *AdminHandler) respond(c *gin.Context, result *services.AdminResult, err error) {
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !result.Done() {
		c.JSON(http.StatusAccepted, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) ClearTable(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	confirm, ok := bindConfirm(c)
	if !ok {
		return
	}

	result, err := h.adminService.Clear(c.Request.Context(), actor, c.Param("table"), confirm)
	h.respond(c, result, err)
}

func (h *AdminHandler) ResetAll(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	confirm, ok := bindConfirm(c)
	if !ok {
		return
	}

	result, err := h.adminService.ResetAll(c.Request.Context(), actor, confirm)
	h.respond(c, result, err)
}
