package handlers

import (
	"net/http"

	"devcatalyst/portal/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type DoubtHandler struct {
	doubtService services.DoubtService
	logger       logrus.FieldLogger
}

func NewDoubtHandler(doubtService services.DoubtService, log logrus.FieldLogger) *DoubtHandler {
	return &DoubtHandler{doubtService: doubtService, logger: orStandard(log)}
}

func (h *DoubtHandler) RaiseDoubt(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var input services.RaiseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	doubt, err := h.doubtService.Raise(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, doubt)
}

func (h *DoubtHandler) ReplyToDoubt(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var input services.ReplyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	doubt, err := h.doubtService.Reply(c.Request.Context(), actor, c.Param("id"), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, doubt)
}

func (h *DoubtHandler) ResolveDoubt(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	doubt, err := h.doubtService.Resolve(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, doubt)
}

func (h *DoubtHandler) GetDoubtByID(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	doubt, err := h.doubtService.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, doubt)
}

func (h *DoubtHandler) GetDoubts(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	doubts, err := h.doubtService.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"doubts": doubts,
		"total":  len(doubts),
	})
}
