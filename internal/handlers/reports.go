package handlers

import (
	"net/http"

	"devcatalyst/portal/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ReportHandler struct {
	reportService services.ReportService
	logger        logrus.FieldLogger
}

func NewReportHandler(reportService services.ReportService, log logrus.FieldLogger) *ReportHandler {
	return &ReportHandler{reportService: reportService, logger: orStandard(log)}
}

func (h *ReportHandler) Summary(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	summary, err := h.reportService.Summary(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ReportHandler) Progress(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	progress, err := h.reportService.Progress(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}
