package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"devcatalyst/portal/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ExportHandler struct {
	exportService services.ExportService
	logger        logrus.FieldLogger
}

func NewExportHandler(exportService services.ExportService, log logrus.FieldLogger) *ExportHandler {
	return &ExportHandler{exportService: exportService, logger: orStandard(log)}
}

// Export streams a table as a CSV attachment. The CSV is buffered so a
// failure can still be reported as JSON.
func (h *ExportHandler) Export(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	table := c.Param("table")
	var buf bytes.Buffer
	rows, err := h.exportService.Export(c.Request.Context(), actor, table, &buf)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, h.exportService.FileName(table, time.Now())))
	c.Header("X-Row-Count", strconv.Itoa(rows))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
