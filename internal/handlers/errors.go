package handlers

import (
	"errors"
	"net/http"

	"devcatalyst/portal/internal/logger"
	"devcatalyst/portal/internal/middleware"
	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var kindStatus = map[services.ErrorKind]int{
	services.KindValidation: http.StatusBadRequest,
	services.KindPermission: http.StatusForbidden,
	services.KindNotFound:   http.StatusNotFound,
	services.KindState:      http.StatusConflict,
}

// respondError writes a typed controller error with its status. Anything else
// is logged and reported as a generic 500.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	var e *services.Error
	if errors.As(err, &e) {
		status, ok := kindStatus[e.Kind]
		if !ok {
			status = http.StatusBadRequest
		}
		body := gin.H{"error": e.Kind, "message": e.Message}
		if len(e.Fields) > 0 {
			body["fields"] = e.Fields
		}
		c.JSON(status, body)
		return
	}

	logger.WithContext(c.Request.Context(), log).WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": "internal server error",
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_request",
		"message": "Invalid request format",
		"details": err.Error(),
	})
}

// currentActor reads the authenticated identity, writing a 401 when there is
// none.
func currentActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return models.Actor{}, false
	}
	return actor, true
}

func orStandard(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return logrus.StandardLogger()
	}
	return log
}
