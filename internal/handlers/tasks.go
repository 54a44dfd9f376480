package handlers

import (
	"net/http"
	"strings"
	"time"

	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type TaskHandler struct {
	taskService services.TaskService
	logger      logrus.FieldLogger
}

type AssignRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Assignee    string          `json:"assignee"`
	Priority    models.Priority `json:"priority"`
	Points      int             `json:"points"`
	// DueDate accepts YYYY-MM-DD or RFC 3339.
	DueDate string `json:"due_date"`
}

func NewTaskHandler(taskService services.TaskService, log logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{taskService: taskService, logger: orStandard(log)}
}

func parseDueDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, services.ValidationError("due_date %q must be YYYY-MM-DD or RFC 3339", value)
	}
	return &t, nil
}

func (h *TaskHandler) AssignTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	task, err := h.taskService.Assign(c.Request.Context(), actor, services.AssignInput{
		Title:       req.Title,
		Description: req.Description,
		Assignee:    req.Assignee,
		Priority:    req.Priority,
		Points:      req.Points,
		DueDate:     dueDate,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) SubmitTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var input services.SubmitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	task, err := h.taskService.Submit(c.Request.Context(), actor, c.Param("id"), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) VerifyTask(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	task, err := h.taskService.Verify(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var filter services.TaskFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err)
		return
	}

	tasks, err := h.taskService.List(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": len(tasks),
	})
}

func (h *TaskHandler) PendingVerification(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.PendingVerification(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"total": len(tasks),
	})
}
