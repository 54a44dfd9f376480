package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"devcatalyst/portal/internal/logger"
	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/repositories"

	"github.com/sirupsen/logrus"
)

type AssignInput struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Assignee    string          `json:"assignee" validate:"required"`
	Priority    models.Priority `json:"priority" validate:"required,oneof=Low Medium High"`
	Points      int             `json:"points" validate:"min=0"`
	// DueDate defaults to the assignment day when omitted.
	DueDate *time.Time `json:"due_date"`
}

type SubmitInput struct {
	Link  string `json:"link" validate:"required,url"`
	Notes string `json:"notes" validate:"max=5000"`
}

type TaskSort string

const (
	SortByDueDate  TaskSort = "due_date"
	SortByPriority TaskSort = "priority"
	SortByPoints   TaskSort = "points"
	SortByStatus   TaskSort = "status"
)

type TaskFilter struct {
	Status   models.TaskStatus `form:"status"`
	Assignee string            `form:"assignee"`
	Sort     TaskSort          `form:"sort"`
}

// ChangeNotifier is told about every successful mutation so derived views can
// be dropped.
type ChangeNotifier interface {
	Invalidate(ctx context.Context)
}

type TaskService interface {
	Assign(ctx context.Context, actor models.Actor, input AssignInput) (*models.Task, error)
	Submit(ctx context.Context, actor models.Actor, taskID string, input SubmitInput) (*models.Task, error)
	Verify(ctx context.Context, actor models.Actor, taskID string) (*models.Task, error)
	Get(ctx context.Context, actor models.Actor, taskID string) (*models.Task, error)
	List(ctx context.Context, actor models.Actor, filter TaskFilter) ([]models.Task, error)
	PendingVerification(ctx context.Context, actor models.Actor) ([]models.Task, error)
}

type TaskServiceImpl struct {
	tasks    repositories.TaskRepository
	users    repositories.UserRepository
	gate     AuthorizationService
	notifier ChangeNotifier
	logger   logrus.FieldLogger
}

func NewTaskService(tasks repositories.TaskRepository, users repositories.UserRepository, gate AuthorizationService, notifier ChangeNotifier, log logrus.FieldLogger) *TaskServiceImpl {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TaskServiceImpl{tasks: tasks, users: users, gate: gate, notifier: notifier, logger: log}
}

func (s *TaskServiceImpl) Assign(ctx context.Context, actor models.Actor, input AssignInput) (*models.Task, error) {
	if err := s.gate.Authorize(ctx, actor, models.OpAssign); err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Assignee = strings.TrimSpace(input.Assignee)
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	assignee, err := s.users.FindByName(ctx, input.Assignee)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ValidationError("assignee %q is not a known user", input.Assignee)
	}
	if err != nil {
		return nil, err
	}
	if !assignee.IsMember() {
		return nil, ValidationError("assignee %q is not a Member", input.Assignee)
	}

	id, err := uniqueRecordID(ctx, taskIDPrefix, s.tasks.Exists)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	dueDate := now
	if input.DueDate != nil {
		dueDate = *input.DueDate
	}

	task := &models.Task{
		ID:           id,
		Title:        input.Title,
		Description:  input.Description,
		Assignee:     assignee.Name,
		Priority:     input.Priority,
		Points:       input.Points,
		DueDate:      dueDate,
		AssignedDate: now,
		Status:       models.TaskStatusPending,
		CreatedBy:    actor.Name,
	}
	if err := s.tasks.Insert(ctx, task); err != nil {
		return nil, err
	}

	s.changed(ctx)
	logger.WithContext(ctx, s.logger).WithFields(logrus.Fields{
		"task_id":  task.ID,
		"assignee": task.Assignee,
		"actor":    actor.Name,
	}).Info("task assigned")
	task.SetDeadline(now)
	return task, nil
}

func (s *TaskServiceImpl) Submit(ctx context.Context, actor models.Actor, taskID string, input SubmitInput) (*models.Task, error) {
	if err := s.gate.Authorize(ctx, actor, models.OpSubmit); err != nil {
		return nil, err
	}

	task, err := s.find(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Assignee != actor.Name {
		return nil, PermissionError("task %s is not assigned to %s", task.ID, actor.Name)
	}
	if task.Status != models.TaskStatusPending {
		return nil, StateError("task %s is %s; only Pending tasks can be submitted", task.ID, task.Status)
	}

	input.Link = strings.TrimSpace(input.Link)
	input.Notes = strings.TrimSpace(input.Notes)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.tasks.UpdateIfStatus(ctx, task.ID, models.TaskStatusPending, map[string]interface{}{
		"status":           models.TaskStatusSubmitted,
		"submission_link":  input.Link,
		"submission_notes": input.Notes,
		"submitted_at":     now,
	})
	if err != nil {
		return nil, s.transitionError(task.ID, err)
	}

	task.Status = models.TaskStatusSubmitted
	task.SubmissionLink = input.Link
	task.SubmissionNotes = input.Notes
	task.SubmittedAt = &now

	s.changed(ctx)
	logger.WithContext(ctx, s.logger).WithFields(logrus.Fields{
		"task_id": task.ID,
		"actor":   actor.Name,
	}).Info("task submitted")
	return task, nil
}

func (s *TaskServiceImpl) Verify(ctx context.Context, actor models.Actor, taskID string) (*models.Task, error) {
	if err := s.gate.Authorize(ctx, actor, models.OpVerify); err != nil {
		return nil, err
	}

	task, err := s.find(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskStatusSubmitted {
		return nil, StateError("task %s is %s; only Submitted tasks can be verified", task.ID, task.Status)
	}

	now := time.Now()
	err = s.tasks.UpdateIfStatus(ctx, task.ID, models.TaskStatusSubmitted, map[string]interface{}{
		"status":      models.TaskStatusCompleted,
		"verified":    true,
		"verified_by": actor.Name,
		"verified_at": now,
	})
	if err != nil {
		return nil, s.transitionError(task.ID, err)
	}

	task.Status = models.TaskStatusCompleted
	task.Verified = true
	task.VerifiedBy = actor.Name
	task.VerifiedAt = &now

	s.changed(ctx)
	logger.WithContext(ctx, s.logger).WithFields(logrus.Fields{
		"task_id": task.ID,
		"actor":   actor.Name,
	}).Info("task verified")
	return task, nil
}

func (s *TaskServiceImpl) Get(ctx context.Context, actor models.Actor, taskID string) (*models.Task, error) {
	if err := s.gate.Authorize(ctx, actor, models.OpReadTasks); err != nil {
		return nil, err
	}
	task, err := s.find(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleMember && task.Assignee != actor.Name {
		return nil, PermissionError("task %s is not assigned to %s", task.ID, actor.Name)
	}
	task.SetDeadline(time.Now())
	return task, nil
}

// List returns tasks matching filter. Members only ever see their own tasks.
func (s *TaskServiceImpl) List(ctx context.Context, actor models.Actor, filter TaskFilter) ([]models.Task, error) {
	if err := s.gate.Authorize(ctx, actor, models.OpReadTasks); err != nil {
		return nil, err
	}

	filters := repositories.Filters{}
	if filter.Status != "" {
		if !filter.Status.IsValid() {
			return nil, ValidationError("unknown task status %q", filter.Status)
		}
		filters["status"] = filter.Status
	}
	if actor.Role == models.RoleMember {
		filters["assignee"] = actor.Name
	} else if filter.Assignee != "" {
		filters["assignee"] = filter.Assignee
	}

	tasks, err := s.tasks.Select(ctx, filters)
	if err != nil {
		return nil, err
	}
	if err := SortTasks(tasks, filter.Sort); err != nil {
		return nil, err
	}
	return withDeadlines(tasks), nil
}

// PendingVerification is the queue of submitted tasks, oldest submission first.
func (s *TaskServiceImpl) PendingVerification(ctx context.Context, actor models.Actor) ([]models.Task, error) {
	if err := s.gate.Authorize(ctx, actor, models.OpVerify); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.Select(ctx, repositories.Filters{"status": models.TaskStatusSubmitted})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return submittedAt(tasks[i]).Before(submittedAt(tasks[j]))
	})
	return withDeadlines(tasks), nil
}

func withDeadlines(tasks []models.Task) []models.Task {
	now := time.Now()
	for i := range tasks {
		tasks[i].SetDeadline(now)
	}
	return tasks
}

// SortTasks orders tasks in place. An empty key keeps the stored order.
func SortTasks(tasks []models.Task, by TaskSort) error {
	var less func(a, b models.Task) bool
	switch by {
	case "":
		return nil
	case SortByDueDate:
		less = func(a, b models.Task) bool { return a.DueDate.Before(b.DueDate) }
	case SortByPriority:
		less = func(a, b models.Task) bool { return a.Priority.Rank() < b.Priority.Rank() }
	case SortByPoints:
		less = func(a, b models.Task) bool { return a.Points > b.Points }
	case SortByStatus:
		less = func(a, b models.Task) bool { return statusRank(a.Status) < statusRank(b.Status) }
	default:
		return ValidationError("unknown sort key %q", by)
	}
	sort.SliceStable(tasks, func(i, j int) bool { return less(tasks[i], tasks[j]) })
	return nil
}

func statusRank(s models.TaskStatus) int {
	for i, status := range models.TaskStatuses {
		if status == s {
			return i
		}
	}
	return len(models.TaskStatuses)
}

func submittedAt(t models.Task) time.Time {
	if t.SubmittedAt == nil {
		return t.UpdatedAt
	}
	return *t.SubmittedAt
}

func (s *TaskServiceImpl) find(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, strings.TrimSpace(taskID))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, NotFoundError("task %s not found", taskID)
	}
	return task, err
}

// transitionError maps a failed conditional update. A status mismatch means
// another request moved the task first.
func (s *TaskServiceImpl) transitionError(taskID string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return NotFoundError("task %s not found", taskID)
	case errors.Is(err, repositories.ErrStatusMismatch):
		return StateError("task %s changed status concurrently", taskID)
	}
	return err
}

func (s *TaskServiceImpl) changed(ctx context.Context) {
	if s.notifier != nil {
		s.notifier.Invalidate(ctx)
	}
}
