package repositories

import (
	"context"

	"devcatalyst/portal/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type TaskRepository interface {
	Select(ctx context.Context, filters Filters) ([]models.Task, error)
	FindByID(ctx context.Context, id string) (*models.Task, error)
	Exists(ctx context.Context, id string) (bool, error)
	Insert(ctx context.Context, task *models.Task) error
	UpdateIfStatus(ctx context.Context, id string, expected models.TaskStatus, patch map[string]interface{}) error
	// Clear is the only way tasks are removed.
	Clear(ctx context.Context) (int64, error)
}

var taskColumns = columns("id", "assignee", "status", "priority", "created_by", "verified")

type taskRepository struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

func NewTaskRepository(db *gorm.DB, logger logrus.FieldLogger) TaskRepository {
	return &taskRepository{db: db, logger: logger}
}

func (r *taskRepository) Select(ctx context.Context, filters Filters) ([]models.Task, error) {
	query, err := filters.apply(r.db.WithContext(ctx), taskColumns)
	if err != nil {
		return nil, err
	}
	var tasks []models.Task
	if err := query.Order("created_at ASC").Find(&tasks).Error; err != nil {
		r.logger.WithError(err).Error("select tasks")
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, wrapError(err)
	}
	return &task, nil
}

func (r *taskRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *taskRepository) Insert(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		r.logger.WithError(err).WithField("task_id", task.ID).Error("insert task")
		return err
	}
	return nil
}

// UpdateIfStatus applies patch only while the task still has the expected
// status.
func (r *taskRepository) UpdateIfStatus(ctx context.Context, id string, expected models.TaskStatus, patch map[string]interface{}) error {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.Task{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(patch)
	return conditionalResult(db, result, &models.Task{}, id)
}

func (r *taskRepository) Clear(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.Task{})
	return result.RowsAffected, result.Error
}
