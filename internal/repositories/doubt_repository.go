package repositories

import (
	"context"

	"devcatalyst/portal/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type DoubtRepository interface {
	Select(ctx context.Context, filters Filters) ([]models.Doubt, error)
	FindByID(ctx context.Context, id string) (*models.Doubt, error)
	Exists(ctx context.Context, id string) (bool, error)
	Insert(ctx context.Context, doubt *models.Doubt) error
	AppendReply(ctx context.Context, reply *models.Reply) error
	UpdateIfStatus(ctx context.Context, id string, expected models.DoubtStatus, patch map[string]interface{}) error
	Clear(ctx context.Context) (int64, error)
}

var doubtColumns = columns("id", "author", "status", "resolved_by")

type doubtRepository struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

func NewDoubtRepository(db *gorm.DB, logger logrus.FieldLogger) DoubtRepository {
	return &doubtRepository{db: db, logger: logger}
}

func orderedReplies(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

func (r *doubtRepository) Select(ctx context.Context, filters Filters) ([]models.Doubt, error) {
	query, err := filters.apply(r.db.WithContext(ctx), doubtColumns)
	if err != nil {
		return nil, err
	}
	var doubts []models.Doubt
	if err := query.Preload("Replies", orderedReplies).Order("created_at ASC").Find(&doubts).Error; err != nil {
		r.logger.WithError(err).Error("select doubts")
		return nil, err
	}
	return doubts, nil
}

func (r *doubtRepository) FindByID(ctx context.Context, id string) (*models.Doubt, error) {
	var doubt models.Doubt
	err := r.db.WithContext(ctx).
		Preload("Replies", orderedReplies).
		Where("id = ?", id).
		First(&doubt).Error
	if err != nil {
		return nil, wrapError(err)
	}
	return &doubt, nil
}

func (r *doubtRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Doubt{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *doubtRepository) Insert(ctx context.Context, doubt *models.Doubt) error {
	if err := r.db.WithContext(ctx).Omit("Replies").Create(doubt).Error; err != nil {
		r.logger.WithError(err).WithField("doubt_id", doubt.ID).Error("insert doubt")
		return err
	}
	return nil
}

// AppendReply adds one message to the thread of an existing doubt.
func (r *doubtRepository) AppendReply(ctx context.Context, reply *models.Reply) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Doubt{}).Where("id = ?", reply.DoubtID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		if err := tx.Create(reply).Error; err != nil {
			return err
		}
		return tx.Model(&models.Doubt{}).Where("id = ?", reply.DoubtID).Update("updated_at", reply.CreatedAt).Error
	})
}

func (r *doubtRepository) UpdateIfStatus(ctx context.Context, id string, expected models.DoubtStatus, patch map[string]interface{}) error {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.Doubt{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(patch)
	return conditionalResult(db, result, &models.Doubt{}, id)
}

// Clear removes every doubt together with its replies.
func (r *doubtRepository) Clear(ctx context.Context) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := global.Delete(&models.Reply{}).Error; err != nil {
			return err
		}
		result := global.Delete(&models.Doubt{})
		removed = result.RowsAffected
		return result.Error
	})
	return removed, err
}
