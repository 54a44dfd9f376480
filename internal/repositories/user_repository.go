package repositories

import (
	"context"
	"time"

	"devcatalyst/portal/internal/models"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Select(ctx context.Context, filters Filters) ([]models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByName(ctx context.Context, name string) (*models.User, error)
	// Upsert inserts the user or refreshes role and password of the existing
	// user with the same name.
	Upsert(ctx context.Context, user *models.User) error
}

var userColumns = columns("id", "name", "role")

type userRepository struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

func NewUserRepository(db *gorm.DB, logger logrus.FieldLogger) UserRepository {
	return &userRepository{db: db, logger: logger}
}

func (r *userRepository) Select(ctx context.Context, filters Filters) ([]models.User, error) {
	query, err := filters.apply(r.db.WithContext(ctx), userColumns)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := query.Order("name ASC").Find(&users).Error; err != nil {
		r.logger.WithError(err).Error("select users")
		return nil, err
	}
	return users, nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

func (r *userRepository) FindByName(ctx context.Context, name string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&user).Error; err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "password_hash", "updated_at"}),
	}).Create(user).Error
}

type TokenRepository interface {
	Create(ctx context.Context, token *models.Token) error
	FindValid(ctx context.Context, refreshToken string, now time.Time) (*models.Token, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByRefreshToken(ctx context.Context, refreshToken string) (int64, error)
}

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *models.Token) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *tokenRepository) FindValid(ctx context.Context, refreshToken string, now time.Time) (*models.Token, error) {
	var token models.Token
	err := r.db.WithContext(ctx).
		Where("refresh_token = ? AND expires_at > ?", refreshToken, now).
		First(&token).Error
	if err != nil {
		return nil, wrapError(err)
	}
	return &token, nil
}

func (r *tokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Token{}).Error
}

func (r *tokenRepository) DeleteByRefreshToken(ctx context.Context, refreshToken string) (int64, error) {
	result := r.db.WithContext(ctx).Where("refresh_token = ?", refreshToken).Delete(&models.Token{})
	return result.RowsAffected, result.Error
}
