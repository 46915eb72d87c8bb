package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/formloom/formloom-backend/internal/domain"
	"github.com/formloom/formloom-backend/internal/pkg/logger"
)

type ScreenRepo interface {
	GetByKey(ctx context.Context, tx *gorm.DB, screenKey string) (*types.Screen, error)
	GetByID(ctx context.Context, tx *gorm.DB, screenID uuid.UUID) (*types.Screen, error)
	QuestionsByScreenID(ctx context.Context, tx *gorm.DB, screenID uuid.UUID) ([]*types.Question, error)
}

type screenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScreenRepo(db *gorm.DB, baseLog *logger.Logger) ScreenRepo {
	repoLog := baseLog.With("repo", "ScreenRepo")
	return &screenRepo{db: db, log: repoLog}
}

func (r *screenRepo) GetByKey(ctx context.Context, tx *gorm.DB, screenKey string) (*types.Screen, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Screen
	if err := transaction.WithContext(ctx).
		Where("screen_key = ?", screenKey).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *screenRepo) GetByID(ctx context.Context, tx *gorm.DB, screenID uuid.UUID) (*types.Screen, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Screen
	if err := transaction.WithContext(ctx).
		Where("id = ?", screenID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *screenRepo) QuestionsByScreenID(ctx context.Context, tx *gorm.DB, screenID uuid.UUID) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Question
	if err := transaction.WithContext(ctx).
		Where("screen_id = ?", screenID).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
