package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/formloom/formloom-backend/internal/domain"
	"github.com/formloom/formloom-backend/internal/pkg/logger"
)

type QuestionRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) (*types.Question, error)
	OptionsByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.AnswerOption, error)
	OptionByID(ctx context.Context, tx *gorm.DB, questionID, optionID uuid.UUID) (*types.AnswerOption, error)
	OptionByValue(ctx context.Context, tx *gorm.DB, questionID uuid.UUID, value string) (*types.AnswerOption, error)
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	repoLog := baseLog.With("repo", "QuestionRepo")
	return &questionRepo{db: db, log: repoLog}
}

func (r *questionRepo) GetByID(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) (*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Question
	if err := transaction.WithContext(ctx).
		Where("id = ?", questionID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *questionRepo) OptionsByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.AnswerOption, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.AnswerOption
	if len(questionIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("question_id IN ?", questionIDs).
		Order("question_id, position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) OptionByID(ctx context.Context, tx *gorm.DB, questionID, optionID uuid.UUID) (*types.AnswerOption, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.AnswerOption
	if err := transaction.WithContext(ctx).
		Where("id = ? AND question_id = ?", optionID, questionID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *questionRepo) OptionByValue(ctx context.Context, tx *gorm.DB, questionID uuid.UUID, value string) (*types.AnswerOption, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.AnswerOption
	if err := transaction.WithContext(ctx).
		Where("question_id = ? AND value = ?", questionID, value).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}
