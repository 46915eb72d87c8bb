package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/formloom/formloom-backend/internal/domain"
	"github.com/formloom/formloom-backend/internal/pkg/logger"
)

type RuleRepo interface {
	RulesByScreenID(ctx context.Context, tx *gorm.DB, screenID uuid.UUID) ([]*types.VisibilityRule, error)
}

type ruleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRuleRepo(db *gorm.DB, baseLog *logger.Logger) RuleRepo {
	repoLog := baseLog.With("repo", "RuleRepo")
	return &ruleRepo{db: db, log: repoLog}
}

func (r *ruleRepo) RulesByScreenID(ctx context.Context, tx *gorm.DB, screenID uuid.UUID) ([]*types.VisibilityRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.VisibilityRule
	if err := transaction.WithContext(ctx).
		Where("screen_id = ?", screenID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
