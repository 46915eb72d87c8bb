package answers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/formloom/formloom-backend/internal/domain"
	pkgerrors "github.com/formloom/formloom-backend/internal/pkg/errors"
	"github.com/formloom/formloom-backend/internal/pkg/logger"
)

type ResponseSetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, set *types.ResponseSet) (*types.ResponseSet, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ResponseSet, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type responseSetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResponseSetRepo(db *gorm.DB, baseLog *logger.Logger) ResponseSetRepo {
	repoLog := baseLog.With("repo", "ResponseSetRepo")
	return &responseSetRepo{db: db, log: repoLog}
}

func (r *responseSetRepo) Create(ctx context.Context, tx *gorm.DB, set *types.ResponseSet) (*types.ResponseSet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if set.ID == uuid.Nil {
		set.ID = uuid.New()
	}
	if set.StateVersion == 0 {
		set.StateVersion = 1
	}

	if err := transaction.WithContext(ctx).Create(set).Error; err != nil {
		return nil, err
	}
	return set, nil
}

func (r *responseSetRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ResponseSet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.ResponseSet
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *responseSetRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.ResponseSet{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}
