package answers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/formloom/formloom-backend/internal/domain"
	pkgerrors "github.com/formloom/formloom-backend/internal/pkg/errors"
	"github.com/formloom/formloom-backend/internal/pkg/logger"
)

// ResponseRepo is the answer store. All mutation funnels through Upsert and
// Clear, which bump state_version exactly once per successful call and fail
// with ErrConflict when expectedVersion no longer matches the row.
type ResponseRepo interface {
	Get(ctx context.Context, tx *gorm.DB, setID, questionID uuid.UUID) (*types.Response, error)
	GetBySetID(ctx context.Context, tx *gorm.DB, setID uuid.UUID) ([]*types.Response, error)
	Upsert(ctx context.Context, tx *gorm.DB, setID, questionID uuid.UUID, expectedVersion int64, value types.AnswerValue) (*types.Response, error)
	Clear(ctx context.Context, tx *gorm.DB, setID, questionID uuid.UUID, expectedVersion int64) (*types.Response, error)
	DeleteAllBySetID(ctx context.Context, tx *gorm.DB, setID uuid.UUID) error
}

type responseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResponseRepo(db *gorm.DB, baseLog *logger.Logger) ResponseRepo {
	repoLog := baseLog.With("repo", "ResponseRepo")
	return &responseRepo{db: db, log: repoLog}
}

func (r *responseRepo) Get(ctx context.Context, tx *gorm.DB, setID, questionID uuid.UUID) (*types.Response, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Response
	if err := transaction.WithContext(ctx).
		Where("response_set_id = ? AND question_id = ?", setID, questionID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *responseRepo) GetBySetID(ctx context.Context, tx *gorm.DB, setID uuid.UUID) ([]*types.Response, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Response
	if err := transaction.WithContext(ctx).
		Where("response_set_id = ?", setID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *responseRepo) Upsert(ctx context.Context, tx *gorm.DB, setID, questionID uuid.UUID, expectedVersion int64, value types.AnswerValue) (*types.Response, error) {
	return r.write(ctx, tx, setID, questionID, expectedVersion, value)
}

func (r *responseRepo) Clear(ctx context.Context, tx *gorm.DB, setID, questionID uuid.UUID, expectedVersion int64) (*types.Response, error) {
	return r.write(ctx, tx, setID, questionID, expectedVersion, types.AnswerValue{})
}

func (r *responseRepo) write(ctx context.Context, tx *gorm.DB, setID, questionID uuid.UUID, expectedVersion int64, value types.AnswerValue) (*types.Response, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if expectedVersion == 0 {
		row := &types.Response{
			ID:            uuid.New(),
			ResponseSetID: setID,
			QuestionID:    questionID,
			OptionID:      value.OptionID,
			ValueText:     value.Text,
			ValueNumber:   value.Number,
			ValueBool:     value.Bool,
			StateVersion:  1,
		}
		if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// The row appeared between the caller's read and this
				// insert: another writer won the version race.
				return nil, pkgerrors.ErrConflict
			}
			return nil, err
		}
		return row, nil
	}

	res := transaction.WithContext(ctx).
		Model(&types.Response{}).
		Where("response_set_id = ? AND question_id = ? AND state_version = ?", setID, questionID, expectedVersion).
		Updates(map[string]any{
			"option_id":     value.OptionID,
			"value_text":    value.Text,
			"value_number":  value.Number,
			"value_bool":    value.Bool,
			"state_version": expectedVersion + 1,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.ErrConflict
	}
	return r.Get(ctx, transaction, setID, questionID)
}

func (r *responseRepo) DeleteAllBySetID(ctx context.Context, tx *gorm.DB, setID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("response_set_id = ?", setID).
		Delete(&types.Response{}).Error
}
