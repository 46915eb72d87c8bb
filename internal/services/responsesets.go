package services

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/formloom/formloom-backend/internal/data/db"
	"github.com/formloom/formloom-backend/internal/data/repos"
	types "github.com/formloom/formloom-backend/internal/domain"
	"github.com/formloom/formloom-backend/internal/pkg/apierr"
	"github.com/formloom/formloom-backend/internal/pkg/logger"
)

// maxResponseSetNameLen bounds the display name in characters, not bytes.
const maxResponseSetNameLen = 200

type ResponseSetView struct {
	ID           uuid.UUID `json:"response_set_id"`
	Name         string    `json:"name"`
	StateVersion int64     `json:"state_version"`
	ETag         string    `json:"etag"`
	CreatedAt    time.Time `json:"created_at"`
}

type ResponseSetService interface {
	Create(ctx context.Context, name string) (*ResponseSetView, error)
	Get(ctx context.Context, setID uuid.UUID) (*ResponseSetView, error)
	Delete(ctx context.Context, setID uuid.UUID, ifMatch string) error
}

type responseSetService struct {
	runner       db.TxRunner
	log          *logger.Logger
	responseSets repos.ResponseSetRepo
	responses    repos.ResponseRepo
	emitter      EventEmitter
}

func NewResponseSetService(runner db.TxRunner, log *logger.Logger, responseSets repos.ResponseSetRepo, responses repos.ResponseRepo, emitter EventEmitter) ResponseSetService {
	return &responseSetService{
		runner:       runner,
		log:          log.With("service", "ResponseSetService"),
		responseSets: responseSets,
		responses:    responses,
		emitter:      emitter,
	}
}

func (s *responseSetService) Create(ctx context.Context, name string) (*ResponseSetView, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, apierr.Newf(http.StatusBadRequest, CodeNameMissing, "name is required")
	}
	if utf8.RuneCountInString(trimmed) > maxResponseSetNameLen {
		return nil, apierr.Newf(http.StatusBadRequest, CodeNameTooLong, "name exceeds %d characters", maxResponseSetNameLen)
	}

	set, err := s.responseSets.Create(ctx, nil, &types.ResponseSet{Name: trimmed})
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
	}
	s.log.Info("response set created", "response_set_id", set.ID)
	return setView(set), nil
}

func (s *responseSetService) Get(ctx context.Context, setID uuid.UUID) (*ResponseSetView, error) {
	set, err := s.responseSets.GetByID(ctx, nil, setID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
	}
	if set == nil {
		return nil, apierr.Newf(http.StatusNotFound, CodeResponseSetIDUnknown, "response set %s does not exist", setID)
	}
	return setView(set), nil
}

// Delete removes the set and every answer stored under it, in one
// transaction, then publishes the deletion event.
func (s *responseSetService) Delete(ctx context.Context, setID uuid.UUID, ifMatch string) error {
	set, err := s.responseSets.GetByID(ctx, nil, setID)
	if err != nil {
		return apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
	}
	if set == nil {
		return apierr.Newf(http.StatusNotFound, CodeResponseSetIDUnknown, "response set %s does not exist", setID)
	}
	if perr := CheckPrecondition(ifMatch, ResponseSetETag(set.ID, set.StateVersion)); perr != nil {
		return perr
	}

	err = s.runner.InTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.responses.DeleteAllBySetID(ctx, tx, setID); err != nil {
			return err
		}
		return s.responseSets.Delete(ctx, tx, setID)
	})
	if err != nil {
		return apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
	}

	if err := s.emitter.Emit(ctx, types.NewResponseSetDeletedEvent(setID)); err != nil {
		return apierr.New(http.StatusInternalServerError, CodeEventPublishFailure, err)
	}
	s.log.Info("response set deleted", "response_set_id", setID)
	return nil
}

func setView(set *types.ResponseSet) *ResponseSetView {
	return &ResponseSetView{
		ID:           set.ID,
		Name:         set.Name,
		StateVersion: set.StateVersion,
		ETag:         ResponseSetETag(set.ID, set.StateVersion),
		CreatedAt:    set.CreatedAt,
	}
}
