package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/formloom/formloom-backend/internal/data/repos"
	types "github.com/formloom/formloom-backend/internal/domain"
	"github.com/formloom/formloom-backend/internal/pkg/apierr"
	pkgerrors "github.com/formloom/formloom-backend/internal/pkg/errors"
	"github.com/formloom/formloom-backend/internal/pkg/logger"
	"github.com/formloom/formloom-backend/internal/visibility"
)

type SavedAnswer struct {
	QuestionID   uuid.UUID `json:"question_id"`
	StateVersion int64     `json:"state_version"`
}

type SaveAnswerResult struct {
	Saved           SavedAnswer            `json:"saved"`
	ETag            string                 `json:"etag"`
	VisibilityDelta *types.VisibilityDelta `json:"visibility_delta,omitempty"`
	ScreenView      *types.ScreenView      `json:"screen_view,omitempty"`
}

type ClearAnswerResult struct {
	QuestionID   uuid.UUID
	StateVersion int64
	ETag         string
}

type AnswerService interface {
	Save(ctx context.Context, setID, questionID uuid.UUID, ifMatch string, raw RawAnswer) (*SaveAnswerResult, error)
	Clear(ctx context.Context, setID, questionID uuid.UUID, ifMatch string) (*ClearAnswerResult, error)
	SaveBatch(ctx context.Context, setID uuid.UUID, req BatchRequest) (*BatchResult, error)
}

type answerService struct {
	db           *gorm.DB
	log          *logger.Logger
	responseSets repos.ResponseSetRepo
	responses    repos.ResponseRepo
	screens      repos.ScreenRepo
	questions    repos.QuestionRepo
	vis          visibility.Port
	emitter      EventEmitter
}

func NewAnswerService(db *gorm.DB, log *logger.Logger, responseSets repos.ResponseSetRepo, responses repos.ResponseRepo, screens repos.ScreenRepo, questions repos.QuestionRepo, vis visibility.Port, emitter EventEmitter) AnswerService {
	return &answerService{
		db:           db,
		log:          log.With("service", "AnswerService"),
		responseSets: responseSets,
		responses:    responses,
		screens:      screens,
		questions:    questions,
		vis:          vis,
		emitter:      emitter,
	}
}

// Save runs the single-answer write pipeline in its contractual order:
// validate, check the precondition token, apply the store write, recompute
// visibility around it, reassemble the screen view, then publish the event.
// Steps after the store write are not rolled back on failure; the caller is
// told the operation failed and must re-read to reconcile.
func (s *answerService) Save(ctx context.Context, setID, questionID uuid.UUID, ifMatch string, raw RawAnswer) (*SaveAnswerResult, error) {
	return s.saveOne(ctx, setID, questionID, ifMatch, raw, true)
}

func (s *answerService) saveOne(ctx context.Context, setID, questionID uuid.UUID, ifMatch string, raw RawAnswer, withView bool) (*SaveAnswerResult, error) {
	question, err := s.loadTarget(ctx, setID, questionID)
	if err != nil {
		return nil, err
	}

	canonical, err := Canonicalize(ctx, nil, question, raw, s.questions)
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
	}

	current, err := s.responses.Get(ctx, nil, setID, questionID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
	}
	currentVersion := int64(0)
	if current != nil {
		currentVersion = current.StateVersion
	}
	if perr := CheckPrecondition(ifMatch, AnswerETag(setID, questionID, currentVersion)); perr != nil {
		return nil, perr
	}

	screen, err := s.screens.GetByID(ctx, nil, question.ScreenID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
	}
	if screen == nil {
		return nil, apierr.New(http.StatusInternalServerError, CodePersistenceFailure,
			fmt.Errorf("question %s references missing screen %s", questionID, question.ScreenID))
	}

	if canonical.NoOp {
		return s.noOpResult(ctx, setID, questionID, currentVersion, screen, withView)
	}

	// Pre-write visible set, from answer state before the mutation.
	preRows, err := s.responses.GetBySetID(ctx, nil, setID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
	}
	preAnswers := answersByQuestion(preRows)
	preSet, err := s.vis.VisibleSet(ctx, nil, screen.ScreenKey, preAnswers)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodeVisibilityFailure, err)
	}

	// The store write. From here on failures no longer undo it.
	var row *types.Response
	if canonical.Clear {
		row, err = s.responses.Clear(ctx, nil, setID, questionID, currentVersion)
	} else {
		row, err = s.responses.Upsert(ctx, nil, setID, questionID, currentVersion, canonical.Value)
	}
	if err != nil {
		if errors.Is(err, pkgerrors.ErrConflict) {
			return nil, apierr.Newf(http.StatusConflict, CodeIfMatchStale, "answer changed concurrently")
		}
		return nil, apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
	}

	// Post-write visible set, then the id-level delta.
	postRows, err := s.responses.GetBySetID(ctx, nil, setID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodeVisibilityFailure, err)
	}
	postAnswers := answersByQuestion(postRows)
	postSet, err := s.vis.VisibleSet(ctx, nil, screen.ScreenKey, postAnswers)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodeVisibilityFailure, err)
	}
	idDelta := s.vis.Delta(preSet, postSet, func(id uuid.UUID) bool {
		return postAnswers[id].HasValue()
	})

	content, err := loadScreenContent(ctx, nil, s.screens, s.questions, screen)
	if err != nil {
		return nil, err
	}
	delta := hydrateDelta(idDelta, content, postAnswers)

	result := &SaveAnswerResult{
		Saved: SavedAnswer{QuestionID: questionID, StateVersion: row.StateVersion},
		ETag:  AnswerETag(setID, questionID, row.StateVersion),
	}
	if !delta.IsEmpty() {
		result.VisibilityDelta = delta
	}
	if withView {
		view, err := assembleScreenView(content, postSet, postAnswers)
		if err != nil {
			return nil, err
		}
		result.ScreenView = view
	}

	if err := s.emitter.Emit(ctx, types.NewResponseSavedEvent(setID, questionID, row.StateVersion)); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodeEventPublishFailure, err)
	}
	return result, nil
}

// Clear is the explicit clear operation. It versions the row like any other
// write but returns no screen view; callers re-read the screen when they
// need the refreshed visibility state.
func (s *answerService) Clear(ctx context.Context, setID, questionID uuid.UUID, ifMatch string) (*ClearAnswerResult, error) {
	if _, err := s.loadTarget(ctx, setID, questionID); err != nil {
		return nil, err
	}

	current, err := s.responses.Get(ctx, nil, setID, questionID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
	}
	currentVersion := int64(0)
	if current != nil {
		currentVersion = current.StateVersion
	}
	if perr := CheckPrecondition(ifMatch, AnswerETag(setID, questionID, currentVersion)); perr != nil {
		return nil, perr
	}

	row, err := s.responses.Clear(ctx, nil, setID, questionID, currentVersion)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrConflict) {
			return nil, apierr.Newf(http.StatusConflict, CodeIfMatchStale, "answer changed concurrently")
		}
		return nil, apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
	}

	if err := s.emitter.Emit(ctx, types.NewResponseSavedEvent(setID, questionID, row.StateVersion)); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodeEventPublishFailure, err)
	}
	return &ClearAnswerResult{
		QuestionID:   questionID,
		StateVersion: row.StateVersion,
		ETag:         AnswerETag(setID, questionID, row.StateVersion),
	}, nil
}

func (s *answerService) loadTarget(ctx context.Context, setID, questionID uuid.UUID) (*types.Question, error) {
	set, err := s.responseSets.GetByID(ctx, nil, setID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
	}
	if set == nil {
		return nil, apierr.Newf(http.StatusNotFound, CodeResponseSetIDUnknown, "response set %s does not exist", setID)
	}
	question, err := s.questions.GetByID(ctx, nil, questionID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
	}
	if question == nil {
		return nil, apierr.Newf(http.StatusNotFound, CodeQuestionIDUnknown, "question %s does not exist", questionID)
	}
	return question, nil
}

// noOpResult serves payloads that supplied nothing to write: the prior
// answer stays untouched, no version bump, no event, but the caller still
// gets the current view.
func (s *answerService) noOpResult(ctx context.Context, setID, questionID uuid.UUID, currentVersion int64, screen *types.Screen, withView bool) (*SaveAnswerResult, error) {
	result := &SaveAnswerResult{
		Saved: SavedAnswer{QuestionID: questionID, StateVersion: currentVersion},
		ETag:  AnswerETag(setID, questionID, currentVersion),
	}
	if !withView {
		return result, nil
	}

	rows, err := s.responses.GetBySetID(ctx, nil, setID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
	}
	answers := answersByQuestion(rows)
	visible, err := s.vis.VisibleSet(ctx, nil, screen.ScreenKey, answers)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodeVisibilityFailure, err)
	}
	content, err := loadScreenContent(ctx, nil, s.screens, s.questions, screen)
	if err != nil {
		return nil, err
	}
	view, err := assembleScreenView(content, visible, answers)
	if err != nil {
		return nil, err
	}
	result.ScreenView = view
	return result, nil
}

// hydrateDelta fills the id-level diff with question metadata and any stored
// answer, including values written while the question was hidden.
func hydrateDelta(idDelta visibility.Delta, content *screenContent, answers map[uuid.UUID]*types.Response) *types.VisibilityDelta {
	byID := make(map[uuid.UUID]*types.Question, len(content.questions))
	for _, q := range content.questions {
		byID[q.ID] = q
	}

	delta := &types.VisibilityDelta{
		NowHidden:         idDelta.NowHidden,
		SuppressedAnswers: idDelta.Suppressed,
	}
	for _, id := range idDelta.NowVisible {
		q, ok := byID[id]
		if !ok {
			continue
		}
		delta.NowVisible = append(delta.NowVisible, types.ScreenViewQuestion{
			Question: questionView(q, content.options),
			Answer:   answerView(answers[id]),
		})
	}
	return delta
}
