package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/formloom/formloom-backend/internal/data/repos"
	types "github.com/formloom/formloom-backend/internal/domain"
	"github.com/formloom/formloom-backend/internal/pkg/apierr"
	"github.com/formloom/formloom-backend/internal/pkg/logger"
	"github.com/formloom/formloom-backend/internal/visibility"
)

type ScreenService interface {
	GetScreenView(ctx context.Context, setID uuid.UUID, screenKey string) (*types.ScreenView, error)
}

type screenService struct {
	db           *gorm.DB
	log          *logger.Logger
	responseSets repos.ResponseSetRepo
	responses    repos.ResponseRepo
	screens      repos.ScreenRepo
	questions    repos.QuestionRepo
	vis          visibility.Port
}

func NewScreenService(db *gorm.DB, log *logger.Logger, responseSets repos.ResponseSetRepo, responses repos.ResponseRepo, screens repos.ScreenRepo, questions repos.QuestionRepo, vis visibility.Port) ScreenService {
	return &screenService{
		db:           db,
		log:          log.With("service", "ScreenService"),
		responseSets: responseSets,
		responses:    responses,
		screens:      screens,
		questions:    questions,
		vis:          vis,
	}
}

func (s *screenService) GetScreenView(ctx context.Context, setID uuid.UUID, screenKey string) (*types.ScreenView, error) {
	set, err := s.responseSets.GetByID(ctx, nil, setID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
	}
	if set == nil {
		return nil, apierr.Newf(http.StatusNotFound, CodeResponseSetIDUnknown, "response set %s does not exist", setID)
	}

	// Structure and stored answers are independent reads; fetch them
	// concurrently. The write path never does this (it is strictly
	// sequential), but the plain read path can.
	var (
		content *screenContent
		rows    []*types.Response
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		content, err = loadScreenContentByKey(gctx, nil, s.screens, s.questions, screenKey)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.responses.GetBySetID(gctx, nil, setID)
		if err != nil {
			return apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	answers := answersByQuestion(rows)
	visibleIDs, err := s.vis.VisibleSet(ctx, nil, screenKey, answers)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodeVisibilityFailure, err)
	}

	return assembleScreenView(content, visibleIDs, answers)
}

// screenContent is the hydration source for one screen: the screen row, its
// ordered questions, and option views grouped by question.
type screenContent struct {
	screen    *types.Screen
	questions []*types.Question
	options   map[uuid.UUID][]types.OptionView
}

func loadScreenContentByKey(ctx context.Context, tx *gorm.DB, screens repos.ScreenRepo, questionRepo repos.QuestionRepo, screenKey string) (*screenContent, error) {
	screen, err := screens.GetByKey(ctx, tx, screenKey)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
	}
	if screen == nil {
		return nil, apierr.Newf(http.StatusNotFound, CodeScreenKeyUnknown, "screen %q does not exist", screenKey)
	}
	return loadScreenContent(ctx, tx, screens, questionRepo, screen)
}

func loadScreenContent(ctx context.Context, tx *gorm.DB, screens repos.ScreenRepo, questionRepo repos.QuestionRepo, screen *types.Screen) (*screenContent, error) {
	questions, err := screens.QuestionsByScreenID(ctx, tx, screen.ID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
	}

	enumIDs := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		if q.Kind == types.KindEnumSingle {
			enumIDs = append(enumIDs, q.ID)
		}
	}
	options := make(map[uuid.UUID][]types.OptionView, len(enumIDs))
	if len(enumIDs) > 0 {
		rows, err := questionRepo.OptionsByQuestionIDs(ctx, tx, enumIDs)
		if err != nil {
			return nil, apierr.New(http.StatusInternalServerError, CodePersistenceFailure, err)
		}
		for _, opt := range rows {
			options[opt.QuestionID] = append(options[opt.QuestionID], types.OptionView{
				ID:    opt.ID,
				Value: opt.Value,
				Label: opt.Label,
			})
		}
	}

	return &screenContent{screen: screen, questions: questions, options: options}, nil
}

// assembleScreenView is the single assembly function shared by the plain
// read path and the post-write refresh. Steps are strictly ordered: filter
// the ordered question list to the visible set, hydrate answers, compute the
// whole-screen ETag from the filtered+hydrated content, then verify the
// output contract.
func assembleScreenView(content *screenContent, visible []uuid.UUID, answers map[uuid.UUID]*types.Response) (*types.ScreenView, error) {
	visibleSet := make(map[uuid.UUID]struct{}, len(visible))
	for _, id := range visible {
		visibleSet[id] = struct{}{}
	}

	view := &types.ScreenView{
		ScreenKey: content.screen.ScreenKey,
		Name:      content.screen.Name,
		Questions: make([]types.ScreenViewQuestion, 0, len(visible)),
	}
	for _, q := range content.questions {
		if _, ok := visibleSet[q.ID]; !ok {
			continue
		}
		view.Questions = append(view.Questions, types.ScreenViewQuestion{
			Question: questionView(q, content.options),
			Answer:   answerView(answers[q.ID]),
		})
	}

	serialized, err := json.Marshal(view)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, CodeScreenViewInvalid, fmt.Errorf("serialize screen view: %w", err))
	}
	view.ETag = ScreenViewETag(serialized)

	if err := validateScreenView(view); err != nil {
		return nil, err
	}
	return view, nil
}

func validateScreenView(view *types.ScreenView) error {
	if view.ETag == "" {
		return apierr.Newf(http.StatusInternalServerError, CodeScreenViewInvalid, "screen view has no etag")
	}
	if view.ScreenKey == "" {
		return apierr.Newf(http.StatusInternalServerError, CodeScreenViewInvalid, "screen view has no screen key")
	}
	for _, q := range view.Questions {
		if q.Question.ID == uuid.Nil {
			return apierr.Newf(http.StatusInternalServerError, CodeScreenViewInvalid, "screen view contains a question without an id")
		}
	}
	return nil
}

func questionView(q *types.Question, options map[uuid.UUID][]types.OptionView) types.QuestionView {
	return types.QuestionView{
		ID:        q.ID,
		Kind:      q.Kind,
		Prompt:    q.Prompt,
		Mandatory: q.Mandatory,
		Options:   options[q.ID],
	}
}

// answerView hydrates the stored row, cleared rows included: the version and
// ETag stay visible so clients can form the next If-Match, while the value
// fields are simply absent.
func answerView(row *types.Response) *types.AnswerView {
	if row == nil {
		return nil
	}
	return &types.AnswerView{
		QuestionID:   row.QuestionID,
		OptionID:     row.OptionID,
		ValueText:    row.ValueText,
		ValueNumber:  row.ValueNumber,
		ValueBool:    row.ValueBool,
		StateVersion: row.StateVersion,
		ETag:         AnswerETag(row.ResponseSetID, row.QuestionID, row.StateVersion),
	}
}

func answersByQuestion(rows []*types.Response) map[uuid.UUID]*types.Response {
	out := make(map[uuid.UUID]*types.Response, len(rows))
	for _, row := range rows {
		out[row.QuestionID] = row
	}
	return out
}
