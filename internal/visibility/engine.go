package visibility

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/formloom/formloom-backend/internal/data/repos"
	types "github.com/formloom/formloom-backend/internal/domain"
	pkgerrors "github.com/formloom/formloom-backend/internal/pkg/errors"
	"github.com/formloom/formloom-backend/internal/pkg/logger"
)

// Port is the visibility collaborator consumed by the write path. Calls are
// synchronous and in-process but treated as fallible: any error fails the
// surrounding operation at the visibility stage.
type Port interface {
	RulesForScreen(ctx context.Context, tx *gorm.DB, screenKey string) ([]*types.VisibilityRule, error)
	VisibleSet(ctx context.Context, tx *gorm.DB, screenKey string, current map[uuid.UUID]*types.Response) ([]uuid.UUID, error)
	Delta(pre, post []uuid.UUID, hasStored func(uuid.UUID) bool) Delta
}

// Delta is the raw id-level diff of two visible sets. Suppressed is always a
// subset of NowHidden.
type Delta struct {
	NowVisible []uuid.UUID
	NowHidden  []uuid.UUID
	Suppressed []uuid.UUID
}

type engine struct {
	screens   repos.ScreenRepo
	questions repos.QuestionRepo
	rules     repos.RuleRepo
	log       *logger.Logger
}

func NewEngine(screens repos.ScreenRepo, questions repos.QuestionRepo, rules repos.RuleRepo, baseLog *logger.Logger) Port {
	return &engine{
		screens:   screens,
		questions: questions,
		rules:     rules,
		log:       baseLog.With("service", "VisibilityEngine"),
	}
}

func (e *engine) RulesForScreen(ctx context.Context, tx *gorm.DB, screenKey string) ([]*types.VisibilityRule, error) {
	screen, err := e.screens.GetByKey(ctx, tx, screenKey)
	if err != nil {
		return nil, fmt.Errorf("load screen %q: %w", screenKey, err)
	}
	if screen == nil {
		return nil, fmt.Errorf("screen %q: %w", screenKey, pkgerrors.ErrNotFound)
	}
	return e.rules.RulesByScreenID(ctx, tx, screen.ID)
}

// VisibleSet evaluates every rule on the screen against the supplied answer
// state and returns the visible question ids in screen order. Questions
// without rules are always visible; with several rules, all must hold.
func (e *engine) VisibleSet(ctx context.Context, tx *gorm.DB, screenKey string, current map[uuid.UUID]*types.Response) ([]uuid.UUID, error) {
	screen, err := e.screens.GetByKey(ctx, tx, screenKey)
	if err != nil {
		return nil, fmt.Errorf("load screen %q: %w", screenKey, err)
	}
	if screen == nil {
		return nil, fmt.Errorf("screen %q: %w", screenKey, pkgerrors.ErrNotFound)
	}

	questions, err := e.screens.QuestionsByScreenID(ctx, tx, screen.ID)
	if err != nil {
		return nil, fmt.Errorf("load screen questions: %w", err)
	}
	ruleRows, err := e.rules.RulesByScreenID(ctx, tx, screen.ID)
	if err != nil {
		return nil, fmt.Errorf("load visibility rules: %w", err)
	}

	byTarget := make(map[uuid.UUID][]compiledRule, len(ruleRows))
	for _, row := range ruleRows {
		pred, err := ParsePredicate(row.Predicate)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", row.ID, err)
		}
		byTarget[row.TargetQuestionID] = append(byTarget[row.TargetQuestionID], compiledRule{
			controlling: row.ControllingQuestionID,
			predicate:   pred,
		})
	}

	optionValue, err := e.optionTokenLookup(ctx, tx, questions)
	if err != nil {
		return nil, err
	}

	visible := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		rules := byTarget[q.ID]
		show := true
		for _, rule := range rules {
			if !rule.predicate.Holds(current[rule.controlling], optionValue) {
				show = false
				break
			}
		}
		if show {
			visible = append(visible, q.ID)
		}
	}
	return visible, nil
}

// Delta diffs two visible sets; hasStored marks which newly hidden questions
// still hold a value (those become suppressed).
func (e *engine) Delta(pre, post []uuid.UUID, hasStored func(uuid.UUID) bool) Delta {
	preSet := make(map[uuid.UUID]struct{}, len(pre))
	for _, id := range pre {
		preSet[id] = struct{}{}
	}
	postSet := make(map[uuid.UUID]struct{}, len(post))
	for _, id := range post {
		postSet[id] = struct{}{}
	}

	var d Delta
	for _, id := range post {
		if _, ok := preSet[id]; !ok {
			d.NowVisible = append(d.NowVisible, id)
		}
	}
	for _, id := range pre {
		if _, ok := postSet[id]; !ok {
			d.NowHidden = append(d.NowHidden, id)
			if hasStored != nil && hasStored(id) {
				d.Suppressed = append(d.Suppressed, id)
			}
		}
	}
	return d
}

type compiledRule struct {
	controlling uuid.UUID
	predicate   Predicate
}

func (e *engine) optionTokenLookup(ctx context.Context, tx *gorm.DB, questions []*types.Question) (func(uuid.UUID) (string, bool), error) {
	ids := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		if q.Kind == types.KindEnumSingle {
			ids = append(ids, q.ID)
		}
	}
	if len(ids) == 0 {
		return func(uuid.UUID) (string, bool) { return "", false }, nil
	}
	options, err := e.questions.OptionsByQuestionIDs(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("load answer options: %w", err)
	}
	tokens := make(map[uuid.UUID]string, len(options))
	for _, opt := range options {
		tokens[opt.ID] = opt.Value
	}
	return func(optionID uuid.UUID) (string, bool) {
		token, ok := tokens[optionID]
		return token, ok
	}, nil
}
