package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/formloom/formloom-backend/internal/domain"
	"github.com/formloom/formloom-backend/internal/pkg/apierr"
	pkgerrors "github.com/formloom/formloom-backend/internal/pkg/errors"
	"github.com/formloom/formloom-backend/internal/pkg/logger"
	"github.com/formloom/formloom-backend/internal/visibility"
)

var (
	testLogOnce sync.Once
	testLog     *logger.Logger
)

func testLogger(tb testing.TB) *logger.Logger {
	tb.Helper()
	testLogOnce.Do(func() {
		var err error
		testLog, err = logger.New("test")
		if err != nil {
			panic(err)
		}
	})
	return testLog
}

// memStore is an in-memory stand-in for every repo interface the services
// consume, with the same CAS semantics as the real answer store.
type memStore struct {
	mu        sync.Mutex
	sets      map[uuid.UUID]*types.ResponseSet
	rows      map[string]*types.Response
	screens   map[uuid.UUID]*types.Screen
	questions map[uuid.UUID]*types.Question
	options   map[uuid.UUID]*types.AnswerOption
	rules     []*types.VisibilityRule
}

func newMemStore() *memStore {
	return &memStore{
		sets:      map[uuid.UUID]*types.ResponseSet{},
		rows:      map[string]*types.Response{},
		screens:   map[uuid.UUID]*types.Screen{},
		questions: map[uuid.UUID]*types.Question{},
		options:   map[uuid.UUID]*types.AnswerOption{},
	}
}

func rowKey(setID, questionID uuid.UUID) string {
	return setID.String() + "|" + questionID.String()
}

func copyRow(row *types.Response) *types.Response {
	if row == nil {
		return nil
	}
	dup := *row
	return &dup
}

// ResponseSetRepo

func (m *memStore) Create(ctx context.Context, tx *gorm.DB, set *types.ResponseSet) (*types.ResponseSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set.ID == uuid.Nil {
		set.ID = uuid.New()
	}
	if set.StateVersion == 0 {
		set.StateVersion = 1
	}
	if set.CreatedAt.IsZero() {
		set.CreatedAt = time.Now().UTC()
		set.UpdatedAt = set.CreatedAt
	}
	m.sets[set.ID] = set
	return set, nil
}

func (m *memStore) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ResponseSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets[id], nil
}

func (m *memStore) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sets[id]; !ok {
		return pkgerrors.ErrNotFound
	}
	delete(m.sets, id)
	return nil
}

// ResponseRepo

func (m *memStore) Get(ctx context.Context, tx *gorm.DB, setID, questionID uuid.UUID) (*types.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyRow(m.rows[rowKey(setID, questionID)]), nil
}

func (m *memStore) GetBySetID(ctx context.Context, tx *gorm.DB, setID uuid.UUID) ([]*types.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.Response
	for _, row := range m.rows {
		if row.ResponseSetID == setID {
			out = append(out, copyRow(row))
		}
	}
	return out, nil
}

func (m *memStore) Upsert(ctx context.Context, tx *gorm.DB, setID, questionID uuid.UUID, expectedVersion int64, value types.AnswerValue) (*types.Response, error) {
	return m.write(setID, questionID, expectedVersion, value)
}

func (m *memStore) Clear(ctx context.Context, tx *gorm.DB, setID, questionID uuid.UUID, expectedVersion int64) (*types.Response, error) {
	return m.write(setID, questionID, expectedVersion, types.AnswerValue{})
}

func (m *memStore) write(setID, questionID uuid.UUID, expectedVersion int64, value types.AnswerValue) (*types.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := rowKey(setID, questionID)
	existing := m.rows[key]
	if expectedVersion == 0 {
		if existing != nil {
			return nil, pkgerrors.ErrConflict
		}
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
		m.rows[key] = row
		return copyRow(row), nil
	}
	if existing == nil || existing.StateVersion != expectedVersion {
		return nil, pkgerrors.ErrConflict
	}
	existing.OptionID = value.OptionID
	existing.ValueText = value.Text
	existing.ValueNumber = value.Number
	existing.ValueBool = value.Bool
	existing.StateVersion = expectedVersion + 1
	return copyRow(existing), nil
}

func (m *memStore) DeleteAllBySetID(ctx context.Context, tx *gorm.DB, setID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, row := range m.rows {
		if row.ResponseSetID == setID {
			delete(m.rows, key)
		}
	}
	return nil
}

// ScreenRepo

func (m *memStore) GetByKey(ctx context.Context, tx *gorm.DB, screenKey string) (*types.Screen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, screen := range m.screens {
		if screen.ScreenKey == screenKey {
			return screen, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetScreenByID(ctx context.Context, tx *gorm.DB, screenID uuid.UUID) (*types.Screen, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.screens[screenID], nil
}

func (m *memStore) QuestionsByScreenID(ctx context.Context, tx *gorm.DB, screenID uuid.UUID) ([]*types.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.Question
	for _, q := range m.questions {
		if q.ScreenID == screenID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// QuestionRepo

func (m *memStore) GetQuestionByID(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) (*types.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.questions[questionID], nil
}

func (m *memStore) OptionsByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.AnswerOption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[uuid.UUID]struct{}, len(questionIDs))
	for _, id := range questionIDs {
		wanted[id] = struct{}{}
	}
	var out []*types.AnswerOption
	for _, opt := range m.options {
		if _, ok := wanted[opt.QuestionID]; ok {
			out = append(out, opt)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QuestionID != out[j].QuestionID {
			return out[i].QuestionID.String() < out[j].QuestionID.String()
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (m *memStore) OptionByID(ctx context.Context, tx *gorm.DB, questionID, optionID uuid.UUID) (*types.AnswerOption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	opt := m.options[optionID]
	if opt == nil || opt.QuestionID != questionID {
		return nil, nil
	}
	return opt, nil
}

func (m *memStore) OptionByValue(ctx context.Context, tx *gorm.DB, questionID uuid.UUID, value string) (*types.AnswerOption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, opt := range m.options {
		if opt.QuestionID == questionID && opt.Value == value {
			return opt, nil
		}
	}
	return nil, nil
}

// RuleRepo

func (m *memStore) RulesByScreenID(ctx context.Context, tx *gorm.DB, screenID uuid.UUID) ([]*types.VisibilityRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*types.VisibilityRule
	for _, rule := range m.rules {
		if rule.ScreenID == screenID {
			out = append(out, rule)
		}
	}
	return out, nil
}

// screenAdapter and questionAdapter split memStore's method set across the
// two catalog interfaces whose method names collide (GetByID).
type screenAdapter struct{ *memStore }

func (a screenAdapter) GetByID(ctx context.Context, tx *gorm.DB, screenID uuid.UUID) (*types.Screen, error) {
	return a.GetScreenByID(ctx, tx, screenID)
}

type questionAdapter struct{ *memStore }

func (a questionAdapter) GetByID(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) (*types.Question, error) {
	return a.GetQuestionByID(ctx, tx, questionID)
}

// passthroughTxRunner satisfies db.TxRunner without a live database; the
// memStore ignores the tx handle anyway.
type passthroughTxRunner struct{}

func (passthroughTxRunner) InTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []types.Event
	fail   bool
}

func (e *recordingEmitter) Emit(ctx context.Context, ev types.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail {
		return errors.New("broker unavailable")
	}
	e.events = append(e.events, ev)
	return nil
}

func (e *recordingEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}

// fixture wires a realistic intake screen through the real visibility engine:
//
//	hasPet   boolean
//	petName  short_string, visible only when hasPet equals true
//	color    enum_single with options red/blue
//	age      number
type fixture struct {
	store   *memStore
	emitter *recordingEmitter
	answers AnswerService
	screens ScreenService
	sets    ResponseSetService

	setID     uuid.UUID
	screenKey string

	hasPet  uuid.UUID
	petName uuid.UUID
	color   uuid.UUID
	age     uuid.UUID

	optRed  uuid.UUID
	optBlue uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := testLogger(t)
	store := newMemStore()

	screenID := uuid.New()
	f := &fixture{
		store:     store,
		emitter:   &recordingEmitter{},
		screenKey: "intake",
		hasPet:    uuid.New(),
		petName:   uuid.New(),
		color:     uuid.New(),
		age:       uuid.New(),
		optRed:    uuid.New(),
		optBlue:   uuid.New(),
	}

	store.screens[screenID] = &types.Screen{ID: screenID, ScreenKey: f.screenKey, Name: "Intake"}
	store.questions[f.hasPet] = &types.Question{ID: f.hasPet, ScreenID: screenID, Kind: types.KindBoolean, Prompt: "Do you have a pet?", Position: 1}
	store.questions[f.petName] = &types.Question{ID: f.petName, ScreenID: screenID, Kind: types.KindShortString, Prompt: "Pet name", Position: 2}
	store.questions[f.color] = &types.Question{ID: f.color, ScreenID: screenID, Kind: types.KindEnumSingle, Prompt: "Favorite color", Position: 3}
	store.questions[f.age] = &types.Question{ID: f.age, ScreenID: screenID, Kind: types.KindNumber, Prompt: "Age", Position: 4}
	store.options[f.optRed] = &types.AnswerOption{ID: f.optRed, QuestionID: f.color, Value: "red", Label: "Red", Position: 1}
	store.options[f.optBlue] = &types.AnswerOption{ID: f.optBlue, QuestionID: f.color, Value: "blue", Label: "Blue", Position: 2}
	store.rules = append(store.rules, &types.VisibilityRule{
		ID:                    uuid.New(),
		ScreenID:              screenID,
		TargetQuestionID:      f.petName,
		ControllingQuestionID: f.hasPet,
		Predicate:             datatypes.JSON(`{"kind":"equals","bool":true}`),
	})

	set, err := store.Create(context.Background(), nil, &types.ResponseSet{Name: "fixture"})
	if err != nil {
		t.Fatalf("create set: %v", err)
	}
	f.setID = set.ID

	screens := screenAdapter{store}
	questions := questionAdapter{store}
	vis := visibility.NewEngine(screens, questions, store, log)

	f.answers = NewAnswerService(nil, log, store, store, screens, questions, vis, f.emitter)
	f.screens = NewScreenService(nil, log, store, store, screens, questions, vis)
	f.sets = NewResponseSetService(passthroughTxRunner{}, log, store, store, f.emitter)
	return f
}

func (f *fixture) etag(questionID uuid.UUID, version int64) string {
	return AnswerETag(f.setID, questionID, version)
}

func (f *fixture) row(t *testing.T, questionID uuid.UUID) *types.Response {
	t.Helper()
	row, err := f.store.Get(context.Background(), nil, f.setID, questionID)
	if err != nil {
		t.Fatalf("get row: %v", err)
	}
	return row
}

func asAPIErr(t *testing.T, err error) *apierr.Error {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected apierr.Error, got %T: %v", err, err)
	}
	return ae
}

func rawJSON(v string) RawAnswer {
	return RawAnswer{Value: []byte(v)}
}

func mustSave(t *testing.T, f *fixture, questionID uuid.UUID, ifMatch string, raw RawAnswer) *SaveAnswerResult {
	t.Helper()
	result, err := f.answers.Save(context.Background(), f.setID, questionID, ifMatch, raw)
	if err != nil {
		t.Fatalf("save answer: %v", err)
	}
	return result
}
