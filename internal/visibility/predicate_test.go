package visibility

import (
	"testing"

	"github.com/google/uuid"

	types "github.com/formloom/formloom-backend/internal/domain"
	"github.com/formloom/formloom-backend/internal/pkg/logger"
	"github.com/formloom/formloom-backend/internal/pkg/pointers"
)

func testLoggerForEngine() (*logger.Logger, error) {
	return logger.New("test")
}

func TestParsePredicateValidation(t *testing.T) {
	t.Parallel()

	valid := [][]byte{
		[]byte(`{"kind":"answered"}`),
		[]byte(`{"kind":"equals","bool":true}`),
		[]byte(`{"kind":"equals","number":3}`),
		[]byte(`{"kind":"equals","text":"yes"}`),
		[]byte(`{"kind":"equals","option":"red"}`),
	}
	for _, raw := range valid {
		if _, err := ParsePredicate(raw); err != nil {
			t.Fatalf("valid predicate rejected: %s: %v", raw, err)
		}
	}

	invalid := [][]byte{
		nil,
		[]byte(`{}`),
		[]byte(`{"kind":"sometimes"}`),
		[]byte(`{"kind":"equals"}`),
		[]byte(`{"kind":"equals","bool":true,"text":"yes"}`),
	}
	for _, raw := range invalid {
		if _, err := ParsePredicate(raw); err == nil {
			t.Fatalf("invalid predicate accepted: %s", raw)
		}
	}
}

func TestPredicateHolds(t *testing.T) {
	t.Parallel()

	answered := Predicate{Kind: "answered"}
	if answered.Holds(nil, nil) {
		t.Fatal("answered must not hold for a missing row")
	}
	cleared := &types.Response{}
	if answered.Holds(cleared, nil) {
		t.Fatal("answered must not hold for a cleared row")
	}
	withText := &types.Response{ValueText: pointers.String("hi")}
	if !answered.Holds(withText, nil) {
		t.Fatal("answered must hold for any stored value")
	}

	equalsTrue := Predicate{Kind: "equals", Bool: pointers.Bool(true)}
	if !equalsTrue.Holds(&types.Response{ValueBool: pointers.Bool(true)}, nil) {
		t.Fatal("equals bool true must hold")
	}
	if equalsTrue.Holds(&types.Response{ValueBool: pointers.Bool(false)}, nil) {
		t.Fatal("equals bool must not hold on mismatch")
	}
	if equalsTrue.Holds(withText, nil) {
		t.Fatal("equals bool must not hold against a text answer")
	}

	optRed := uuid.New()
	lookup := func(id uuid.UUID) (string, bool) {
		if id == optRed {
			return "red", true
		}
		return "", false
	}
	equalsOption := Predicate{Kind: "equals", Option: pointers.String("red")}
	if !equalsOption.Holds(&types.Response{OptionID: &optRed}, lookup) {
		t.Fatal("equals option must hold on the matching token")
	}
	other := uuid.New()
	if equalsOption.Holds(&types.Response{OptionID: &other}, lookup) {
		t.Fatal("equals option must not hold for an unknown option")
	}
}

func TestDeltaSuppressedIsSubsetOfHidden(t *testing.T) {
	t.Parallel()
	log, err := testLoggerForEngine()
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	eng := NewEngine(nil, nil, nil, log)

	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	pre := []uuid.UUID{a, b, c}
	post := []uuid.UUID{a, d}

	stored := map[uuid.UUID]bool{b: true}
	delta := eng.Delta(pre, post, func(id uuid.UUID) bool { return stored[id] })

	if len(delta.NowVisible) != 1 || delta.NowVisible[0] != d {
		t.Fatalf("unexpected now_visible: %v", delta.NowVisible)
	}
	if len(delta.NowHidden) != 2 {
		t.Fatalf("unexpected now_hidden: %v", delta.NowHidden)
	}
	hidden := map[uuid.UUID]struct{}{}
	for _, id := range delta.NowHidden {
		hidden[id] = struct{}{}
	}
	for _, id := range delta.Suppressed {
		if _, ok := hidden[id]; !ok {
			t.Fatalf("suppressed id %s not hidden", id)
		}
	}
	if len(delta.Suppressed) != 1 || delta.Suppressed[0] != b {
		t.Fatalf("unexpected suppressed: %v", delta.Suppressed)
	}
}

func TestDeltaEmptyWhenSetsMatch(t *testing.T) {
	t.Parallel()
	log, err := testLoggerForEngine()
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	eng := NewEngine(nil, nil, nil, log)

	a, b := uuid.New(), uuid.New()
	delta := eng.Delta([]uuid.UUID{a, b}, []uuid.UUID{a, b}, nil)
	if len(delta.NowVisible) != 0 || len(delta.NowHidden) != 0 || len(delta.Suppressed) != 0 {
		t.Fatalf("identical sets must yield an empty delta: %+v", delta)
	}
}
