package services

import (
	"context"
	"net/http"
	"testing"
)

func TestBatchAppliesInOrderWithIsolation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	badOption := "chartreuse"
	req := BatchRequest{
		Items: []BatchItem{
			{QuestionID: f.age.String(), ETag: f.etag(f.age, 0), RawAnswer: rawJSON(`3`)},
			{QuestionID: f.color.String(), ETag: f.etag(f.color, 0), RawAnswer: rawJSON(`"` + badOption + `"`)},
			{QuestionID: f.hasPet.String(), ETag: f.etag(f.hasPet, 0), RawAnswer: rawJSON(`true`)},
		},
	}

	result, err := f.answers.SaveBatch(context.Background(), f.setID, req)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(result.Items) != len(req.Items) {
		t.Fatalf("results must mirror items: got=%d want=%d", len(result.Items), len(req.Items))
	}
	for i, item := range req.Items {
		if result.Items[i].QuestionID != item.QuestionID {
			t.Fatalf("result %d out of order: got=%s want=%s", i, result.Items[i].QuestionID, item.QuestionID)
		}
	}

	if result.Items[0].Outcome != "success" || result.Items[0].StateVersion == nil || *result.Items[0].StateVersion != 1 {
		t.Fatalf("item 0 should succeed: %+v", result.Items[0])
	}
	if result.Items[1].Outcome != "error" || result.Items[1].Error == nil || result.Items[1].Error.Code != CodeAnswerOptionUnresolved {
		t.Fatalf("item 1 should fail with option error: %+v", result.Items[1])
	}
	if result.Items[2].Outcome != "success" {
		t.Fatalf("item 2 should succeed despite item 1 failing: %+v", result.Items[2])
	}

	// The failed item left no trace; the successful ones landed.
	if f.row(t, f.color) != nil {
		t.Fatal("failed item created a row")
	}
	if f.row(t, f.age) == nil || f.row(t, f.hasPet) == nil {
		t.Fatal("successful items not persisted")
	}
}

func TestBatchRejectsEmptyItems(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.answers.SaveBatch(context.Background(), f.setID, BatchRequest{})
	if ae := asAPIErr(t, err); ae.Status != http.StatusBadRequest || ae.Code != CodeBatchEmpty {
		t.Fatalf("unexpected error: status=%d code=%s", ae.Status, ae.Code)
	}
}

func TestBatchRejectsUnknownMode(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	req := BatchRequest{
		Mode:  "upsert",
		Items: []BatchItem{{QuestionID: f.age.String(), ETag: f.etag(f.age, 0), RawAnswer: rawJSON(`1`)}},
	}
	_, err := f.answers.SaveBatch(context.Background(), f.setID, req)
	if ae := asAPIErr(t, err); ae.Code != CodeBatchModeInvalid {
		t.Fatalf("unexpected code: %s", ae.Code)
	}
}

func TestBatchReportsMalformedQuestionIDPerItem(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	req := BatchRequest{
		Mode: BatchModeReplace,
		Items: []BatchItem{
			{QuestionID: "not-a-uuid", ETag: "irrelevant", RawAnswer: rawJSON(`1`)},
			{QuestionID: f.age.String(), ETag: f.etag(f.age, 0), RawAnswer: rawJSON(`1`)},
		},
	}
	result, err := f.answers.SaveBatch(context.Background(), f.setID, req)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if result.Items[0].Outcome != "error" || result.Items[0].Error.Code != CodeQuestionIDMalformed {
		t.Fatalf("item 0 should fail with malformed id: %+v", result.Items[0])
	}
	if result.Items[1].Outcome != "success" {
		t.Fatalf("item 1 should succeed: %+v", result.Items[1])
	}
}

func TestBatchStaleItemDoesNotAbortBatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	mustSave(t, f, f.age, f.etag(f.age, 0), rawJSON(`1`))

	req := BatchRequest{
		Items: []BatchItem{
			{QuestionID: f.age.String(), ETag: f.etag(f.age, 0), RawAnswer: rawJSON(`2`)},
			{QuestionID: f.hasPet.String(), ETag: f.etag(f.hasPet, 0), RawAnswer: rawJSON(`false`)},
		},
	}
	result, err := f.answers.SaveBatch(context.Background(), f.setID, req)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if result.Items[0].Outcome != "error" || result.Items[0].Error.Code != CodeIfMatchStale {
		t.Fatalf("item 0 should fail stale: %+v", result.Items[0])
	}
	if result.Items[1].Outcome != "success" {
		t.Fatalf("item 1 should succeed: %+v", result.Items[1])
	}
	if row := f.row(t, f.age); row.ValueNumber == nil || *row.ValueNumber != 1 {
		t.Fatalf("stale item mutated the row: %+v", row)
	}
}
