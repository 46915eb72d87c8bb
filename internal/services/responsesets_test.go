package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	types "github.com/formloom/formloom-backend/internal/domain"
)

func TestCreateResponseSet(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	view, err := f.sets.Create(context.Background(), "  Spring survey  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if view.Name != "Spring survey" {
		t.Fatalf("name not trimmed: %q", view.Name)
	}
	if view.StateVersion != 1 {
		t.Fatalf("new set must start at version 1: %d", view.StateVersion)
	}
	if view.ETag != ResponseSetETag(view.ID, 1) {
		t.Fatalf("unexpected etag: %q", view.ETag)
	}
	if view.CreatedAt.IsZero() {
		t.Fatal("created_at must be populated")
	}

	got, err := f.sets.Get(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != view.ID || got.ETag != view.ETag {
		t.Fatalf("get disagrees with create: %+v vs %+v", got, view)
	}
}

func TestCreateResponseSetValidatesName(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.sets.Create(context.Background(), "   ")
	if ae := asAPIErr(t, err); ae.Status != http.StatusBadRequest || ae.Code != CodeNameMissing {
		t.Fatalf("blank name: status=%d code=%s", ae.Status, ae.Code)
	}

	_, err = f.sets.Create(context.Background(), strings.Repeat("x", maxResponseSetNameLen+1))
	if ae := asAPIErr(t, err); ae.Code != CodeNameTooLong {
		t.Fatalf("oversized name: code=%s", ae.Code)
	}

	// The limit counts characters, not bytes.
	if _, err := f.sets.Create(context.Background(), strings.Repeat("ü", maxResponseSetNameLen)); err != nil {
		t.Fatalf("200 multibyte characters must be accepted: %v", err)
	}
}

func TestGetResponseSetUnknown(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.sets.Get(context.Background(), uuid.New())
	if ae := asAPIErr(t, err); ae.Status != http.StatusNotFound || ae.Code != CodeResponseSetIDUnknown {
		t.Fatalf("unexpected error: status=%d code=%s", ae.Status, ae.Code)
	}
}

func TestDeleteResponseSetRequiresFreshIfMatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	err := f.sets.Delete(ctx, f.setID, "")
	if ae := asAPIErr(t, err); ae.Status != http.StatusBadRequest || ae.Code != CodeIfMatchMissing {
		t.Fatalf("missing If-Match: status=%d code=%s", ae.Status, ae.Code)
	}

	err = f.sets.Delete(ctx, f.setID, ResponseSetETag(f.setID, 99))
	if ae := asAPIErr(t, err); ae.Status != http.StatusConflict || ae.Code != CodeIfMatchStale {
		t.Fatalf("stale If-Match: status=%d code=%s", ae.Status, ae.Code)
	}
	if _, err := f.sets.Get(ctx, f.setID); err != nil {
		t.Fatalf("a failed precondition must not delete the set: %v", err)
	}

	if err := f.sets.Delete(ctx, uuid.New(), ResponseSetETag(f.setID, 1)); asAPIErr(t, err).Code != CodeResponseSetIDUnknown {
		t.Fatal("unknown set must 404")
	}
}

func TestDeleteResponseSetCascadesAndPublishes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	mustSave(t, f, f.age, f.etag(f.age, 0), rawJSON(`41`))
	mustSave(t, f, f.hasPet, f.etag(f.hasPet, 0), rawJSON(`true`))
	savedEvents := f.emitter.count()

	view, err := f.sets.Get(ctx, f.setID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := f.sets.Delete(ctx, f.setID, view.ETag); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := f.sets.Get(ctx, f.setID); asAPIErr(t, err).Status != http.StatusNotFound {
		t.Fatal("deleted set must be gone")
	}
	rows, err := f.store.GetBySetID(ctx, nil, f.setID)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("answers survived the delete: %d", len(rows))
	}

	if f.emitter.count() != savedEvents+1 {
		t.Fatalf("expected exactly one deletion event, total events %d", f.emitter.count())
	}
	last := f.emitter.events[len(f.emitter.events)-1]
	if last.Type != types.EventResponseSetDeleted || last.ResponseSetID != f.setID {
		t.Fatalf("unexpected deletion event: %+v", last)
	}
}
