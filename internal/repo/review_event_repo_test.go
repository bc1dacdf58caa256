package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-srs-backend/internal/domain"
)

func event(id, user, lemma string, at time.Time) domain.ReviewEvent {
	return domain.ReviewEvent{
		ID: id, UserID: user, Lemma: lemma, Grade: 3,
		ReviewDate: at, ReviewState: "good", DeviceID: "phone",
	}
}

func TestAppendReviewEvent_And_DuplicateID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ev := event("e1", "u1", "verbose", testNow)
	if err := AppendReviewEvent(ctx, db, &ev); err != nil {
		t.Fatalf("append: %v", err)
	}
	if ev.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt should be stamped")
	}
	dup := event("e1", "u1", "verbose", testNow.Add(time.Hour))
	if err := AppendReviewEvent(ctx, db, &dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := GetReviewEvent(ctx, db, "e1")
	if err != nil || !got.ReviewDate.Equal(testNow) {
		t.Fatalf("get: %+v %v", got, err)
	}
	if _, err := GetReviewEvent(ctx, db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListReviewEvents_TotalOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	evs := []domain.ReviewEvent{
		event("c", "u1", "terse", testNow.Add(2*time.Hour)),
		event("b", "u1", "terse", testNow),
		event("a", "u1", "terse", testNow),
		event("z", "u1", "terse", testNow.Add(time.Millisecond)),
		event("x", "u1", "other", testNow),
	}
	for i := range evs {
		if err := AppendReviewEvent(ctx, db, &evs[i]); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := ListReviewEvents(ctx, db, "u1", "terse")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var ids string
	for _, e := range got {
		ids += e.ID
	}
	if ids != "abzc" {
		t.Fatalf("order = %q; want %q", ids, "abzc")
	}

	since, err := ListReviewEventsSince(ctx, db, "u1", testNow)
	if err != nil {
		t.Fatalf("since: %v", err)
	}
	if len(since) != 2 || since[0].ID != "z" || since[1].ID != "c" {
		t.Fatalf("unexpected since result: %+v", since)
	}
}

func TestUnionReviewEvents_SkipsKnownIDs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := []domain.ReviewEvent{
		event("e1", "u1", "lucid", testNow),
		event("e2", "u1", "lucid", testNow.Add(time.Hour)),
	}
	n, err := UnionReviewEvents(ctx, db, first)
	if err != nil || n != 2 {
		t.Fatalf("first union: n=%d err=%v", n, err)
	}

	second := []domain.ReviewEvent{
		event("e2", "u1", "lucid", testNow.Add(time.Hour)),
		event("e3", "u1", "lucid", testNow.Add(2*time.Hour)),
	}
	n, err = UnionReviewEvents(ctx, db, second)
	if err != nil || n != 1 {
		t.Fatalf("second union: n=%d err=%v", n, err)
	}

	if n, err := UnionReviewEvents(ctx, db, nil); err != nil || n != 0 {
		t.Fatalf("empty union: n=%d err=%v", n, err)
	}

	count, _ := CountReviewEvents(ctx, db, "u1", "lucid")
	if count != 3 {
		t.Fatalf("expected 3 events after union, got %d", count)
	}
}
