package services

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/go-srs-backend/internal/domain"
	"github.com/tbourn/go-srs-backend/internal/fsrs"
	"github.com/tbourn/go-srs-backend/internal/repo"
)

func TestApplyRemote_CreatesUnknownWords(t *testing.T) {
	e := newEnv(t)
	remote := replica("tablet", t0.Add(time.Hour), 2, 3.5)
	remote.UserID = "someone-else"
	remote.Lemma = "  FLUX "

	res, err := e.sync.ApplyRemote(context.Background(), "u1", "tablet", SyncBatch{States: []domain.WordState{remote}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Created != 1 || len(res.Merged) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	ws := e.state(t, "flux")
	if ws.UserID != "u1" || ws.Stability != 3.5 || ws.ReviewCount != 2 || ws.Version != 1 {
		t.Fatalf("unexpected stored state: %+v", ws)
	}
}

func TestApplyRemote_FloorsStabilityOfReviewedWords(t *testing.T) {
	e := newEnv(t)
	remote := replica("tablet", t0.Add(time.Hour), 2, 0)

	if _, err := e.sync.ApplyRemote(context.Background(), "u1", "tablet", SyncBatch{States: []domain.WordState{remote}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if ws := e.state(t, "flux"); ws.Stability <= 0 || ws.ReviewCount != 2 {
		t.Fatalf("stored reviewed word without stability: %+v", ws)
	}
}

func TestApplyRemote_NewerIgnoreFromUnreviewedDevice(t *testing.T) {
	e := newEnv(t)
	e.submit(t, "flux", fsrs.Good, domain.ModeExplicit)
	local := e.state(t, "flux")

	ignored := domain.NewWordState("u1", "flux", "tablet", 0, t0)
	ignored.Status = domain.StatusIgnored
	ignored.StateUpdatedAt = t0.Add(3 * time.Hour)
	if _, err := e.sync.ApplyRemote(context.Background(), "u1", "tablet", SyncBatch{States: []domain.WordState{ignored}}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	ws := e.state(t, "flux")
	if ws.Status != domain.StatusIgnored || ws.DeviceID != "tablet" || !ws.StateUpdatedAt.Equal(ignored.StateUpdatedAt) {
		t.Fatalf("ignore from tablet lost: %+v", ws)
	}
	if ws.Stability != local.Stability || ws.ReviewCount != 1 {
		t.Fatalf("memory fields changed: %+v", ws)
	}
}

func TestApplyRemote_MergesKnownWords(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.submit(t, "flux", fsrs.Good, domain.ModeExplicit)
	local := e.state(t, "flux")

	// Older remote with more history: schedule stays local, counters rise.
	older := replica("tablet", t0.Add(-time.Hour), 6, 40)
	older.LapseCount = 2
	res, err := e.sync.ApplyRemote(ctx, "u1", "tablet", SyncBatch{States: []domain.WordState{older}})
	if err != nil {
		t.Fatalf("apply older: %v", err)
	}
	if res.Updated != 1 {
		t.Fatalf("expected an update, got %+v", res)
	}
	ws := e.state(t, "flux")
	if ws.Stability != local.Stability || ws.DeviceID != "phone" || ws.ReviewCount != 6 || ws.LapseCount != 2 {
		t.Fatalf("older remote mishandled: %+v", ws)
	}
	if ws.Version != local.Version+1 {
		t.Fatalf("version = %d; want %d", ws.Version, local.Version+1)
	}

	// Same replica again changes nothing.
	res, err = e.sync.ApplyRemote(ctx, "u1", "tablet", SyncBatch{States: []domain.WordState{older}})
	if err != nil || res.Unchanged != 1 {
		t.Fatalf("repeat apply: %+v %v", res, err)
	}

	// Newer remote takes over the field group.
	newer := replica("tablet", t0.Add(3*time.Hour), 7, 11)
	res, err = e.sync.ApplyRemote(ctx, "u1", "tablet", SyncBatch{States: []domain.WordState{newer}})
	if err != nil || res.Updated != 1 {
		t.Fatalf("apply newer: %+v %v", res, err)
	}
	ws = e.state(t, "flux")
	if ws.Stability != 11 || ws.DeviceID != "tablet" || ws.ReviewCount != 7 || !ws.CreatedAt.Equal(t0) {
		t.Fatalf("newer remote mishandled: %+v", ws)
	}

	// The coordinator keeps working on the merged row.
	e.clock.Advance(5 * time.Hour)
	out := e.submit(t, "flux", fsrs.Good, domain.ModeExplicit)
	if out.State.ReviewCount != 8 {
		t.Fatalf("review count after merge = %d", out.State.ReviewCount)
	}
}

func TestApplyRemote_UnionsEvents(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.submit(t, "flux", fsrs.Good, domain.ModeExplicit)
	existing := e.events(t, "flux")[0]

	batch := SyncBatch{Events: []domain.ReviewEvent{
		existing,
		{ID: "remote-1", Lemma: "Flux", Grade: 1, ReviewDate: t0.Add(time.Hour), ReviewState: "again"},
		{ID: "", Lemma: "flux", Grade: 3, ReviewDate: t0, ReviewState: "good"},
		{ID: "remote-2", Lemma: " ", Grade: 3, ReviewDate: t0, ReviewState: "good"},
	}}
	res, err := e.sync.ApplyRemote(ctx, "u1", "tablet", batch)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.EventsAdded != 1 {
		t.Fatalf("events added = %d; want 1", res.EventsAdded)
	}
	evs := e.events(t, "flux")
	if len(evs) != 2 || evs[1].ID != "remote-1" || evs[1].DeviceID != "tablet" || evs[1].UserID != "u1" {
		t.Fatalf("unexpected log: %+v", evs)
	}

	res, err = e.sync.ApplyRemote(ctx, "u1", "tablet", batch)
	if err != nil || res.EventsAdded != 0 {
		t.Fatalf("second union: %+v %v", res, err)
	}
}

func TestApplyRemote_CountsAmbiguity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	at := t0.Add(time.Hour)
	if _, err := e.sync.ApplyRemote(ctx, "u1", "phone", SyncBatch{States: []domain.WordState{replica("phone", at, 3, 4)}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	before := testutil.ToFloat64(mergeAmbiguityTotal)
	if _, err := e.sync.ApplyRemote(ctx, "u1", "tablet", SyncBatch{States: []domain.WordState{replica("tablet", at, 3, 5)}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := testutil.ToFloat64(mergeAmbiguityTotal) - before; got != 1 {
		t.Fatalf("ambiguity counter delta = %v; want 1", got)
	}
	if ws := e.state(t, "flux"); ws.DeviceID != "tablet" || ws.Stability != 5 {
		t.Fatalf("tie must resolve to the larger device id: %+v", ws)
	}
}

func TestChanges(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.submit(t, "early", fsrs.Good, domain.ModeExplicit)
	e.clock.Advance(2 * time.Hour)
	e.submit(t, "late", fsrs.Hard, domain.ModeExplicit)
	e.submit(t, "early", fsrs.Easy, domain.ModeSessionFallback)

	batch, err := e.sync.Changes(ctx, "u1", t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("changes: %v", err)
	}
	if len(batch.States) != 1 || batch.States[0].Lemma != "late" {
		t.Fatalf("states = %+v", batch.States)
	}
	if len(batch.Events) != 2 {
		t.Fatalf("events = %+v", batch.Events)
	}

	empty, err := e.sync.Changes(ctx, "nobody", t0)
	if err != nil || empty.States == nil || empty.Events == nil {
		t.Fatalf("empty changes must be non-nil slices: %+v %v", empty, err)
	}
}

func TestApplyRemote_RoundTripBetweenStores(t *testing.T) {
	phone, tablet := newEnv(t), newEnv(t)
	ctx := context.Background()

	phone.submit(t, "flux", fsrs.Good, domain.ModeExplicit)
	tablet.clock.Advance(time.Hour)
	tablet.submit(t, "flux", fsrs.Again, domain.ModeExplicit)

	fromPhone, _ := phone.sync.Changes(ctx, "u1", time.Time{})
	fromTablet, _ := tablet.sync.Changes(ctx, "u1", time.Time{})

	if _, err := phone.sync.ApplyRemote(ctx, "u1", "tablet", *fromTablet); err != nil {
		t.Fatalf("phone apply: %v", err)
	}
	if _, err := tablet.sync.ApplyRemote(ctx, "u1", "phone", *fromPhone); err != nil {
		t.Fatalf("tablet apply: %v", err)
	}

	a, b := phone.state(t, "flux"), tablet.state(t, "flux")
	a.Version, b.Version = 0, 0
	if !sameState(*a, *b) {
		t.Fatalf("replicas diverged:\nphone  %+v\ntablet %+v", a, b)
	}
	if n, _ := repo.CountReviewEvents(ctx, phone.db, "u1", "flux"); n != 2 {
		t.Fatalf("phone events = %d; want 2", n)
	}
}
