package services

import (
	"context"
	"errors"
	"math"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-srs-backend/internal/domain"
	"github.com/tbourn/go-srs-backend/internal/fsrs"
	"github.com/tbourn/go-srs-backend/internal/repo"
)

// ReplayReport compares a stored word state with the one rebuilt from its
// event log.
type ReplayReport struct {
	Stored  domain.WordState `json:"stored"`
	Rebuilt domain.WordState `json:"rebuilt"`
	Events  int              `json:"events"`
	// Drift names the fields where the two differ; empty means the
	// projection matches the log.
	Drift []string `json:"drift"`
}

// Rebuild replays events over seed and returns the resulting state. Only
// explicit grades change the state; session and exposure events are
// history. Events are applied in (review_date, id) order.
func Rebuild(m *fsrs.Model, knownStabilityDays float64, seed domain.WordState, events []domain.ReviewEvent) domain.WordState {
	ordered := slices.Clone(events)
	slices.SortStableFunc(ordered, func(a, b domain.ReviewEvent) int {
		switch {
		case a.Before(&b):
			return -1
		case b.Before(&a):
			return 1
		}
		return 0
	})

	ws := seed
	for _, ev := range ordered {
		if !ev.ReviewState.Explicit() {
			continue
		}
		g := fsrs.Grade(ev.Grade)
		if !g.IsValid() {
			continue
		}
		at := ev.ReviewDate.UTC()
		applyGrade(m, knownStabilityDays, &ws, g, at)
		ws.DeviceID = ev.DeviceID
	}
	return ws
}

// Replay rebuilds the word from its log, starting at the captured state
// (created_at and difficulty prior of the stored row), and reports drift.
// Nothing is written.
func (c *ReviewCoordinator) Replay(ctx context.Context, userID, lemma string) (*ReplayReport, error) {
	tr := otel.Tracer("services/ReviewCoordinator")
	ctx, span := tr.Start(ctx, "Replay", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	lemma = domain.NormalizeLemma(lemma)
	if lemma == "" {
		return nil, ErrInvalidLemma
	}
	stored, err := c.Store.GetWordState(ctx, c.DB, userID, lemma)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUnknownWord
	}
	if err != nil {
		return nil, err
	}
	events, err := repo.ListReviewEvents(ctx, c.DB, userID, lemma)
	if err != nil {
		return nil, err
	}

	seed := domain.NewWordState(userID, lemma, stored.DeviceID, stored.InitialDifficulty, stored.CreatedAt)
	if stored.Status == domain.StatusIgnored {
		seed.Status = domain.StatusIgnored
	}
	rebuilt := Rebuild(c.Model, c.KnownStabilityDays, seed, events)
	rebuilt.Version = stored.Version

	return &ReplayReport{
		Stored:  *stored,
		Rebuilt: rebuilt,
		Events:  len(events),
		Drift:   drift(*stored, rebuilt),
	}, nil
}

const driftTolerance = 1e-9

func drift(a, b domain.WordState) []string {
	out := []string{}
	near := func(x, y float64) bool { return math.Abs(x-y) <= driftTolerance }
	if !near(a.Stability, b.Stability) {
		out = append(out, "stability")
	}
	if !near(a.Difficulty, b.Difficulty) {
		out = append(out, "difficulty")
	}
	if !near(a.Retrievability, b.Retrievability) {
		out = append(out, "retrievability")
	}
	if compareTimePtr(a.NextReviewDate, b.NextReviewDate) != 0 {
		out = append(out, "next_review_date")
	}
	if compareTimePtr(a.LastReviewDate, b.LastReviewDate) != 0 {
		out = append(out, "last_review_date")
	}
	if a.ReviewCount != b.ReviewCount {
		out = append(out, "review_count")
	}
	if a.LapseCount != b.LapseCount {
		out = append(out, "lapse_count")
	}
	if a.Status != b.Status {
		out = append(out, "status")
	}
	return out
}
