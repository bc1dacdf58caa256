// Package services – queues
//
// SelectDue and SelectFallback are pure functions over a snapshot of a
// user's word states. QueueService reads the snapshot without taking any
// word lock; a slightly stale queue is fine because it is rebuilt at the
// start of every session.
package services

import (
	"cmp"
	"context"
	"slices"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-srs-backend/internal/domain"
	"github.com/tbourn/go-srs-backend/internal/fsrs"
)

// DefaultFallbackLimit caps the practice queue when no limit is given.
const DefaultFallbackLimit = 10

// SelectDue returns the words due at now: not ignored and scheduled at or
// before now (unscheduled words count as due now). Order is soonest first,
// then least stable, then lemma.
func SelectDue(states []domain.WordState, now time.Time) []domain.WordState {
	out := make([]domain.WordState, 0, len(states))
	for _, ws := range states {
		if ws.Status == domain.StatusIgnored {
			continue
		}
		if !dueAt(ws, now).After(now) {
			out = append(out, ws)
		}
	}
	sortQueue(out, now)
	return out
}

// SelectFallback returns practice words for when nothing is due. Words in
// learning or new that are scheduled in the future come first; only when
// there are none are known words offered. Ignored words never appear. The
// result uses SelectDue's order and holds at most limit entries (limit <= 0
// means DefaultFallbackLimit).
func SelectFallback(states []domain.WordState, now time.Time, limit int) []domain.WordState {
	if limit <= 0 {
		limit = DefaultFallbackLimit
	}
	var ahead, polish []domain.WordState
	for _, ws := range states {
		switch ws.Status {
		case domain.StatusLearning, domain.StatusNew:
			if ws.NextReviewDate != nil && ws.NextReviewDate.After(now) {
				ahead = append(ahead, ws)
			}
		case domain.StatusKnown:
			polish = append(polish, ws)
		}
	}
	pool := ahead
	if len(pool) == 0 {
		pool = polish
	}
	sortQueue(pool, now)
	if len(pool) > limit {
		pool = pool[:limit]
	}
	if pool == nil {
		pool = []domain.WordState{}
	}
	return pool
}

func dueAt(ws domain.WordState, now time.Time) time.Time {
	if ws.NextReviewDate == nil {
		return now
	}
	return *ws.NextReviewDate
}

func sortQueue(states []domain.WordState, now time.Time) {
	slices.SortStableFunc(states, func(a, b domain.WordState) int {
		if c := dueAt(a, now).Compare(dueAt(b, now)); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Stability, b.Stability); c != 0 {
			return c
		}
		return cmp.Compare(a.Lemma, b.Lemma)
	})
}

// QueueItem is one queue entry as shown to the learner.
type QueueItem struct {
	Lemma          string        `json:"lemma"`
	Definition     *string       `json:"definition,omitempty"`
	Status         domain.Status `json:"status"`
	Stability      float64       `json:"stability"`
	Difficulty     float64       `json:"difficulty"`
	Retrievability float64       `json:"retrievability"` // projected at the time of the request
	NextReviewDate *time.Time    `json:"next_review_date"`
	ReviewCount    int           `json:"review_count"`
}

// QueueService builds queues for one user.
type QueueService struct {
	DB            *gorm.DB
	Store         WordStore
	Model         *fsrs.Model
	Lexicon       Lexicon // optional
	FallbackLimit int
}

// DueQueue returns the due words of userID at now.
func (s *QueueService) DueQueue(ctx context.Context, userID string, now time.Time) ([]QueueItem, error) {
	tr := otel.Tracer("services/QueueService")
	ctx, span := tr.Start(ctx, "DueQueue", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	states, err := s.Store.ListWordStates(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	due := SelectDue(states, now)
	span.SetAttributes(attribute.Int("queue.size", len(due)))
	return s.decorate(due, now), nil
}

// FallbackQueue returns up to limit practice words; limit <= 0 uses the
// configured default.
func (s *QueueService) FallbackQueue(ctx context.Context, userID string, now time.Time, limit int) ([]QueueItem, error) {
	tr := otel.Tracer("services/QueueService")
	ctx, span := tr.Start(ctx, "FallbackQueue",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.Int("queue.limit", limit)))
	defer span.End()

	if limit <= 0 {
		limit = s.FallbackLimit
	}
	states, err := s.Store.ListWordStates(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	return s.decorate(SelectFallback(states, now, limit), now), nil
}

// DueCount returns the number of due words.
func (s *QueueService) DueCount(ctx context.Context, userID string, now time.Time) (int, error) {
	tr := otel.Tracer("services/QueueService")
	ctx, span := tr.Start(ctx, "DueCount", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	states, err := s.Store.ListWordStates(ctx, s.DB, userID)
	if err != nil {
		return 0, err
	}
	return len(SelectDue(states, now)), nil
}

func (s *QueueService) decorate(states []domain.WordState, now time.Time) []QueueItem {
	items := make([]QueueItem, 0, len(states))
	for _, ws := range states {
		it := QueueItem{
			Lemma:          ws.Lemma,
			Status:         ws.Status,
			Stability:      ws.Stability,
			Difficulty:     ws.Difficulty,
			NextReviewDate: ws.NextReviewDate,
			ReviewCount:    ws.ReviewCount,
		}
		if s.Model != nil && ws.LastReviewDate != nil {
			it.Retrievability = s.Model.Retrievability(ws.Stability, now.Sub(*ws.LastReviewDate).Hours()/24)
		}
		if s.Lexicon != nil {
			if def, ok := s.Lexicon.DefinitionFor(ws.Lemma); ok {
				it.Definition = &def
			}
		}
		items = append(items, it)
	}
	return items
}
