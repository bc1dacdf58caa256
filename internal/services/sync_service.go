// Package services – SyncService
//
// SyncService applies replicas that another device produced while offline.
// Review events are unioned by id. Word states are merged with Merge under
// the same per-word lock the ReviewCoordinator uses, and written with the
// optimistic version check. It does not deliver data between devices; the
// caller brings the remote batch.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-srs-backend/internal/domain"
	"github.com/tbourn/go-srs-backend/internal/repo"
)

// SyncBatch is the payload exchanged with another device.
type SyncBatch struct {
	States []domain.WordState   `json:"states"`
	Events []domain.ReviewEvent `json:"events"`
}

// SyncResult summarizes ApplyRemote.
type SyncResult struct {
	Merged      []domain.WordState `json:"merged"`
	Created     int                `json:"created"`
	Updated     int                `json:"updated"`
	Unchanged   int                `json:"unchanged"`
	EventsAdded int64              `json:"events_added"`
}

// SyncService reconciles remote replicas into the local store.
type SyncService struct {
	DB              *gorm.DB
	Store           WordStore
	Locks           *KeyLocks
	MaxWriteRetries int
}

// ApplyRemote merges batch, received from deviceID, into userID's data and
// returns the resulting local states of every key in the batch. Entries
// with a blank lemma are skipped; user ids in the payload are ignored in
// favor of userID.
func (s *SyncService) ApplyRemote(ctx context.Context, userID, deviceID string, batch SyncBatch) (*SyncResult, error) {
	tr := otel.Tracer("services/SyncService")
	ctx, span := tr.Start(ctx, "ApplyRemote",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("device.id", deviceID),
			attribute.Int("sync.states", len(batch.States)),
			attribute.Int("sync.events", len(batch.Events)),
		),
	)
	defer span.End()

	res := &SyncResult{Merged: []domain.WordState{}}

	events := make([]domain.ReviewEvent, 0, len(batch.Events))
	for _, ev := range batch.Events {
		ev.UserID = userID
		ev.Lemma = domain.NormalizeLemma(ev.Lemma)
		if ev.ID == "" || ev.Lemma == "" {
			continue
		}
		if ev.DeviceID == "" {
			ev.DeviceID = deviceID
		}
		ev.ReviewDate = ev.ReviewDate.UTC().Truncate(time.Millisecond)
		events = append(events, ev)
	}
	added, err := repo.UnionReviewEvents(ctx, s.DB, events)
	if err != nil {
		return nil, err
	}
	res.EventsAdded = added

	for _, remote := range batch.States {
		remote.UserID = userID
		remote.Lemma = domain.NormalizeLemma(remote.Lemma)
		if remote.Lemma == "" {
			continue
		}
		if remote.DeviceID == "" {
			remote.DeviceID = deviceID
		}
		if remote.CreatedAt.IsZero() {
			remote.CreatedAt = remote.StateUpdatedAt
		}
		normalizeTimes(&remote)

		merged, outcome, err := s.applyOne(ctx, remote)
		if err != nil {
			return nil, err
		}
		mergesTotal.WithLabelValues(outcome).Inc()
		switch outcome {
		case "created":
			res.Created++
		case "updated":
			res.Updated++
		default:
			res.Unchanged++
		}
		res.Merged = append(res.Merged, *merged)
	}
	return res, nil
}

func (s *SyncService) applyOne(ctx context.Context, remote domain.WordState) (*domain.WordState, string, error) {
	release, err := s.Locks.Lock(ctx, wordKey(remote.UserID, remote.Lemma))
	if err != nil {
		return nil, "", err
	}
	defer release()
	wctx := context.WithoutCancel(ctx)

	type applied struct {
		ws      *domain.WordState
		outcome string
	}
	out, err := retryConflicts(wctx, s.MaxWriteRetries, func() (applied, error) {
		local, err := s.Store.GetWordState(wctx, s.DB, remote.UserID, remote.Lemma)
		if errors.Is(err, repo.ErrNotFound) {
			fresh := sanitize(remote)
			fresh.Version = 1
			if err := s.Store.CreateWordState(wctx, s.DB, &fresh); err != nil {
				return applied{}, err
			}
			return applied{&fresh, "created"}, nil
		}
		if err != nil {
			return applied{}, err
		}

		if MergeAmbiguous(*local, remote) {
			mergeAmbiguityTotal.Inc()
			log.Warn().
				Str("user_id", remote.UserID).
				Str("lemma", remote.Lemma).
				Str("local_device", local.DeviceID).
				Str("remote_device", remote.DeviceID).
				Time("state_updated_at", remote.StateUpdatedAt).
				Msg("merge ambiguity: equal state_updated_at from different devices")
		}

		merged := Merge(*local, remote)
		merged.Version = local.Version
		if sameState(*local, merged) {
			return applied{local, "unchanged"}, nil
		}
		if err := s.Store.UpdateWordState(wctx, s.DB, &merged); err != nil {
			return applied{}, err
		}
		return applied{&merged, "updated"}, nil
	})
	if err != nil {
		return nil, "", err
	}
	return out.ws, out.outcome, nil
}

// Changes returns the states and events of userID that changed after since,
// for delivery to another device.
func (s *SyncService) Changes(ctx context.Context, userID string, since time.Time) (*SyncBatch, error) {
	tr := otel.Tracer("services/SyncService")
	ctx, span := tr.Start(ctx, "Changes", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	states, err := repo.ListWordStatesChangedSince(ctx, s.DB, userID, since)
	if err != nil {
		return nil, err
	}
	events, err := repo.ListReviewEventsSince(ctx, s.DB, userID, since)
	if err != nil {
		return nil, err
	}
	if states == nil {
		states = []domain.WordState{}
	}
	if events == nil {
		events = []domain.ReviewEvent{}
	}
	return &SyncBatch{States: states, Events: events}, nil
}

// sameState compares every stored field except the version.
func sameState(a, b domain.WordState) bool {
	return a.Status == b.Status &&
		a.Stability == b.Stability &&
		a.Difficulty == b.Difficulty &&
		a.InitialDifficulty == b.InitialDifficulty &&
		a.Retrievability == b.Retrievability &&
		compareTimePtr(a.NextReviewDate, b.NextReviewDate) == 0 &&
		compareTimePtr(a.LastReviewDate, b.LastReviewDate) == 0 &&
		a.ReviewCount == b.ReviewCount &&
		a.LapseCount == b.LapseCount &&
		a.StateUpdatedAt.Equal(b.StateUpdatedAt) &&
		a.DeviceID == b.DeviceID &&
		a.CreatedAt.Equal(b.CreatedAt)
}

// Stored times are UTC with millisecond precision.
func normalizeTimes(ws *domain.WordState) {
	ws.StateUpdatedAt = ws.StateUpdatedAt.UTC().Truncate(time.Millisecond)
	ws.CreatedAt = ws.CreatedAt.UTC().Truncate(time.Millisecond)
	if ws.NextReviewDate != nil {
		t := ws.NextReviewDate.UTC().Truncate(time.Millisecond)
		ws.NextReviewDate = &t
	}
	if ws.LastReviewDate != nil {
		t := ws.LastReviewDate.UTC().Truncate(time.Millisecond)
		ws.LastReviewDate = &t
	}
}
