// Package services – ReviewCoordinator
//
// ReviewCoordinator is the only writer of word-state memory fields. Each
// submission runs under the (user, lemma) lock, reads the current state,
// applies the grade with the FSRS model and stores the new state together
// with its review event in one transaction. Identical submissions that
// overlap in time are collapsed into one write.
package services

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-srs-backend/internal/domain"
	"github.com/tbourn/go-srs-backend/internal/fsrs"
	"github.com/tbourn/go-srs-backend/internal/repo"
)

// DefaultDeviceID stamps writes whose caller did not name a device.
const DefaultDeviceID = "server"

const defaultKnownStabilityDays = 21

// SubmitRequest is one grading or exposure action.
type SubmitRequest struct {
	UserID     string
	DeviceID   string
	Lemma      string
	Grade      fsrs.Grade
	DurationMs int64
	Mode       domain.ReviewMode

	// IdempotencyKey, when set, makes retries of the same request return
	// the recorded outcome instead of grading again.
	IdempotencyKey string
}

// SubmitResult is the stored word state after a submission.
type SubmitResult struct {
	State domain.WordState
	// EventID is the review event written for this submission.
	EventID string
	// Replayed is true when the result was served from an earlier
	// submission with the same idempotency key.
	Replayed bool
}

// ReviewCoordinator applies review submissions.
type ReviewCoordinator struct {
	DB      *gorm.DB
	Store   WordStore
	Model   *fsrs.Model
	Lexicon Lexicon // optional
	Locks   *KeyLocks

	KnownStabilityDays float64
	MaxWriteRetries    int
	IdempotencyTTL     time.Duration
	DefaultDevice      string

	// Now is the clock; tests replace it.
	Now func() time.Time

	inflight singleflight.Group
}

// NewReviewCoordinator returns a coordinator with default thresholds.
// locks must be shared with every other writer of word states.
func NewReviewCoordinator(db *gorm.DB, store WordStore, model *fsrs.Model, locks *KeyLocks) *ReviewCoordinator {
	if locks == nil {
		locks = NewKeyLocks()
	}
	return &ReviewCoordinator{
		DB:                 db,
		Store:              store,
		Model:              model,
		Locks:              locks,
		KnownStabilityDays: defaultKnownStabilityDays,
		MaxWriteRetries:    defaultMaxWriteRetries,
		IdempotencyTTL:     24 * time.Hour,
		DefaultDevice:      DefaultDeviceID,
		Now:                time.Now,
	}
}

// Submit applies req and returns the resulting word state.
//
// Explicit mode creates the word if needed and updates its memory and
// schedule. Session-fallback mode only records a session_<grade> event and
// fails with ErrUnknownWord for words never captured. Implicit exposure
// creates the word if needed and records an exposure event; the grade is
// ignored.
//
// ctx may cancel the call while it waits for the word's lock. Once the
// write starts it runs to completion.
func (c *ReviewCoordinator) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	tr := otel.Tracer("services/ReviewCoordinator")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("user.id", req.UserID),
			attribute.String("review.mode", string(req.Mode)),
			attribute.Int("review.grade", int(req.Grade)),
		),
	)
	defer span.End()

	req, err := c.normalize(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("word.lemma", req.Lemma))

	flightKey := wordKey(req.UserID, req.Lemma) + "\x00" + string(req.Mode) +
		"\x00" + strconv.Itoa(int(req.Grade)) + "\x00" + req.IdempotencyKey

	var (
		v      any
		shared bool
	)
	for {
		v, err, shared = c.inflight.Do(flightKey, func() (any, error) {
			return c.submitLocked(ctx, req)
		})
		// A joined flight can fail on the leader's cancellation alone.
		if shared && ctx.Err() == nil &&
			(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			continue
		}
		break
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	res := *(v.(*SubmitResult))
	if shared {
		span.SetAttributes(attribute.Bool("review.shared", true))
	}
	return &res, nil
}

func (c *ReviewCoordinator) normalize(req SubmitRequest) (SubmitRequest, error) {
	if req.Mode == "" {
		req.Mode = domain.ModeExplicit
	}
	if !req.Mode.Valid() {
		return req, ErrInvalidMode
	}
	if req.Mode == domain.ModeImplicitExposure {
		req.Grade = 0
	} else if !req.Grade.IsValid() {
		return req, ErrInvalidGrade
	}
	req.Lemma = domain.NormalizeLemma(req.Lemma)
	if req.Lemma == "" {
		return req, ErrInvalidLemma
	}
	if req.DurationMs < 0 {
		req.DurationMs = 0
	}
	if req.DeviceID == "" {
		req.DeviceID = c.DefaultDevice
	}
	return req, nil
}

func (c *ReviewCoordinator) submitLocked(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	release, err := c.Locks.Lock(ctx, wordKey(req.UserID, req.Lemma))
	if err != nil {
		return nil, err
	}
	defer release()

	// Past this point the mutation runs to completion.
	wctx := context.WithoutCancel(ctx)
	now := c.now()

	res, err := retryConflicts(wctx, c.MaxWriteRetries, func() (*SubmitResult, error) {
		return c.apply(wctx, req, now)
	})
	if err != nil {
		if errors.Is(err, ErrConcurrentWriteConflict) {
			log.Warn().Str("user_id", req.UserID).Str("lemma", req.Lemma).
				Msg("review write gave up after repeated conflicts")
		}
		return nil, err
	}
	if res.Replayed {
		dedupedTotal.Inc()
	} else {
		grade := "none"
		if req.Grade.IsValid() {
			grade = req.Grade.String()
		}
		reviewsTotal.WithLabelValues(string(req.Mode), grade).Inc()
	}
	return res, nil
}

// apply performs one read-modify-write attempt in a transaction.
func (c *ReviewCoordinator) apply(ctx context.Context, req SubmitRequest, now time.Time) (*SubmitResult, error) {
	var out *SubmitResult
	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.IdempotencyKey != "" {
			rec, err := repo.GetIdempotency(ctx, tx, req.UserID, req.Lemma, req.IdempotencyKey, now)
			switch {
			case err == nil:
				ws, err := c.Store.GetWordState(ctx, tx, req.UserID, req.Lemma)
				if err != nil {
					return err
				}
				out = &SubmitResult{State: *ws, EventID: rec.EventID, Replayed: true}
				return nil
			case !errors.Is(err, repo.ErrNotFound):
				return err
			}
		}

		ws, err := c.Store.GetWordState(ctx, tx, req.UserID, req.Lemma)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			if req.Mode == domain.ModeSessionFallback {
				return ErrUnknownWord
			}
			fresh := domain.NewWordState(req.UserID, req.Lemma, req.DeviceID,
				priorDifficulty(c.Lexicon, c.Model, req.Lemma), now)
			if err := c.Store.CreateWordState(ctx, tx, &fresh); err != nil {
				return err
			}
			ws = &fresh
		case err != nil:
			return err
		}

		ev := domain.ReviewEvent{
			ID:          uuid.NewString(),
			UserID:      req.UserID,
			Lemma:       req.Lemma,
			Grade:       int(req.Grade),
			ReviewDate:  now,
			DurationMs:  req.DurationMs,
			ReviewState: domain.ReviewStateFor(req.Mode, req.Grade),
			DeviceID:    req.DeviceID,
			CreatedAt:   now,
		}

		if req.Mode == domain.ModeExplicit {
			ev.ScheduledDays = applyGrade(c.Model, c.KnownStabilityDays, ws, req.Grade, now)
			ws.DeviceID = req.DeviceID
			if err := c.Store.UpdateWordState(ctx, tx, ws); err != nil {
				return err
			}
		}

		if err := c.Store.AppendReviewEvent(ctx, tx, &ev); err != nil {
			return err
		}

		if req.IdempotencyKey != "" {
			_, err := repo.CreateIdempotency(ctx, tx, req.UserID, req.Lemma, req.IdempotencyKey,
				ev.ID, 200, now, c.IdempotencyTTL)
			if errors.Is(err, repo.ErrDuplicate) {
				// Another process recorded the key first; retrying replays it.
				return repo.ErrConflict
			}
			if err != nil {
				return err
			}
		}

		out = &SubmitResult{State: *ws, EventID: ev.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReviewCoordinator) now() time.Time {
	f := c.Now
	if f == nil {
		f = time.Now
	}
	return f().UTC().Truncate(time.Millisecond)
}

// applyGrade moves ws through one explicit review at now and returns the
// scheduled interval in days. It is the single transition used by live
// grading and by replay.
func applyGrade(m *fsrs.Model, knownStabilityDays float64, ws *domain.WordState, g fsrs.Grade, now time.Time) int {
	ref := ws.CreatedAt
	if ws.LastReviewDate != nil {
		ref = *ws.LastReviewDate
	}
	elapsed := math.Max(now.Sub(ref).Hours()/24, 0)

	res := m.NextState(fsrs.Memory{Stability: ws.Stability, Difficulty: ws.Difficulty}, g, elapsed)
	days := m.NextInterval(res.Stability)
	next := now.Add(time.Duration(days) * 24 * time.Hour)
	last := now

	ws.Stability = res.Stability
	ws.Difficulty = res.Difficulty
	ws.Retrievability = res.Retrievability
	ws.NextReviewDate = &next
	ws.LastReviewDate = &last
	ws.ReviewCount++
	if g == fsrs.Again {
		ws.LapseCount++
	}
	ws.Status = deriveStatus(ws, knownStabilityDays)
	ws.StateUpdatedAt = now
	return days
}

// deriveStatus maps memory to a learning stage. Ignored is only left
// through an explicit unignore.
func deriveStatus(ws *domain.WordState, knownStabilityDays float64) domain.Status {
	if knownStabilityDays <= 0 {
		knownStabilityDays = defaultKnownStabilityDays
	}
	switch {
	case ws.Status == domain.StatusIgnored:
		return domain.StatusIgnored
	case ws.ReviewCount > 0 && ws.Stability >= knownStabilityDays:
		return domain.StatusKnown
	case ws.ReviewCount > 0:
		return domain.StatusLearning
	default:
		return domain.StatusNew
	}
}

// priorDifficulty seeds a new word's difficulty from its frequency rank;
// 0 means no prior.
func priorDifficulty(lex Lexicon, m *fsrs.Model, lemma string) float64 {
	if lex == nil || m == nil {
		return 0
	}
	rank, ok := lex.RankFor(lemma)
	if !ok || rank <= 0 {
		return 0
	}
	return m.ClampDifficulty(DifficultyForRank(rank))
}

// DifficultyForRank is the unclamped prior 2 + 8*rank/60000: common words
// start easy, rare ones hard.
func DifficultyForRank(rank int) float64 {
	return 2 + float64(rank)/60000*8
}
