package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-srs-backend/internal/domain"
	"github.com/tbourn/go-srs-backend/internal/fsrs"
	"github.com/tbourn/go-srs-backend/internal/repo"
)

// WordService covers word lifecycle changes outside grading: capture,
// ignore and unignore, and the per-user reset.
type WordService struct {
	DB      *gorm.DB
	Store   WordStore
	Model   *fsrs.Model
	Lexicon Lexicon // optional
	Locks   *KeyLocks

	KnownStabilityDays float64
	MaxWriteRetries    int
	DefaultDevice      string
	Now                func() time.Time
}

// Capture adds lemma to userID's words with status new. Capturing an
// existing word returns it unchanged with created == false.
func (s *WordService) Capture(ctx context.Context, userID, deviceID, lemma string) (ws *domain.WordState, created bool, err error) {
	tr := otel.Tracer("services/WordService")
	ctx, span := tr.Start(ctx, "Capture", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	lemma = domain.NormalizeLemma(lemma)
	if lemma == "" {
		return nil, false, ErrInvalidLemma
	}
	release, err := s.Locks.Lock(ctx, wordKey(userID, lemma))
	if err != nil {
		return nil, false, err
	}
	defer release()
	ctx = context.WithoutCancel(ctx)

	if existing, err := s.Store.GetWordState(ctx, s.DB, userID, lemma); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}

	fresh := domain.NewWordState(userID, lemma, s.device(deviceID),
		priorDifficulty(s.Lexicon, s.Model, lemma), s.now())
	if err := s.Store.CreateWordState(ctx, s.DB, &fresh); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			// Created by another process since the read.
			existing, gerr := s.Store.GetWordState(ctx, s.DB, userID, lemma)
			if gerr != nil {
				return nil, false, gerr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return &fresh, true, nil
}

// SetIgnored moves a word into or out of the ignored status. Unignoring
// re-derives the status from the word's memory. Setting the current value
// again is a no-op.
func (s *WordService) SetIgnored(ctx context.Context, userID, deviceID, lemma string, ignored bool) (*domain.WordState, error) {
	tr := otel.Tracer("services/WordService")
	ctx, span := tr.Start(ctx, "SetIgnored",
		trace.WithAttributes(attribute.String("user.id", userID), attribute.Bool("word.ignored", ignored)))
	defer span.End()

	lemma = domain.NormalizeLemma(lemma)
	if lemma == "" {
		return nil, ErrInvalidLemma
	}
	release, err := s.Locks.Lock(ctx, wordKey(userID, lemma))
	if err != nil {
		return nil, err
	}
	defer release()
	ctx = context.WithoutCancel(ctx)

	return retryConflicts(ctx, s.MaxWriteRetries, func() (*domain.WordState, error) {
		ws, err := s.Store.GetWordState(ctx, s.DB, userID, lemma)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnknownWord
		}
		if err != nil {
			return nil, err
		}
		if (ws.Status == domain.StatusIgnored) == ignored {
			return ws, nil
		}
		if ignored {
			ws.Status = domain.StatusIgnored
		} else {
			ws.Status = domain.StatusNew
			ws.Status = deriveStatus(ws, s.KnownStabilityDays)
		}
		ws.StateUpdatedAt = s.now()
		ws.DeviceID = s.device(deviceID)
		if err := s.Store.UpdateWordState(ctx, s.DB, ws); err != nil {
			return nil, err
		}
		return ws, nil
	})
}

// ResetUser deletes every word state, review event and idempotency record
// of userID.
func (s *WordService) ResetUser(ctx context.Context, userID string) (states, events int64, err error) {
	tr := otel.Tracer("services/WordService")
	ctx, span := tr.Start(ctx, "ResetUser", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	return repo.DeleteUserData(ctx, s.DB, userID)
}

func (s *WordService) device(id string) string {
	switch {
	case id != "":
		return id
	case s.DefaultDevice != "":
		return s.DefaultDevice
	}
	return DefaultDeviceID
}

func (s *WordService) now() time.Time {
	f := s.Now
	if f == nil {
		f = time.Now
	}
	return f().UTC().Truncate(time.Millisecond)
}
