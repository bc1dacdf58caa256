package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-srs-backend/internal/domain"
)

// ListWordStates returns every word state of userID ordered by lemma.
func ListWordStates(ctx context.Context, db *gorm.DB, userID string) ([]domain.WordState, error) {
	var out []domain.WordState
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("lemma ASC").
		Find(&out).Error
	return out, err
}

// ListWordStatesChangedSince returns the word states of userID whose
// state_updated_at is strictly after since.
func ListWordStatesChangedSince(ctx context.Context, db *gorm.DB, userID string, since time.Time) ([]domain.WordState, error) {
	var out []domain.WordState
	err := db.WithContext(ctx).
		Where("user_id = ? AND state_updated_at > ?", userID, since.UTC()).
		Order("state_updated_at ASC, lemma ASC").
		Find(&out).Error
	return out, err
}

// GetWordState fetches one word state or returns ErrNotFound.
func GetWordState(ctx context.Context, db *gorm.DB, userID, lemma string) (*domain.WordState, error) {
	var ws domain.WordState
	err := db.WithContext(ctx).
		Where("user_id = ? AND lemma = ?", userID, lemma).
		First(&ws).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ws, nil
}

// CreateWordState inserts ws. A concurrent insert of the same key surfaces
// as ErrConflict so callers can re-read and retry.
func CreateWordState(ctx context.Context, db *gorm.DB, ws *domain.WordState) error {
	if ws.Version <= 0 {
		ws.Version = 1
	}
	if err := db.WithContext(ctx).Create(ws).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// UpdateWordState writes every mutable column of ws if the stored version
// still equals ws.Version, then bumps ws.Version. Zero rows affected means
// another writer got there first and ErrConflict is returned.
func UpdateWordState(ctx context.Context, db *gorm.DB, ws *domain.WordState) error {
	expected := ws.Version
	res := db.WithContext(ctx).
		Model(&domain.WordState{}).
		Where("user_id = ? AND lemma = ? AND version = ?", ws.UserID, ws.Lemma, expected).
		Updates(map[string]any{
			"status":             ws.Status,
			"stability":          ws.Stability,
			"difficulty":         ws.Difficulty,
			"initial_difficulty": ws.InitialDifficulty,
			"retrievability":     ws.Retrievability,
			"next_review_date":   ws.NextReviewDate,
			"last_review_date":   ws.LastReviewDate,
			"review_count":       ws.ReviewCount,
			"lapse_count":        ws.LapseCount,
			"state_updated_at":   ws.StateUpdatedAt,
			"device_id":          ws.DeviceID,
			"created_at":         ws.CreatedAt,
			"version":            expected + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	ws.Version = expected + 1
	return nil
}

// DeleteUserData removes every word state, review event and idempotency
// record of userID in one transaction. It is the only path that deletes
// review events.
func DeleteUserData(ctx context.Context, db *gorm.DB, userID string) (states, events int64, err error) {
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ?", userID).Delete(&domain.WordState{})
		if res.Error != nil {
			return res.Error
		}
		states = res.RowsAffected

		res = tx.Where("user_id = ?", userID).Delete(&domain.ReviewEvent{})
		if res.Error != nil {
			return res.Error
		}
		events = res.RowsAffected

		return tx.Where("user_id = ?", userID).Delete(&domain.Idempotency{}).Error
	})
	if err != nil {
		return 0, 0, err
	}
	return states, events, nil
}
