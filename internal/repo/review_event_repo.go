package repo

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-srs-backend/internal/domain"
)

// AppendReviewEvent inserts ev. Events are immutable; there is no update
// counterpart. A reused event id returns ErrDuplicate.
func AppendReviewEvent(ctx context.Context, db *gorm.DB, ev *domain.ReviewEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(ev).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// UnionReviewEvents inserts the events whose id is not stored yet and
// returns how many were new. It is the set-union used when events arrive
// from another device.
func UnionReviewEvents(ctx context.Context, db *gorm.DB, evs []domain.ReviewEvent) (int64, error) {
	if len(evs) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	for i := range evs {
		if evs[i].CreatedAt.IsZero() {
			evs[i].CreatedAt = now
		}
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&evs)
	return res.RowsAffected, res.Error
}

// GetReviewEvent fetches an event by id or returns ErrNotFound.
func GetReviewEvent(ctx context.Context, db *gorm.DB, id string) (*domain.ReviewEvent, error) {
	var ev domain.ReviewEvent
	if err := db.WithContext(ctx).Where("id = ?", id).First(&ev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// ListReviewEvents returns the full log of one word in (review_date, id)
// order.
func ListReviewEvents(ctx context.Context, db *gorm.DB, userID, lemma string) ([]domain.ReviewEvent, error) {
	var out []domain.ReviewEvent
	err := db.WithContext(ctx).
		Where("user_id = ? AND lemma = ?", userID, lemma).
		Order("review_date ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	sortEvents(out)
	return out, nil
}

// ListReviewEventsSince returns events of userID with review_date strictly
// after since, in log order.
func ListReviewEventsSince(ctx context.Context, db *gorm.DB, userID string, since time.Time) ([]domain.ReviewEvent, error) {
	var out []domain.ReviewEvent
	err := db.WithContext(ctx).
		Where("user_id = ? AND review_date > ?", userID, since.UTC()).
		Order("review_date ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	sortEvents(out)
	return out, nil
}

// CountReviewEvents returns the number of events recorded for one word.
func CountReviewEvents(ctx context.Context, db *gorm.DB, userID, lemma string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.ReviewEvent{}).
		Where("user_id = ? AND lemma = ?", userID, lemma).
		Count(&n).Error
	return n, err
}

// SQLite compares timestamps as text; re-sort on the decoded values so
// the log order never depends on the stored representation.
func sortEvents(evs []domain.ReviewEvent) {
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].Before(&evs[j]) })
}
