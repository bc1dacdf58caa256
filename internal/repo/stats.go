package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-srs-backend/internal/domain"
)

// WordStatesStats returns the number of word states of userID and the
// greatest state_updated_at among them (nil when there are none). Any
// write through the coordinator or sync bumps the timestamp, which makes
// the pair usable as a cache validator.
func WordStatesStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.WordState{}).Where("user_id = ?", userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// ORDER BY instead of MAX(): SQLite returns MAX() over timestamps as TEXT.
	var row struct {
		StateUpdatedAt time.Time
	}
	if err = db.WithContext(ctx).
		Model(&domain.WordState{}).
		Where("user_id = ?", userID).
		Select("state_updated_at").
		Order("state_updated_at DESC").
		Limit(1).
		Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.StateUpdatedAt, nil
}

// DueCount is the number of due words of one user.
type DueCount struct {
	UserID string
	Due    int64
}

// CountDueByUser counts, per user, the words that are not ignored and are
// unscheduled or scheduled at or before now. Users with nothing due are
// left out.
func CountDueByUser(ctx context.Context, db *gorm.DB, now time.Time) ([]DueCount, error) {
	var out []DueCount
	err := db.WithContext(ctx).
		Model(&domain.WordState{}).
		Select("user_id, COUNT(*) AS due").
		Where("status <> ?", domain.StatusIgnored).
		Where("next_review_date IS NULL OR next_review_date <= ?", now.UTC()).
		Group("user_id").
		Order("user_id ASC").
		Scan(&out).Error
	return out, err
}
