package domain

import (
	"time"

	"github.com/tbourn/go-srs-backend/internal/fsrs"
)

// ReviewMode selects how a grading submission affects the schedule.
type ReviewMode string

const (
	// ModeExplicit grades a due word and updates its memory state.
	ModeExplicit ReviewMode = "explicit"
	// ModeSessionFallback records practice on a not-yet-due word only.
	ModeSessionFallback ReviewMode = "session_fallback"
	// ModeImplicitExposure records that a word was seen without a recall test.
	ModeImplicitExposure ReviewMode = "implicit_exposure"
)

// Valid reports whether m is a known mode.
func (m ReviewMode) Valid() bool {
	switch m {
	case ModeExplicit, ModeSessionFallback, ModeImplicitExposure:
		return true
	}
	return false
}

// ReviewState tags a ReviewEvent with the path that produced it:
// "again".."easy" for explicit grading, "session_<grade>" for fallback
// practice and "implicit_exposure" for passive sightings.
type ReviewState string

const ReviewStateImplicitExposure ReviewState = "implicit_exposure"

// ReviewStateFor returns the event tag for a grade submitted in mode.
func ReviewStateFor(mode ReviewMode, g fsrs.Grade) ReviewState {
	switch mode {
	case ModeSessionFallback:
		return ReviewState("session_" + g.String())
	case ModeImplicitExposure:
		return ReviewStateImplicitExposure
	default:
		return ReviewState(g.String())
	}
}

// Explicit reports whether the tag belongs to a schedule-changing review.
func (s ReviewState) Explicit() bool {
	switch s {
	case "again", "hard", "good", "easy":
		return true
	}
	return false
}

// ReviewEvent is one immutable grading or exposure fact. Events are never
// updated; their total order is (ReviewDate, ID).
//
// Fields:
//   - ID: globally unique UUID, stable across devices.
//   - Grade: 1..4, or 0 for implicit exposure.
//   - ScheduledDays: interval chosen by this event; 0 when the schedule
//     was left untouched.
//   - DeviceID: origin device.
type ReviewEvent struct {
	ID            string      `json:"id"             gorm:"type:char(36);primaryKey"`
	UserID        string      `json:"user_id"        gorm:"type:varchar(64);not null;index:idx_review_events_key,priority:1"`
	Lemma         string      `json:"lemma"          gorm:"type:varchar(128);not null;index:idx_review_events_key,priority:2"`
	Grade         int         `json:"grade"          gorm:"not null;check:grade BETWEEN 0 AND 4"`
	ReviewDate    time.Time   `json:"review_date"    gorm:"not null;index:idx_review_events_key,priority:3"`
	DurationMs    int64       `json:"duration_ms"    gorm:"not null"`
	ScheduledDays int         `json:"scheduled_days" gorm:"not null"`
	ReviewState   ReviewState `json:"review_state"   gorm:"type:varchar(32);not null"`
	DeviceID      string      `json:"device_id"      gorm:"type:varchar(64);not null"`
	CreatedAt     time.Time   `json:"created_at"`
}

// TableName returns the database table name for ReviewEvent.
func (ReviewEvent) TableName() string { return "review_events" }

// Before reports whether e sorts before o in the log's total order.
func (e *ReviewEvent) Before(o *ReviewEvent) bool {
	if !e.ReviewDate.Equal(o.ReviewDate) {
		return e.ReviewDate.Before(o.ReviewDate)
	}
	return e.ID < o.ID
}
