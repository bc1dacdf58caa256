// Package domain defines the persistence models of the review engine: the
// mutable per-word WordState projection, the append-only ReviewEvent log,
// and the idempotency records used for safe HTTP retries. All types are
// mapped with GORM and shared by the repository and service layers.
package domain

import "time"

// Status is the learning stage of a word for one user.
type Status string

const (
	StatusNew      Status = "new"
	StatusLearning Status = "learning"
	StatusKnown    Status = "known"
	StatusIgnored  Status = "ignored"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusLearning, StatusKnown, StatusIgnored:
		return true
	}
	return false
}

// WordState is the mutable memory and schedule record of one (user, lemma)
// pair. It is a projection of the word's ReviewEvent stream.
//
// Fields:
//   - UserID, Lemma: composite primary key; Lemma is normalized.
//   - Stability, Difficulty, Retrievability: memory parameters.
//   - InitialDifficulty: prior seeded from word frequency at capture; 0 = none.
//   - NextReviewDate: nil means not yet scheduled (due now).
//   - ReviewCount, LapseCount: cumulative counters, never decrease.
//   - StateUpdatedAt, DeviceID: last-writer-wins metadata for sync.
//   - Version: optimistic-concurrency token local to this store.
type WordState struct {
	UserID            string     `json:"user_id"             gorm:"type:varchar(64);primaryKey"`
	Lemma             string     `json:"lemma"               gorm:"type:varchar(128);primaryKey"`
	Status            Status     `json:"status"              gorm:"type:varchar(16);not null;index;check:status IN ('new','learning','known','ignored')"`
	Stability         float64    `json:"stability"           gorm:"not null"`
	Difficulty        float64    `json:"difficulty"          gorm:"not null"`
	InitialDifficulty float64    `json:"initial_difficulty"  gorm:"not null"`
	Retrievability    float64    `json:"retrievability"      gorm:"not null"`
	NextReviewDate    *time.Time `json:"next_review_date"    gorm:"index"`
	LastReviewDate    *time.Time `json:"last_review_date"`
	ReviewCount       int        `json:"review_count"        gorm:"not null"`
	LapseCount        int        `json:"lapse_count"         gorm:"not null"`
	StateUpdatedAt    time.Time  `json:"state_updated_at"    gorm:"not null;index"`
	DeviceID          string     `json:"device_id"           gorm:"type:varchar(64);not null"`
	CreatedAt         time.Time  `json:"created_at"          gorm:"not null"`
	Version           int64      `json:"version"             gorm:"not null"`
}

// TableName returns the database table name for WordState.
func (WordState) TableName() string { return "word_states" }

// HasTrace reports whether at least one graded review shaped the memory
// parameters.
func (w *WordState) HasTrace() bool { return w.Stability > 0 }

// NewWordState returns a freshly captured word: status new, zero counters,
// no schedule.
func NewWordState(userID, lemma, deviceID string, initialDifficulty float64, now time.Time) WordState {
	return WordState{
		UserID:            userID,
		Lemma:             lemma,
		Status:            StatusNew,
		Difficulty:        initialDifficulty,
		InitialDifficulty: initialDifficulty,
		StateUpdatedAt:    now,
		DeviceID:          deviceID,
		CreatedAt:         now,
		Version:           1,
	}
}
