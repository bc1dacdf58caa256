package domain

import "time"

// Idempotency records the review event produced for a client-supplied
// Idempotency-Key, keyed by (user_id, lemma, key). A retried review
// submission with the same key replays the recorded outcome instead of
// grading the word a second time.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_lemma_key,priority:1"`
	Lemma     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_lemma_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_lemma_key,priority:3"`
	EventID   string    `gorm:"type:TEXT NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
