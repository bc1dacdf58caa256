package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-srs-backend/internal/domain"
	"github.com/tbourn/go-srs-backend/internal/repo"
)

// WordStore is the persistence contract of the review engine. Every method
// receives the handle to run on, which may be a transaction.
type WordStore interface {
	// ListWordStates returns all word states of a user.
	ListWordStates(ctx context.Context, db *gorm.DB, userID string) ([]domain.WordState, error)

	// GetWordState returns one word state or repo.ErrNotFound.
	GetWordState(ctx context.Context, db *gorm.DB, userID, lemma string) (*domain.WordState, error)

	// CreateWordState inserts a new row; repo.ErrConflict if the key exists.
	CreateWordState(ctx context.Context, db *gorm.DB, ws *domain.WordState) error

	// UpdateWordState is a version compare-and-set; repo.ErrConflict when
	// the stored version moved.
	UpdateWordState(ctx context.Context, db *gorm.DB, ws *domain.WordState) error

	// AppendReviewEvent inserts an immutable event.
	AppendReviewEvent(ctx context.Context, db *gorm.DB, ev *domain.ReviewEvent) error
}

// RepoStore adapts the repo package functions to WordStore.
type RepoStore struct{}

func (RepoStore) ListWordStates(ctx context.Context, db *gorm.DB, userID string) ([]domain.WordState, error) {
	return repo.ListWordStates(ctx, db, userID)
}

func (RepoStore) GetWordState(ctx context.Context, db *gorm.DB, userID, lemma string) (*domain.WordState, error) {
	return repo.GetWordState(ctx, db, userID, lemma)
}

func (RepoStore) CreateWordState(ctx context.Context, db *gorm.DB, ws *domain.WordState) error {
	return repo.CreateWordState(ctx, db, ws)
}

func (RepoStore) UpdateWordState(ctx context.Context, db *gorm.DB, ws *domain.WordState) error {
	return repo.UpdateWordState(ctx, db, ws)
}

func (RepoStore) AppendReviewEvent(ctx context.Context, db *gorm.DB, ev *domain.ReviewEvent) error {
	return repo.AppendReviewEvent(ctx, db, ev)
}

// Lexicon supplies word metadata owned outside the engine. Definitions are
// for display only; the rank seeds the difficulty prior of new words.
type Lexicon interface {
	DefinitionFor(lemma string) (string, bool)
	RankFor(lemma string) (int, bool)
}
