// Package repo implements the persistence layer of the review engine on top
// of GORM and a pure-Go SQLite driver. Functions are thin: they accept a
// *gorm.DB (which may be a transaction) and carry no scheduling logic.
package repo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-srs-backend/internal/domain"
)

var (
	// ErrNotFound aliases gorm.ErrRecordNotFound.
	ErrNotFound = gorm.ErrRecordNotFound

	// ErrConflict is returned when a word-state write loses an optimistic
	// concurrency race: the row was created or updated by someone else
	// since it was read.
	ErrConflict = errors.New("version conflict")

	// ErrDuplicate indicates that a row with the same unique key exists.
	ErrDuplicate = errors.New("duplicate")
)

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early on a missing parent directory instead of an opaque driver error.
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates the word_states, review_events and
// idempotency tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.WordState{},
		&domain.ReviewEvent{},
		&domain.Idempotency{},
	)
}

// isUniqueViolation recognizes unique/primary-key violations. glebarez/sqlite
// often reports them as plain text rather than gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "constraint failed: primary key")
}
