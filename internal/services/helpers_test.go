package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-srs-backend/internal/domain"
	"github.com/tbourn/go-srs-backend/internal/fsrs"
	"github.com/tbourn/go-srs-backend/internal/repo"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// testClock is a settable clock.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeLexicon map[string]struct {
	def  string
	rank int
}

func (l fakeLexicon) DefinitionFor(lemma string) (string, bool) {
	e, ok := l[lemma]
	if !ok || e.def == "" {
		return "", false
	}
	return e.def, true
}

func (l fakeLexicon) RankFor(lemma string) (int, bool) {
	e, ok := l[lemma]
	if !ok || e.rank == 0 {
		return 0, false
	}
	return e.rank, true
}

type testEnv struct {
	db    *gorm.DB
	clock *testClock
	model *fsrs.Model
	locks *KeyLocks
	coord *ReviewCoordinator
	words *WordService
	queue *QueueService
	sync  *SyncService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	clock := &testClock{t: t0}
	model := fsrs.MustNew(fsrs.DefaultParameters())
	locks := NewKeyLocks()

	coord := NewReviewCoordinator(db, RepoStore{}, model, locks)
	coord.Now = clock.Now

	return &testEnv{
		db:    db,
		clock: clock,
		model: model,
		locks: locks,
		coord: coord,
		words: &WordService{
			DB: db, Store: RepoStore{}, Model: model, Locks: locks,
			KnownStabilityDays: 21, Now: clock.Now,
		},
		queue: &QueueService{DB: db, Store: RepoStore{}, Model: model, FallbackLimit: DefaultFallbackLimit},
		sync:  &SyncService{DB: db, Store: RepoStore{}, Locks: locks},
	}
}

func (e *testEnv) submit(t *testing.T, lemma string, g fsrs.Grade, mode domain.ReviewMode) *SubmitResult {
	t.Helper()
	res, err := e.coord.Submit(context.Background(), SubmitRequest{
		UserID: "u1", DeviceID: "phone", Lemma: lemma, Grade: g, Mode: mode,
	})
	if err != nil {
		t.Fatalf("submit %s %v %s: %v", lemma, g, mode, err)
	}
	return res
}

func (e *testEnv) state(t *testing.T, lemma string) *domain.WordState {
	t.Helper()
	ws, err := repo.GetWordState(context.Background(), e.db, "u1", lemma)
	if err != nil {
		t.Fatalf("get %s: %v", lemma, err)
	}
	return ws
}

func (e *testEnv) events(t *testing.T, lemma string) []domain.ReviewEvent {
	t.Helper()
	evs, err := repo.ListReviewEvents(context.Background(), e.db, "u1", lemma)
	if err != nil {
		t.Fatalf("events %s: %v", lemma, err)
	}
	return evs
}

func ptrTime(t time.Time) *time.Time { return &t }
