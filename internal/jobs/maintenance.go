// Package jobs runs periodic maintenance next to the HTTP server: expired
// idempotency records are purged and a per-user due-count snapshot is
// logged and exported as a gauge.
package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-srs-backend/internal/repo"
)

var (
	purgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "srs_idempotency_purged_total",
			Help: "Expired idempotency records removed by maintenance.",
		},
	)

	dueWords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "srs_due_words",
			Help: "Due words across all users at the last maintenance run.",
		},
	)
)

func init() {
	prometheus.MustRegister(purgedTotal, dueWords)
}

// Maintenance holds the periodic tasks.
type Maintenance struct {
	DB       *gorm.DB
	Interval time.Duration
	Now      func() time.Time

	scheduler *gocron.Scheduler
}

// New returns maintenance over db running every interval.
func New(db *gorm.DB, interval time.Duration) *Maintenance {
	return &Maintenance{DB: db, Interval: interval, Now: time.Now}
}

// Start schedules RunOnce every Interval, starting immediately. Runs never
// overlap.
func (m *Maintenance) Start() error {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Every(m.Interval).Do(m.run); err != nil {
		return err
	}
	s.StartAsync()
	m.scheduler = s
	log.Info().Dur("interval", m.Interval).Msg("maintenance scheduled")
	return nil
}

// Stop waits for a running job and stops the scheduler.
func (m *Maintenance) Stop() {
	if m.scheduler != nil {
		m.scheduler.Stop()
	}
}

func (m *Maintenance) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := m.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msg("maintenance run failed")
	}
}

// Report is the outcome of one maintenance run.
type Report struct {
	Purged   int64
	DueUsers int
	DueWords int64
}

// RunOnce performs every task once.
func (m *Maintenance) RunOnce(ctx context.Context) (Report, error) {
	now := m.now()
	var rep Report

	purged, err := repo.PurgeExpiredIdempotency(ctx, m.DB, now)
	if err != nil {
		return rep, err
	}
	rep.Purged = purged
	purgedTotal.Add(float64(purged))

	counts, err := repo.CountDueByUser(ctx, m.DB, now)
	if err != nil {
		return rep, err
	}
	for _, c := range counts {
		rep.DueWords += c.Due
		log.Debug().Str("user_id", c.UserID).Int64("due", c.Due).Msg("due snapshot")
	}
	rep.DueUsers = len(counts)
	dueWords.Set(float64(rep.DueWords))

	log.Info().
		Int64("idempotency_purged", rep.Purged).
		Int("due_users", rep.DueUsers).
		Int64("due_words", rep.DueWords).
		Msg("maintenance run")
	return rep, nil
}

func (m *Maintenance) now() time.Time {
	if m.Now == nil {
		return time.Now().UTC()
	}
	return m.Now().UTC()
}
