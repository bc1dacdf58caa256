package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-srs-backend/internal/domain"
	"github.com/tbourn/go-srs-backend/internal/http/middleware"
	"github.com/tbourn/go-srs-backend/internal/services"
)

// Reviewer grades words and audits their event logs.
type Reviewer interface {
	Submit(ctx context.Context, req services.SubmitRequest) (*services.SubmitResult, error)
	Replay(ctx context.Context, userID, lemma string) (*services.ReplayReport, error)
}

// Words manages word lifecycle outside grading.
type Words interface {
	Capture(ctx context.Context, userID, deviceID, lemma string) (*domain.WordState, bool, error)
	SetIgnored(ctx context.Context, userID, deviceID, lemma string, ignored bool) (*domain.WordState, error)
	ResetUser(ctx context.Context, userID string) (states, events int64, err error)
}

// Queues builds review queues.
type Queues interface {
	DueQueue(ctx context.Context, userID string, now time.Time) ([]services.QueueItem, error)
	FallbackQueue(ctx context.Context, userID string, now time.Time, limit int) ([]services.QueueItem, error)
	DueCount(ctx context.Context, userID string, now time.Time) (int, error)
}

// Syncer reconciles replicas from other devices.
type Syncer interface {
	ApplyRemote(ctx context.Context, userID, deviceID string, batch services.SyncBatch) (*services.SyncResult, error)
	Changes(ctx context.Context, userID string, since time.Time) (*services.SyncBatch, error)
}

// Handlers groups the API endpoints.
type Handlers struct {
	reviews Reviewer
	words   Words
	queues  Queues
	sync    Syncer

	// Now is the request clock; tests replace it.
	Now func() time.Time
}

// New returns handlers bound to the given services.
func New(reviews Reviewer, words Words, queues Queues, sync Syncer) *Handlers {
	return &Handlers{reviews: reviews, words: words, queues: queues, sync: sync, Now: time.Now}
}

func (h *Handlers) now() time.Time { return h.Now().UTC() }

// identity returns the active user and device, failing the request with
// 401 when no user was sent.
func identity(c *gin.Context) (userID, deviceID string, ok bool) {
	userID = middleware.UserID(c)
	if userID == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, middleware.HeaderUserID+" header required")
		return "", "", false
	}
	return userID, middleware.DeviceID(c), true
}
