package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-srs-backend/internal/repo"
)

const defaultMaxWriteRetries = 3

// retryConflicts runs op until it succeeds, fails with an error other than
// repo.ErrConflict, or maxTries attempts all conflicted. The last case is
// reported as ErrConcurrentWriteConflict.
func retryConflicts[T any](ctx context.Context, maxTries int, op func() (T, error)) (T, error) {
	if maxTries < 1 {
		maxTries = defaultMaxWriteRetries
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond

	attempt := 0
	v, err := backoff.Retry(ctx, func() (T, error) {
		attempt++
		v, err := op()
		if err == nil {
			return v, nil
		}
		if errors.Is(err, repo.ErrConflict) {
			if attempt < maxTries {
				conflictsTotal.WithLabelValues("retried").Inc()
				log.Debug().Int("attempt", attempt).Msg("write conflict, retrying")
			}
			return v, err
		}
		return v, backoff.Permanent(err)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(maxTries)))

	if errors.Is(err, repo.ErrConflict) {
		conflictsTotal.WithLabelValues("exhausted").Inc()
		var zero T
		return zero, ErrConcurrentWriteConflict
	}
	return v, err
}
