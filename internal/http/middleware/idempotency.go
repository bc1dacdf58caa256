// Package middleware contains the Gin middleware of the HTTP layer.
//
// This file validates the Idempotency-Key header of review submissions. A
// valid key is stashed for the handler, which passes it to the review
// coordinator; the coordinator owns the replay decision. The middleware only
// checks whether a recorded result already exists so replays skip rate
// limiting.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-srs-backend/internal/domain"
)

// HeaderIdempotencyKey carries a client-chosen key that identifies one
// grading action across retries.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key, if the request carried one.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemKey)
	return s, s != ""
}

// IsReplay reports whether a result for the request's key is already
// recorded.
func IsReplay(c *gin.Context) bool { return c.GetBool(ctxKeyIdemReplay) }

// IdempotencyOptions configures key validation.
type IdempotencyOptions struct {
	MaxLen  int            // <= 0 means 200
	Pattern *regexp.Regexp // nil means token characters plus ._~-:
}

// IdempotencyLookup reports whether a live record exists for
// (userID, lemma, key) at now.
type IdempotencyLookup func(ctx context.Context, userID, lemma, key string, now time.Time) (bool, error)

// IdempotencyValidator rejects malformed keys with 400 and marks requests
// whose key is already recorded. The lemma comes from the ":lemma" route
// parameter; routes without one are never marked.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		uid, lemma := UserID(c), domain.NormalizeLemma(c.Param("lemma"))
		if lookup != nil && uid != "" && lemma != "" {
			if exists, _ := lookup(c.Request.Context(), uid, lemma, key, time.Now().UTC()); exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}
