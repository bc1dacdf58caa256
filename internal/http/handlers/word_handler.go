package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-srs-backend/internal/domain"
	"github.com/tbourn/go-srs-backend/internal/fsrs"
	"github.com/tbourn/go-srs-backend/internal/http/middleware"
	"github.com/tbourn/go-srs-backend/internal/services"
)

// CaptureWordRequest adds a lemma to the user's words.
type CaptureWordRequest struct {
	Lemma string `json:"lemma" binding:"required" example:"quaint"`
}

// SetIgnoredRequest moves a word into or out of the ignored status.
type SetIgnoredRequest struct {
	Ignored *bool `json:"ignored" binding:"required" example:"true"`
}

// SubmitReviewRequest is one grading or exposure action.
type SubmitReviewRequest struct {
	// 1 Again, 2 Hard, 3 Good, 4 Easy. Ignored for implicit_exposure.
	Grade int `json:"grade" example:"3"`
	// explicit (default), session_fallback or implicit_exposure.
	Mode       string `json:"mode" example:"explicit"`
	DurationMs int64  `json:"duration_ms" example:"4200"`
}

// SubmitReviewResponse is the stored word after the submission.
type SubmitReviewResponse struct {
	State    domain.WordState `json:"state"`
	EventID  string           `json:"event_id"`
	Replayed bool             `json:"replayed"`
}

// ResetResponse reports what a user reset removed.
type ResetResponse struct {
	WordStates   int64 `json:"word_states"`
	ReviewEvents int64 `json:"review_events"`
}

// CaptureWord godoc
// @ID          captureWord
// @Summary     Capture a word
// @Description Adds a lemma with status new. Returns 200 with the existing word if it was already captured.
// @Tags        Words
// @Accept      json
// @Produce     json
// @Param       X-User-ID    header  string  true   "Active user"
// @Param       X-Device-ID  header  string  false  "Calling device"
// @Param       body         body    handlers.CaptureWordRequest  true  "Lemma"
// @Success     201  {object}  domain.WordState
// @Success     200  {object}  domain.WordState
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /words [post]
func (h *Handlers) CaptureWord(c *gin.Context) {
	uid, dev, okID := identity(c)
	if !okID {
		return
	}
	var req CaptureWordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "lemma required")
		return
	}
	ws, created, err := h.words.Capture(c.Request.Context(), uid, dev, req.Lemma)
	if err != nil {
		failErr(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ok(c, status, ws)
}

// SetIgnored godoc
// @ID          setIgnored
// @Summary     Ignore or unignore a word
// @Description Ignored words leave every queue. Unignoring restores the status implied by the word's memory.
// @Tags        Words
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  true  "Active user"
// @Param       lemma      path    string  true  "Lemma"
// @Param       body       body    handlers.SetIgnoredRequest  true  "Target status"
// @Success     200  {object}  domain.WordState
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse  "unknown_word"
// @Failure     409  {object}  handlers.ErrorResponse
// @Router      /words/{lemma}/ignore [put]
func (h *Handlers) SetIgnored(c *gin.Context) {
	uid, dev, okID := identity(c)
	if !okID {
		return
	}
	var req SetIgnoredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ignored (bool) required")
		return
	}
	ws, err := h.words.SetIgnored(c.Request.Context(), uid, dev, c.Param("lemma"), *req.Ignored)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ws)
}

// SubmitReview godoc
// @ID          submitReview
// @Summary     Grade a word
// @Description Applies a grade (explicit), records practice on a not-yet-due word (session_fallback)
// @Description or records an exposure (implicit_exposure). Retries carrying the same
// @Description Idempotency-Key return the recorded result with Idempotency-Replayed: true.
// @Tags        Reviews
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string  true   "Active user"
// @Param       X-Device-ID      header  string  false  "Calling device"
// @Param       Idempotency-Key  header  string  false  "Retry key"
// @Param       lemma            path    string  true   "Lemma"
// @Param       body             body    handlers.SubmitReviewRequest  true  "Grade"
// @Success     200  {object}  handlers.SubmitReviewResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse  "unknown_word (session_fallback only)"
// @Failure     409  {object}  handlers.ErrorResponse  "retry after Retry-After"
// @Router      /words/{lemma}/reviews [post]
func (h *Handlers) SubmitReview(c *gin.Context) {
	uid, dev, okID := identity(c)
	if !okID {
		return
	}
	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	res, err := h.reviews.Submit(c.Request.Context(), services.SubmitRequest{
		UserID:         uid,
		DeviceID:       dev,
		Lemma:          c.Param("lemma"),
		Grade:          fsrs.Grade(req.Grade),
		DurationMs:     req.DurationMs,
		Mode:           domain.ReviewMode(req.Mode),
		IdempotencyKey: key,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	if res.Replayed {
		c.Header("Idempotency-Replayed", "true")
	}
	ok(c, http.StatusOK, SubmitReviewResponse{State: res.State, EventID: res.EventID, Replayed: res.Replayed})
}

// ReplayWord godoc
// @ID          replayWord
// @Summary     Audit a word against its event log
// @Description Rebuilds the word from its review events and lists the fields where the stored state differs.
// @Tags        Reviews
// @Produce     json
// @Param       X-User-ID  header  string  true  "Active user"
// @Param       lemma      path    string  true  "Lemma"
// @Success     200  {object}  services.ReplayReport
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /words/{lemma}/replay [get]
func (h *Handlers) ReplayWord(c *gin.Context) {
	uid, _, okID := identity(c)
	if !okID {
		return
	}
	rep, err := h.reviews.Replay(c.Request.Context(), uid, c.Param("lemma"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, rep)
}

// ResetUser godoc
// @ID          resetUser
// @Summary     Delete all of the user's words
// @Description Removes word states, review events and idempotency records.
// @Tags        Words
// @Produce     json
// @Param       X-User-ID  header  string  true  "Active user"
// @Success     200  {object}  handlers.ResetResponse
// @Router      /words [delete]
func (h *Handlers) ResetUser(c *gin.Context) {
	uid, _, okID := identity(c)
	if !okID {
		return
	}
	states, events, err := h.words.ResetUser(c.Request.Context(), uid)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ResetResponse{WordStates: states, ReviewEvents: events})
}
