package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-srs-backend/internal/repo"
	"github.com/tbourn/go-srs-backend/internal/services"
	"github.com/tbourn/go-srs-backend/internal/utils"
)

const maxFallbackLimit = 100

// QueueResponse is a review queue.
type QueueResponse struct {
	Items []services.QueueItem `json:"items"`
	Count int                  `json:"count"`
}

// DueCountResponse is the number of due words.
type DueCountResponse struct {
	Due int `json:"due"`
}

// DueQueue godoc
// @ID          dueQueue
// @Summary     Due words
// @Description Words due now, soonest first. Carries a weak ETag; a matching If-None-Match yields 304.
// @Tags        Queue
// @Produce     json
// @Param       X-User-ID      header  string  true   "Active user"
// @Param       If-None-Match  header  string  false  "ETag of a previous response"
// @Success     200  {object}  handlers.QueueResponse
// @Header      200  {string}  ETag  "Weak validator"
// @Success     304  {string}  string  "Not Modified"
// @Router      /queue/due [get]
func (h *Handlers) DueQueue(c *gin.Context) {
	uid, _, okID := identity(c)
	if !okID {
		return
	}
	ctx := c.Request.Context()

	items, err := h.queues.DueQueue(ctx, uid, h.now())
	if err != nil {
		failErr(c, err)
		return
	}

	// Best effort: without stats the response is simply not cacheable.
	if svc, isSvc := h.queues.(*services.QueueService); isSvc && svc.DB != nil {
		if total, maxAt, err := repo.WordStatesStats(ctx, svc.DB, uid); err == nil {
			var ts int64
			if maxAt != nil {
				ts = maxAt.UnixNano()
			}
			etag := fmt.Sprintf(`W/"due-%s-%d-%d-%d"`, uid, total, ts, len(items))
			c.Header("ETag", etag)
			if c.GetHeader("If-None-Match") == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}
	ok(c, http.StatusOK, QueueResponse{Items: items, Count: len(items)})
}

// DueCount godoc
// @ID          dueCount
// @Summary     Number of due words
// @Tags        Queue
// @Produce     json
// @Param       X-User-ID  header  string  true  "Active user"
// @Success     200  {object}  handlers.DueCountResponse
// @Router      /queue/due/count [get]
func (h *Handlers) DueCount(c *gin.Context) {
	uid, _, okID := identity(c)
	if !okID {
		return
	}
	n, err := h.queues.DueCount(c.Request.Context(), uid, h.now())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, DueCountResponse{Due: n})
}

// FallbackQueue godoc
// @ID          fallbackQueue
// @Summary     Practice words when nothing is due
// @Description Learning and new words scheduled ahead first; known words only when there are none.
// @Tags        Queue
// @Produce     json
// @Param       X-User-ID  header  string  true   "Active user"
// @Param       limit      query   int     false  "Maximum items"  minimum(1) maximum(100)
// @Success     200  {object}  handlers.QueueResponse
// @Router      /queue/fallback [get]
func (h *Handlers) FallbackQueue(c *gin.Context) {
	uid, _, okID := identity(c)
	if !okID {
		return
	}
	limit := utils.AtoiDefault(c.Query("limit"), 0)
	if limit != 0 {
		limit = utils.Clamp(limit, 1, maxFallbackLimit)
	}
	items, err := h.queues.FallbackQueue(c.Request.Context(), uid, h.now(), limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, QueueResponse{Items: items, Count: len(items)})
}
