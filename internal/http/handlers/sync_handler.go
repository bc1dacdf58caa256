package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-srs-backend/internal/services"
)

// ApplySync godoc
// @ID          applySync
// @Summary     Merge replicas from another device
// @Description Unions review events by id and merges each word state into the local copy.
// @Tags        Sync
// @Accept      json
// @Produce     json
// @Param       X-User-ID    header  string  true   "Active user"
// @Param       X-Device-ID  header  string  false  "Sending device"
// @Param       body         body    services.SyncBatch  true  "Replicas"
// @Success     200  {object}  services.SyncResult
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse
// @Router      /sync [post]
func (h *Handlers) ApplySync(c *gin.Context) {
	uid, dev, okID := identity(c)
	if !okID {
		return
	}
	var batch services.SyncBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid sync batch")
		return
	}
	res, err := h.sync.ApplyRemote(c.Request.Context(), uid, dev, batch)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// SyncChanges godoc
// @ID          syncChanges
// @Summary     Local changes for another device
// @Description Word states and review events changed after since (RFC 3339); all data when omitted.
// @Tags        Sync
// @Produce     json
// @Param       X-User-ID  header  string  true   "Active user"
// @Param       since      query   string  false  "RFC 3339 timestamp"  example(2026-03-02T09:00:00Z)
// @Success     200  {object}  services.SyncBatch
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /sync [get]
func (h *Handlers) SyncChanges(c *gin.Context) {
	uid, _, okID := identity(c)
	if !okID {
		return
	}
	var since time.Time
	if s := strings.TrimSpace(c.Query("since")); s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		since = t
	}
	batch, err := h.sync.Changes(c.Request.Context(), uid, since)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, batch)
}
