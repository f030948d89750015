// Offline cache and notice HTTP handlers.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/bpguard/internal/notify"
	"github.com/tbourn/bpguard/internal/utils"
)

// CacheResponse is one offline snapshot.
type CacheResponse struct {
	Key      string          `json:"key" example:"/api/bp"`
	Data     json.RawMessage `json:"data" swaggertype:"object"`
	StoredAt time.Time       `json:"stored_at"`
}

// NoticesResponse lists notices, newest first.
type NoticesResponse struct {
	Notices []notify.Notice `json:"notices"`
}

const (
	defaultNoticeLimit = 20
	maxNoticeLimit     = 200
)

// GetCache godoc
// @ID          getCache
// @Summary     Cached snapshot for a backend path
// @Tags        Cache
// @Produce     json
// @Param       key  query   string  true  "Backend path plus query"  example(/api/dashboard?range=week)
// @Success     200  {object} handlers.CacheResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Not cached"
// @Router      /cache [get]
func (h *Handlers) GetCache(c *gin.Context) {
	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "key query parameter required")
		return
	}
	entry, err := h.d.Cache.Get(c.Request.Context(), key)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	if entry == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "nothing cached for this key")
		return
	}
	ok(c, http.StatusOK, CacheResponse{Key: key, Data: entry.Data, StoredAt: entry.StoredAt})
}

// ListNotices godoc
// @ID          listNotices
// @Summary     Recent user-visible notices
// @Tags        Notices
// @Produce     json
// @Param       limit  query  int  false  "Max notices"  minimum(1) maximum(200) default(20)
// @Success     200  {object} handlers.NoticesResponse
// @Router      /notices [get]
func (h *Handlers) ListNotices(c *gin.Context) {
	limit := utils.Clamp(utils.AtoiDefault(c.Query("limit"), defaultNoticeLimit), 1, maxNoticeLimit)
	notices := h.d.Notices.Recent(limit)
	if notices == nil {
		notices = []notify.Notice{}
	}
	ok(c, http.StatusOK, NoticesResponse{Notices: notices})
}
