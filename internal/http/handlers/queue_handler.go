// Queue HTTP handlers.
//
// This file exposes the offline write queue and its dead list:
//   - GET    /queue                  (snapshot, weak ETag support)
//   - DELETE /queue                  (drop every pending write)
//   - GET    /queue/dead             (writes that exhausted their attempts)
//   - POST   /queue/dead/{id}/retry  (move back to the tail of the queue)
//   - DELETE /queue/dead/{id}        (discard)
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/bpguard/internal/offline"
	"github.com/tbourn/bpguard/internal/repo"
)

// QueueResponse is a snapshot of the queue or of the dead list.
type QueueResponse struct {
	Items  []offline.QueueItem `json:"items"`
	Length int                 `json:"length"`
}

// ListQueue godoc
// @ID          listQueue
// @Summary     Pending offline writes
// @Description Returns the queue in replay order. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Queue
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"queue:3:1736326800000000000\")
//
// @Success     200  {object} handlers.QueueResponse
// @Header      200  {string} ETag  "Weak ETag for current queue"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queue [get]
func (h *Handlers) ListQueue(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if h.d.DB != nil {
		version, updatedAt, err := repo.EntryStats(ctx, h.d.DB, offline.KeyQueue)
		if err == nil {
			var ts int64
			if updatedAt != nil {
				ts = updatedAt.UnixNano()
			}
			etag := fmt.Sprintf(`W/"queue:%d:%d"`, version, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, err := h.d.Queue.List(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeQueueFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, QueueResponse{Items: nonNil(items), Length: len(items)})
}

// ClearQueue godoc
// @ID          clearQueue
// @Summary     Drop every pending write
// @Tags        Queue
// @Success     204  {string} string "No Content"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queue [delete]
func (h *Handlers) ClearQueue(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.d.Queue.Clear(ctx); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeQueueFailed, err.Error())
		return
	}
	h.d.Syncer.RefreshDepth(ctx)
	noContent(c)
}

// ListDead godoc
// @ID          listDead
// @Summary     Dead-lettered writes
// @Tags        Queue
// @Produce     json
// @Success     200  {object} handlers.QueueResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queue/dead [get]
func (h *Handlers) ListDead(c *gin.Context) {
	items, err := h.d.Queue.ListDead(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeQueueFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, QueueResponse{Items: nonNil(items), Length: len(items)})
}

// RetryDead godoc
// @ID          retryDead
// @Summary     Requeue a dead-lettered write
// @Description Moves the item to the tail of the queue with its attempt counter reset.
// @Tags        Queue
// @Produce     json
// @Param       id   path    string  true  "Queue item id"
// @Success     200  {object} offline.QueueItem
// @Failure     404  {object} handlers.ErrorResponse "Not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queue/dead/{id}/retry [post]
func (h *Handlers) RetryDead(c *gin.Context) {
	ctx := c.Request.Context()
	item, err := h.d.Queue.Requeue(ctx, c.Param("id"))
	if err != nil {
		h.queueError(c, err)
		return
	}
	h.d.Syncer.RefreshDepth(ctx)
	ok(c, http.StatusOK, item)
}

// DiscardDead godoc
// @ID          discardDead
// @Summary     Discard a dead-lettered write
// @Tags        Queue
// @Param       id   path    string  true  "Queue item id"
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /queue/dead/{id} [delete]
func (h *Handlers) DiscardDead(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.d.Queue.Discard(ctx, c.Param("id")); err != nil {
		h.queueError(c, err)
		return
	}
	h.d.Syncer.RefreshDepth(ctx)
	noContent(c)
}

func (h *Handlers) queueError(c *gin.Context, err error) {
	if errors.Is(err, offline.ErrItemNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		return
	}
	fail(c, http.StatusInternalServerError, ErrCodeQueueFailed, err.Error())
}

func nonNil(items []offline.QueueItem) []offline.QueueItem {
	if items == nil {
		return []offline.QueueItem{}
	}
	return items
}
