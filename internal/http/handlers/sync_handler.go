// Sync and status HTTP handlers.
//
//   - POST /sync    (manual trigger; the pass survives the caller going away)
//   - GET  /status  (connectivity, queue badge, worker lifecycle, last pass)
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/bpguard/internal/syncer"
)

// StatusResponse is the offline subsystem at a glance.
type StatusResponse struct {
	Online      bool           `json:"online"`
	Syncing     bool           `json:"syncing"`
	QueueLength int            `json:"queue_length"`
	DeadLength  int            `json:"dead_length"`
	WorkerState string         `json:"worker_state" example:"active"`
	Generation  string         `json:"generation" example:"bp-guardian-v2"`
	LastSync    *syncer.Report `json:"last_sync,omitempty"`
}

// Sync godoc
// @ID          sync
// @Summary     Replay queued writes now
// @Description Runs one sync pass. An empty queue returns a report with skipped=empty.
// @Tags        Sync
// @Produce     json
// @Success     200  {object}  syncer.Report
// @Failure     409  {object}  handlers.ErrorResponse  "A pass is already running"
// @Failure     503  {object}  handlers.ErrorResponse  "Offline"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /sync [post]
func (h *Handlers) Sync(c *gin.Context) {
	rep, err := h.d.Syncer.Sync(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSyncFailed, err.Error())
		return
	}
	switch rep.Skipped {
	case syncer.SkipBusy:
		fail(c, http.StatusConflict, ErrCodeSyncBusy, "a sync pass is already running")
		return
	case syncer.SkipLeased:
		fail(c, http.StatusConflict, ErrCodeSyncBusy, "another process is syncing")
		return
	case syncer.SkipOffline:
		fail(c, http.StatusServiceUnavailable, ErrCodeOffline, "offline; queued writes will sync when the connection returns")
		return
	}
	ok(c, http.StatusOK, rep)
}

// Status godoc
// @ID          status
// @Summary     Offline subsystem status
// @Description Reports connectivity, queue and dead-list lengths, the interception layer state and the last sync report.
// @Tags        Sync
// @Produce     json
// @Success     200  {object}  handlers.StatusResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /status [get]
func (h *Handlers) Status(c *gin.Context) {
	ctx := c.Request.Context()

	queued, err := h.d.Queue.Len(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeQueueFailed, err.Error())
		return
	}
	dead, err := h.d.Queue.LenDead(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeQueueFailed, err.Error())
		return
	}
	h.d.Syncer.RefreshDepth(ctx)

	resp := StatusResponse{
		Online:      h.d.Monitor.Online(),
		Syncing:     h.d.Syncer.Syncing(),
		QueueLength: queued,
		DeadLength:  dead,
		LastSync:    h.d.Syncer.LastReport(),
	}
	if h.d.Worker != nil {
		resp.WorkerState = h.d.Worker.State().String()
		resp.Generation = h.d.Worker.Generation()
	}
	ok(c, http.StatusOK, resp)
}
