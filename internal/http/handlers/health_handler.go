// Health-data HTTP handlers: typed routes over the client package.
//
//   - POST /account                        (register; needs the backend)
//   - POST /bp,   GET /bp?limit=N
//   - POST /mood, GET /mood?limit=N
//   - GET  /dashboard?range=day|week|month
//   - GET  /badges
//   - GET  /recommendation/today
//
// Reads report X-Offline and X-Cached-At the way /dispatch does. A write made
// while the backend is unreachable is queued and answered with 202, X-Queued
// and the queue item.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/bpguard/internal/client"
	"github.com/tbourn/bpguard/internal/offline"
	"github.com/tbourn/bpguard/internal/utils"
)

// RegisterRequest is the JSON payload for POST /account.
type RegisterRequest struct {
	Name     string `json:"name" example:"Ana"`
	Email    string `json:"email" binding:"required" example:"ana@example.com"`
	Password string `json:"password" binding:"required" example:"s3cret"`
}

// QueuedResponse acknowledges a write stored for later replay.
type QueuedResponse struct {
	Offline bool              `json:"offline" example:"true"`
	Queued  bool              `json:"queued" example:"true"`
	Item    offline.QueueItem `json:"item"`
}

const maxListLimit = 500

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Registers with the backend. Never queued; the caller logs in afterwards.
// @Tags        Health
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.RegisterRequest  true  "Account"
// @Success     201  {object}  client.Account
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     503  {object}  handlers.ErrorResponse  "Offline"
// @Router      /account [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password are required")
		return
	}
	acc, err := h.d.Health.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.healthError(c, err)
		return
	}
	ok(c, http.StatusCreated, acc)
}

// AddBPReading godoc
// @ID          addBPReading
// @Summary     Record a blood-pressure reading
// @Tags        Health
// @Accept      json
// @Produce     json
// @Param       body  body  client.NewBPReading  true  "Reading"
// @Success     201  {object}  client.BPReading
// @Success     202  {object}  handlers.QueuedResponse  "Queued while offline"
// @Failure     400  {object}  handlers.ErrorResponse   "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse   "Not logged in"
// @Router      /bp [post]
func (h *Handlers) AddBPReading(c *gin.Context) {
	var in client.NewBPReading
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be a JSON reading")
		return
	}
	r, meta, err := h.d.Health.AddBPReading(c.Request.Context(), in)
	respondWrite(h, c, r, meta, err)
}

// ListBPReadings godoc
// @ID          listBPReadings
// @Summary     Blood-pressure readings, newest first
// @Tags        Health
// @Produce     json
// @Param       limit  query  int  false  "Max readings (0 = backend default)"  minimum(0) maximum(500)
// @Success     200  {array}   client.BPReading
// @Header      200  {string}  X-Offline    "true when served offline"
// @Header      200  {string}  X-Cached-At  "Time of the cached snapshot"
// @Failure     401  {object}  handlers.ErrorResponse  "Not logged in"
// @Failure     503  {object}  handlers.ErrorResponse  "Offline and nothing cached"
// @Router      /bp [get]
func (h *Handlers) ListBPReadings(c *gin.Context) {
	v, meta, err := h.d.Health.ListBPReadings(c.Request.Context(), listLimit(c))
	respondRead(h, c, v, meta, err)
}

// AddMoodLog godoc
// @ID          addMoodLog
// @Summary     Record a mood entry
// @Tags        Health
// @Accept      json
// @Produce     json
// @Param       body  body  client.NewMoodLog  true  "Mood entry"
// @Success     201  {object}  client.MoodLog
// @Success     202  {object}  handlers.QueuedResponse  "Queued while offline"
// @Failure     400  {object}  handlers.ErrorResponse   "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse   "Not logged in"
// @Router      /mood [post]
func (h *Handlers) AddMoodLog(c *gin.Context) {
	var in client.NewMoodLog
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be a JSON mood entry")
		return
	}
	m, meta, err := h.d.Health.AddMoodLog(c.Request.Context(), in)
	respondWrite(h, c, m, meta, err)
}

// ListMoodLogs godoc
// @ID          listMoodLogs
// @Summary     Mood entries, newest first
// @Tags        Health
// @Produce     json
// @Param       limit  query  int  false  "Max entries (0 = backend default)"  minimum(0) maximum(500)
// @Success     200  {array}   client.MoodLog
// @Failure     401  {object}  handlers.ErrorResponse  "Not logged in"
// @Failure     503  {object}  handlers.ErrorResponse  "Offline and nothing cached"
// @Router      /mood [get]
func (h *Handlers) ListMoodLogs(c *gin.Context) {
	v, meta, err := h.d.Health.ListMoodLogs(c.Request.Context(), listLimit(c))
	respondRead(h, c, v, meta, err)
}

// Dashboard godoc
// @ID          dashboard
// @Summary     Aggregates for a range
// @Tags        Health
// @Produce     json
// @Param       range  query  string  false  "day, week or month"  Enums(day, week, month)  default(week)
// @Success     200  {object}  client.Dashboard
// @Failure     400  {object}  handlers.ErrorResponse  "Bad range"
// @Failure     503  {object}  handlers.ErrorResponse  "Offline and nothing cached"
// @Router      /dashboard [get]
func (h *Handlers) Dashboard(c *gin.Context) {
	v, meta, err := h.d.Health.Dashboard(c.Request.Context(), c.Query("range"))
	respondRead(h, c, v, meta, err)
}

// Badges godoc
// @ID          badges
// @Summary     Badges, earned first
// @Tags        Health
// @Produce     json
// @Success     200  {array}   client.Badge
// @Failure     503  {object}  handlers.ErrorResponse  "Offline and nothing cached"
// @Router      /badges [get]
func (h *Handlers) Badges(c *gin.Context) {
	v, meta, err := h.d.Health.Badges(c.Request.Context())
	respondRead(h, c, v, meta, err)
}

// RecommendationToday godoc
// @ID          recommendationToday
// @Summary     Today's recommendation
// @Tags        Health
// @Produce     json
// @Success     200  {object}  client.Recommendation
// @Failure     503  {object}  handlers.ErrorResponse  "Offline and nothing cached"
// @Router      /recommendation/today [get]
func (h *Handlers) RecommendationToday(c *gin.Context) {
	v, meta, err := h.d.Health.RecommendationToday(c.Request.Context())
	respondRead(h, c, v, meta, err)
}

func listLimit(c *gin.Context) int {
	return utils.Clamp(utils.AtoiDefault(c.Query("limit"), 0), 0, maxListLimit)
}

func setMetaHeaders(c *gin.Context, meta client.Meta) {
	if meta.Offline {
		c.Header(HeaderOffline, "true")
	}
	if meta.StoredAt != nil {
		c.Header(HeaderCachedAt, meta.StoredAt.UTC().Format(time.RFC3339Nano))
	}
}

func respondRead[T any](h *Handlers, c *gin.Context, v T, meta client.Meta, err error) {
	if err != nil {
		h.healthError(c, err)
		return
	}
	setMetaHeaders(c, meta)
	ok(c, http.StatusOK, v)
}

func respondWrite[T any](h *Handlers, c *gin.Context, v *T, meta client.Meta, err error) {
	if err != nil {
		h.healthError(c, err)
		return
	}
	if meta.Queued && meta.Item != nil {
		setMetaHeaders(c, meta)
		c.Header(HeaderQueued, "true")
		ok(c, http.StatusAccepted, QueuedResponse{Offline: true, Queued: true, Item: *meta.Item})
		return
	}
	ok(c, http.StatusCreated, v)
}

func (h *Handlers) healthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, client.ErrCredentialsRequired),
		errors.Is(err, client.ErrInvalidReading),
		errors.Is(err, client.ErrInvalidMood),
		errors.Is(err, client.ErrInvalidRange):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		h.dispatchError(c, err)
	}
}
