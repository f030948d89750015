// Dispatch HTTP handler.
//
// ANY /dispatch/{path} forwards one request to the BP Guardian backend through
// the Dispatcher. The response body is the backend's JSON (or the cached
// snapshot, or the synthetic queued envelope) and the offline outcome is
// reported in headers:
//
//	X-Offline:   true when the backend was unreachable
//	X-Queued:    true when a write was stored for later replay (status 202)
//	X-Cached-At: RFC 3339 time of the cached snapshot that was served
//
// Idempotency:
// A write carrying Idempotency-Key is dispatched under that key (it becomes
// the queue item id and the key sent upstream). A repeated key within the
// TTL returns the recorded outcome with `Idempotency-Replayed: true` and is
// not dispatched again.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/bpguard/internal/dispatch"
	"github.com/tbourn/bpguard/internal/http/middleware"
	"github.com/tbourn/bpguard/internal/offline"
	"github.com/tbourn/bpguard/internal/repo"
)

// Gateway headers.
const (
	HeaderAuthRequired = "X-Auth-Required"
	HeaderOffline      = "X-Offline"
	HeaderQueued       = "X-Queued"
	HeaderCachedAt     = "X-Cached-At"
	HeaderReplayed     = "Idempotency-Replayed"
)

// statusClientClosed is logged when the caller went away mid-request.
const statusClientClosed = 499

// Dispatch godoc
// @ID          dispatch
// @Summary     Send a request to the backend with offline fallback
// @Description Reads fall back to the last cached snapshot while offline. Writes are queued while offline and acknowledged with 202.
// @Tags        Dispatch
// @Accept      json
// @Produce     json
//
// @Param       path             path    string  true  "Backend path, e.g. api/bp"  example(api/bp)
// @Param       X-Auth-Required  header  string  false "Set to false for public endpoints"  example(false)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(0191e7d6-7c1e-7b7a-9d2c-8a1f2e3d4c5b)
//
// @Success     200  {object}  map[string]any  "Backend response or cached snapshot"
// @Success     202  {object}  dispatch.Result "Write queued while offline"
// @Header      200  {string}  X-Offline    "true when served offline"
// @Header      200  {string}  X-Cached-At  "Time of the cached snapshot"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Not logged in"
// @Failure     503  {object}  handlers.ErrorResponse  "Offline and nothing cached"
// @Router      /dispatch/{path} [get]
// @Router      /dispatch/{path} [post]
// @Router      /dispatch/{path} [put]
// @Router      /dispatch/{path} [patch]
// @Router      /dispatch/{path} [delete]
func (h *Handlers) Dispatch(c *gin.Context) {
	ctx := c.Request.Context()
	method := c.Request.Method

	path := c.Param("path")
	if path == "" || path == "/" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "backend path required")
		return
	}
	if q := c.Request.URL.RawQuery; q != "" {
		path += "?" + q
	}

	opts := dispatch.Options{
		Method:       method,
		AuthRequired: !strings.EqualFold(strings.TrimSpace(c.GetHeader(HeaderAuthRequired)), "false"),
	}

	if method != http.MethodGet {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")
				return
			}
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "could not read body")
			return
		}
		if len(strings.TrimSpace(string(raw))) > 0 {
			if !json.Valid(raw) {
				fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be JSON")
				return
			}
			opts.Body = raw
		}
	}

	// Idempotency (replay path).
	idemKey, _ := middleware.GetIdempotencyKey(c)
	uid := middleware.UserID(c)
	scope := c.Request.URL.Path
	if idemKey != "" && method != http.MethodGet {
		opts.IdempotencyKey = idemKey
		if h.d.DB != nil {
			rec, err := repo.GetIdempotency(ctx, h.d.DB, uid, scope, idemKey, time.Now().UTC())
			if err == nil && rec != nil {
				c.Header(HeaderReplayed, "true")
				c.Data(rec.Status, "application/json; charset=utf-8", []byte(rec.Body))
				return
			}
		}
	}

	res, err := h.d.Dispatcher.Dispatch(ctx, path, opts)
	if err != nil {
		h.dispatchError(c, err)
		return
	}

	status := res.Status
	switch {
	case res.Queued:
		status = http.StatusAccepted
		c.Header(HeaderQueued, "true")
	case status == 0:
		status = http.StatusOK
	}
	if res.Offline {
		c.Header(HeaderOffline, "true")
	}
	if res.StoredAt != nil {
		c.Header(HeaderCachedAt, res.StoredAt.UTC().Format(time.RFC3339Nano))
	}
	body := []byte(res.Data)
	if len(body) == 0 {
		body = []byte("null")
	}

	// Idempotency (store path), best effort.
	if idemKey != "" && method != http.MethodGet && h.d.DB != nil {
		if _, err := repo.CreateIdempotency(ctx, h.d.DB, uid, scope, idemKey, status, string(body), h.d.IdempotencyTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			lg := middleware.LoggerFrom(c)
			lg.Warn().Err(err).Msg("could not record idempotency key")
		}
	}

	c.Data(status, "application/json; charset=utf-8", body)
}

func (h *Handlers) dispatchError(c *gin.Context, err error) {
	var se *offline.ServerError
	switch {
	case errors.Is(err, offline.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "not logged in")
	case errors.As(err, &se):
		status := se.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		fail(c, status, ErrCodeUpstream, se.Message)
	case errors.Is(err, offline.ErrOfflineNoData):
		fail(c, http.StatusServiceUnavailable, ErrCodeOfflineNoData, err.Error())
	case errors.Is(err, offline.ErrInvalidMethod):
		fail(c, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, err.Error())
	case offline.IsTransport(err):
		fail(c, http.StatusServiceUnavailable, ErrCodeOffline, err.Error())
	case errors.Is(err, context.Canceled):
		c.AbortWithStatus(statusClientClosed)
	default:
		fail(c, http.StatusInternalServerError, ErrCodeDispatch, err.Error())
	}
}
