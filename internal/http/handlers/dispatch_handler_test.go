package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/bpguard/internal/dispatch"
	"github.com/tbourn/bpguard/internal/http/middleware"
	"github.com/tbourn/bpguard/internal/offline"
)

func newDispatchRouter(d *fakeDispatcher, db *gorm.DB) *gin.Engine {
	h := New(Deps{Dispatcher: d, DB: db})
	r := gin.New()
	r.Use(withRID)
	r.Use(middleware.SessionUser(func(context.Context) (string, error) { return "7", nil }))
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	r.Any("/dispatch/*path", h.Dispatch)
	return r
}

func TestDispatch_GetOnline_PassesPathAndQuery(t *testing.T) {
	d := &fakeDispatcher{res: &dispatch.Result{Data: json.RawMessage(`[{"id":1}]`), Status: http.StatusOK}}
	r := newDispatchRouter(d, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dispatch/api/bp?limit=5", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if w.Body.String() != `[{"id":1}]` {
		t.Fatalf("body=%s", w.Body.String())
	}
	if w.Header().Get(HeaderOffline) != "" || w.Header().Get(HeaderQueued) != "" {
		t.Fatalf("online response must not carry offline headers: %v", w.Header())
	}
	if len(d.calls) != 1 {
		t.Fatalf("calls=%d", len(d.calls))
	}
	got := d.calls[0]
	if got.Path != "/api/bp?limit=5" || got.Opts.Method != http.MethodGet || !got.Opts.AuthRequired {
		t.Fatalf("unexpected dispatch: %+v", got)
	}
	if got.Opts.Body != nil {
		t.Fatalf("GET must not carry a body")
	}
}

func TestDispatch_CachedSnapshotHeaders(t *testing.T) {
	at := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	d := &fakeDispatcher{res: &dispatch.Result{
		Data: json.RawMessage(`{"range":"week"}`), Offline: true, Cached: true, StoredAt: ptrTime(at),
	}}
	r := newDispatchRouter(d, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dispatch/api/dashboard?range=week", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Header().Get(HeaderOffline) != "true" {
		t.Fatalf("missing X-Offline")
	}
	if got := w.Header().Get(HeaderCachedAt); got != at.Format(time.RFC3339Nano) {
		t.Fatalf("X-Cached-At=%q", got)
	}
}

func TestDispatch_QueuedWriteIs202(t *testing.T) {
	item := offline.QueueItem{ID: "q1", Path: "/api/mood", Method: http.MethodPost, AuthRequired: true}
	d := &fakeDispatcher{res: &dispatch.Result{
		Data:    json.RawMessage(`{"offline":true,"queued":true,"item":{"id":"q1"}}`),
		Offline: true, Queued: true, Item: &item,
	}}
	r := newDispatchRouter(d, nil)

	req := httptest.NewRequest(http.MethodPost, "/dispatch/api/mood", strings.NewReader(`{"mood_level":2}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get(HeaderQueued) != "true" || w.Header().Get(HeaderOffline) != "true" {
		t.Fatalf("missing queued headers: %v", w.Header())
	}
	if !strings.Contains(w.Body.String(), `"queued":true`) {
		t.Fatalf("body=%s", w.Body.String())
	}
	if string(d.calls[0].Opts.Body) != `{"mood_level":2}` {
		t.Fatalf("body not forwarded: %s", d.calls[0].Opts.Body)
	}
}

func TestDispatch_PublicEndpointAndEmptyBody(t *testing.T) {
	d := &fakeDispatcher{res: &dispatch.Result{Status: http.StatusNoContent}}
	r := newDispatchRouter(d, nil)

	req := httptest.NewRequest(http.MethodDelete, "/dispatch/api/thing/1", nil)
	req.Header.Set(HeaderAuthRequired, " FALSE ")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d", w.Code)
	}
	if d.calls[0].Opts.AuthRequired {
		t.Fatalf("X-Auth-Required: false must disable auth")
	}
	if d.calls[0].Opts.Body != nil {
		t.Fatalf("empty body must stay nil, got %q", d.calls[0].Opts.Body)
	}
}

func TestDispatch_BadRequests(t *testing.T) {
	d := &fakeDispatcher{res: &dispatch.Result{}}
	r := newDispatchRouter(d, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dispatch/", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty path status=%d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/dispatch/api/bp", strings.NewReader("{not json")))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid json status=%d", w.Code)
	}
	if er := decodeErr(t, w); er.Code != ErrCodeBadRequest || er.RequestID != "rid-test" {
		t.Fatalf("unexpected envelope: %+v", er)
	}
	if d.count() != 0 {
		t.Fatalf("nothing should be dispatched on bad input")
	}
}

func TestDispatch_BodyTooLarge(t *testing.T) {
	d := &fakeDispatcher{res: &dispatch.Result{}}
	h := New(Deps{Dispatcher: d})
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 8)
		c.Next()
	})
	r.Any("/dispatch/*path", h.Dispatch)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/dispatch/api/bp", strings.NewReader(`{"systolic":120,"diastolic":80}`)))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestDispatch_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthenticated", offline.ErrUnauthenticated, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"upstream 404", &offline.ServerError{Status: 404, Message: "not found"}, http.StatusNotFound, ErrCodeUpstream},
		{"upstream odd status", &offline.ServerError{Status: 302, Message: "HTTP 302"}, http.StatusBadGateway, ErrCodeUpstream},
		{"offline no data", offline.ErrOfflineNoData, http.StatusServiceUnavailable, ErrCodeOfflineNoData},
		{"invalid method", offline.ErrInvalidMethod, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed},
		{"transport", &offline.TransportError{Err: errors.New("dial tcp: refused")}, http.StatusServiceUnavailable, ErrCodeOffline},
		{"other", fmt.Errorf("enqueue: %w", errors.New("disk full")), http.StatusInternalServerError, ErrCodeDispatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newDispatchRouter(&fakeDispatcher{err: tc.err}, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dispatch/api/bp", nil))
			if w.Code != tc.status {
				t.Fatalf("status=%d want %d", w.Code, tc.status)
			}
			if er := decodeErr(t, w); er.Code != tc.code {
				t.Fatalf("code=%q want %q", er.Code, tc.code)
			}
		})
	}
}

func TestDispatch_ClientCanceled(t *testing.T) {
	r := newDispatchRouter(&fakeDispatcher{err: context.Canceled}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dispatch/api/bp", nil))
	if w.Code != statusClientClosed {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("no body expected, got %q", w.Body.String())
	}
}

func TestDispatch_IdempotencyReplay(t *testing.T) {
	db := newTestDB(t)
	item := offline.QueueItem{ID: "idem-1", Path: "/api/bp", Method: http.MethodPost}
	d := &fakeDispatcher{res: &dispatch.Result{
		Data:    json.RawMessage(`{"offline":true,"queued":true,"item":{"id":"idem-1"}}`),
		Offline: true, Queued: true, Item: &item,
	}}
	r := newDispatchRouter(d, db)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/dispatch/api/bp", strings.NewReader(`{"systolic":120,"diastolic":80}`))
		req.Header.Set(middleware.HeaderIdempotencyKey, "idem-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := send()
	if first.Code != http.StatusAccepted {
		t.Fatalf("first status=%d body=%s", first.Code, first.Body.String())
	}
	if d.calls[0].Opts.IdempotencyKey != "idem-1" {
		t.Fatalf("key not forwarded: %+v", d.calls[0].Opts)
	}

	second := send()
	if second.Code != http.StatusAccepted {
		t.Fatalf("replay status=%d", second.Code)
	}
	if second.Header().Get(HeaderReplayed) != "true" {
		t.Fatalf("expected replay header")
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replay body %s != %s", second.Body.String(), first.Body.String())
	}
	if d.count() != 1 {
		t.Fatalf("replayed key must not dispatch again, calls=%d", d.count())
	}
}

func TestDispatch_IdempotencyIgnoredForGet(t *testing.T) {
	db := newTestDB(t)
	d := &fakeDispatcher{res: &dispatch.Result{Data: json.RawMessage(`[]`), Status: http.StatusOK}}
	r := newDispatchRouter(d, db)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/dispatch/api/bp", nil)
		req.Header.Set(middleware.HeaderIdempotencyKey, "same")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK || w.Header().Get(HeaderReplayed) != "" {
			t.Fatalf("GET #%d status=%d replayed=%q", i, w.Code, w.Header().Get(HeaderReplayed))
		}
	}
	if d.count() != 2 {
		t.Fatalf("GETs always dispatch, calls=%d", d.count())
	}
	if d.calls[0].Opts.IdempotencyKey != "" {
		t.Fatalf("GET must not carry an idempotency key")
	}
}
