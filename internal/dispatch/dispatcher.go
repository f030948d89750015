// Package dispatch is the single entry point the UI uses to talk to the BP
// Guardian backend. Reads are cached for offline display; writes that cannot
// reach the backend are queued for the sync engine to replay.
//
// Observability: Dispatch is OpenTelemetry-instrumented and counts outcomes
// in the bpguard_dispatch_total Prometheus counter.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/bpguard/internal/notify"
	"github.com/tbourn/bpguard/internal/offline"
)

// errMonitorOffline marks a request that was never sent because the
// connectivity monitor reports the backend unreachable.
var errMonitorOffline = errors.New("connectivity monitor reports offline")

// Connectivity reports whether the backend is believed reachable.
type Connectivity interface {
	Online() bool
}

// Options describes one request. Method defaults to GET.
type Options struct {
	Method         string
	Body           json.RawMessage
	AuthRequired   bool
	IdempotencyKey string // used as the queue item id when the write is queued

	// NoQueue makes a write that cannot reach the backend fail with the
	// transport error instead of being queued. Login and register use it:
	// replaying them later would store credentials and produce no session.
	NoQueue bool
}

// Result is the outcome of a successful Dispatch.
type Result struct {
	Data     json.RawMessage    `json:"data"`
	Status   int                `json:"-"`
	Offline  bool               `json:"offline"`
	Queued   bool               `json:"queued"`
	Cached   bool               `json:"cached"`
	StoredAt *time.Time         `json:"stored_at,omitempty"`
	Item     *offline.QueueItem `json:"item,omitempty"`
}

// Dispatcher sends requests to the backend with offline fallbacks.
type Dispatcher struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration

	Queue   *offline.Queue
	Cache   *offline.DataCache
	Session *offline.SessionStore

	// Optional collaborators.
	Monitor Connectivity
	Notices notify.Notifier

	Log zerolog.Logger
}

// Dispatch sends path (path plus query) to the backend.
//
//   - Auth required and nobody logged in: offline.ErrUnauthenticated, no
//     network attempt.
//   - Non-2xx: *offline.ServerError.
//   - 2xx GET: parsed body, also stored in the offline data cache.
//   - 2xx write: parsed body.
//   - Transport failure on GET: the cached snapshot flagged Offline and
//     Cached, or offline.ErrOfflineNoData.
//   - Transport failure on a write: the write is queued and a synthetic
//     success flagged Offline and Queued is returned, unless NoQueue is set,
//     in which case the *offline.TransportError is returned.
//
// Cancellation of ctx is returned as is and never queues anything.
func (d *Dispatcher) Dispatch(ctx context.Context, path string, opts Options) (*Result, error) {
	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = http.MethodGet
	}

	tr := otel.Tracer("dispatch/Dispatcher")
	ctx, span := tr.Start(ctx, "Dispatch",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("bpguard.path", routeOf(path)),
			attribute.Bool("bpguard.auth_required", opts.AuthRequired),
		),
	)
	defer span.End()

	res, outcome, err := d.dispatch(ctx, path, method, opts)
	dispatchTotal.WithLabelValues(method, outcome).Inc()
	span.SetAttributes(attribute.String("bpguard.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	return res, err
}

func (d *Dispatcher) dispatch(ctx context.Context, path, method string, opts Options) (*Result, string, error) {
	req := offline.Request{Method: method, Path: path, Body: opts.Body}

	if opts.AuthRequired {
		sess, err := d.Session.Get(ctx)
		if err != nil {
			return nil, outcomeError, err
		}
		if sess == nil {
			return nil, outcomeUnauthenticated, offline.ErrUnauthenticated
		}
		req.UserID = sess.Header()
	}

	if method != http.MethodGet {
		if !offline.IsMutating(method) {
			return nil, outcomeError, offline.ErrInvalidMethod
		}
		// The key doubles as the queue item id, so a write that reached the
		// backend before the connection dropped is deduplicated on replay.
		req.IdempotencyKey = opts.IdempotencyKey
		if req.IdempotencyKey == "" {
			id, err := offline.NewItemID()
			if err != nil {
				return nil, outcomeError, err
			}
			req.IdempotencyKey = id
		}
	}

	var (
		resp *offline.Response
		err  error
	)
	if d.Monitor != nil && !d.Monitor.Online() {
		err = &offline.TransportError{Err: errMonitorOffline}
	} else {
		resp, err = offline.Do(ctx, d.Client, d.BaseURL, req, d.Timeout)
	}

	if err != nil {
		if !offline.IsTransport(err) {
			return nil, failureOutcome(err), err
		}
		if method != http.MethodGet && opts.NoQueue {
			return nil, outcomeOffline, err
		}
		d.Log.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed in transport; using offline fallback")
		return d.fallback(ctx, path, req, opts)
	}

	if err := resp.Err(); err != nil {
		return nil, outcomeServerError, err
	}

	data := resp.Data()
	if method == http.MethodGet {
		if err := d.Cache.Put(ctx, path, data); err != nil {
			d.Log.Error().Err(err).Str("path", path).Msg("failed to save offline data")
		}
	}
	return &Result{Data: data, Status: resp.Status}, outcomeOK, nil
}

func (d *Dispatcher) fallback(ctx context.Context, path string, req offline.Request, opts Options) (*Result, string, error) {
	if req.Method == http.MethodGet {
		entry, err := d.Cache.Get(ctx, path)
		if err != nil {
			return nil, outcomeError, err
		}
		if entry == nil {
			return nil, outcomeNoData, offline.ErrOfflineNoData
		}
		at := entry.StoredAt
		return &Result{Data: entry.Data, Offline: true, Cached: true, StoredAt: &at}, outcomeCached, nil
	}

	item, err := d.Queue.Enqueue(ctx, offline.QueueItem{
		ID:           req.IdempotencyKey,
		Path:         path,
		Method:       req.Method,
		Body:         opts.Body,
		AuthRequired: opts.AuthRequired,
	})
	if err != nil {
		return nil, outcomeError, err
	}
	if d.Notices != nil {
		d.Notices.Notify(notify.Warning, "You are offline. Saved locally and will sync when online.")
	}

	synthetic, err := json.Marshal(struct {
		Offline bool              `json:"offline"`
		Queued  bool              `json:"queued"`
		Item    offline.QueueItem `json:"item"`
	}{true, true, item})
	if err != nil {
		return nil, outcomeError, err
	}
	return &Result{Data: synthetic, Offline: true, Queued: true, Item: &item}, outcomeQueued, nil
}

// failureOutcome labels an error that is neither a transport failure nor a
// server reply.
func failureOutcome(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return outcomeCanceled
	}
	return outcomeError
}

// routeOf strips the query so span attributes stay low-cardinality and free
// of filter values.
func routeOf(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
