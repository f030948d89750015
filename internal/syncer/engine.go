// Package syncer replays queued offline writes against the BP Guardian
// backend.
//
// Engine performs one pass at a time per process (an atomic latch) and one
// pass at a time across processes sharing the store (a Lease). Watcher turns
// connectivity transitions into passes.
//
// Observability: passes are traced as "Sync" spans and counted in the
// bpguard_sync_* Prometheus collectors.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/bpguard/internal/notify"
	"github.com/tbourn/bpguard/internal/offline"
)

// SkipReason explains why a trigger did not run a pass.
type SkipReason string

const (
	SkipOffline SkipReason = "offline"
	SkipEmpty   SkipReason = "empty"
	SkipBusy    SkipReason = "busy"
	SkipLeased  SkipReason = "leased"
)

// Report summarizes one trigger.
type Report struct {
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   time.Time  `json:"finished_at"`
	Total        int        `json:"total"`
	Succeeded    int        `json:"succeeded"`
	Failed       int        `json:"failed"`
	DeadLettered int        `json:"dead_lettered"`
	Skipped      SkipReason `json:"skipped,omitempty"`
}

// Connectivity reports whether the backend is believed reachable.
type Connectivity interface {
	Online() bool
}

// Engine drains the offline queue.
type Engine struct {
	BaseURL     string
	Client      *http.Client
	Timeout     time.Duration // per replayed item
	MaxAttempts int           // 0 disables dead-lettering

	Queue   *offline.Queue
	Session *offline.SessionStore
	Lease   *Lease

	// Optional collaborators.
	Monitor Connectivity
	Notices notify.Notifier

	Log zerolog.Logger

	syncing atomic.Bool

	mu   sync.Mutex
	last *Report
}

// Syncing reports whether a pass is running in this process.
func (e *Engine) Syncing() bool { return e.syncing.Load() }

// LastReport returns the report of the most recent pass that ran, or nil.
func (e *Engine) LastReport() *Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return nil
	}
	r := *e.last
	return &r
}

// Sync runs one pass if the preconditions hold (not already syncing, online,
// queue non-empty, lease acquired) and otherwise returns a Report with
// Skipped set. Items are replayed one by one in queue order; a failed item
// stays queued and the pass continues with the next one. Only items the
// server rejected MaxAttempts times move to the dead list.
func (e *Engine) Sync(ctx context.Context) (Report, error) {
	rep := Report{StartedAt: time.Now().UTC()}

	if !e.syncing.CompareAndSwap(false, true) {
		return e.skip(rep, SkipBusy), nil
	}
	defer e.syncing.Store(false)

	if e.Monitor != nil && !e.Monitor.Online() {
		return e.skip(rep, SkipOffline), nil
	}

	n, err := e.Queue.Len(ctx)
	if err != nil {
		return rep, err
	}
	if n == 0 {
		return e.skip(rep, SkipEmpty), nil
	}

	if e.Lease != nil {
		ok, err := e.Lease.Acquire(ctx)
		if err != nil {
			return rep, err
		}
		if !ok {
			return e.skip(rep, SkipLeased), nil
		}
		defer func() {
			// Release even when ctx is done so other processes need not wait
			// for expiry.
			if err := e.Lease.Release(context.WithoutCancel(ctx)); err != nil {
				e.Log.Error().Err(err).Msg("failed to release sync lease")
			}
		}()
	}

	// Snapshot under the lease: items another process replayed meanwhile
	// are already gone from the queue.
	items, err := e.Queue.List(ctx)
	if err != nil {
		return rep, err
	}
	if len(items) == 0 {
		return e.skip(rep, SkipEmpty), nil
	}

	tr := otel.Tracer("syncer/Engine")
	ctx, span := tr.Start(ctx, "Sync", trace.WithAttributes(attribute.Int("queue.length", len(items))))
	defer span.End()

	rep.Total = len(items)
	e.notify(notify.Info, fmt.Sprintf("Syncing %d offline item(s)...", len(items)))
	e.Log.Info().Int("items", len(items)).Msg("starting offline sync")

	var passErr error
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			passErr = err
			break
		}
		done, err := e.replay(ctx, it, &rep)
		if err != nil {
			passErr = err
			break
		}
		if !done {
			break
		}
	}

	rep.FinishedAt = time.Now().UTC()
	span.SetAttributes(
		attribute.Int("sync.succeeded", rep.Succeeded),
		attribute.Int("sync.failed", rep.Failed),
		attribute.Int("sync.dead_lettered", rep.DeadLettered),
	)
	syncPasses.WithLabelValues("completed").Inc()
	syncDuration.Observe(rep.FinishedAt.Sub(rep.StartedAt).Seconds())
	e.RefreshDepth(context.WithoutCancel(ctx))
	e.remember(rep)

	if rep.Succeeded > 0 {
		e.notify(notify.Success, fmt.Sprintf("Synced %d item(s) successfully", rep.Succeeded))
	}
	if rep.Failed > 0 {
		e.notify(notify.Warning, fmt.Sprintf("Failed to sync %d item(s), will retry later", rep.Failed))
	}
	if rep.DeadLettered > 0 {
		e.notify(notify.Danger, fmt.Sprintf("%d item(s) could not be synced and were set aside", rep.DeadLettered))
	}
	e.Log.Info().
		Int("succeeded", rep.Succeeded).
		Int("failed", rep.Failed).
		Int("dead_lettered", rep.DeadLettered).
		Msg("sync complete")

	return rep, passErr
}

// replay sends one item and records the outcome. It reports false when the
// pass must stop (lease lost).
func (e *Engine) replay(ctx context.Context, it offline.QueueItem, rep *Report) (bool, error) {
	lg := e.Log.With().Str("id", it.ID).Str("method", it.Method).Str("path", it.Path).Logger()
	req := offline.Request{
		Method:         it.Method,
		Path:           it.Path,
		Body:           it.Body,
		IdempotencyKey: it.ID,
	}

	var cause error
	if it.AuthRequired {
		sess, err := e.Session.Get(ctx)
		switch {
		case err != nil:
			return false, err
		case sess == nil:
			cause = offline.ErrUnauthenticated
		default:
			req.UserID = sess.Header()
		}
	}

	if cause == nil {
		res, err := offline.Do(ctx, e.Client, e.BaseURL, req, e.Timeout)
		switch {
		case err != nil && !offline.IsTransport(err):
			return false, err
		case err != nil:
			cause = err
		default:
			cause = res.Err()
		}
	}

	if cause == nil {
		if err := e.Queue.Remove(ctx, it.ID); err != nil {
			return false, err
		}
		rep.Succeeded++
		syncItems.WithLabelValues("succeeded").Inc()
		lg.Debug().Msg("synced")
	} else {
		rep.Failed++
		syncItems.WithLabelValues("failed").Inc()
		lg.Warn().Err(cause).Msg("sync failed for item")

		// Only a server rejection counts toward the ceiling. A missing
		// session or an unreachable backend says nothing about the item.
		var serr *offline.ServerError
		if errors.As(cause, &serr) {
			dead, err := e.Queue.RecordFailure(ctx, it.ID, cause, e.MaxAttempts)
			if err != nil {
				return false, err
			}
			if dead {
				rep.DeadLettered++
				syncItems.WithLabelValues("dead_lettered").Inc()
			}
		}
	}

	if e.Lease != nil {
		ok, err := e.Lease.Renew(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			lg.Warn().Msg("sync lease lost; stopping pass")
			return false, nil
		}
	}
	return true, nil
}

// RefreshDepth publishes the current queue and dead-list lengths.
func (e *Engine) RefreshDepth(ctx context.Context) {
	if n, err := e.Queue.Len(ctx); err == nil {
		queueDepth.WithLabelValues("pending").Set(float64(n))
	}
	if n, err := e.Queue.LenDead(ctx); err == nil {
		queueDepth.WithLabelValues("dead").Set(float64(n))
	}
}

func (e *Engine) skip(rep Report, reason SkipReason) Report {
	rep.Skipped = reason
	rep.FinishedAt = time.Now().UTC()
	syncPasses.WithLabelValues(string(reason)).Inc()
	e.Log.Debug().Str("reason", string(reason)).Msg("sync skipped")
	return rep
}

func (e *Engine) remember(rep Report) {
	e.mu.Lock()
	e.last = &rep
	e.mu.Unlock()
}

func (e *Engine) notify(level notify.Level, msg string) {
	if e.Notices != nil {
		e.Notices.Notify(level, msg)
	}
}
