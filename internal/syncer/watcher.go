package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/bpguard/internal/notify"
)

// Subscriber is a source of connectivity transitions.
type Subscriber interface {
	Online() bool
	Subscribe() (<-chan bool, func())
}

// Watcher triggers sync passes from connectivity changes:
//   - on start, if online, a pass runs immediately (a no-op when the queue
//     is empty);
//   - on an online transition, a pass runs after SettleDelay unless the
//     connection drops again first;
//   - on an offline transition, only a notice is raised.
type Watcher struct {
	Engine      *Engine
	Monitor     Subscriber
	SettleDelay time.Duration
	Notices     notify.Notifier
	Log         zerolog.Logger

	// OnOnline, when set, runs on every online transition (e.g. to retry a
	// failed interception layer install).
	OnOnline func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

// Start launches the watch loop. Calling Start on a running Watcher is a
// no-op.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})

	// Subscribe before the initial check so no transition is missed.
	ch, unsub := w.Monitor.Subscribe()
	go func() {
		defer close(w.done)
		defer unsub()
		w.loop(ctx, ch)
	}()
}

// Stop ends the loop and waits for any pass it started to finish.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	w.wg.Wait()
}

func (w *Watcher) loop(ctx context.Context, ch <-chan bool) {
	if w.Monitor.Online() {
		w.trigger(ctx, "startup")
	}

	var (
		timer  *time.Timer
		settle <-chan time.Time
	)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		settle = nil
	}
	defer stopTimer()

	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-ch:
			if !ok {
				return
			}
			stopTimer()
			if online {
				w.notify(notify.Info, "Back online! Syncing your data...")
				if w.OnOnline != nil {
					w.goRun(func() { w.OnOnline(ctx) })
				}
				timer = time.NewTimer(w.SettleDelay)
				settle = timer.C
			} else {
				w.notify(notify.Warning, "You are offline. Data will be saved locally and synced when online.")
			}
		case <-settle:
			settle = nil
			w.trigger(ctx, "online")
		}
	}
}

func (w *Watcher) trigger(ctx context.Context, reason string) {
	w.goRun(func() {
		rep, err := w.Engine.Sync(ctx)
		if err != nil && ctx.Err() == nil {
			w.Log.Error().Err(err).Str("trigger", reason).Msg("sync pass failed")
			return
		}
		w.Log.Debug().Str("trigger", reason).Str("skipped", string(rep.Skipped)).Msg("sync triggered")
	})
}

func (w *Watcher) goRun(fn func()) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		fn()
	}()
}

func (w *Watcher) notify(level notify.Level, msg string) {
	if w.Notices != nil {
		w.Notices.Notify(level, msg)
	}
}
