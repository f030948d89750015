package syncer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/bpguard/internal/connectivity"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func newWatcherFixture(t *testing.T) (*Engine, *connectivity.Monitor, *atomic.Int32) {
	t.Helper()
	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	e, _ := newEngine(t, srv.URL)
	mon := connectivity.NewMonitor(srv.URL+"/ping", time.Hour, time.Second, false, zerolog.Nop())
	e.Monitor = mon
	return e, mon, hits
}

func TestWatcher_StartupSyncWhenOnline(t *testing.T) {
	e, mon, hits := newWatcherFixture(t)
	mon.Set(true)
	enqueue(t, e, "/api/bp", false)

	w := &Watcher{Engine: e, Monitor: mon, SettleDelay: time.Hour, Log: zerolog.Nop()}
	w.Start(context.Background())
	defer w.Stop()

	waitFor(t, "startup sync", func() bool { n, _ := e.Queue.Len(context.Background()); return n == 0 })
	if hits.Load() != 1 {
		t.Fatalf("expected one replay, got %d", hits.Load())
	}
}

func TestWatcher_OnlineTransitionSyncsAfterSettleDelay(t *testing.T) {
	e, mon, hits := newWatcherFixture(t)
	enqueue(t, e, "/api/bp", false)
	n := &recordingNotifier{}

	var hooked atomic.Int32
	w := &Watcher{
		Engine: e, Monitor: mon, SettleDelay: 20 * time.Millisecond, Notices: n, Log: zerolog.Nop(),
		OnOnline: func(context.Context) { hooked.Add(1) },
	}
	w.Start(context.Background())
	defer w.Stop()

	mon.Set(true)
	waitFor(t, "sync after settle delay", func() bool { return hits.Load() == 1 })
	waitFor(t, "online hook", func() bool { return hooked.Load() == 1 })
	if !strings.Contains(strings.Join(n.all(), "|"), "Back online") {
		t.Fatalf("expected back-online notice, got %v", n.all())
	}
}

func TestWatcher_DropDuringSettleCancelsPass(t *testing.T) {
	e, mon, hits := newWatcherFixture(t)
	enqueue(t, e, "/api/bp", false)
	n := &recordingNotifier{}

	w := &Watcher{Engine: e, Monitor: mon, SettleDelay: 150 * time.Millisecond, Notices: n, Log: zerolog.Nop()}
	w.Start(context.Background())
	defer w.Stop()

	mon.Set(true)
	time.Sleep(20 * time.Millisecond)
	mon.Set(false)

	time.Sleep(300 * time.Millisecond)
	if hits.Load() != 0 {
		t.Fatalf("pass must be cancelled when the connection drops during the settle delay")
	}
	waitFor(t, "offline notice", func() bool {
		return strings.Contains(strings.Join(n.all(), "|"), "You are offline")
	})
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	e, mon, _ := newWatcherFixture(t)
	w := &Watcher{Engine: e, Monitor: mon, Log: zerolog.Nop()}
	w.Stop()
	w.Start(context.Background())
	w.Start(context.Background())
	w.Stop()
	w.Stop()
}
