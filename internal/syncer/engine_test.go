package syncer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/bpguard/internal/offline"
)

func enqueue(t *testing.T, e *Engine, path string, auth bool) offline.QueueItem {
	t.Helper()
	it, err := e.Queue.Enqueue(context.Background(), offline.QueueItem{Method: "POST", Path: path, Body: json.RawMessage(`{"v":1}`), AuthRequired: auth})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return it
}

func TestSync_Skips(t *testing.T) {
	e, kv := newEngine(t, "http://unused")
	ctx := context.Background()

	rep, err := e.Sync(ctx)
	if err != nil || rep.Skipped != SkipEmpty {
		t.Fatalf("expected empty skip, got %+v %v", rep, err)
	}

	enqueue(t, e, "/api/bp", false)
	e.Monitor.(*fakeMonitor).online.Store(false)
	if rep, _ := e.Sync(ctx); rep.Skipped != SkipOffline {
		t.Fatalf("expected offline skip, got %+v", rep)
	}
	e.Monitor.(*fakeMonitor).online.Store(true)

	other := NewLease(kv, time.Minute)
	if ok, _ := other.Acquire(ctx); !ok {
		t.Fatalf("other lease")
	}
	if rep, _ := e.Sync(ctx); rep.Skipped != SkipLeased {
		t.Fatalf("expected leased skip, got %+v", rep)
	}

	e.syncing.Store(true)
	if rep, _ := e.Sync(ctx); rep.Skipped != SkipBusy {
		t.Fatalf("expected busy skip, got %+v", rep)
	}
	e.syncing.Store(false)

	if e.LastReport() != nil {
		t.Fatalf("skipped triggers must not replace the last pass report")
	}
}

func TestSync_ReplaysInOrder_RemovesSuccesses_KeepsFailures(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
		keys  []string
		users []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		paths = append(paths, r.URL.Path)
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		users = append(users, r.Header.Get("X-User-Id"))
		mu.Unlock()
		if r.Header.Get("Content-Type") != "application/json" || string(b) != `{"v":1}` {
			t.Errorf("unexpected replay request: ct=%q body=%q", r.Header.Get("Content-Type"), b)
		}
		if r.URL.Path == "/api/fail" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"boom"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	e, kv := newEngine(t, srv.URL)
	n := &recordingNotifier{}
	e.Notices = n
	ctx := context.Background()
	if err := e.Session.Set(ctx, offline.Session{UserID: 5}); err != nil {
		t.Fatalf("session: %v", err)
	}

	a := enqueue(t, e, "/api/bp", true)
	b := enqueue(t, e, "/api/fail", true)
	c := enqueue(t, e, "/api/mood", false)

	rep, err := e.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if rep.Total != 3 || rep.Succeeded != 2 || rep.Failed != 1 || rep.DeadLettered != 0 || rep.Skipped != "" {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if strings.Join(paths, ",") != "/api/bp,/api/fail,/api/mood" {
		t.Fatalf("expected queue order, got %v", paths)
	}
	if keys[0] != a.ID || keys[1] != b.ID || keys[2] != c.ID {
		t.Fatalf("Idempotency-Key must equal item id: %v", keys)
	}
	if users[0] != "5" || users[2] != "" {
		t.Fatalf("unexpected X-User-Id headers: %v", users)
	}

	items, _ := e.Queue.List(ctx)
	if len(items) != 1 || items[0].ID != b.ID || items[0].Attempts != 1 || items[0].LastError != "boom" {
		t.Fatalf("expected failed item to stay with bookkeeping, got %+v", items)
	}
	if e.Syncing() {
		t.Fatalf("latch must be released")
	}
	if lr := e.LastReport(); lr == nil || lr.Succeeded != 2 {
		t.Fatalf("unexpected last report: %+v", lr)
	}

	msgs := strings.Join(n.all(), "|")
	if !strings.Contains(msgs, "Synced 2 item(s)") || !strings.Contains(msgs, "Failed to sync 1 item(s)") {
		t.Fatalf("unexpected notices: %v", msgs)
	}

	// Lease is released at the end of the pass.
	if ok, _ := NewLease(kv, time.Minute).Acquire(ctx); !ok {
		t.Fatalf("lease should be free after the pass")
	}
}

func TestSync_DeadLettersAfterMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	e, _ := newEngine(t, srv.URL)
	e.MaxAttempts = 2
	ctx := context.Background()
	it := enqueue(t, e, "/api/bp", false)

	if rep, _ := e.Sync(ctx); rep.Failed != 1 || rep.DeadLettered != 0 {
		t.Fatalf("pass 1: %+v", rep)
	}
	rep, _ := e.Sync(ctx)
	if rep.Failed != 1 || rep.DeadLettered != 1 {
		t.Fatalf("pass 2: %+v", rep)
	}
	if n, _ := e.Queue.Len(ctx); n != 0 {
		t.Fatalf("expected empty queue, got %d", n)
	}
	dead, _ := e.Queue.ListDead(ctx)
	if len(dead) != 1 || dead[0].ID != it.ID || dead[0].LastError != "HTTP 400" {
		t.Fatalf("unexpected dead list: %+v", dead)
	}
}

func TestSync_MissingSessionFailsWithoutCountingAttempt(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	defer srv.Close()

	e, _ := newEngine(t, srv.URL)
	ctx := context.Background()
	enqueue(t, e, "/api/bp", true)

	rep, err := e.Sync(ctx)
	if err != nil || rep.Failed != 1 {
		t.Fatalf("unexpected: %+v %v", rep, err)
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no request without a session")
	}
	items, _ := e.Queue.List(ctx)
	if len(items) != 1 || items[0].Attempts != 0 {
		t.Fatalf("item should stay untouched: %+v", items)
	}
}

func TestSync_TransportFailuresNeverDeadLetter(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	e, _ := newEngine(t, url)
	ctx := context.Background()
	enqueue(t, e, "/api/bp", false)
	enqueue(t, e, "/api/mood", false)

	// More outages than MaxAttempts allows server rejections.
	for pass := 1; pass <= e.MaxAttempts+1; pass++ {
		rep, err := e.Sync(ctx)
		if err != nil || rep.Failed != 2 || rep.Succeeded != 0 || rep.DeadLettered != 0 {
			t.Fatalf("pass %d: %+v %v", pass, rep, err)
		}
	}
	items, _ := e.Queue.List(ctx)
	if len(items) != 2 {
		t.Fatalf("expected both items kept, got %d", len(items))
	}
	for _, it := range items {
		if it.Attempts != 0 {
			t.Fatalf("outage counted as an attempt: %+v", it)
		}
	}
	if n, _ := e.Queue.LenDead(ctx); n != 0 {
		t.Fatalf("dead list has %d items", n)
	}
}

// leaseHookKV runs before once, just ahead of the first lease update.
type leaseHookKV struct {
	offline.KV
	once   sync.Once
	before func()
}

func (k *leaseHookKV) Update(ctx context.Context, key string, fn func([]byte) ([]byte, error)) error {
	if key == offline.KeyLease {
		k.once.Do(k.before)
	}
	return k.KV.Update(ctx, key, fn)
}

func TestSync_OtherProcessDrainsQueueBeforeLease(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	a, kv := newEngine(t, srv.URL)
	b := &Engine{
		BaseURL: srv.URL,
		Timeout: time.Second,
		Queue:   offline.NewQueue(kv, zerolog.Nop()),
		Session: offline.NewSessionStore(kv, zerolog.Nop()),
		Lease:   NewLease(kv, 30*time.Second),
		Monitor: a.Monitor,
		Log:     zerolog.Nop(),
	}
	ctx := context.Background()
	enqueue(t, a, "/api/bp", false)

	var repB Report
	a.Lease = NewLease(&leaseHookKV{KV: kv, before: func() { repB, _ = b.Sync(ctx) }}, 30*time.Second)

	repA, err := a.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if repB.Succeeded != 1 {
		t.Fatalf("other process pass: %+v", repB)
	}
	if repA.Succeeded != 0 || repA.Skipped != SkipEmpty {
		t.Fatalf("this process must see the drained queue: %+v", repA)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("queued write reached the backend %d times", n)
	}
}

func TestSync_ConcurrentTriggersRunOnePass(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
	}))
	defer srv.Close()

	e, _ := newEngine(t, srv.URL)
	ctx := context.Background()
	enqueue(t, e, "/api/bp", false)

	first := make(chan Report, 1)
	go func() {
		rep, _ := e.Sync(ctx)
		first <- rep
	}()
	deadline := time.After(2 * time.Second)
	for !e.Syncing() || hits.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("first pass did not start")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if rep, _ := e.Sync(ctx); rep.Skipped != SkipBusy {
		t.Fatalf("expected busy skip during a pass, got %+v", rep)
	}
	close(release)
	if rep := <-first; rep.Succeeded != 1 {
		t.Fatalf("unexpected first pass: %+v", rep)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected exactly one replay, got %d", hits.Load())
	}
}
