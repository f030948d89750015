package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/bpguard/internal/dispatch"
	"github.com/tbourn/bpguard/internal/notify"
	"github.com/tbourn/bpguard/internal/offline"
	"github.com/tbourn/bpguard/internal/repo"
	"github.com/tbourn/bpguard/internal/syncer"
	"github.com/tbourn/bpguard/internal/worker"
)

// ---------- test DB ----------

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// ---------- fakes ----------

type call struct {
	Path string
	Opts dispatch.Options
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []call
	res   *dispatch.Result
	err   error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, path string, opts dispatch.Options) (*dispatch.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Path: path, Opts: opts})
	return f.res, f.err
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeAccounts struct {
	sess      *offline.Session
	err       error
	gotEmail  string
	loggedOut bool
	logoutErr error
}

func (f *fakeAccounts) Login(_ context.Context, email, _ string) (*offline.Session, error) {
	f.gotEmail = email
	return f.sess, f.err
}

func (f *fakeAccounts) Logout(context.Context) error {
	f.loggedOut = true
	return f.logoutErr
}

type fakeSessions struct {
	sess *offline.Session
	err  error
}

func (f fakeSessions) Get(context.Context) (*offline.Session, error) { return f.sess, f.err }

type fakeSyncer struct {
	rep       syncer.Report
	err       error
	syncing   bool
	last      *syncer.Report
	refreshes int
	ctxErr    error
}

func (f *fakeSyncer) Sync(ctx context.Context) (syncer.Report, error) {
	f.ctxErr = ctx.Err()
	return f.rep, f.err
}
func (f *fakeSyncer) Syncing() bool                { return f.syncing }
func (f *fakeSyncer) LastReport() *syncer.Report   { return f.last }
func (f *fakeSyncer) RefreshDepth(context.Context) { f.refreshes++ }

type fakeMonitor bool

func (m fakeMonitor) Online() bool { return bool(m) }

type fakeWorker struct {
	state worker.State
	gen   string
}

func (w fakeWorker) State() worker.State { return w.state }
func (w fakeWorker) Generation() string  { return w.gen }

type fakeCache map[string]*offline.CacheEntry

func (f fakeCache) Get(_ context.Context, key string) (*offline.CacheEntry, error) {
	return f[key], nil
}

type fakeNotices struct {
	items    []notify.Notice
	gotLimit int
}

func (f *fakeNotices) Recent(limit int) []notify.Notice {
	f.gotLimit = limit
	if limit < len(f.items) {
		return f.items[:limit]
	}
	return f.items
}

// ---------- helpers ----------

func init() { gin.SetMode(gin.TestMode) }

// withRID mimics RequestID so error envelopes carry a request id.
func withRID(c *gin.Context) {
	c.Writer.Header().Set("X-Request-ID", "rid-test")
	c.Next()
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return er
}

func ptrTime(t time.Time) *time.Time { return &t }
