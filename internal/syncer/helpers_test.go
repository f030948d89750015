package syncer

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/bpguard/internal/notify"
	"github.com/tbourn/bpguard/internal/offline"
	"github.com/tbourn/bpguard/internal/repo"
)

func newKV(t *testing.T) repo.KVStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return repo.KVStore{DB: db}
}

type fakeMonitor struct{ online atomic.Bool }

func (m *fakeMonitor) Online() bool { return m.online.Load() }

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Notify(_ notify.Level, msg string) {
	n.mu.Lock()
	n.msgs = append(n.msgs, msg)
	n.mu.Unlock()
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

func newEngine(t *testing.T, baseURL string) (*Engine, offline.KV) {
	t.Helper()
	kv := newKV(t)
	m := &fakeMonitor{}
	m.online.Store(true)
	e := &Engine{
		BaseURL:     baseURL,
		Timeout:     time.Second,
		MaxAttempts: 3,
		Queue:       offline.NewQueue(kv, zerolog.Nop()),
		Session:     offline.NewSessionStore(kv, zerolog.Nop()),
		Lease:       NewLease(kv, 30*time.Second),
		Monitor:     m,
		Log:         zerolog.Nop(),
	}
	return e, kv
}
