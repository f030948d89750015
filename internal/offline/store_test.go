package offline

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/bpguard/internal/repo"
)

// newKV returns a KV backed by a per-test in-memory database.
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

func TestDecode_CorruptValueIsEmpty(t *testing.T) {
	kv := newKV(t)
	ctx := context.Background()
	_ = kv.Set(ctx, KeyQueue, []byte("{not json"))
	_ = kv.Set(ctx, KeyData, []byte("[1,2"))
	_ = kv.Set(ctx, KeySession, []byte("nope"))

	q := NewQueue(kv, zerolog.Nop())
	items, err := q.List(ctx)
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty queue from corrupt value, got %v err=%v", items, err)
	}

	// Writing over a corrupt value starts fresh.
	if _, err := q.Enqueue(ctx, QueueItem{Method: "POST", Path: "/api/bp"}); err != nil {
		t.Fatalf("Enqueue over corrupt value: %v", err)
	}
	if n, _ := q.Len(ctx); n != 1 {
		t.Fatalf("expected 1 item, got %d", n)
	}

	c := NewDataCache(kv, zerolog.Nop())
	if e, err := c.Get(ctx, "/api/bp"); e != nil || err != nil {
		t.Fatalf("expected miss from corrupt cache, got %v err=%v", e, err)
	}

	s := NewSessionStore(kv, zerolog.Nop())
	if sess, err := s.Get(ctx); sess != nil || err != nil {
		t.Fatalf("expected no session from corrupt value, got %v err=%v", sess, err)
	}
}
