package repo

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/tbourn/bpguard/internal/domain"
)

func TestPutValue_CreatesThenBumpsVersion(t *testing.T) {
	db := newTestDB(t, &domain.KVEntry{})
	ctx := context.Background()

	if err := PutValue(ctx, db, "bp_auth", []byte(`{"user_id":1}`)); err != nil {
		t.Fatalf("PutValue #1: %v", err)
	}
	e, err := GetValue(ctx, db, "bp_auth")
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if e.Version != 1 || e.Value != `{"user_id":1}` {
		t.Fatalf("unexpected entry after create: %+v", e)
	}

	if err := PutValue(ctx, db, "bp_auth", []byte(`{"user_id":2}`)); err != nil {
		t.Fatalf("PutValue #2: %v", err)
	}
	e, _ = GetValue(ctx, db, "bp_auth")
	if e.Version != 2 || e.Value != `{"user_id":2}` {
		t.Fatalf("expected version 2 and overwritten value, got %+v", e)
	}
}

func TestGetValue_Missing_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, &domain.KVEntry{})
	if _, err := GetValue(context.Background(), db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteValue_IdempotentOnMissing(t *testing.T) {
	db := newTestDB(t, &domain.KVEntry{})
	ctx := context.Background()

	if err := DeleteValue(ctx, db, "missing"); err != nil {
		t.Fatalf("DeleteValue on missing: %v", err)
	}
	_ = PutValue(ctx, db, "k", []byte("1"))
	if err := DeleteValue(ctx, db, "k"); err != nil {
		t.Fatalf("DeleteValue: %v", err)
	}
	if _, err := GetValue(ctx, db, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected key to be gone, got %v", err)
	}
}

func TestUpdateValue_CreateModifyDeleteAndNoop(t *testing.T) {
	db := newTestDB(t, &domain.KVEntry{})
	ctx := context.Background()

	// Absent -> created.
	err := UpdateValue(ctx, db, "k", func(cur []byte) ([]byte, error) {
		if cur != nil {
			t.Fatalf("expected nil current value, got %q", cur)
		}
		return []byte("a"), nil
	})
	if err != nil {
		t.Fatalf("UpdateValue create: %v", err)
	}

	// Unchanged bytes leave the version alone.
	if err := UpdateValue(ctx, db, "k", func(cur []byte) ([]byte, error) { return cur, nil }); err != nil {
		t.Fatalf("UpdateValue noop: %v", err)
	}
	v, _, _ := EntryStats(ctx, db, "k")
	if v != 1 {
		t.Fatalf("expected version to stay 1 after no-op, got %d", v)
	}

	// Modify.
	if err := UpdateValue(ctx, db, "k", func(cur []byte) ([]byte, error) { return append(cur, 'b'), nil }); err != nil {
		t.Fatalf("UpdateValue modify: %v", err)
	}
	e, _ := GetValue(ctx, db, "k")
	if e.Value != "ab" || e.Version != 2 {
		t.Fatalf("unexpected entry after modify: %+v", e)
	}

	// nil deletes.
	if err := UpdateValue(ctx, db, "k", func([]byte) ([]byte, error) { return nil, nil }); err != nil {
		t.Fatalf("UpdateValue delete: %v", err)
	}
	if _, err := GetValue(ctx, db, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted key, got %v", err)
	}
}

func TestUpdateValue_CallbackErrorRollsBack(t *testing.T) {
	db := newTestDB(t, &domain.KVEntry{})
	ctx := context.Background()
	_ = PutValue(ctx, db, "k", []byte("keep"))

	boom := errors.New("boom")
	err := UpdateValue(ctx, db, "k", func([]byte) ([]byte, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error to propagate, got %v", err)
	}
	e, _ := GetValue(ctx, db, "k")
	if e == nil || e.Value != "keep" {
		t.Fatalf("expected value to survive aborted update, got %+v", e)
	}
}

// Concurrent read-modify-write against a real file must not lose updates.
func TestUpdateValue_ConcurrentIncrements(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	const workers, perWorker = 4, 10

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				errs <- UpdateValue(ctx, db, "counter", func(cur []byte) ([]byte, error) {
					n := 0
					if cur != nil {
						n, _ = strconv.Atoi(string(cur))
					}
					return []byte(strconv.Itoa(n + 1)), nil
				})
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("UpdateValue: %v", err)
		}
	}

	e, err := GetValue(ctx, db, "counter")
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if e.Value != strconv.Itoa(workers*perWorker) {
		t.Fatalf("lost updates: got %s, want %d", e.Value, workers*perWorker)
	}
}

func TestKVStore_Adapter(t *testing.T) {
	db := newTestDB(t, &domain.KVEntry{})
	ctx := context.Background()
	s := KVStore{DB: db}

	if _, ok, err := s.Get(ctx, "x"); ok || err != nil {
		t.Fatalf("expected (absent, nil), got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "x", []byte(`[]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok, err := s.Get(ctx, "x"); !ok || err != nil || string(v) != "[]" {
		t.Fatalf("Get after Set: v=%q ok=%v err=%v", v, ok, err)
	}
	if err := s.Update(ctx, "x", func(cur []byte) ([]byte, error) { return []byte(`[1]`), nil }); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if v, _, _ := s.Get(ctx, "x"); string(v) != "[1]" {
		t.Fatalf("Get after Update: %q", v)
	}
	if err := s.Delete(ctx, "x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "x"); ok {
		t.Fatalf("expected key deleted")
	}
}

func TestEntryStats_AbsentAndPresent(t *testing.T) {
	db := newTestDB(t, &domain.KVEntry{})
	ctx := context.Background()

	v, at, err := EntryStats(ctx, db, "q")
	if err != nil || v != 0 || at != nil {
		t.Fatalf("expected (0, nil, nil), got (%d, %v, %v)", v, at, err)
	}

	_ = PutValue(ctx, db, "q", []byte("[]"))
	_ = PutValue(ctx, db, "q", []byte("[1]"))
	v, at, err = EntryStats(ctx, db, "q")
	if err != nil {
		t.Fatalf("EntryStats: %v", err)
	}
	if v != 2 || at == nil || at.IsZero() {
		t.Fatalf("unexpected stats: version=%d updatedAt=%v", v, at)
	}
}

func TestEntryStats_Error_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, _, err := EntryStats(context.Background(), db, "q"); err == nil {
		t.Fatalf("expected error due to missing kv_entries table")
	}
}
