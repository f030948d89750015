// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the persistent key-value store used by
// the offline client for its queue, data cache, session and sync lease.
//
// All functions are context-aware and accept a *gorm.DB handle. Values are
// opaque JSON blobs; every write bumps the entry version.
//
// Functions:
//
//   - GetValue(ctx, db, key) -> *domain.KVEntry, error
//     Returns the entry or ErrNotFound.
//
//   - PutValue(ctx, db, key, value) -> error
//     Upserts the value and increments the version.
//
//   - DeleteValue(ctx, db, key) -> error
//     Removes the entry; deleting a missing key is not an error.
//
//   - UpdateValue(ctx, db, key, fn) -> error
//     Whole-value read-modify-write inside one transaction.
package repo

import (
	"bytes"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/bpguard/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the offline packages and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// UpdateFunc receives the current value (nil when the key is absent) and
// returns the next one. Returning nil deletes the key. Returning bytes equal to
// the current value leaves the entry (and its version) untouched. A non-nil
// error aborts the transaction and is returned unchanged.
type UpdateFunc func(current []byte) ([]byte, error)

// GetValue fetches a single entry by key, or ErrNotFound if missing.
func GetValue(ctx context.Context, db *gorm.DB, key string) (*domain.KVEntry, error) {
	var e domain.KVEntry
	if err := db.WithContext(ctx).First(&e, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// PutValue stores value under key, creating the entry with version 1 or
// bumping the version of an existing one.
func PutValue(ctx context.Context, db *gorm.DB, key string, value []byte) error {
	now := time.Now().UTC()
	e := &domain.KVEntry{Key: key, Value: string(value), Version: 1, UpdatedAt: now}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      e.Value,
				"version":    gorm.Expr("kv_entries.version + 1"),
				"updated_at": now,
			}),
		}).
		Create(e).Error
}

// DeleteValue removes key. Missing keys are ignored.
func DeleteValue(ctx context.Context, db *gorm.DB, key string) error {
	return db.WithContext(ctx).Where("key = ?", key).Delete(&domain.KVEntry{}).Error
}

// UpdateValue performs an atomic read-modify-write of key. The write lock is
// taken before the read so two processes updating the same file serialize
// instead of failing a lock upgrade.
func UpdateValue(ctx context.Context, db *gorm.DB, key string, fn UpdateFunc) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("UPDATE kv_entries SET version = version WHERE key = ?", key).Error; err != nil {
			return err
		}

		var current []byte
		e, err := GetValue(ctx, tx, key)
		switch {
		case err == nil:
			current = []byte(e.Value)
		case !errors.Is(err, ErrNotFound):
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		switch {
		case next == nil && current == nil:
			return nil
		case next == nil:
			return DeleteValue(ctx, tx, key)
		case current != nil && bytes.Equal(next, current):
			return nil
		default:
			return PutValue(ctx, tx, key, next)
		}
	})
}

// KVStore exposes the key-value functions as a value that satisfies the
// offline.KV interface. It keeps the offline packages decoupled from gorm.
type KVStore struct {
	DB *gorm.DB
}

// Get returns the value stored under key and whether it exists.
func (s KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e, err := GetValue(ctx, s.DB, key)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(e.Value), true, nil
}

// Set proxies PutValue.
func (s KVStore) Set(ctx context.Context, key string, value []byte) error {
	return PutValue(ctx, s.DB, key, value)
}

// Delete proxies DeleteValue.
func (s KVStore) Delete(ctx context.Context, key string) error {
	return DeleteValue(ctx, s.DB, key)
}

// Update proxies UpdateValue.
func (s KVStore) Update(ctx context.Context, key string, fn func([]byte) ([]byte, error)) error {
	return UpdateValue(ctx, s.DB, key, fn)
}
