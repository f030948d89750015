// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small metadata queries used primarily
// for conditional responses (e.g., ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/bpguard/internal/domain"
)

// EntryStats returns the write version and last update time of a key-value
// entry without loading its value.
//
// When the key is absent the returned version is 0 and updatedAt is nil.
//
// Return values:
//   - version:   monotonically increasing write counter of the entry
//   - updatedAt: pointer to the time of the last write, or nil if absent
//   - err:       database error, if any
func EntryStats(ctx context.Context, db *gorm.DB, key string) (version int64, updatedAt *time.Time, err error) {
	var rows []struct {
		Version   int64
		UpdatedAt time.Time
	}
	err = db.WithContext(ctx).
		Model(&domain.KVEntry{}).
		Select("version", "updated_at").
		Where("key = ?", key).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return 0, nil, err
	}
	if len(rows) == 0 {
		return 0, nil, nil
	}
	return rows[0].Version, &rows[0].UpdatedAt, nil
}
