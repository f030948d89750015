package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/bpguard/internal/domain"
)

// ErrDuplicate means a live outcome is already recorded for the
// (user, path, key) scope.
var ErrDuplicate = errors.New("idempotency key already recorded")

// GetIdempotency returns the outcome recorded for the scope if it is still
// live at now, or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, userID, path, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(path) == "" || key == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("user_id = ? AND path = ? AND `key` = ? AND expires_at > ?", userID, path, key, now).
		Take(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency records the outcome of a write for ttl. A row for the same
// scope that has already expired is overwritten in place, so a key reused
// after its window is recorded again even before PurgeIdempotency runs. A row
// that is still live is left alone and ErrDuplicate is returned.
func CreateIdempotency(ctx context.Context, db *gorm.DB, userID, path, key string, status int, body string, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	rec := &domain.Idempotency{
		ID:        id.String(),
		UserID:    userID,
		Path:      path,
		Key:       key,
		Status:    status,
		Body:      body,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "path"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"id", "status", "body", "created_at", "expires_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "idempotency.expires_at <= ?", Vars: []any{now}},
			}},
		}).
		Create(rec)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrDuplicate
	}
	return rec, nil
}

// PurgeIdempotency deletes records that expired at or before now and reports
// how many were removed.
func PurgeIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}
