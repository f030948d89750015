package domain

import "time"

// Idempotency is the recorded outcome of one gateway write, scoped by the
// logged-in user, the gateway path and the Idempotency-Key the UI sent. The
// key is also the offline queue item id, so a replayed save returns the same
// 202 envelope (or backend response) instead of queueing twice.
//
// Rows stay until PurgeIdempotency removes them after ExpiresAt; an expired
// row for the same scope is overwritten by the next record.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idempotency_scope,priority:1"`
	Path      string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idempotency_scope,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idempotency_scope,priority:3"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	Body      string    `gorm:"type:TEXT NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index:ix_idempotency_expires"`
}

func (Idempotency) TableName() string { return "idempotency" }
