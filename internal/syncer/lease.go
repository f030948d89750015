package syncer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/bpguard/internal/offline"
)

// leaseRecord is the value stored under offline.KeyLease.
type leaseRecord struct {
	Holder    string    `json:"holder"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Lease is a cooperative, expiring lock shared through the KV store so that
// only one process drains the queue at a time. A holder that dies simply
// lets its lease expire.
type Lease struct {
	kv     offline.KV
	holder string
	ttl    time.Duration
	now    func() time.Time
}

// NewLease returns a Lease with a fresh holder id.
func NewLease(kv offline.KV, ttl time.Duration) *Lease {
	return &Lease{
		kv:     kv,
		holder: uuid.NewString(),
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Holder returns this process's holder id.
func (l *Lease) Holder() string { return l.holder }

// Acquire takes the lease if it is free, expired, or already ours. It
// reports false when another holder owns a live lease.
func (l *Lease) Acquire(ctx context.Context) (bool, error) {
	acquired := false
	err := l.kv.Update(ctx, offline.KeyLease, func(cur []byte) ([]byte, error) {
		now := l.now()
		var rec leaseRecord
		if cur != nil && json.Unmarshal(cur, &rec) == nil &&
			rec.Holder != l.holder && rec.ExpiresAt.After(now) {
			return cur, nil
		}
		acquired = true
		return json.Marshal(leaseRecord{Holder: l.holder, ExpiresAt: now.Add(l.ttl)})
	})
	if err != nil {
		return false, err
	}
	return acquired, nil
}

// Renew extends a lease we hold. It reports false if the lease was lost to
// another holder in the meantime.
func (l *Lease) Renew(ctx context.Context) (bool, error) {
	return l.Acquire(ctx)
}

// Release gives the lease up if we still hold it.
func (l *Lease) Release(ctx context.Context) error {
	return l.kv.Update(ctx, offline.KeyLease, func(cur []byte) ([]byte, error) {
		var rec leaseRecord
		if cur != nil && json.Unmarshal(cur, &rec) == nil && rec.Holder != l.holder {
			return cur, nil
		}
		return nil, nil
	})
}
