package offline

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// QueueItem is a write that could not reach the backend and waits for replay.
type QueueItem struct {
	ID           string          `json:"id"`
	EnqueuedAt   time.Time       `json:"timestamp"`
	Path         string          `json:"path"`
	Method       string          `json:"method"`
	Body         json.RawMessage `json:"body,omitempty"`
	AuthRequired bool            `json:"authRequired"`

	// Replay bookkeeping.
	Attempts      int        `json:"attempts,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
	LastAttemptAt *time.Time `json:"lastAttemptAt,omitempty"`
}

// Queue is the FIFO of pending writes plus the dead-letter list for items
// that exhausted their replay attempts. Items are never reordered; a failed
// replay leaves the item where it was.
type Queue struct {
	kv  KV
	log zerolog.Logger
	now func() time.Time
}

// NewQueue returns a Queue persisted in kv.
func NewQueue(kv KV, log zerolog.Logger) *Queue {
	return &Queue{kv: kv, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// IsMutating reports whether method is one of the verbs the queue accepts.
func IsMutating(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// NewItemID returns a fresh time-ordered queue item id.
func NewItemID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Enqueue appends item to the tail of the queue. An id is assigned unless
// the caller pre-assigned one; EnqueuedAt is always stamped here.
func (q *Queue) Enqueue(ctx context.Context, item QueueItem) (QueueItem, error) {
	item.Method = strings.ToUpper(item.Method)
	if !IsMutating(item.Method) {
		return QueueItem{}, ErrInvalidMethod
	}
	if strings.TrimSpace(item.Path) == "" {
		return QueueItem{}, ErrInvalidPath
	}
	if item.ID == "" {
		id, err := NewItemID()
		if err != nil {
			return QueueItem{}, err
		}
		item.ID = id
	}
	item.EnqueuedAt = q.now()

	err := q.modify(ctx, KeyQueue, func(items []QueueItem) []QueueItem {
		// A pre-assigned id that is already queued stays a single item.
		if indexOf(items, item.ID) >= 0 {
			return items
		}
		return append(items, item)
	})
	if err != nil {
		return QueueItem{}, err
	}
	q.log.Info().Str("id", item.ID).Str("method", item.Method).Str("path", item.Path).Msg("added to offline queue")
	return item, nil
}

// List returns a snapshot of the queue in insertion order.
func (q *Queue) List(ctx context.Context) ([]QueueItem, error) {
	return q.load(ctx, KeyQueue)
}

// Len returns the number of queued items.
func (q *Queue) Len(ctx context.Context) (int, error) {
	items, err := q.List(ctx)
	return len(items), err
}

// Remove deletes exactly the item with id. Unknown ids are a no-op.
func (q *Queue) Remove(ctx context.Context, id string) error {
	return q.modify(ctx, KeyQueue, func(items []QueueItem) []QueueItem {
		if i := indexOf(items, id); i >= 0 {
			return append(items[:i:i], items[i+1:]...)
		}
		return items
	})
}

// Clear drops every queued item.
func (q *Queue) Clear(ctx context.Context) error {
	if err := q.kv.Delete(ctx, KeyQueue); err != nil {
		return err
	}
	q.log.Info().Msg("offline queue cleared")
	return nil
}

// RecordFailure notes a failed replay of id. When maxAttempts > 0 and the
// item has now failed that many times it is moved to the dead list and
// RecordFailure reports true.
func (q *Queue) RecordFailure(ctx context.Context, id string, cause error, maxAttempts int) (bool, error) {
	now := q.now()
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	var failed *QueueItem
	err := q.modify(ctx, KeyQueue, func(items []QueueItem) []QueueItem {
		i := indexOf(items, id)
		if i < 0 {
			return items
		}
		items[i].Attempts++
		items[i].LastError = msg
		items[i].LastAttemptAt = &now
		it := items[i]
		failed = &it
		return items
	})
	if err != nil || failed == nil {
		return false, err
	}
	if maxAttempts <= 0 || failed.Attempts < maxAttempts {
		return false, nil
	}

	// Dead list first, queue second: a crash in between leaves a duplicate
	// that Requeue folds back into one item, never a lost write.
	if err := q.modify(ctx, KeyDead, func(items []QueueItem) []QueueItem {
		if indexOf(items, id) >= 0 {
			return items
		}
		return append(items, *failed)
	}); err != nil {
		return false, err
	}
	if err := q.Remove(ctx, id); err != nil {
		return false, err
	}
	q.log.Warn().Str("id", id).Int("attempts", failed.Attempts).Str("last_error", msg).Msg("queue item moved to dead list")
	return true, nil
}

// ListDead returns the dead-lettered items, oldest first.
func (q *Queue) ListDead(ctx context.Context) ([]QueueItem, error) {
	return q.load(ctx, KeyDead)
}

// LenDead returns the number of dead-lettered items.
func (q *Queue) LenDead(ctx context.Context) (int, error) {
	items, err := q.ListDead(ctx)
	return len(items), err
}

// Requeue moves a dead item back to the tail of the queue with its replay
// counters reset. It keeps its id so the backend can still deduplicate it.
func (q *Queue) Requeue(ctx context.Context, id string) (QueueItem, error) {
	item, err := q.findDead(ctx, id)
	if err != nil {
		return QueueItem{}, err
	}
	item.Attempts = 0
	item.LastError = ""
	item.LastAttemptAt = nil
	item.EnqueuedAt = q.now()

	if err := q.modify(ctx, KeyQueue, func(items []QueueItem) []QueueItem {
		if i := indexOf(items, id); i >= 0 {
			items = append(items[:i:i], items[i+1:]...)
		}
		return append(items, item)
	}); err != nil {
		return QueueItem{}, err
	}
	if err := q.dropDead(ctx, id); err != nil {
		return QueueItem{}, err
	}
	q.log.Info().Str("id", id).Msg("dead item requeued")
	return item, nil
}

// Discard deletes a dead item permanently.
func (q *Queue) Discard(ctx context.Context, id string) error {
	if _, err := q.findDead(ctx, id); err != nil {
		return err
	}
	if err := q.dropDead(ctx, id); err != nil {
		return err
	}
	q.log.Info().Str("id", id).Msg("dead item discarded")
	return nil
}

func (q *Queue) findDead(ctx context.Context, id string) (QueueItem, error) {
	dead, err := q.ListDead(ctx)
	if err != nil {
		return QueueItem{}, err
	}
	i := indexOf(dead, id)
	if i < 0 {
		return QueueItem{}, ErrItemNotFound
	}
	return dead[i], nil
}

func (q *Queue) dropDead(ctx context.Context, id string) error {
	return q.modify(ctx, KeyDead, func(items []QueueItem) []QueueItem {
		if i := indexOf(items, id); i >= 0 {
			return append(items[:i:i], items[i+1:]...)
		}
		return items
	})
}

func (q *Queue) load(ctx context.Context, key string) ([]QueueItem, error) {
	raw, ok, err := q.kv.Get(ctx, key)
	if err != nil || !ok {
		return []QueueItem{}, err
	}
	var items []QueueItem
	if !decode(q.log, key, raw, &items) || items == nil {
		return []QueueItem{}, nil
	}
	return items, nil
}

// modify applies fn to the list stored under key in one atomic update. An
// empty result deletes the key.
func (q *Queue) modify(ctx context.Context, key string, fn func([]QueueItem) []QueueItem) error {
	return q.kv.Update(ctx, key, func(cur []byte) ([]byte, error) {
		var items []QueueItem
		decode(q.log, key, cur, &items)
		items = fn(items)
		if len(items) == 0 {
			return nil, nil
		}
		return json.Marshal(items)
	})
}

func indexOf(items []QueueItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
