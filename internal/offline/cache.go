package offline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// CacheEntry is the last successful response body seen for a GET path.
type CacheEntry struct {
	Data     json.RawMessage `json:"data"`
	StoredAt time.Time       `json:"timestamp"`
}

// DataCache keeps one snapshot per request path (path plus query). There is
// no TTL: a stale snapshot is still better than nothing when offline, and
// StoredAt lets the UI say how stale it is.
type DataCache struct {
	kv  KV
	log zerolog.Logger
	now func() time.Time
}

// NewDataCache returns a DataCache persisted in kv.
func NewDataCache(kv KV, log zerolog.Logger) *DataCache {
	return &DataCache{kv: kv, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Put overwrites the snapshot for key.
func (c *DataCache) Put(ctx context.Context, key string, data json.RawMessage) error {
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	entry := CacheEntry{Data: data, StoredAt: c.now()}
	err := c.kv.Update(ctx, KeyData, func(cur []byte) ([]byte, error) {
		all := map[string]CacheEntry{}
		decode(c.log, KeyData, cur, &all)
		if all == nil {
			all = map[string]CacheEntry{}
		}
		all[key] = entry
		return json.Marshal(all)
	})
	if err != nil {
		return err
	}
	c.log.Debug().Str("key", key).Msg("saved offline data")
	return nil
}

// Get returns the snapshot for key, or (nil, nil) when none exists.
func (c *DataCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	all, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	e, ok := all[key]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// Len returns the number of cached paths.
func (c *DataCache) Len(ctx context.Context) (int, error) {
	all, err := c.load(ctx)
	return len(all), err
}

func (c *DataCache) load(ctx context.Context) (map[string]CacheEntry, error) {
	raw, ok, err := c.kv.Get(ctx, KeyData)
	if err != nil || !ok {
		return map[string]CacheEntry{}, err
	}
	all := map[string]CacheEntry{}
	if !decode(c.log, KeyData, raw, &all) || all == nil {
		return map[string]CacheEntry{}, nil
	}
	return all, nil
}
