// Package offline holds the client-side state that keeps BP Guardian usable
// without a network: the write queue, the dead-letter list, the offline data
// cache and the login session. Everything is persisted through a KV store so
// several processes sharing one database file see the same state.
package offline

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
)

// Store keys. They match the key names the browser client used.
const (
	KeyQueue   = "bp_guardian_offline_queue"
	KeyDead    = "bp_guardian_offline_dead"
	KeyData    = "bp_guardian_offline_data"
	KeySession = "bp_auth"
	KeyLease   = "bp_guardian_sync_lease"
)

// KV is the persistent key-value store the offline state lives in.
//
// Update performs a whole-value read-modify-write atomically: fn receives
// the current value (nil when absent) and returns the next one (nil deletes
// the key). An error from fn aborts the write and is returned unchanged.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Update(ctx context.Context, key string, fn func([]byte) ([]byte, error)) error
}

// decode unmarshals raw into v. Corrupt data is logged and reported as
// false so callers fall back to an empty value instead of failing.
func decode(log zerolog.Logger, key string, raw []byte, v any) bool {
	if len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("stored value is not valid JSON; treating as empty")
		return false
	}
	return true
}
