// Package domain defines the persistence models of the offline client. These
// types are mapped with GORM and back the two storage tiers: the persistent
// key-value store used by the page context, and the cache generations owned by
// the network interception layer.
package domain

import "time"

// KVEntry is one slot of the persistent key-value store. Values are opaque
// JSON blobs; every write bumps Version so readers can build cheap ETags and
// detect concurrent modification.
//
// Fields:
//   - Key: store key (e.g. "bp_guardian_offline_queue").
//   - Value: serialized JSON document.
//   - Version: monotonically increasing write counter for this key.
//   - UpdatedAt: time of the last write (UTC).
type KVEntry struct {
	Key       string    `json:"key"        gorm:"type:TEXT NOT NULL;primaryKey"`
	Value     string    `json:"value"      gorm:"type:TEXT NOT NULL"`
	Version   int64     `json:"version"    gorm:"type:INTEGER NOT NULL;default:1"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:DATETIME NOT NULL"`
}

// TableName returns the database table name for KVEntry.
func (KVEntry) TableName() string { return "kv_entries" }

// CacheGeneration is a named bucket of cached responses. Exactly one
// generation is current at a time; activation deletes the rest.
type CacheGeneration struct {
	Name      string    `json:"name"       gorm:"type:TEXT NOT NULL;primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"type:DATETIME NOT NULL"`
}

// TableName returns the database table name for CacheGeneration.
func (CacheGeneration) TableName() string { return "cache_generations" }

// CachedResponse is a raw HTTP response stored by the interception layer,
// keyed by request identity (method + absolute URL) within a generation.
//
// Fields:
//   - ID: UUID primary key.
//   - Generation: owning cache generation (cascade-deleted with it).
//   - Method / URL: request identity.
//   - Status: HTTP status code of the stored response.
//   - Header: JSON-encoded response header map.
//   - Body: raw response body bytes.
//   - StoredAt: when the copy was written.
type CachedResponse struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	Generation string    `json:"generation"  gorm:"type:TEXT NOT NULL;uniqueIndex:ux_generation_request,priority:1"`
	Method     string    `json:"method"      gorm:"type:varchar(16);not null;uniqueIndex:ux_generation_request,priority:2"`
	URL        string    `json:"url"         gorm:"type:TEXT NOT NULL;uniqueIndex:ux_generation_request,priority:3"`
	Status     int       `json:"status"      gorm:"type:INTEGER NOT NULL"`
	Header     string    `json:"header"      gorm:"type:TEXT NOT NULL;default:'{}'"`
	Body       []byte    `json:"-"           gorm:"type:BLOB"`
	StoredAt   time.Time `json:"stored_at"   gorm:"type:DATETIME NOT NULL"`

	// CacheGeneration is the parent bucket. Responses are cascade-deleted
	// when their generation is evicted.
	CacheGeneration CacheGeneration `json:"-" gorm:"foreignKey:Generation;references:Name;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for CachedResponse.
func (CachedResponse) TableName() string { return "cached_responses" }
