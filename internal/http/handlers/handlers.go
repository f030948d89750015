package handlers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/bpguard/internal/client"
	"github.com/tbourn/bpguard/internal/dispatch"
	"github.com/tbourn/bpguard/internal/notify"
	"github.com/tbourn/bpguard/internal/offline"
	"github.com/tbourn/bpguard/internal/syncer"
	"github.com/tbourn/bpguard/internal/worker"
)

//
// Collaborator contracts (context-aware)
//

// Dispatcher sends one request to the backend with offline fallbacks.
type Dispatcher interface {
	Dispatch(ctx context.Context, path string, opts dispatch.Options) (*dispatch.Result, error)
}

// Accounts logs the user in and out.
type Accounts interface {
	Login(ctx context.Context, email, password string) (*offline.Session, error)
	Logout(ctx context.Context) error
}

// Health is the typed health-data API.
type Health interface {
	Register(ctx context.Context, name, email, password string) (*client.Account, error)
	AddBPReading(ctx context.Context, in client.NewBPReading) (*client.BPReading, client.Meta, error)
	ListBPReadings(ctx context.Context, limit int) ([]client.BPReading, client.Meta, error)
	AddMoodLog(ctx context.Context, in client.NewMoodLog) (*client.MoodLog, client.Meta, error)
	ListMoodLogs(ctx context.Context, limit int) ([]client.MoodLog, client.Meta, error)
	Dashboard(ctx context.Context, rng string) (*client.Dashboard, client.Meta, error)
	Badges(ctx context.Context) ([]client.Badge, client.Meta, error)
	RecommendationToday(ctx context.Context) (*client.Recommendation, client.Meta, error)
}

// Sessions reads the stored login.
type Sessions interface {
	Get(ctx context.Context) (*offline.Session, error)
}

// Queue is the offline write queue together with its dead list.
type Queue interface {
	List(ctx context.Context) ([]offline.QueueItem, error)
	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	ListDead(ctx context.Context) ([]offline.QueueItem, error)
	LenDead(ctx context.Context) (int, error)
	Requeue(ctx context.Context, id string) (offline.QueueItem, error)
	Discard(ctx context.Context, id string) error
}

// Syncer drains the queue on demand.
type Syncer interface {
	Sync(ctx context.Context) (syncer.Report, error)
	Syncing() bool
	LastReport() *syncer.Report
	RefreshDepth(ctx context.Context)
}

// Connectivity reports whether the backend is believed reachable.
type Connectivity interface {
	Online() bool
}

// WorkerInfo exposes the interception layer's lifecycle.
type WorkerInfo interface {
	State() worker.State
	Generation() string
}

// DataCache is the offline snapshot store filled by successful reads.
type DataCache interface {
	Get(ctx context.Context, key string) (*offline.CacheEntry, error)
}

// Notices returns recent user-visible notices, newest first.
type Notices interface {
	Recent(limit int) []notify.Notice
}

//
// Handler wiring
//

// Deps bundles everything the gateway handlers need. DB backs idempotency
// records and queue ETags; it may be nil in tests that do not cover them.
type Deps struct {
	Dispatcher Dispatcher
	Accounts   Accounts
	Health     Health
	Sessions   Sessions
	Queue      Queue
	Syncer     Syncer
	Monitor    Connectivity
	Worker     WorkerInfo
	Cache      DataCache
	Notices    Notices

	DB             *gorm.DB
	IdempotencyTTL time.Duration
}

// Handlers groups the gateway endpoints.
type Handlers struct {
	d Deps
}

// New constructs Handlers bound to the given collaborators.
func New(d Deps) *Handlers {
	if d.IdempotencyTTL <= 0 {
		d.IdempotencyTTL = 24 * time.Hour
	}
	return &Handlers{d: d}
}
