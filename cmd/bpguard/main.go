// Command bpguard runs the BP Guardian offline gateway: a local HTTP server
// that fronts the backend, keeps pages and data usable while offline, queues
// writes made without a connection and replays them once it comes back.
//
//	@title						BP Guardian offline gateway
//	@version					1.0
//	@description				Offline-first sync layer for the BP Guardian health client.
//	@BasePath					/_offline
//	@schemes					http https
//	@produce					json
package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/tbourn/bpguard/internal/client"
	"github.com/tbourn/bpguard/internal/config"
	"github.com/tbourn/bpguard/internal/connectivity"
	"github.com/tbourn/bpguard/internal/dispatch"
	httpapi "github.com/tbourn/bpguard/internal/http"
	"github.com/tbourn/bpguard/internal/http/handlers"
	"github.com/tbourn/bpguard/internal/notify"
	"github.com/tbourn/bpguard/internal/observability"
	"github.com/tbourn/bpguard/internal/offline"
	"github.com/tbourn/bpguard/internal/repo"
	"github.com/tbourn/bpguard/internal/sysutil"
	"github.com/tbourn/bpguard/internal/syncer"
	"github.com/tbourn/bpguard/internal/worker"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// idempotencyPurgeEvery is how often expired idempotency records are removed.
const idempotencyPurgeEvery = time.Hour

// installTimeout bounds pre-caching at startup and on reinstall.
const installTimeout = time.Minute

func main() {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	log := sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("bpguard stopped")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	gin.SetMode(cfg.GinMode)

	// Persistent store
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	kv := repo.KVStore{DB: db}
	board := notify.NewBoard(cfg.NoticeCapacity, log)
	queue := offline.NewQueue(kv, log)
	cache := offline.NewDataCache(kv, log)
	session := offline.NewSessionStore(kv, log)

	// Network interception layer. Requests it cannot serve reach the network
	// through the plain transport.
	w, err := worker.New(repo.ResponseCache{DB: db}, worker.Options{
		Generation:   cfg.Worker.Generation,
		Upstream:     cfg.UpstreamURL,
		StaticAssets: cfg.Worker.StaticAssets,
		Pages:        cfg.Worker.Pages,
		DefaultPage:  cfg.Worker.DefaultPage,
		Transport:    http.DefaultTransport,
		Log:          log.With().Str("component", "worker").Logger(),
	})
	if err != nil {
		return err
	}
	ictx, cancelInstall := context.WithTimeout(ctx, installTimeout)
	if err := w.Start(ictx); err != nil {
		// Retried on the next online transition.
		log.Warn().Err(err).Msg("worker install failed")
	}
	cancelInstall()

	// Backend calls go through the interception layer, traced.
	apiClient := &http.Client{Transport: observability.Transport(w)}

	probeURL, err := url.JoinPath(cfg.UpstreamURL, cfg.Sync.ProbePath)
	if err != nil {
		return err
	}
	// Start pessimistic and learn the real state before the watcher's first
	// pass, so an offline start does not send the queue into a dead network.
	monitor := connectivity.NewMonitor(probeURL, cfg.Sync.ProbeInterval, cfg.Sync.RequestTimeout, false,
		log.With().Str("component", "connectivity").Logger())
	monitor.Probe(ctx)
	go monitor.Run(ctx)

	d := &dispatch.Dispatcher{
		BaseURL: cfg.UpstreamURL,
		Client:  apiClient,
		Timeout: cfg.Sync.RequestTimeout,
		Queue:   queue,
		Cache:   cache,
		Session: session,
		Monitor: monitor,
		Notices: board,
		Log:     log.With().Str("component", "dispatch").Logger(),
	}
	accounts := client.New(d, session)

	engine := &syncer.Engine{
		BaseURL:     cfg.UpstreamURL,
		Client:      apiClient,
		Timeout:     cfg.Sync.RequestTimeout,
		MaxAttempts: cfg.Sync.MaxAttempts,
		Queue:       queue,
		Session:     session,
		Lease:       syncer.NewLease(kv, cfg.Sync.LeaseTTL),
		Monitor:     monitor,
		Notices:     board,
		Log:         log.With().Str("component", "sync").Logger(),
	}
	watcher := &syncer.Watcher{
		Engine:      engine,
		Monitor:     monitor,
		SettleDelay: cfg.Sync.SettleDelay,
		Notices:     board,
		Log:         log.With().Str("component", "sync").Logger(),
		OnOnline: func(ctx context.Context) {
			if w.State() != worker.Redundant {
				return
			}
			ictx, cancel := context.WithTimeout(ctx, installTimeout)
			defer cancel()
			if err := w.Start(ictx); err != nil {
				log.Warn().Err(err).Msg("worker reinstall failed")
			}
		},
	}
	watcher.Start(ctx)
	defer watcher.Stop()

	go purgeIdempotency(ctx, log, func(ctx context.Context, now time.Time) (int64, error) {
		return repo.PurgeIdempotency(ctx, db, now)
	})

	// HTTP
	h := handlers.New(handlers.Deps{
		Dispatcher:     d,
		Accounts:       accounts,
		Health:         accounts,
		Sessions:       session,
		Queue:          queue,
		Syncer:         engine,
		Monitor:        monitor,
		Worker:         w,
		Cache:          cache,
		Notices:        board,
		DB:             db,
		IdempotencyTTL: cfg.IdempotencyTTL,
	})

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Handlers: h,
		Worker:   w,
		DB:       db,
		CurrentUser: func(ctx context.Context) (string, error) {
			sess, err := session.Get(ctx)
			if err != nil || sess == nil {
				return "", err
			}
			return sess.Header(), nil
		},
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("upstream", cfg.UpstreamURL).Str("version", ver).Msg("bpguard listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	return nil
}

// purgeIdempotency removes expired idempotency records until ctx is done.
func purgeIdempotency(ctx context.Context, log zerolog.Logger, purge func(context.Context, time.Time) (int64, error)) {
	t := time.NewTicker(idempotencyPurgeEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			n, err := purge(pctx, now)
			cancel()
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency records")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("purged idempotency records")
			}
		}
	}
}
