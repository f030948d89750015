// Package httpapi wires the local gateway (Gin) to the offline subsystem:
// middleware, the JSON endpoints under the API base path, and the network
// interception layer mounted as the fallback for everything else. Gateway
// JSON is compressed and never cached; proxied pages and assets keep the
// backend's own headers.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/bpguard/docs"
	"github.com/tbourn/bpguard/internal/config"
	"github.com/tbourn/bpguard/internal/http/handlers"
	"github.com/tbourn/bpguard/internal/http/middleware"
	"github.com/tbourn/bpguard/internal/repo"
)

// Deps are the collaborators RegisterRoutes needs beyond the handlers.
type Deps struct {
	Handlers *handlers.Handlers
	// Worker serves every request no gateway route matches.
	Worker http.Handler
	// DB backs idempotency lookups.
	DB *gorm.DB
	// CurrentUser resolves the logged-in user for scoping and rate limiting.
	CurrentUser middleware.UserResolver
}

// gateway headers the UI may send or read across origins
var (
	corsAllowHeaders = []string{
		"Origin", "Content-Type", "Accept",
		middleware.HeaderIdempotencyKey,
		handlers.HeaderAuthRequired,
		"If-None-Match",
	}
	corsExposeHeaders = []string{
		"X-Request-ID", "Content-Length", "ETag",
		handlers.HeaderOffline, handlers.HeaderQueued, handlers.HeaderCachedAt, handlers.HeaderReplayed,
	}
)

// corsMiddleware allows the configured origins, or any origin without
// credentials when none are configured. Preflights are answered here and
// never reach the worker.
func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  corsAllowHeaders,
		ExposeHeaders: corsExposeHeaders,
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return cors.New(c)
}

// RegisterRoutes installs the gateway on r. Global middleware runs for every
// request, including those the worker ends up serving:
//
//	otelgin > RequestID > ScopedLogger > RedactingLogger > Recovery >
//	1 MiB body cap > Metrics > SessionUser > CORS > SecurityHeaders
//
// Routes under cfg.APIBasePath add gzip, the idempotency validator, the rate
// limiter (after the validator, so replays skip it) and no-store headers.
// Anything unmatched falls through to d.Worker.
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(
		otelgin.Middleware(cfg.OTEL.ServiceName),
		middleware.RequestID(),
		middleware.ScopedLogger(),
		middleware.RedactingLogger(middleware.RedactOptions{}),
		middleware.Recovery(),
		limitBody(maxBodyBytes),
		middleware.Metrics(),
	)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if d.CurrentUser != nil {
		r.Use(middleware.SessionUser(d.CurrentUser))
	}
	r.Use(
		corsMiddleware(cfg.CORS.AllowedOrigins),
		middleware.SecurityHeaders(middleware.SecurityOptions{
			EnableHSTS:   cfg.Security.EnableHSTS,
			HSTSMaxAge:   cfg.Security.HSTSMaxAge,
			EnablePolicy: true,
		}),
	)

	if d.Worker != nil {
		r.NoRoute(gin.WrapH(d.Worker))
	} else {
		r.NoRoute(func(c *gin.Context) {
			handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
		})
	}
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := d.Handlers
	rl := middleware.NewRateLimiter(middleware.RateLimitOptions{
		Read:  middleware.Budget{RPS: cfg.RateRPS, Burst: cfg.RateBurst},
		Write: middleware.Budget{RPS: cfg.WriteRateRPS, Burst: cfg.WriteRateBurst},
		Key:   middleware.KeyByUserOrIP(),
	})

	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/_offline"
	api.Use(
		gzip.Gzip(gzip.DefaultCompression),
		middleware.IdempotencyValidator(
			middleware.IdempotencyOptions{MaxLen: 200},
			idempotencyLookup(d.DB),
		),
		rl.Handler(),
		middleware.SecurityHeaders(middleware.SecurityOptions{NoStore: true}),
	)
	{
		// Dispatch
		api.Any("/dispatch/*path", h.Dispatch)

		// Session
		api.POST("/session", h.Login)
		api.GET("/session", h.GetSession)
		api.DELETE("/session", h.Logout)

		// Typed health data
		api.POST("/account", h.Register)
		api.POST("/bp", h.AddBPReading)
		api.GET("/bp", h.ListBPReadings)
		api.POST("/mood", h.AddMoodLog)
		api.GET("/mood", h.ListMoodLogs)
		api.GET("/dashboard", h.Dashboard)
		api.GET("/badges", h.Badges)
		api.GET("/recommendation/today", h.RecommendationToday)

		// Queue
		api.GET("/queue", h.ListQueue)
		api.DELETE("/queue", h.ClearQueue)
		api.GET("/queue/dead", h.ListDead)
		api.POST("/queue/dead/:id/retry", h.RetryDead)
		api.DELETE("/queue/dead/:id", h.DiscardDead)

		// Sync
		api.POST("/sync", h.Sync)
		api.GET("/status", h.Status)

		// Offline data and notices
		api.GET("/cache", h.GetCache)
		api.GET("/notices", h.ListNotices)
	}
}

// idempotencyLookup adapts the idempotency table to the validator. Expired
// and missing records are both misses.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	if db == nil {
		return nil
	}
	return func(ctx context.Context, userID, path, key string, now time.Time) (bool, error) {
		_, err := repo.GetIdempotency(ctx, db, userID, path, key, now)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return false, nil
		case err != nil:
			return false, err
		}
		return true, nil
	}
}

// maxBodyBytes caps request bodies; a BP reading or mood entry is tiny.
const maxBodyBytes = 1 << 20

// limitBody makes body reads past maxBytes fail with *http.MaxBytesError.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
