// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes the settings of the
// local gateway, the upstream BP Guardian backend, the offline store, the
// network interception layer, the sync engine, and observability.
package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig lists the browser origins allowed to call the gateway. Empty
// means any origin, without credentials.
type CORSConfig struct {
	AllowedOrigins []string // CORS_ALLOWED_ORIGINS, comma separated
}

// SecurityConfig controls Strict-Transport-Security.
type SecurityConfig struct {
	EnableHSTS bool          // ENABLE_HSTS
	HSTSMaxAge time.Duration // HSTS_MAX_AGE
}

// OTELConfig configures trace export over OTLP/gRPC.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT, host:port of the collector
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE, plaintext gRPC
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG, root span ratio in [0,1]
}

// WorkerConfig configures the network interception layer.
type WorkerConfig struct {
	Generation   string   // CACHE_GENERATION, e.g. "bp-guardian-v2"
	StaticAssets []string // mandatory pre-cache manifest
	Pages        []string // best-effort pre-cached HTML pages
	DefaultPage  string   // navigation fallback when the exact page is not cached
}

// SyncConfig configures connectivity detection and queue draining.
type SyncConfig struct {
	ProbePath      string        // upstream path used as the connectivity probe
	ProbeInterval  time.Duration // how often the probe runs
	SettleDelay    time.Duration // wait after an online transition before syncing
	RequestTimeout time.Duration // deadline for every network attempt
	MaxAttempts    int           // replay ceiling before dead-lettering (0 = unlimited)
	LeaseTTL       time.Duration // cross-process sync lease lifetime
}

// Config is the complete gateway configuration.
type Config struct {
	// HTTP server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug, release or test

	LogLevel       string // zerolog level name
	LogPretty      bool   // console writer instead of JSON lines
	SwaggerEnabled bool
	APIBasePath    string // mount point of the gateway's own routes

	UpstreamURL    string // BP Guardian backend origin
	DBPath         string // SQLite file holding the KV store and response cache
	NoticeCapacity int    // user-visible notices retained

	// Token buckets per user (else per client IP). Writes get their own,
	// smaller budget since each one may become a queued item.
	RateRPS        float64
	RateBurst      int
	WriteRateRPS   float64
	WriteRateBurst int

	CORS     CORSConfig
	Security SecurityConfig

	IdempotencyTTL time.Duration // replay window of an Idempotency-Key

	Worker WorkerConfig
	Sync   SyncConfig
	OTEL   OTELConfig
}

// Pre-cache manifest served by the BP Guardian backend.
const defaultStaticAssets = "/static/css/styles.css," +
	"/static/js/api.js,/static/js/dashboard.js,/static/js/badges.js," +
	"/static/js/log.js,/static/js/insights.js,/static/js/ui.js," +
	"/static/js/auth.js,/static/images/welcome-bg.jpg"

// MustLoad is Load for main: an invalid environment is fatal.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the environment. Unset, empty or unparsable variables take
// their defaults; the result is then normalized and validated.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/_offline")),

		UpstreamURL:    strings.TrimRight(getenv("UPSTREAM_URL", "http://localhost:5000"), "/"),
		DBPath:         getenv("DB_PATH", "bpguard.db"),
		NoticeCapacity: getint("NOTICE_CAPACITY", 50),

		RateRPS:        getfloat("RATE_RPS", 20.0),
		RateBurst:      getint("RATE_BURST", 40),
		WriteRateRPS:   getfloat("WRITE_RATE_RPS", 2.0),
		WriteRateBurst: getint("WRITE_RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		Worker: WorkerConfig{
			Generation:   getenv("CACHE_GENERATION", "bp-guardian-v2"),
			StaticAssets: splitCSV(getenv("STATIC_ASSETS", defaultStaticAssets)),
			Pages:        splitCSV(getenv("PRECACHE_PAGES", "/dashboard,/log,/insights,/badges")),
			DefaultPage:  getenv("DEFAULT_PAGE", "/dashboard"),
		},
		Sync: SyncConfig{
			ProbePath:      getenv("PROBE_PATH", "/ping"),
			ProbeInterval:  getdur("PROBE_INTERVAL", 5*time.Second),
			SettleDelay:    getdur("SYNC_SETTLE_DELAY", 500*time.Millisecond),
			RequestTimeout: getdur("REQUEST_TIMEOUT", 15*time.Second),
			MaxAttempts:    getint("SYNC_MAX_ATTEMPTS", 10),
			LeaseTTL:       getdur("SYNC_LEASE_TTL", 30*time.Second),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "bpguard"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	normalize(&cfg)
	return cfg, validate(cfg)
}

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true,
	"error": true, "fatal": true, "panic": true,
}

func normalize(cfg *Config) {
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	if cfg.GinMode != "debug" && cfg.GinMode != "test" {
		cfg.GinMode = "release"
	}
	if p := cfg.Sync.ProbePath; p != "" && !strings.HasPrefix(p, "/") {
		cfg.Sync.ProbePath = "/" + p
	}
}

// validate reports every problem at once so a broken .env is fixed in one
// pass.
func validate(cfg Config) error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}
	positive := func(ds ...time.Duration) bool {
		for _, d := range ds {
			if d <= 0 {
				return false
			}
		}
		return true
	}

	check(logLevels[cfg.LogLevel], "LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal, panic")
	check(cfg.Port != "", "PORT must not be empty")
	check(positive(cfg.ReadTimeout, cfg.ReadHeaderTimeout, cfg.WriteTimeout, cfg.IdleTimeout),
		"READ_TIMEOUT, READ_HEADER_TIMEOUT, WRITE_TIMEOUT and IDLE_TIMEOUT: timeouts must be positive")
	check(cfg.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")

	u, err := url.Parse(cfg.UpstreamURL)
	check(err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "",
		"UPSTREAM_URL must be an absolute http(s) URL")
	check(cfg.DBPath != "", "DB_PATH must not be empty")
	check(cfg.NoticeCapacity >= 1, "NOTICE_CAPACITY must be >= 1")

	check(cfg.RateRPS >= 0, "RATE_RPS must be >= 0")
	check(cfg.RateBurst >= 1, "RATE_BURST must be >= 1")
	check(cfg.WriteRateRPS >= 0, "WRITE_RATE_RPS must be >= 0")
	check(cfg.WriteRateBurst >= 1, "WRITE_RATE_BURST must be >= 1")

	check(cfg.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(cfg.IdempotencyTTL > 0, "IDEMPOTENCY_TTL must be > 0")

	check(cfg.Worker.Generation != "", "CACHE_GENERATION must not be empty")
	check(positive(cfg.Sync.ProbeInterval, cfg.Sync.RequestTimeout, cfg.Sync.LeaseTTL),
		"PROBE_INTERVAL, REQUEST_TIMEOUT and SYNC_LEASE_TTL must be positive durations")
	check(cfg.Sync.SettleDelay >= 0, "SYNC_SETTLE_DELAY must be >= 0")
	check(cfg.Sync.MaxAttempts >= 0, "SYNC_MAX_ATTEMPTS must be >= 0")

	check(cfg.OTEL.SampleRatio >= 0 && cfg.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	return errors.Join(errs...)
}

// ---- env helpers ----

// lookup returns the parsed value of env var k, or def when k is unset, empty
// or unparsable.
func lookup[T any](k string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return def
	}
	out, err := parse(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return out
}

func getenv(k, def string) string {
	return lookup(k, def, func(v string) (string, error) { return v, nil })
}

func getfloat(k string, def float64) float64 {
	return lookup(k, def, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

func getint(k string, def int) int { return lookup(k, def, strconv.Atoi) }

func getdur(k string, def time.Duration) time.Duration { return lookup(k, def, time.ParseDuration) }

var errNotBool = errors.New("not a boolean")

// getbool also accepts yes/no, y/n and on/off.
func getbool(k string, def bool) bool {
	return lookup(k, def, func(v string) (bool, error) {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y", "on":
			return true, nil
		case "0", "false", "no", "n", "off":
			return false, nil
		}
		return false, errNotBool
	})
}

// splitCSV splits on commas and drops blank entries. It returns nil when
// nothing is left.
func splitCSV(s string) []string {
	var out []string
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' }) {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// normalizeBasePath returns p as "/seg[/seg...]" with no trailing slash, or
// "/" for the root.
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
