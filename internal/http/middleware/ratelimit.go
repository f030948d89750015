// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the gateway's token-bucket rate limiter. Every
// identity (logged-in user, else client IP) owns two buckets: one for reads
// and one for writes. Writes get their own, usually tighter, budget because
// while the backend is unreachable each accepted write becomes a queued item
// that the sync engine must replay later; a runaway UI loop would otherwise
// fill the offline queue.
//
// The limiter is process-local. Several gateway processes sharing one offline
// store each enforce their own budget; it protects the backend and the queue
// and is not an authorization mechanism. Idempotent replays (flagged by
// IdempotencyValidator) never consume tokens.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/bpguard/internal/offline"
)

// KeyFunc selects the identity whose buckets a request draws from.
type KeyFunc func(*gin.Context) string

// KeyByUserOrIP keys by the session user set by SessionUser ("user:7"),
// falling back to the client address ("ip:127.0.0.1").
func KeyByUserOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get(ctxKeyUserID); ok {
			if s, ok := v.(string); ok && s != "" {
				return "user:" + s
			}
		}
		return "ip:" + c.ClientIP()
	}
}

// Budget is one token bucket's refill rate and size.
type Budget struct {
	RPS   float64 // tokens per second; 0 admits only the initial burst
	Burst int     // bucket size; <= 0 means 1
}

func (b Budget) normalized() Budget {
	if b.Burst <= 0 {
		b.Burst = 1
	}
	if b.RPS < 0 {
		b.RPS = 0
	}
	return b
}

// RateLimitOptions configures NewRateLimiter.
type RateLimitOptions struct {
	Read  Budget
	Write Budget // zero value reuses Read
	Key   KeyFunc

	// IdleTTL evicts buckets unused for this long (default 10m).
	IdleTTL time.Duration
}

// request classes
const (
	classRead  = "read"
	classWrite = "write"
)

// sweepEvery is the number of lookups between idle-bucket sweeps.
const sweepEvery = 4096

type bucketKey struct {
	identity string
	class    string
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces per-identity read and write budgets. Safe for
// concurrent use.
type RateLimiter struct {
	read, write Budget
	key         KeyFunc
	ttl         time.Duration

	mu      sync.Mutex
	buckets map[bucketKey]*bucket
	lookups int
	now     func() time.Time
}

// NewRateLimiter builds a limiter from opts.
func NewRateLimiter(opts RateLimitOptions) *RateLimiter {
	read := opts.Read.normalized()
	write := read
	if opts.Write != (Budget{}) {
		write = opts.Write.normalized()
	}
	key := opts.Key
	if key == nil {
		key = KeyByUserOrIP()
	}
	ttl := opts.IdleTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RateLimiter{
		read:    read,
		write:   write,
		key:     key,
		ttl:     ttl,
		buckets: make(map[bucketKey]*bucket),
		now:     time.Now,
	}
}

// classOf puts mutating verbs in the write class.
func classOf(method string) string {
	if offline.IsMutating(method) {
		return classWrite
	}
	return classRead
}

// limiter returns the bucket for k, creating it on first use. Idle buckets
// are swept before the lookup so a stale entry is never refreshed.
func (rl *RateLimiter) limiter(k bucketKey) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= sweepEvery {
		for key, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.ttl {
				delete(rl.buckets, key)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[k]; ok {
		b.lastSeen = now
		return b.lim
	}
	budget := rl.read
	if k.class == classWrite {
		budget = rl.write
	}
	lim := rate.NewLimiter(rate.Limit(budget.RPS), budget.Burst)
	rl.buckets[k] = &bucket{lim: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator marked this request as a
// replay of a completed request.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler rejects requests over budget with 429, a Retry-After header (whole
// seconds until a token is available) and the standard error envelope.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		class := classOf(c.Request.Method)
		lim := rl.limiter(bucketKey{identity: rl.key(c), class: class})

		now := rl.now()
		res := lim.ReserveN(now, 1)
		if res.OK() && res.DelayFrom(now) == 0 {
			c.Next()
			return
		}

		retry := 1
		if res.OK() {
			retry = int(math.Ceil(min(res.DelayFrom(now), time.Hour).Seconds()))
			res.CancelAt(now)
		}
		rateLimited.WithLabelValues(class).Inc()

		c.Header("Retry-After", strconv.Itoa(max(retry, 1)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "rate_limited",
			"message":    "too many " + class + " requests",
		})
	}
}
