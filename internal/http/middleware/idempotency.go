// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file validates Idempotency-Key on gateway writes. A write's key is
// forwarded upstream and becomes the offline queue item id, so it has to be a
// short token; a UUID is what the UI sends.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/bpguard/internal/offline"
)

// HeaderIdempotencyKey is read from UI requests and sent to the backend.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"

	defaultMaxKeyLen = 200
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the key accepted by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemKey)
	return s, s != ""
}

// IsReplay reports whether a live outcome is already recorded for this
// user, path and key.
func IsReplay(c *gin.Context) bool {
	return c.GetBool(ctxKeyIdemReplay)
}

// IdempotencyOptions bounds accepted keys. Zero values pick a 200 byte limit
// and the token alphabet [A-Za-z0-9._~-:].
type IdempotencyOptions struct {
	MaxLen  int
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether an unexpired outcome exists for
// (userID, path, key) at now. A miss is (false, nil).
type IdempotencyLookup func(ctx context.Context, userID, path, key string, now time.Time) (bool, error)

// IdempotencyValidator checks Idempotency-Key on POST, PUT, PATCH and DELETE.
// Reads ignore the header: they are never queued and never recorded.
//
// A malformed key is rejected with 400 before anything is dispatched or
// queued. A key with a recorded outcome marks the request as a replay, which
// also exempts it from rate limiting since it will not reach the backend.
// Lookup errors are logged and the request continues as a first attempt.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = defaultMaxKeyLen
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || !offline.IsMutating(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			rid, _ := c.Get(requestIDKey)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": asString(rid),
				"code":       "bad_idempotency_key",
				"message":    "Idempotency-Key must be a token of at most " + strconv.Itoa(maxLen) + " characters",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			found, err := lookup(c.Request.Context(), UserID(c), c.Request.URL.Path, key, time.Now().UTC())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			case found:
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}
