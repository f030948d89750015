// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the logged-in BP Guardian user for every request. The
// gateway has no credentials of its own: the identity is whatever session the
// offline store currently holds.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// ctxKeyUserID is the Gin context key read by the rate limiter, the
// idempotency validator and the handlers.
const ctxKeyUserID = "userID"

// anonymousUser scopes requests made while nobody is logged in.
const anonymousUser = "anonymous"

// UserResolver returns the current user id, or "" when nobody is logged in.
type UserResolver func(ctx context.Context) (string, error)

// SessionUser stores the resolved user id in the Gin context. Resolution
// failures are logged and the request continues as anonymous.
func SessionUser(resolve UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, err := resolve(c.Request.Context())
		if err != nil {
			lg := LoggerFrom(c)
			lg.Warn().Err(err).Msg("could not resolve session user")
		}
		if uid != "" {
			c.Set(ctxKeyUserID, uid)
		}
		c.Next()
	}
}

// UserID returns the id stored by SessionUser, or "anonymous".
func UserID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return anonymousUser
}
