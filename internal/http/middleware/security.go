// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders. The gateway serves two kinds of
// responses: its own JSON under the offline API group, and pages and assets
// the interception layer proxies from the backend (or replays from cache).
// Proxied responses already carry the backend's headers, so hardening headers
// are filled in when the response is written and only where the backend left
// them out. NoStore is the exception: it always wins, because queue, session
// and status snapshots must never be reused by the browser's HTTP cache.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS sends Strict-Transport-Security on HTTPS requests only.
	EnableHSTS bool
	HSTSMaxAge time.Duration // default 180 days

	// NoStore forces Cache-Control: no-store (plus Pragma and Expires).
	NoStore bool

	// EnablePolicy adds Permissions-Policy and
	// X-Permitted-Cross-Domain-Policies.
	EnablePolicy bool
}

type header struct{ name, value string }

// SecurityHeaders returns the hardening middleware described above.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	defaults := []header{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
	}
	if opt.EnablePolicy {
		defaults = append(defaults,
			// The health UI needs none of these.
			header{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()"},
			header{"X-Permitted-Cross-Domain-Policies", "none"},
		)
	}

	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = 180 * 24 * time.Hour
	}
	hsts := header{"Strict-Transport-Security",
		"max-age=" + strconv.FormatInt(int64(maxAge/time.Second), 10) + "; includeSubDomains; preload"}

	return func(c *gin.Context) {
		withHSTS := opt.EnableHSTS && isHTTPS(c.Request)
		c.Writer = &hardenedWriter{
			ResponseWriter: c.Writer,
			apply: func(h http.Header) {
				for _, d := range defaults {
					setIfAbsent(h, d)
				}
				if withHSTS {
					setIfAbsent(h, hsts)
				}
				if opt.NoStore {
					h.Set("Cache-Control", "no-store")
					h.Set("Pragma", "no-cache")
					h.Set("Expires", "0")
				}
			},
		}
		c.Next()
	}
}

func setIfAbsent(h http.Header, d header) {
	if h.Get(d.name) == "" {
		h.Set(d.name, d.value)
	}
}

// hardenedWriter runs apply once, right before the status line is committed
// or the first body byte is written.
type hardenedWriter struct {
	gin.ResponseWriter
	apply   func(http.Header)
	applied bool
}

func (w *hardenedWriter) harden() {
	if !w.applied {
		w.applied = true
		w.apply(w.ResponseWriter.Header())
	}
}

func (w *hardenedWriter) WriteHeader(code int) {
	w.harden()
	w.ResponseWriter.WriteHeader(code)
}

func (w *hardenedWriter) WriteHeaderNow() {
	w.harden()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *hardenedWriter) Write(b []byte) (int, error) {
	w.harden()
	return w.ResponseWriter.Write(b)
}

func (w *hardenedWriter) WriteString(s string) (int, error) {
	w.harden()
	return w.ResponseWriter.WriteString(s)
}

// isHTTPS reports whether the request arrived over TLS, directly or behind a
// proxy that set X-Forwarded-Proto.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
