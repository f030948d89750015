// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the gateway's access log. Bodies are
// never logged: readings, moods and credentials only travel there. What is
// left is request metadata, which is scrubbed before it is written:
//
//   - identity and credential headers (X-User-Id, Authorization, cookies)
//     are masked outright;
//   - query parameters that carry health data or personal details (the
//     backend accepts some filters in the query string) are masked by name;
//   - anything else has emails, UUIDs (queue item ids are v7 UUIDs) and
//     phone-like digit runs replaced.
//
// Each line also records how the gateway answered: from the network, from
// the offline cache, or by queueing the write.
package middleware

import (
	"net/url"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RedactOptions adds to the built-in scrub lists. Names are
// case-insensitive.
type RedactOptions struct {
	MaskHeaders     []string
	MaskQueryParams []string
}

const redacted = "[REDACTED]"

var (
	// UUIDs go first so the looser phone pattern never eats their digits.
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-8][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)

	defaultMaskedHeaders = []string{"authorization", "cookie", "set-cookie", "x-user-id", "proxy-authorization"}
	defaultMaskedParams  = []string{
		"email", "password", "name", "user_id",
		"systolic", "diastolic", "pulse", "mood", "notes",
	}
)

// scrubber holds the compiled scrub rules for one RedactingLogger.
type scrubber struct {
	headers map[string]struct{}
	params  map[string]struct{}
}

func newScrubber(opts RedactOptions) scrubber {
	set := func(base, extra []string) map[string]struct{} {
		m := make(map[string]struct{}, len(base)+len(extra))
		for _, s := range slices.Concat(base, extra) {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				m[s] = struct{}{}
			}
		}
		return m
	}
	return scrubber{
		headers: set(defaultMaskedHeaders, opts.MaskHeaders),
		params:  set(defaultMaskedParams, opts.MaskQueryParams),
	}
}

func (scrubber) text(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// query masks listed parameters by name and pattern-scrubs the rest. Output
// keys are sorted so identical requests log identically.
func (s scrubber) query(raw string) string {
	if raw == "" {
		return ""
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return s.text(raw)
	}
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		_, masked := s.params[strings.ToLower(k)]
		for _, v := range vals[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(s.text(k))
			b.WriteByte('=')
			if masked {
				b.WriteString(redacted)
			} else {
				b.WriteString(s.text(v))
			}
		}
	}
	return b.String()
}

func (s scrubber) header(h map[string][]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := s.headers[strings.ToLower(k)]; ok {
			out[k] = redacted
			continue
		}
		out[k] = s.text(strings.Join(vv, ", "))
	}
	return out
}

// servedFrom reads the gateway's offline markers off the response.
func servedFrom(h map[string][]string) string {
	get := func(k string) string {
		if v := h[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	switch {
	case get("X-Queued") == "true":
		return "queued"
	case get("X-Offline") == "true":
		return "cache"
	default:
		return "network"
	}
}

// accessLevel picks the log level for a status. 499 (caller went away) is
// routine; 503/504 are what an offline gateway answers when it has nothing
// cached.
func accessLevel(status int) zerolog.Level {
	switch {
	case status == 499:
		return zerolog.InfoLevel
	case status == 503 || status == 504:
		return zerolog.WarnLevel
	case status >= 500:
		return zerolog.ErrorLevel
	case status >= 400:
		return zerolog.WarnLevel
	}
	return zerolog.InfoLevel
}

// RedactingLogger writes one scrubbed line per request.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	s := newScrubber(opts)

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = s.text(c.Request.URL.Path)
		}
		query := s.query(c.Request.URL.RawQuery)
		headers := s.header(c.Request.Header)

		c.Next()

		status := c.Writer.Status()
		rid := c.Writer.Header().Get(requestIDHeader)
		if rid == "" {
			rid = c.GetHeader(requestIDHeader)
		}

		log.WithLevel(accessLevel(status)).
			Str("request_id", rid).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", status).
			Str("served", servedFrom(c.Writer.Header())).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
