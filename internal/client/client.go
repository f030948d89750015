// Package client is the typed BP Guardian API. Every method maps one user
// action onto a single Dispatcher call, so reads fall back to the offline
// data cache and writes are queued while the backend is unreachable.
//
// Results carry a Meta describing how they were served. A queued write
// returns the zero value together with Meta.Queued and the queue item.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/bpguard/internal/dispatch"
	"github.com/tbourn/bpguard/internal/offline"
)

// Validation errors returned before any request is made.
var (
	ErrCredentialsRequired = errors.New("email and password are required")
	ErrInvalidReading      = errors.New("systolic and diastolic must be positive values")
	ErrInvalidMood         = errors.New("mood_level must be 1, 2, or 3")
	ErrInvalidRange        = errors.New("range must be one of: day, week, month")
)

// Dispatcher is the subset of *dispatch.Dispatcher the client needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, path string, opts dispatch.Options) (*dispatch.Result, error)
}

// Meta describes how a result was obtained.
type Meta struct {
	Offline  bool
	Queued   bool
	Cached   bool
	StoredAt *time.Time
	Item     *offline.QueueItem
}

// Client is the typed API. Create it with New.
type Client struct {
	d       Dispatcher
	session *offline.SessionStore

	// EmailLocale is the locale used to lower-case emails. language.Und
	// applies the locale-independent mapping the backend uses.
	EmailLocale language.Tag
}

// New returns a Client sending through d and storing the login in session.
func New(d Dispatcher, session *offline.SessionStore) *Client {
	return &Client{d: d, session: session, EmailLocale: language.Und}
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, name, email, password string) (*Account, error) {
	email = c.normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}
	body := map[string]any{"email": email, "password": password, "name": nil}
	if n := strings.TrimSpace(name); n != "" {
		body["name"] = n
	}
	acc, _, err := call[Account](ctx, c.d, "/api/auth/register", "POST", body, false, true)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// Login authenticates and stores the session used by every later request.
func (c *Client) Login(ctx context.Context, email, password string) (*offline.Session, error) {
	email = c.normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}
	acc, _, err := call[Account](ctx, c.d, "/api/auth/login", "POST",
		map[string]string{"email": email, "password": password}, false, true)
	if err != nil {
		return nil, err
	}
	sess := offline.Session{UserID: acc.UserID, Email: acc.Email}
	if acc.Name != nil {
		sess.Name = *acc.Name
	}
	if err := c.session.Set(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &sess, nil
}

// Logout forgets the session. Queued writes stay queued.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Clear(ctx)
}

// AddBPReading records a blood-pressure reading.
func (c *Client) AddBPReading(ctx context.Context, in NewBPReading) (*BPReading, Meta, error) {
	if in.Systolic <= 0 || in.Diastolic <= 0 {
		return nil, Meta{}, ErrInvalidReading
	}
	r, meta, err := call[BPReading](ctx, c.d, "/api/bp", "POST", in, true, false)
	if err != nil || meta.Queued {
		return nil, meta, err
	}
	return &r, meta, nil
}

// ListBPReadings returns the newest readings first. A limit of zero uses the
// backend default.
func (c *Client) ListBPReadings(ctx context.Context, limit int) ([]BPReading, Meta, error) {
	return call[[]BPReading](ctx, c.d, withLimit("/api/bp", limit), "GET", nil, true, false)
}

// AddMoodLog records a mood entry.
func (c *Client) AddMoodLog(ctx context.Context, in NewMoodLog) (*MoodLog, Meta, error) {
	if in.MoodLevel < 1 || in.MoodLevel > 3 {
		return nil, Meta{}, ErrInvalidMood
	}
	m, meta, err := call[MoodLog](ctx, c.d, "/api/mood", "POST", in, true, false)
	if err != nil || meta.Queued {
		return nil, meta, err
	}
	return &m, meta, nil
}

// ListMoodLogs returns the newest mood entries first.
func (c *Client) ListMoodLogs(ctx context.Context, limit int) ([]MoodLog, Meta, error) {
	return call[[]MoodLog](ctx, c.d, withLimit("/api/mood", limit), "GET", nil, true, false)
}

// Dashboard returns the aggregates for rng (day, week or month; empty means
// week).
func (c *Client) Dashboard(ctx context.Context, rng string) (*Dashboard, Meta, error) {
	rng = strings.ToLower(strings.TrimSpace(rng))
	switch rng {
	case "":
		rng = "week"
	case "day", "week", "month":
	default:
		return nil, Meta{}, ErrInvalidRange
	}
	d, meta, err := call[Dashboard](ctx, c.d, "/api/dashboard?range="+rng, "GET", nil, true, false)
	if err != nil {
		return nil, meta, err
	}
	return &d, meta, nil
}

// Badges returns every badge, earned ones first.
func (c *Client) Badges(ctx context.Context) ([]Badge, Meta, error) {
	return call[[]Badge](ctx, c.d, "/api/badges", "GET", nil, true, false)
}

// RecommendationToday returns today's advice.
func (c *Client) RecommendationToday(ctx context.Context) (*Recommendation, Meta, error) {
	r, meta, err := call[Recommendation](ctx, c.d, "/api/recommendation/today", "GET", nil, true, false)
	if err != nil {
		return nil, meta, err
	}
	return &r, meta, nil
}

func (c *Client) normalizeEmail(email string) string {
	return cases.Lower(c.EmailLocale).String(strings.TrimSpace(email))
}

func withLimit(path string, limit int) string {
	if limit <= 0 {
		return path
	}
	return path + "?limit=" + strconv.Itoa(limit)
}

// call dispatches one request and decodes the data into T. Queued writes
// leave T at its zero value.
func call[T any](ctx context.Context, d Dispatcher, path, method string, body any, auth, noQueue bool) (T, Meta, error) {
	var out T
	opts := dispatch.Options{Method: method, AuthRequired: auth, NoQueue: noQueue}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return out, Meta{}, err
		}
		opts.Body = b
	}

	res, err := d.Dispatch(ctx, path, opts)
	if err != nil {
		return out, Meta{}, err
	}
	meta := Meta{Offline: res.Offline, Queued: res.Queued, Cached: res.Cached, StoredAt: res.StoredAt, Item: res.Item}
	if res.Queued {
		return out, meta, nil
	}
	if err := json.Unmarshal(res.Data, &out); err != nil {
		return out, meta, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return out, meta, nil
}
