// Package worker is the network interception layer. A Worker sits in front
// of the real network as an http.RoundTripper (for outbound clients in this
// process) and as an http.Handler (for browsers pointed at the gateway), and
// answers GET requests from its own cache of raw responses:
//
//   - navigations are network-first, falling back to the cached page, then
//     the default page, then a synthesized offline page;
//   - every other GET is cache-first, falling back to the network.
//
// Responses live in named cache generations. Installing a generation
// pre-caches the static asset manifest; activating it evicts every other
// generation. Until the Worker is Active, requests pass straight through.
package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tbourn/bpguard/internal/domain"
)

// ErrNoResponse is returned by RoundTrip when a cache-first request missed
// the cache and the network failed too.
var ErrNoResponse = errors.New("worker: no cached response and network unavailable")

// State is the installation lifecycle state.
type State int32

const (
	Parsed State = iota
	Installing
	Installed
	Activating
	Active
	Redundant
)

func (s State) String() string {
	switch s {
	case Parsed:
		return "parsed"
	case Installing:
		return "installing"
	case Installed:
		return "installed"
	case Activating:
		return "activating"
	case Active:
		return "active"
	case Redundant:
		return "redundant"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// CacheStorage holds cache generations of raw responses keyed by request
// identity (method + absolute URL).
type CacheStorage interface {
	Open(ctx context.Context, generation string) error
	Generations(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, generation string) error
	Match(ctx context.Context, generation string, req *http.Request) (*domain.CachedResponse, error)
	Put(ctx context.Context, generation string, req *http.Request, status int, header http.Header, body []byte) error
}

// Options configures a Worker.
type Options struct {
	Generation   string   // current cache generation name
	Upstream     string   // backend origin, e.g. "http://localhost:5000"
	StaticAssets []string // mandatory pre-cache manifest (paths)
	Pages        []string // best-effort pre-cached pages (paths)
	DefaultPage  string   // navigation fallback path, e.g. "/dashboard"

	// Transport reaches the real network. Defaults to http.DefaultTransport.
	Transport http.RoundTripper

	Log zerolog.Logger
}

// Worker is the interception layer. Create it with New.
type Worker struct {
	opts     Options
	upstream *url.URL
	cache    CacheStorage

	state     atomic.Int32
	installMu sync.Mutex
}

// New returns a Worker in the Parsed state.
func New(cache CacheStorage, opts Options) (*Worker, error) {
	u, err := url.Parse(strings.TrimRight(opts.Upstream, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("worker: invalid upstream %q", opts.Upstream)
	}
	if strings.TrimSpace(opts.Generation) == "" {
		return nil, errors.New("worker: generation must not be empty")
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	return &Worker{opts: opts, upstream: u, cache: cache}, nil
}

// State returns the current lifecycle state.
func (w *Worker) State() State { return State(w.state.Load()) }

// Generation returns the current cache generation name.
func (w *Worker) Generation() string { return w.opts.Generation }

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
	w.opts.Log.Info().Str("state", s.String()).Str("generation", w.opts.Generation).Msg("worker state")
}

// Start installs and then activates the Worker.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.Install(ctx); err != nil {
		return err
	}
	return w.Activate(ctx)
}

// Install opens the current generation and pre-caches the static asset
// manifest, then the pages. Any asset failure makes the Worker Redundant;
// page failures are only logged. Install is a no-op unless the Worker is
// Parsed or Redundant.
func (w *Worker) Install(ctx context.Context) error {
	w.installMu.Lock()
	defer w.installMu.Unlock()

	if s := w.State(); s != Parsed && s != Redundant {
		return nil
	}
	w.setState(Installing)

	if err := w.cache.Open(ctx, w.opts.Generation); err != nil {
		w.setState(Redundant)
		return fmt.Errorf("worker install: open %s: %w", w.opts.Generation, err)
	}
	for _, p := range w.opts.StaticAssets {
		if err := w.precache(ctx, p); err != nil {
			w.setState(Redundant)
			return fmt.Errorf("worker install: %s: %w", p, err)
		}
	}
	for _, p := range w.opts.Pages {
		if err := w.precache(ctx, p); err != nil {
			w.opts.Log.Warn().Err(err).Str("page", p).Msg("could not cache page")
		}
	}

	// Skip waiting: installed generations activate right away.
	w.setState(Installed)
	return nil
}

// Activate evicts every generation except the current one and starts
// intercepting. It is a no-op unless the Worker is Installed.
func (w *Worker) Activate(ctx context.Context) error {
	w.installMu.Lock()
	defer w.installMu.Unlock()

	if w.State() != Installed {
		return nil
	}
	w.setState(Activating)

	var errs []error
	names, err := w.cache.Generations(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	for _, name := range names {
		if name == w.opts.Generation {
			continue
		}
		if err := w.cache.Delete(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("evict %s: %w", name, err))
			continue
		}
		w.opts.Log.Info().Str("generation", name).Msg("evicted old cache generation")
	}

	// Claim: from here on every GET is intercepted.
	w.setState(Active)
	if len(errs) > 0 {
		return fmt.Errorf("worker activate: %w", errors.Join(errs...))
	}
	return nil
}

// precache fetches path from upstream and stores it. Only a 200 counts.
func (w *Worker) precache(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.resolve(path), nil)
	if err != nil {
		return err
	}
	res, body, err := w.fetch(req)
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	if !storable(res) {
		return fmt.Errorf("unsupported content encoding %q", res.Header.Get("Content-Encoding"))
	}
	return w.cache.Put(ctx, w.opts.Generation, req, res.StatusCode, res.Header, body)
}

// resolve turns a path (plus query) into an absolute upstream URL.
func (w *Worker) resolve(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return w.upstream.String() + path
}
