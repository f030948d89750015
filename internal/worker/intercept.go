package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httputil"
	"strconv"
	"strings"

	"github.com/tbourn/bpguard/internal/domain"
)

// HeaderCache marks responses the Worker served without the network:
// "hit" (exact cached copy), "fallback" (default page) or "offline"
// (synthesized page).
const HeaderCache = "X-Worker-Cache"

const offlinePage = "<h1>Offline</h1><p>This page is not available offline. " +
	"Please check your connection or visit a page you've previously accessed.</p>"

// RoundTrip implements http.RoundTripper. Non-GET requests, and every
// request made before the Worker is Active, go straight to the network.
func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || w.State() != Active {
		res, err := w.opts.Transport.RoundTrip(req)
		observe(strategyPassthrough, sourceOf(err))
		return res, err
	}
	if IsNavigation(req) {
		return w.networkFirst(req)
	}
	return w.cacheFirst(req)
}

// ServeHTTP proxies r to the upstream through RoundTrip. Requests the Worker
// cannot answer at all get 504; other proxy failures get 502.
func (w *Worker) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(w.upstream)
			pr.SetXForwarded()
		},
		Transport: w,
		ErrorHandler: func(rw http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, ErrNoResponse) {
				http.Error(rw, "offline: this resource is not available offline", http.StatusGatewayTimeout)
				return
			}
			if r.Context().Err() != nil {
				return
			}
			w.opts.Log.Warn().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("upstream unreachable")
			http.Error(rw, "bad gateway", http.StatusBadGateway)
		},
	}
	rp.ServeHTTP(rw, r)
}

// IsNavigation reports whether req is a full-page load: Sec-Fetch-Mode is
// "navigate", or the first media type in Accept is text/html.
func IsNavigation(req *http.Request) bool {
	if strings.EqualFold(req.Header.Get("Sec-Fetch-Mode"), "navigate") {
		return true
	}
	accept := req.Header.Get("Accept")
	if accept == "" {
		return false
	}
	first := strings.TrimSpace(strings.Split(accept, ",")[0])
	mt, _, err := mime.ParseMediaType(first)
	return err == nil && mt == "text/html"
}

func (w *Worker) networkFirst(req *http.Request) (*http.Response, error) {
	res, body, err := w.fetch(req)
	if err == nil {
		w.store(req, res, body)
		observe(strategyNavigate, sourceNetwork)
		return rebuild(req, res.StatusCode, res.Header, body), nil
	}
	if req.Context().Err() != nil {
		return nil, err
	}
	w.opts.Log.Debug().Err(err).Str("url", req.URL.String()).Msg("navigation failed; serving from cache")

	if rec := w.match(req.Context(), req); rec != nil {
		observe(strategyNavigate, sourceCache)
		return fromRecord(req, rec, "hit"), nil
	}
	if w.opts.DefaultPage != "" {
		def, derr := http.NewRequestWithContext(req.Context(), http.MethodGet, w.resolve(w.opts.DefaultPage), nil)
		if derr == nil {
			if rec := w.match(req.Context(), def); rec != nil {
				observe(strategyNavigate, sourceFallback)
				return fromRecord(req, rec, "fallback"), nil
			}
		}
	}

	observe(strategyNavigate, sourceOffline)
	h := http.Header{}
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set(HeaderCache, "offline")
	return rebuild(req, http.StatusOK, h, []byte(offlinePage)), nil
}

func (w *Worker) cacheFirst(req *http.Request) (*http.Response, error) {
	if rec := w.match(req.Context(), req); rec != nil {
		observe(strategyAsset, sourceCache)
		return fromRecord(req, rec, "hit"), nil
	}

	res, body, err := w.fetch(req)
	if err != nil {
		if req.Context().Err() != nil {
			return nil, err
		}
		observe(strategyAsset, sourceNone)
		w.opts.Log.Debug().Err(err).Str("url", req.URL.String()).Msg("offline and not in cache")
		return nil, fmt.Errorf("%w: %w", ErrNoResponse, err)
	}
	w.store(req, res, body)
	observe(strategyAsset, sourceNetwork)
	return rebuild(req, res.StatusCode, res.Header, body), nil
}

// fetch performs req on the real network and reads the whole body. The
// caller's Accept-Encoding is dropped so the transport negotiates compression
// and decodes it; one stored copy serves browsers and API callers alike.
func (w *Worker) fetch(req *http.Request) (*http.Response, []byte, error) {
	out := req
	if req.Header.Get("Accept-Encoding") != "" {
		out = req.Clone(req.Context())
		out.Header.Del("Accept-Encoding")
	}
	res, err := w.opts.Transport.RoundTrip(out)
	if err != nil {
		return nil, nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, nil, err
	}
	return res, body, nil
}

// storable reports whether a fetched response may be cached. A body the
// transport left encoded is passed through but never stored.
func storable(res *http.Response) bool {
	ce := strings.TrimSpace(res.Header.Get("Content-Encoding"))
	return res.StatusCode == http.StatusOK && (ce == "" || strings.EqualFold(ce, "identity"))
}

func (w *Worker) store(req *http.Request, res *http.Response, body []byte) {
	if !storable(res) {
		if res.StatusCode == http.StatusOK {
			w.opts.Log.Debug().Str("url", req.URL.String()).
				Str("content_encoding", res.Header.Get("Content-Encoding")).
				Msg("encoded response not stored")
		}
		return
	}
	// Store even if the caller goes away; the copy is still useful later.
	ctx := context.WithoutCancel(req.Context())
	if err := w.cache.Put(ctx, w.opts.Generation, req, res.StatusCode, res.Header, body); err != nil {
		w.opts.Log.Error().Err(err).Str("url", req.URL.String()).Msg("failed to store response copy")
	}
}

func (w *Worker) match(ctx context.Context, req *http.Request) *domain.CachedResponse {
	rec, err := w.cache.Match(ctx, w.opts.Generation, req)
	if err != nil {
		w.opts.Log.Error().Err(err).Str("url", req.URL.String()).Msg("cache lookup failed")
		return nil
	}
	return rec
}

func fromRecord(req *http.Request, rec *domain.CachedResponse, how string) *http.Response {
	h := http.Header{}
	if rec.Header != "" {
		_ = json.Unmarshal([]byte(rec.Header), &h)
	}
	if h == nil {
		h = http.Header{}
	}
	h.Set(HeaderCache, how)
	return rebuild(req, rec.Status, h, rec.Body)
}

func rebuild(req *http.Request, status int, header http.Header, body []byte) *http.Response {
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
