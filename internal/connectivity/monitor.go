// Package connectivity tracks whether the BP Guardian backend is reachable
// and tells subscribers when that changes.
package connectivity

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Monitor holds the online flag. It can be driven by its own probe loop
// (Run) or set explicitly (Set); both report transitions to subscribers.
type Monitor struct {
	ProbeURL string        // absolute URL probed with GET
	Interval time.Duration // probe period
	Timeout  time.Duration // per-probe deadline
	Client   *http.Client  // should bypass the interception layer
	Log      zerolog.Logger

	online atomic.Bool

	mu   sync.Mutex
	subs []chan bool
}

// NewMonitor returns a Monitor that starts in the given state.
func NewMonitor(probeURL string, interval, timeout time.Duration, initial bool, log zerolog.Logger) *Monitor {
	m := &Monitor{
		ProbeURL: probeURL,
		Interval: interval,
		Timeout:  timeout,
		Client:   &http.Client{Transport: http.DefaultTransport},
		Log:      log,
	}
	m.online.Store(initial)
	return m
}

// Online reports the current state.
func (m *Monitor) Online() bool { return m.online.Load() }

// Set records the state and notifies subscribers if it changed. It reports
// whether a transition happened. The swap and the fan-out share m.mu, so
// subscribers see transitions in the order they were made and the last value
// delivered always matches Online.
func (m *Monitor) Set(online bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.online.Swap(online) == online {
		return false
	}
	m.Log.Info().Bool("online", online).Msg("connectivity changed")
	setOnlineGauge(online)

	for _, ch := range m.subs {
		// Keep only the latest state for slow subscribers.
		select {
		case ch <- online:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- online:
			default:
			}
		}
	}
	return true
}

// Subscribe returns a channel that receives every transition and a function
// that unsubscribes and closes it.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	ch := make(chan bool, 1)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, c := range m.subs {
				if c == ch {
					m.subs = append(m.subs[:i], m.subs[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}
}

// Probe checks the backend once and updates the state. Any HTTP response,
// whatever its status, means the backend is reachable.
func (m *Monitor) Probe(ctx context.Context) bool {
	pctx := ctx
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	online := false
	req, err := http.NewRequestWithContext(pctx, http.MethodGet, m.ProbeURL, nil)
	if err == nil {
		client := m.Client
		if client == nil {
			client = http.DefaultClient
		}
		var res *http.Response
		if res, err = client.Do(req); err == nil {
			_ = res.Body.Close()
			online = true
		}
	}
	if ctx.Err() != nil {
		// Shutting down; do not report a spurious offline transition.
		return m.Online()
	}
	if err != nil {
		m.Log.Debug().Err(err).Str("url", m.ProbeURL).Msg("connectivity probe failed")
	}
	m.Set(online)
	return online
}

// Run probes immediately and then every Interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	setOnlineGauge(m.Online())
	m.Probe(ctx)

	interval := m.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Probe(ctx)
		}
	}
}
