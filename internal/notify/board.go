// Package notify keeps the short user-visible messages the client raises
// while working offline ("You are offline", "Synced 3 item(s)") so a UI can
// poll and display them.
package notify

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level is the visual weight of a notice.
type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Danger  Level = "danger"
)

// Notice is one user-visible message.
type Notice struct {
	Seq     uint64    `json:"seq"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier is implemented by anything that can surface a notice.
type Notifier interface {
	Notify(level Level, msg string)
}

// Board is a bounded, concurrency-safe ring of the most recent notices.
// Every notice is also written to the log.
type Board struct {
	mu    sync.Mutex
	buf   []Notice
	next  int
	full  bool
	seq   uint64
	log   zerolog.Logger
	clock func() time.Time
}

// NewBoard returns a Board that retains up to capacity notices.
func NewBoard(capacity int, log zerolog.Logger) *Board {
	if capacity < 1 {
		capacity = 1
	}
	return &Board{
		buf:   make([]Notice, capacity),
		log:   log,
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// Notify records a notice, evicting the oldest when the board is full.
func (b *Board) Notify(level Level, msg string) {
	b.mu.Lock()
	b.seq++
	n := Notice{Seq: b.seq, Level: level, Message: msg, At: b.clock()}
	b.buf[b.next] = n
	b.next = (b.next + 1) % len(b.buf)
	if b.next == 0 {
		b.full = true
	}
	b.mu.Unlock()

	ev := b.log.Info()
	switch level {
	case Warning:
		ev = b.log.Warn()
	case Danger:
		ev = b.log.Error()
	}
	ev.Str("level", string(level)).Msg(msg)
}

// Recent returns up to limit notices, newest first. limit <= 0 returns all.
func (b *Board) Recent(limit int) []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := b.next
	if b.full {
		size = len(b.buf)
	}
	if limit <= 0 || limit > size {
		limit = size
	}
	out := make([]Notice, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (b.next - 1 - i + len(b.buf)) % len(b.buf)
		out = append(out, b.buf[idx])
	}
	return out
}
