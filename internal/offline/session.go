package offline

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rs/zerolog"
)

// Session is the logged-in user as returned by the backend's login and
// register endpoints.
type Session struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Header returns the X-User-Id value for this session.
func (s Session) Header() string { return strconv.FormatInt(s.UserID, 10) }

// SessionStore persists the Session under the "bp_auth" key.
type SessionStore struct {
	kv  KV
	log zerolog.Logger
}

// NewSessionStore returns a SessionStore persisted in kv.
func NewSessionStore(kv KV, log zerolog.Logger) *SessionStore {
	return &SessionStore{kv: kv, log: log}
}

// Get returns the current session, or nil when nobody is logged in. A stored
// session without a user id counts as logged out.
func (s *SessionStore) Get(ctx context.Context) (*Session, error) {
	raw, ok, err := s.kv.Get(ctx, KeySession)
	if err != nil || !ok {
		return nil, err
	}
	var sess Session
	if !decode(s.log, KeySession, raw, &sess) || sess.UserID == 0 {
		return nil, nil
	}
	return &sess, nil
}

// Set stores sess, replacing any previous session.
func (s *SessionStore) Set(ctx context.Context, sess Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, KeySession, b)
}

// Clear logs out. Queued writes are kept; they replay under whichever user is
// logged in when the sync runs.
func (s *SessionStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, KeySession)
}
