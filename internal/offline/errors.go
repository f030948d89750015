package offline

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when a request needs a session and none
	// is stored. No network attempt is made.
	ErrUnauthenticated = errors.New("not logged in")

	// ErrOfflineNoData is returned for a read that failed in transport and has
	// no cached snapshot to fall back to.
	ErrOfflineNoData = errors.New("offline and no cached data available")

	// ErrInvalidMethod is returned when a non-mutating request is enqueued.
	ErrInvalidMethod = errors.New("only POST, PUT, PATCH and DELETE requests can be queued")

	// ErrInvalidPath is returned when a queue item has no path.
	ErrInvalidPath = errors.New("queue item path is empty")

	// ErrItemNotFound is returned by dead-list operations for unknown ids.
	ErrItemNotFound = errors.New("queue item not found")
)

// ServerError is a non-2xx response from the backend.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string { return e.Message }

// TransportError wraps a failure to get any response at all: dial, DNS, TLS,
// a deadline, the interception layer having nothing to serve, or the
// connectivity monitor reporting offline.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("network error: %v", e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
