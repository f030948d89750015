package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Header names understood by the BP Guardian backend.
const (
	HeaderUserID         = "X-User-Id"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// Request is one call to the backend API.
type Request struct {
	Method         string
	Path           string // path plus query, relative to the base URL
	Body           json.RawMessage
	UserID         string // sent as X-User-Id when non-empty
	IdempotencyKey string
}

// Response is a backend reply that was fully received.
type Response struct {
	Status int
	Body   []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Err returns a *ServerError for non-2xx responses and nil otherwise.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &ServerError{Status: r.Status, Message: ErrorMessage(r.Status, r.Body)}
}

// Data returns the body as JSON. An empty body is null; a body that is not
// JSON is returned as a JSON string so plain-text replies survive.
func (r *Response) Data() json.RawMessage {
	return DecodeBody(r.Body)
}

// Do sends r to baseURL under timeout. Any failure to obtain a complete
// response is a *TransportError, except cancellation of ctx itself which is
// returned unchanged.
func Do(ctx context.Context, client *http.Client, baseURL string, r Request, timeout time.Duration) (*Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	actx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if len(r.Body) > 0 && method != http.MethodGet {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(actx, method, baseURL+r.Path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.UserID != "" {
		req.Header.Set(HeaderUserID, r.UserID)
	}
	if r.IdempotencyKey != "" {
		req.Header.Set(HeaderIdempotencyKey, r.IdempotencyKey)
	}

	res, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransportError{Err: err}
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransportError{Err: err}
	}
	return &Response{Status: res.StatusCode, Body: b}, nil
}

// ErrorMessage extracts a human-readable message from an error body: the
// "error" field, else the "message" field, else "HTTP <status>".
func ErrorMessage(status int, body []byte) string {
	var v struct {
		Error   any `json:"error"`
		Message any `json:"message"`
	}
	if json.Unmarshal(body, &v) == nil {
		if s, ok := v.Error.(string); ok && s != "" {
			return s
		}
		if s, ok := v.Message.(string); ok && s != "" {
			return s
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}

// DecodeBody normalizes a response body to JSON.
func DecodeBody(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	s, _ := json.Marshal(string(body))
	return json.RawMessage(s)
}
