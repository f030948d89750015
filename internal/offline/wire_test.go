package offline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDo_HeadersAndBody(t *testing.T) {
	var got *http.Request
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	res, err := Do(context.Background(), srv.Client(), srv.URL, Request{
		Method: "post", Path: "/api/bp?x=1", Body: []byte(`{"systolic":120}`),
		UserID: "7", IdempotencyKey: "k1",
	}, time.Second)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if res.Status != 201 || !res.OK() || res.Err() != nil || string(res.Data()) != `{"id":1}` {
		t.Fatalf("unexpected response: %+v", res)
	}
	if got.Method != http.MethodPost || got.URL.RequestURI() != "/api/bp?x=1" {
		t.Fatalf("unexpected request line: %s %s", got.Method, got.URL.RequestURI())
	}
	if got.Header.Get("Content-Type") != "application/json" ||
		got.Header.Get(HeaderUserID) != "7" ||
		got.Header.Get(HeaderIdempotencyKey) != "k1" {
		t.Fatalf("unexpected headers: %v", got.Header)
	}
	if body != `{"systolic":120}` {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestDo_GETHasNoContentTypeOrAuthWhenAnonymous(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	res, err := Do(context.Background(), nil, srv.URL, Request{Path: "/ping"}, time.Second)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got.Get("Content-Type") != "" || got.Get(HeaderUserID) != "" {
		t.Fatalf("unexpected headers on anonymous GET: %v", got)
	}
	if string(res.Data()) != "null" {
		t.Fatalf("empty body should decode to null, got %s", res.Data())
	}
}

func TestDo_TransportErrors(t *testing.T) {
	// Nothing listens here.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := Do(context.Background(), nil, url, Request{Path: "/x"}, time.Second)
	if !IsTransport(err) {
		t.Fatalf("expected TransportError for refused connection, got %T %v", err, err)
	}

	// Deadline expiry is a transport failure.
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()
	_, err = Do(context.Background(), slow.Client(), slow.URL, Request{Path: "/x"}, 50*time.Millisecond)
	if !IsTransport(err) {
		t.Fatalf("expected TransportError for timeout, got %T %v", err, err)
	}

	// Caller cancellation is passed through untouched.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Do(ctx, slow.Client(), slow.URL, Request{Path: "/x"}, time.Second)
	if !errors.Is(err, context.Canceled) || IsTransport(err) {
		t.Fatalf("expected context.Canceled, got %T %v", err, err)
	}
}

func TestErrorMessage(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"error":"Invalid credentials"}`, "Invalid credentials"},
		{`{"message":"Missing fields"}`, "Missing fields"},
		{`{"error":"","message":"fallback"}`, "fallback"},
		{`{"error":42}`, "HTTP 400"},
		{`not json`, "HTTP 400"},
		{``, "HTTP 400"},
	}
	for _, tc := range cases {
		if got := ErrorMessage(400, []byte(tc.body)); got != tc.want {
			t.Fatalf("ErrorMessage(%q) = %q, want %q", tc.body, got, tc.want)
		}
	}

	res := &Response{Status: 401, Body: []byte(`{"error":"Unauthorized"}`)}
	var se *ServerError
	if !errors.As(res.Err(), &se) || se.Status != 401 || se.Message != "Unauthorized" {
		t.Fatalf("unexpected server error: %v", res.Err())
	}
}

func TestDecodeBody_PlainText(t *testing.T) {
	if got := string(DecodeBody([]byte("pong"))); got != `"pong"` {
		t.Fatalf("expected JSON string, got %s", got)
	}
}
