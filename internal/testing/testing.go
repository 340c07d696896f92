// package testing contains shared testing utilities
package testing

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	mu       sync.Mutex
	requests []*http.Request
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.response, m.err
}

// Requests returns every request seen so far.
func (m *MockRoundTripper) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*http.Request(nil), m.requests...)
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// TokenEndpoint is an httptest OAuth2 token server that counts calls.
type TokenEndpoint struct {
	*httptest.Server
	calls atomic.Int32
}

// NewTokenEndpoint starts a token server backed by h and closes it when t finishes.
func NewTokenEndpoint(t *testing.T, h http.HandlerFunc) *TokenEndpoint {
	t.Helper()
	e := &TokenEndpoint{}
	e.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(e.Close)
	return e
}

// Calls returns how many requests the endpoint has received.
func (e *TokenEndpoint) Calls() int {
	return int(e.calls.Load())
}

// JSONToken responds with a token body. expiresIn < 0 omits the expires_in field.
func JSONToken(token string, expiresIn int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"access_token": token, "token_type": "bearer"}
		if expiresIn >= 0 {
			body["expires_in"] = expiresIn
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}
}

// Getenv returns a getenv func backed by a fixed map.
func Getenv(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

// FWriter is an [io.Writer] whose writes always fail.
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}
