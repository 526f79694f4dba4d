// Package testutil provides testing utilities for the offline gateway.
package testutil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// ErrOffline is returned by the origin transport while offline mode is
// enabled, simulating an unreachable network.
var ErrOffline = errors.New("network unreachable")

// MockResponse defines the behavior for a mock origin endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockOrigin is a configurable mock origin server for testing. It can be
// switched "offline", after which its transport fails every request
// without touching the wire.
type MockOrigin struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)
	offline  bool

	// Tracking
	RequestCount int
	LastRequest  *http.Request
	LastMethod   string
	LastHeader   http.Header
}

// NewMockOrigin creates a new mock origin server.
func NewMockOrigin() *MockOrigin {
	mock := &MockOrigin{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequest = r.Clone(r.Context())
		mock.LastMethod = r.Method
		mock.LastHeader = r.Header.Clone()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockOrigin) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockOrigin) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockOrigin) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequest = nil
	m.LastMethod = ""
	m.LastHeader = nil
}

// SetOffline toggles the simulated network outage.
func (m *MockOrigin) SetOffline(offline bool) {
	m.mu.Lock()
	m.offline = offline
	m.mu.Unlock()
}

// SetHandler sets a custom handler for a specific path.
func (m *MockOrigin) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockOrigin) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests that reached the server.
func (m *MockOrigin) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// Transport returns a RoundTripper that targets the mock server and
// fails with ErrOffline while offline mode is enabled.
func (m *MockOrigin) Transport() http.RoundTripper {
	return &originTransport{mock: m}
}

type originTransport struct {
	mock *MockOrigin
}

func (t *originTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mock.mu.RLock()
	offline := t.mock.offline
	t.mock.mu.RUnlock()
	if offline {
		return nil, ErrOffline
	}

	// Redirect to the mock server, preserving path and query. Tests
	// build requests with httptest.NewRequest, so RequestURI must be
	// cleared before handing off to a client transport.
	clone := req.Clone(req.Context())
	clone.RequestURI = ""
	clone.URL.Scheme = "http"
	clone.URL.Host = t.mock.server.URL[len("http://"):]
	return http.DefaultTransport.RoundTrip(clone)
}

func (m *MockOrigin) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok: " + r.URL.Path))
}
