// Package testutil provides testing utilities for reconcheck.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockService is a configurable mock housekeeping server for testing.
// It tracks how many requests are in flight at once.
type MockService struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc
	fallback http.HandlerFunc

	requestCount      int
	inFlight          int
	maxInFlight       int
	lastRequestHeader http.Header
	paths             map[string]int
}

// NewMockService creates a new mock server.
func NewMockService() *MockService {
	mock := &MockService{
		handlers: make(map[string]http.HandlerFunc),
		paths:    make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.inFlight++
		if mock.inFlight > mock.maxInFlight {
			mock.maxInFlight = mock.inFlight
		}
		mock.lastRequestHeader = r.Header.Clone()
		mock.paths[r.URL.Path]++
		handler, exists := mock.handlers[r.URL.Path]
		fallback := mock.fallback
		mock.mu.Unlock()

		defer func() {
			mock.mu.Lock()
			mock.inFlight--
			mock.mu.Unlock()
		}()

		switch {
		case exists:
			handler(w, r)
		case fallback != nil:
			fallback(w, r)
		default:
			http.NotFound(w, r)
		}
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockService) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockService) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.maxInFlight = 0
	m.lastRequestHeader = nil
	m.paths = make(map[string]int)
}

// SetHandler sets a custom handler for a specific path.
func (m *MockService) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetFallback sets the handler used for paths without a specific handler.
func (m *MockService) SetFallback(handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = handler
}

// SetResponse configures a simple response for a path.
func (m *MockService) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, Respond(resp))
}

// Respond builds a handler that writes resp. A delay is cut short when the
// client goes away, so hanging handlers never outlive the test.
func Respond(resp MockResponse) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	}
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockService) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// GetMaxInFlight returns the highest number of concurrent requests observed.
func (m *MockService) GetMaxInFlight() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxInFlight
}

// GetPathCount returns how many requests hit path.
func (m *MockService) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paths[path]
}

// GetLastRequestHeader returns the headers of the most recent request.
func (m *MockService) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

// NewJSONResponse creates a 200 OK JSON response.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewReconciliationResponse creates a 200 OK response carrying data.reconciliationState.
func NewReconciliationResponse(state string) MockResponse {
	return NewJSONResponse(`{"success": true, "data": {"reconciliationState": "` + state + `"}}`)
}

// NewExecutionResponse creates a 200 OK response carrying data.executionState.
func NewExecutionResponse(state string) MockResponse {
	return NewJSONResponse(`{"success": true, "data": {"executionState": "` + state + `"}}`)
}

// NewMalformedResponse creates a 200 OK response whose body is not JSON.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"data": {"reconciliationState": `,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "text/plain; charset=utf-8",
		},
	}
}

// NewHangingResponse creates a response that only arrives after delay.
func NewHangingResponse(delay time.Duration) MockResponse {
	resp := NewReconciliationResponse("LATE")
	resp.Delay = delay
	return resp
}
