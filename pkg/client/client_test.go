package client

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid config",
			config: Config{
				AuthToken: "token-123",
				Timeout:   time.Second,
			},
			expectError: false,
		},
		{
			name: "valid config with proxy",
			config: Config{
				AuthToken: "token-123",
				Timeout:   time.Second,
				ProxyAddr: "localhost:1080",
			},
			expectError: false,
		},
		{
			name: "empty token",
			config: Config{
				Timeout: time.Second,
			},
			expectError: true,
			errorMsg:    "authorization token is required",
		},
		{
			name: "zero timeout",
			config: Config{
				AuthToken: "token-123",
			},
			expectError: true,
			errorMsg:    "timeout must be > 0 (got 0s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got nil")
					return
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}
			if client == nil {
				t.Error("Client is nil")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("token-123")

	if cfg.AuthToken != "token-123" {
		t.Errorf("AuthToken = %q, want token-123", cfg.AuthToken)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", cfg.Timeout)
	}
	if !cfg.InsecureSkipVerify {
		t.Error("InsecureSkipVerify should default to true")
	}
	if cfg.ProxyAddr != "localhost:1080" {
		t.Errorf("ProxyAddr = %q, want localhost:1080", cfg.ProxyAddr)
	}
}

func newTestClient(t *testing.T, timeout time.Duration) *Client {
	t.Helper()

	c, err := New(Config{AuthToken: "secret-token", Timeout: timeout, UserAgent: "reconcheck-test"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGet_HeadersAndBody(t *testing.T) {
	var gotAuth, gotAccept, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":{"reconciliationState":"RECONCILED"}}`))
	}))
	defer server.Close()

	c := newTestClient(t, time.Second)
	resp, err := c.Get(context.Background(), "test", server.URL+"/v1/housekeeping/debug/TXN1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if string(resp.Body) != `{"data":{"reconciliationState":"RECONCILED"}}` {
		t.Errorf("Body = %q", resp.Body)
	}
	if gotAuth != "secret-token" {
		t.Errorf("Authorization = %q, want secret-token", gotAuth)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q, want application/json", gotAccept)
	}
	if gotUA != "reconcheck-test" {
		t.Errorf("User-Agent = %q, want reconcheck-test", gotUA)
	}
}

func TestGet_NonSuccessIsNotAnError(t *testing.T) {
	statuses := []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusServiceUnavailable}

	for _, status := range statuses {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				w.Write([]byte("boom"))
			}))
			defer server.Close()

			c := newTestClient(t, time.Second)
			resp, err := c.Get(context.Background(), "test", server.URL)
			if err != nil {
				t.Fatalf("Get() error = %v, want nil", err)
			}
			if resp.StatusCode != status {
				t.Errorf("StatusCode = %d, want %d", resp.StatusCode, status)
			}
			if string(resp.Body) != "boom" {
				t.Errorf("Body = %q, want boom", resp.Body)
			}
		})
	}
}

func TestGet_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := newTestClient(t, 50*time.Millisecond)

	start := time.Now()
	_, err := c.Get(context.Background(), "test", server.URL)
	if err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
	if time.Since(start) > time.Second {
		t.Errorf("Get() took %v, timeout not applied", time.Since(start))
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error type = %T, want *RequestError", err)
	}
	if !reqErr.Timeout() {
		t.Errorf("Class = %q, want timeout", reqErr.Class)
	}
}

func TestGet_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	c := newTestClient(t, 10*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, "test", server.URL)
	if ClassOf(err) != ErrorClassTimeout {
		t.Errorf("ClassOf() = %q, want timeout (err: %v)", ClassOf(err), err)
	}
}

func TestGet_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := newTestClient(t, time.Second)
	_, err := c.Get(context.Background(), "test", url)

	if ClassOf(err) != ErrorClassNetwork {
		t.Errorf("ClassOf() = %q, want network (err: %v)", ClassOf(err), err)
	}
}

func TestGet_TransportErrorMetric(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := newTestClient(t, time.Second)
	if _, err := c.Get(context.Background(), "refused", url); err == nil {
		t.Fatal("expected an error")
	}

	var m dto.Metric
	if err := requestsTotal.WithLabelValues("refused", "transport_error").Write(&m); err != nil {
		t.Fatal(err)
	}
	if got := m.GetCounter().GetValue(); got != 1 {
		t.Errorf("requests_total{status=transport_error} = %v, want 1", got)
	}
}

func TestGet_InvalidURL(t *testing.T) {
	c := newTestClient(t, time.Second)
	_, err := c.Get(context.Background(), "test", "://bad-url")

	if ClassOf(err) != ErrorClassUnknown {
		t.Errorf("ClassOf() = %q, want unknown", ClassOf(err))
	}
}

func TestCheckProxy(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()

	if err := CheckProxy(context.Background(), addr, time.Second); err != nil {
		t.Errorf("CheckProxy() on open listener error = %v", err)
	}

	listener.Close()

	err = CheckProxy(context.Background(), addr, time.Second)
	if !errors.Is(err, ErrProxyUnreachable) {
		t.Errorf("CheckProxy() on closed listener error = %v, want ErrProxyUnreachable", err)
	}
}

func TestGet_ProxyDown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	c, err := New(Config{AuthToken: "t", Timeout: time.Second, ProxyAddr: addr})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	_, err = c.Get(context.Background(), "test", "http://internal.invalid/v1/housekeeping/debug/P1")
	if ClassOf(err) != ErrorClassNetwork {
		t.Errorf("ClassOf() = %q, want network (err: %v)", ClassOf(err), err)
	}
}
