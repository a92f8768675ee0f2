// Package client provides the HTTP client used to query housekeeping
// endpoints: static authorization header, optional SOCKS5 proxy, per-request
// timeout and error classification.
package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/net/proxy"

	"github.com/Sternrassler/reconcheck/pkg/logging"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcheck_requests_total",
		Help: "Total housekeeping requests by endpoint kind and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reconcheck_request_duration_seconds",
		Help:    "Housekeeping request duration in seconds by endpoint kind",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 15},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcheck_errors_total",
		Help: "Total request errors by class",
	}, []string{"class"})
)

// Client issues authorized GET requests against housekeeping endpoints.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// AuthToken is sent verbatim as the Authorization header (REQUIRED)
	AuthToken string

	// Timeout bounds a single request, including reading the body
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification
	InsecureSkipVerify bool

	// ProxyAddr is a SOCKS5 proxy "host:port"; empty means direct connections
	ProxyAddr string

	// UserAgent header
	UserAgent string

	// MaxIdleConnsPerHost sizes the keep-alive pool; match it to the worker count
	MaxIdleConnsPerHost int
}

// DefaultConfig returns the default configuration for the internal services.
func DefaultConfig(authToken string) Config {
	return Config{
		AuthToken:           authToken,
		Timeout:             15 * time.Second,
		InsecureSkipVerify:  true,
		ProxyAddr:           "localhost:1080",
		UserAgent:           "reconcheck/0.1.0",
		MaxIdleConnsPerHost: 80,
	}
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.AuthToken == "" {
		return nil, ErrAuthTokenRequired
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %v)", cfg.Timeout)
	}

	logger := logging.NewLogger(logging.ComponentClient)

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify} //nolint:gosec // internal endpoints
	if cfg.MaxIdleConnsPerHost > 0 {
		transport.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	}

	if cfg.ProxyAddr != "" {
		dialer, err := proxy.SOCKS5("tcp", cfg.ProxyAddr, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("create socks5 dialer: %w", err)
		}
		contextDialer, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("socks5 dialer for %s does not support contexts", cfg.ProxyAddr)
		}
		transport.Proxy = nil
		transport.DialContext = contextDialer.DialContext

		logger.Info().Str("proxy", cfg.ProxyAddr).Msg("SOCKS5 proxy configured")
	}

	if cfg.InsecureSkipVerify {
		logger.Debug().Msg("TLS certificate verification disabled")
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		config: cfg,
		logger: logger,
	}, nil
}

// Get performs a GET request and reads the whole body. label names the
// endpoint kind for metrics and logs. Any transport failure, including a
// failure while reading the body, is returned as *RequestError.
func (c *Client) Get(ctx context.Context, label, rawURL string) (*Response, error) {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(label).Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassUnknown)).Inc()
		return nil, &RequestError{Class: ErrorClassUnknown, URL: rawURL, Err: err}
	}

	req.Header.Set("Authorization", c.config.AuthToken)
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(label, rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(label, rawURL, err)
	}

	requestsTotal.WithLabelValues(label, strconv.Itoa(resp.StatusCode)).Inc()

	if class := classifyStatus(resp.StatusCode); class != "" {
		errorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Debug().
			Str("endpoint", label).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Non-success response")
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (c *Client) transportError(label, rawURL string, err error) error {
	class := classifyTransportError(err)
	errorsTotal.WithLabelValues(string(class)).Inc()
	requestsTotal.WithLabelValues(label, "transport_error").Inc()

	c.logger.Debug().
		Err(err).
		Str("endpoint", label).
		Str("error_class", string(class)).
		Msg("Request failed")

	return &RequestError{Class: class, URL: rawURL, Err: err}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// CheckProxy verifies that a TCP connection to the proxy can be opened.
func CheckProxy(ctx context.Context, addr string, timeout time.Duration) error {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrProxyUnreachable, addr, err)
	}
	return conn.Close()
}
