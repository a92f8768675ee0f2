package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassTimeout represents deadline and timeout failures.
	ErrorClassTimeout ErrorClass = "timeout"

	// ErrorClassNetwork represents dial, DNS, refused and reset failures.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassClient represents 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassUnknown represents anything else.
	ErrorClassUnknown ErrorClass = "unknown"
)

// Common errors returned by the client.
var (
	// ErrAuthTokenRequired is returned by New when no authorization token is configured.
	ErrAuthTokenRequired = errors.New("authorization token is required")

	// ErrProxyUnreachable is returned by CheckProxy when the proxy cannot be dialed.
	ErrProxyUnreachable = errors.New("proxy unreachable")
)

// RequestError is a transport-level failure of a single request.
// Non-2xx responses are not RequestErrors; the caller inspects the status.
type RequestError struct {
	Class ErrorClass
	URL   string
	Err   error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return fmt.Sprintf("%s error (GET %s): %v", e.Class, e.URL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request failed on a deadline.
func (e *RequestError) Timeout() bool {
	return e.Class == ErrorClassTimeout
}

// ClassOf returns the ErrorClass of err, or ErrorClassUnknown when err
// is not a RequestError.
func ClassOf(err error) ErrorClass {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Class
	}
	return ErrorClassUnknown
}

// classifyTransportError categorizes an error returned by http.Client.Do
// or by reading the response body.
func classifyTransportError(err error) ErrorClass {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorClassTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrorClassNetwork
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrorClassNetwork
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return ErrorClassNetwork
	}

	return ErrorClassUnknown
}

// classifyStatus categorizes an HTTP status code for observability.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}
