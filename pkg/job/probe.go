// Package job holds the per-key fetch functions run by the batch fetcher.
// Every function here turns any failure into a sentinel value; none of
// them return errors.
package job

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Sternrassler/reconcheck/pkg/client"
	"github.com/Sternrassler/reconcheck/pkg/endpoint"
	"github.com/Sternrassler/reconcheck/pkg/logging"
	"github.com/rs/zerolog"
)

// StatusError is written in the status column when no HTTP response was received.
const StatusError = "Error"

// Getter is the subset of *client.Client a probe needs.
type Getter interface {
	Get(ctx context.Context, label, rawURL string) (*client.Response, error)
}

// Record is the result for one key.
type Record struct {
	Key string
	// StatusCode is the HTTP status, or 0 when the request failed in transport
	StatusCode int
	Value      string
}

// Status renders the status column.
func (r Record) Status() string {
	if r.StatusCode == 0 {
		return StatusError
	}
	return strconv.Itoa(r.StatusCode)
}

// Columns renders the record as a report row.
func (r Record) Columns() []string {
	return []string{r.Key, r.Status(), r.Value}
}

// Probe queries one endpoint kind for one identifier.
type Probe struct {
	getter   Getter
	endpoint endpoint.Endpoint
	logger   zerolog.Logger
}

// NewProbe creates a probe for a resolved endpoint.
func NewProbe(getter Getter, ep endpoint.Endpoint) *Probe {
	return &Probe{
		getter:   getter,
		endpoint: ep,
		logger:   logging.NewLogger(logging.ComponentProbe).With().Str("endpoint", ep.Kind.String()).Logger(),
	}
}

// Endpoint returns the endpoint this probe queries.
func (p *Probe) Endpoint() endpoint.Endpoint {
	return p.endpoint
}

// Fetch queries the endpoint for key. It matches batch.FetchFunc.
func (p *Probe) Fetch(ctx context.Context, key string) Record {
	status, value := p.Lookup(ctx, key)
	rec := Record{Key: key, StatusCode: status, Value: value}

	p.logger.Info().
		Str("key", key).
		Str("status", rec.Status()).
		Msg("Processed")

	return rec
}

// Lookup performs the request for the given identifier parts and returns
// the status code (0 on transport failure) and the value to report.
func (p *Probe) Lookup(ctx context.Context, parts ...string) (int, string) {
	rawURL, err := p.endpoint.URL(parts...)
	if err != nil {
		return 0, fmt.Sprintf("%s: %v", endpoint.SentinelRequestFailed, err)
	}

	resp, err := p.getter.Get(ctx, p.endpoint.Kind.String(), rawURL)
	if err != nil {
		p.logger.Debug().Err(err).Strs("key", parts).Msg("Request failed")
		return 0, TransportValue(err)
	}

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Body)
	}

	return resp.StatusCode, p.endpoint.Extractor.Extract(resp.Body)
}

// TransportValue maps a transport error to its report value.
func TransportValue(err error) string {
	switch client.ClassOf(err) {
	case client.ErrorClassTimeout:
		return endpoint.SentinelTimeout
	case client.ErrorClassNetwork:
		return endpoint.SentinelConnectionError
	}

	cause := err
	var reqErr *client.RequestError
	if errors.As(err, &reqErr) && reqErr.Err != nil {
		cause = reqErr.Err
	}
	if cause == nil {
		return endpoint.SentinelNoResponse
	}
	return fmt.Sprintf("%s: %v", endpoint.SentinelRequestFailed, cause)
}
