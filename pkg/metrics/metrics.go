// Package metrics is the reference for reconcheck's Prometheus metrics and
// writes them out at the end of a run.
//
// Metrics are defined in their owning packages (batch, client) and
// registered with promauto on the default registry. reconcheck is a
// short-lived CLI, so instead of serving /metrics it can dump the registry
// to a node_exporter textfile collector file.
package metrics

import (
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Sternrassler/reconcheck/pkg/report"
)

// Gatherer is read by WriteTextfile.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// WriteTextfile writes every gathered metric to path in the Prometheus text
// format. The file is written to a temporary name and renamed, so a
// concurrently scraping collector never sees a partial file.
func WriteTextfile(path string) error {
	if err := report.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, Gatherer); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}

// Metrics Documentation
//
// Batch Metrics (pkg/batch):
//   - reconcheck_batch_keys_total (Counter): Keys processed by the batch fetcher
//   - reconcheck_batch_inflight_fetches (Gauge): Fetches currently running
//   - reconcheck_batch_fetch_duration_seconds (Histogram): Duration of one per-key fetch
//   - reconcheck_batch_run_duration_seconds (Histogram): Duration of a whole batch
//
// Request Metrics (pkg/client):
//   - reconcheck_requests_total{endpoint, status} (Counter): Requests by endpoint kind and HTTP status ("transport_error" when no response arrived)
//   - reconcheck_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint kind
//   - reconcheck_errors_total{class} (Counter): Failures by class (timeout, network, client, server, unknown)
//
// Example Prometheus Queries:
//
//   # Share of keys that hit a timeout
//   reconcheck_errors_total{class="timeout"} / reconcheck_batch_keys_total
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(reconcheck_request_duration_seconds_bucket[5m]))
