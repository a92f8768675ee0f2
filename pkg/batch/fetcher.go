package batch

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/reconcheck/pkg/logging"
)

// Prometheus metrics for batch runs.
var (
	batchKeysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconcheck_batch_keys_total",
		Help: "Total number of keys processed by batch runs",
	})

	batchInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reconcheck_batch_inflight_fetches",
		Help: "Number of fetch invocations currently in flight",
	})

	batchFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reconcheck_batch_fetch_duration_seconds",
		Help:    "Duration of a single per-key fetch in seconds",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 15},
	})

	batchRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reconcheck_batch_run_duration_seconds",
		Help:    "Duration of a full batch run in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
)

// Default values applied by NewBatchFetcher for zero config fields.
const (
	DefaultMaxConcurrency = 80
	DefaultTimeout        = 15 * time.Second
	DefaultBufferSize     = 1024
)

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of fetch invocations in flight
	MaxConcurrency int
	// Timeout bounds a single fetch invocation
	Timeout time.Duration
	// BufferSize of the key queue and result channels
	BufferSize int
}

// DefaultConfig returns the default batch configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: DefaultMaxConcurrency,
		Timeout:        DefaultTimeout,
		BufferSize:     DefaultBufferSize,
	}
}

// FetchFunc turns one key into one record. It must always return a record:
// per-key failures are encoded in R, never panicked or dropped.
type FetchFunc[K any, R any] func(ctx context.Context, key K) R

// Entry is a record tagged with the submission position of its key.
type Entry[R any] struct {
	Position int
	Record   R
}

// Table holds the entries of a finished batch in completion order.
type Table[R any] []Entry[R]

// Len returns the number of entries.
func (t Table[R]) Len() int {
	return len(t)
}

// Records returns the records in completion order.
func (t Table[R]) Records() []R {
	out := make([]R, len(t))
	for i, e := range t {
		out[i] = e.Record
	}
	return out
}

// Sorted returns the records in input order.
func (t Table[R]) Sorted() []R {
	entries := slices.Clone(t)
	slices.SortFunc(entries, func(a, b Entry[R]) int {
		return a.Position - b.Position
	})
	return Table[R](entries).Records()
}

type task[K any] struct {
	position int
	key      K
}

// BatchFetcher runs a fetch function over a set of keys with a bounded worker pool
type BatchFetcher[K any, R any] struct {
	fetch  FetchFunc[K, R]
	config Config
	logger zerolog.Logger
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher[K any, R any](fetch FetchFunc[K, R], config Config) *BatchFetcher[K, R] {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = DefaultMaxConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}

	return &BatchFetcher[K, R]{
		fetch:  fetch,
		config: config,
		logger: logging.NewLogger(logging.ComponentBatch),
	}
}

// Config returns the effective configuration after defaults were applied.
func (bf *BatchFetcher[K, R]) Config() Config {
	return bf.config
}

// Run fetches every key and returns one entry per key once all workers are done.
//
// There is no batch-level cancellation. A cancelled ctx does not stop dispatch:
// the remaining keys are still handed to fetch, which sees an expired context
// and is expected to return its failure record quickly.
func (bf *BatchFetcher[K, R]) Run(ctx context.Context, keys []K) Table[R] {
	if len(keys) == 0 {
		return Table[R]{}
	}

	start := time.Now()
	logger := bf.logger.With().Str("run_id", uuid.NewString()).Logger()

	workers := min(bf.config.MaxConcurrency, len(keys))
	bufferSize := min(bf.config.BufferSize, len(keys))

	logger.Info().
		Int("total_keys", len(keys)).
		Int("workers", workers).
		Dur("timeout", bf.config.Timeout).
		Msg("Starting batch")

	queue := make(chan task[K], bufferSize)
	results := make(chan Entry[R], bufferSize)

	// Fill key queue
	go func() {
		for i, key := range keys {
			queue <- task[K]{position: i, key: key}
		}
		close(queue)
	}()

	// Start worker pool
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go bf.worker(ctx, queue, results, &wg, i, logger)
	}

	// Close results channel when all workers done
	go func() {
		wg.Wait()
		close(results)
	}()

	table := make(Table[R], 0, len(keys))
	for entry := range results {
		table = append(table, entry)

		if len(table)%100 == 0 {
			logger.Info().
				Int("done", len(table)).
				Int("total", len(keys)).
				Float64("progress_pct", float64(len(table))/float64(len(keys))*100).
				Msg("Batch progress")
		}
	}

	elapsed := time.Since(start)
	batchRunDuration.Observe(elapsed.Seconds())

	logger.Info().
		Int("records", len(table)).
		Dur("duration", elapsed).
		Msg("Batch complete")

	return table
}

// worker drains the key queue until it is closed
func (bf *BatchFetcher[K, R]) worker(ctx context.Context, queue <-chan task[K], results chan<- Entry[R], wg *sync.WaitGroup, workerID int, logger zerolog.Logger) {
	defer wg.Done()
	processed := 0

	for t := range queue {
		results <- Entry[R]{
			Position: t.position,
			Record:   bf.fetchOne(ctx, t.key),
		}
		processed++
	}

	logger.Debug().
		Int("worker_id", workerID).
		Int("keys_processed", processed).
		Msg("Worker completed")
}

func (bf *BatchFetcher[K, R]) fetchOne(ctx context.Context, key K) R {
	fetchCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()

	batchInFlight.Inc()
	defer batchInFlight.Dec()

	start := time.Now()
	record := bf.fetch(fetchCtx, key)
	batchFetchDuration.Observe(time.Since(start).Seconds())
	batchKeysTotal.Inc()

	return record
}
