// Package batch provides a bounded, concurrent key-to-record batch fetcher.
//
// A batch is one full run over a set of input keys: every key is handed to a
// fixed-size worker pool, each worker invokes the configured fetch function
// for the key, and the resulting records are collected by the orchestrating
// goroutine. The table is returned only after every worker has exited.
//
// Example usage:
//
//	cfg := batch.DefaultConfig()
//	fetcher := batch.NewBatchFetcher(probe.Fetch, cfg)
//	table := fetcher.Run(ctx, ids)
//	for _, rec := range table.Sorted() {
//		fmt.Println(rec.Columns())
//	}
//
// The batch fetcher:
//   - Spawns a worker pool (default 80 workers)
//   - Dispatches keys in FIFO submission order
//   - Bounds every fetch with a per-request timeout (default 15s)
//   - Produces exactly one record per key, in completion order
//   - Never retries and never aborts the batch early
package batch
