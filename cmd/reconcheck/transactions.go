package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/reconcheck/pkg/client"
	"github.com/Sternrassler/reconcheck/pkg/endpoint"
	"github.com/Sternrassler/reconcheck/pkg/input"
	"github.com/Sternrassler/reconcheck/pkg/job"
)

func transactionsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "transactions",
		Short: "Check transactions against hermes and the payment service",
		Long: `Read a CSV with the columns "Merchant ID", "Merchant Transaction Id" and
"Payment Id". For every row query the hermes DB status check (when both
merchant IDs are set) and the payments debug endpoint (when the payment ID
is set). Lookups that cannot be made are reported as SKIPPED.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransactions(cmd, opts)
		},
	}
}

func runTransactions(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	if err := prepareRequests(ctx, cmd, cfg); err != nil {
		return err
	}

	path, err := resolveInput(cmd, opts, cfg.Paths.AssetsDir,
		filepath.Join(cfg.Paths.AssetsDir, filepath.Base(input.DefaultTransactionsFile)), ".csv")
	if err != nil {
		return err
	}

	rows, err := input.ReadCSVRows(path, job.TransactionInputColumns...)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No transactions found in input file.")
		return nil
	}

	txs := make([]job.Transaction, len(rows))
	for i, row := range rows {
		txs[i] = job.TransactionFromRow(row)
	}

	c, err := client.New(cfg.ClientConfig())
	if err != nil {
		return err
	}
	defer c.Close()

	probe, err := job.NewTransactionProbe(c, cfg.BaseURLs())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Starting to process %d transactions using %d workers...\n",
		len(txs), cfg.Network.MaxWorkers)

	start := time.Now()
	out := outputPath(opts, cfg)
	records, err := runAndWrite(ctx, opts.ordered, probe.Fetch, batchConfig(cfg, 2), txs, job.TransactionColumns, out)
	if err != nil {
		return err
	}

	skipped := 0
	for _, rec := range records {
		if rec.HermesResponse == endpoint.SentinelSkipped || rec.PaymentsResponse == endpoint.SentinelSkipped {
			skipped++
		}
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\nProcessed %d transactions in %.2f seconds.\n", len(records), time.Since(start).Seconds())
	fmt.Fprintf(w, "  with a skipped lookup: %d\n", skipped)
	fmt.Fprintf(w, "Results written to %s\n", out)

	writeMetrics(opts)
	return nil
}
