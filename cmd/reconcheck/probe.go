package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/reconcheck/pkg/batch"
	"github.com/Sternrassler/reconcheck/pkg/client"
	"github.com/Sternrassler/reconcheck/pkg/config"
	"github.com/Sternrassler/reconcheck/pkg/endpoint"
	"github.com/Sternrassler/reconcheck/pkg/input"
	"github.com/Sternrassler/reconcheck/pkg/job"
	"github.com/Sternrassler/reconcheck/pkg/report"
)

func probeCmd(opts *options) *cobra.Command {
	names := make([]string, 0, len(endpoint.ProbeKinds()))
	for _, kind := range endpoint.ProbeKinds() {
		names = append(names, kind.String())
	}

	return &cobra.Command{
		Use:   "probe [kind]",
		Short: "Query one endpoint kind for every ID in a file",
		Long: fmt.Sprintf(`Query one endpoint kind for every ID in a newline-delimited file.

Kinds: %s. Without a kind argument you are prompted for one.`, strings.Join(names, ", ")),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd, opts, args)
		},
	}
}

func runProbe(cmd *cobra.Command, opts *options, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	kind, err := resolveKind(cmd, opts, args)
	if err != nil {
		return exitOnPrompt(cmd, err)
	}

	if err := prepareRequests(ctx, cmd, cfg); err != nil {
		return err
	}

	ep, err := endpoint.New(kind, cfg.BaseURLs())
	if err != nil {
		return err
	}

	path, err := resolveInput(cmd, opts, cfg.Paths.AssetsDir,
		filepath.Join(cfg.Paths.AssetsDir, filepath.Base(input.DefaultKeysFile)), ".txt")
	if err != nil {
		return err
	}

	keys, err := input.ReadKeys(path)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No %s found in input file.\n", ep.Noun)
		return nil
	}

	c, err := client.New(cfg.ClientConfig())
	if err != nil {
		return err
	}
	defer c.Close()

	probe := job.NewProbe(c, ep)
	fmt.Fprintf(cmd.OutOrStdout(), "Starting to process %d %s using %d workers...\n",
		len(keys), ep.Noun, cfg.Network.MaxWorkers)

	start := time.Now()
	records, err := runAndWrite(ctx, opts.ordered, probe.Fetch, batchConfig(cfg, 1), keys, ep.Columns, outputPath(opts, cfg))
	if err != nil {
		return err
	}

	printProbeSummary(cmd.OutOrStdout(), ep, records, time.Since(start), outputPath(opts, cfg))
	writeMetrics(opts)
	return nil
}

func resolveKind(cmd *cobra.Command, opts *options, args []string) (endpoint.Kind, error) {
	if len(args) == 1 {
		kind, err := endpoint.ParseKind(args[0])
		if err != nil {
			return endpoint.KindUnknown, err
		}
		if !slices.Contains(endpoint.ProbeKinds(), kind) {
			return endpoint.KindUnknown, fmt.Errorf("%s takes two identifiers per row, use the transactions command", kind)
		}
		return kind, nil
	}
	return opts.prompt(cmd).ChooseKind(endpoint.ProbeKinds())
}

// batchConfig sizes the batch from the configuration. requests is the number
// of sequential requests one key makes; the per-key deadline covers all of them.
func batchConfig(cfg *config.Config, requests int) batch.Config {
	bc := batch.DefaultConfig()
	bc.MaxConcurrency = cfg.Network.MaxWorkers
	bc.Timeout = time.Duration(requests) * cfg.RequestTimeout()
	return bc
}

// runAndWrite runs the batch and writes its records to path.
func runAndWrite[K any, R report.Row](
	ctx context.Context,
	ordered bool,
	fetch batch.FetchFunc[K, R],
	bc batch.Config,
	keys []K,
	header []string,
	path string,
) ([]R, error) {
	table := batch.NewBatchFetcher(fetch, bc).Run(ctx, keys)

	records := table.Records()
	if ordered {
		records = table.Sorted()
	}

	if err := report.WriteCSV(path, header, records); err != nil {
		return nil, err
	}
	return records, nil
}

func printProbeSummary(w io.Writer, ep endpoint.Endpoint, records []job.Record, elapsed time.Duration, path string) {
	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.Status()]++
	}
	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	slices.Sort(statuses)

	fmt.Fprintf(w, "\nProcessed %d %s in %.2f seconds.\n", len(records), ep.Noun, elapsed.Seconds())
	for _, status := range statuses {
		fmt.Fprintf(w, "  %s: %d\n", status, counts[status])
	}
	fmt.Fprintf(w, "Results written to %s\n", path)
}
