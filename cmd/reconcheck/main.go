package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/reconcheck/pkg/client"
	"github.com/Sternrassler/reconcheck/pkg/config"
	"github.com/Sternrassler/reconcheck/pkg/input"
	"github.com/Sternrassler/reconcheck/pkg/logging"
	"github.com/Sternrassler/reconcheck/pkg/metrics"
)

var Version = "dev"

// proxyCheckTimeout bounds the startup dial to the SOCKS5 proxy.
const proxyCheckTimeout = 5 * time.Second

// options holds the flags shared by every command.
type options struct {
	envFile     string
	input       string
	output      string
	workers     int
	timeout     int
	noProxy     bool
	tlsVerify   bool
	logLevel    string
	pretty      bool
	ordered     bool
	metricsFile string

	prompter *input.Prompter
}

// prompt returns the command's prompter. All questions of one run share it
// so buffered stdin is not lost between them.
func (o *options) prompt(cmd *cobra.Command) *input.Prompter {
	if o.prompter == nil {
		o.prompter = input.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	return o.prompter
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "reconcheck",
		Short: "Batch-query housekeeping endpoints and write the results as CSV",
		Long: `reconcheck reads identifiers from a file, queries an internal
housekeeping endpoint for each of them through a bounded worker pool and
writes one CSV row per identifier.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "dotenv file loaded before the environment")
	flags.StringVarP(&opts.input, "input", "i", "", "input file (prompted for when empty)")
	flags.StringVarP(&opts.output, "output", "o", "", "output file (default: OUTPUT_DIR/OUTPUT_FILE)")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "concurrent requests (MAX_WORKERS)")
	flags.IntVar(&opts.timeout, "timeout", 0, "per-request timeout in seconds (REQUEST_TIMEOUT)")
	flags.BoolVar(&opts.noProxy, "no-proxy", false, "connect directly instead of through the SOCKS5 proxy")
	flags.BoolVar(&opts.tlsVerify, "tls-verify", false, "verify TLS certificates")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (LOG_LEVEL)")
	flags.BoolVar(&opts.pretty, "pretty", false, "human-readable logs (LOG_PRETTY)")
	flags.BoolVar(&opts.ordered, "ordered", false, "write rows in input order instead of completion order")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format to this path")

	rootCmd.AddCommand(probeCmd(opts))
	rootCmd.AddCommand(transactionsCmd(opts))
	rootCmd.AddCommand(filterCmd(opts))
	rootCmd.AddCommand(splitCmd(opts))

	return rootCmd
}

// loadConfig loads the configuration, applies flag overrides, validates the
// result and sets up logging.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("workers") {
		cfg.Network.MaxWorkers = opts.workers
	}
	if changed("timeout") {
		cfg.Network.RequestTimeout = opts.timeout
	}
	if changed("no-proxy") {
		cfg.Proxy.Enabled = !opts.noProxy
	}
	if changed("tls-verify") {
		cfg.Network.TLSInsecure = !opts.tlsVerify
	}
	if changed("log-level") {
		cfg.Logger.Level = opts.logLevel
	}
	if changed("pretty") {
		cfg.Logger.Pretty = opts.pretty
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Logger.Level),
		Pretty: cfg.Logger.Pretty,
		Output: cmd.ErrOrStderr(),
	})

	return cfg, nil
}

// prepareRequests checks everything a request needs before the first one
// is sent: the token and, when enabled, a reachable proxy.
func prepareRequests(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	if err := cfg.RequireAuth(); err != nil {
		return err
	}

	addr := cfg.ProxyAddr()
	if addr == "" {
		return nil
	}
	if err := client.CheckProxy(ctx, addr, proxyCheckTimeout); err != nil {
		return fmt.Errorf("could not configure SOCKS proxy, is the proxy server running? %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "SOCKS5 proxy configured successfully (%s).\n", addr)
	return nil
}

// resolveInput returns --input, or asks for a file from the assets dir.
func resolveInput(cmd *cobra.Command, opts *options, assetsDir, defaultPath string, exts ...string) (string, error) {
	if opts.input != "" {
		return opts.input, nil
	}
	return opts.prompt(cmd).ChooseInput(assetsDir, defaultPath, exts...)
}

// outputPath returns --output or the configured report path.
func outputPath(opts *options, cfg *config.Config) string {
	if opts.output != "" {
		return opts.output
	}
	return cfg.OutputPath()
}

// writeMetrics dumps the registry when --metrics-file is set. Failing to
// write metrics does not fail the run.
func writeMetrics(opts *options) {
	if opts.metricsFile == "" {
		return
	}
	logger := logging.NewLogger(logging.ComponentCLI)
	if err := metrics.WriteTextfile(opts.metricsFile); err != nil {
		logger.Warn().Err(err).Msg("Failed to write metrics")
		return
	}
	logger.Debug().Str("path", opts.metricsFile).Msg("Metrics written")
}

// exitOnPrompt turns an "exit" answer into a clean return.
func exitOnPrompt(cmd *cobra.Command, err error) error {
	if errors.Is(err, input.ErrExit) {
		fmt.Fprintln(cmd.OutOrStdout(), "Exiting.")
		return nil
	}
	return err
}
