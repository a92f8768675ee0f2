package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/reconcheck/pkg/csvtool"
	"github.com/Sternrassler/reconcheck/pkg/input"
)

func filterCmd(opts *options) *cobra.Command {
	var (
		column    string
		value     string
		chunkSize int
	)

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Keep the rows of a large CSV whose column equals a value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			source, err := resolveInput(cmd, opts, cfg.Paths.AssetsDir, "", ".csv")
			if err != nil {
				return err
			}
			if source == "" {
				return fmt.Errorf("%w: no CSV file selected", input.ErrFileNotFound)
			}

			name := opts.output
			if name == "" {
				name, err = opts.prompt(cmd).Ask("Enter output filename (e.g., 'filtered_data.csv'): ")
				if err != nil {
					return err
				}
				if name == "" {
					return fmt.Errorf("an output filename is required")
				}
			}
			output := csvtool.OutputPath(cfg.Paths.OutputDir, name)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Starting to filter '%s'...\n", source)

			result, err := csvtool.Filter(csvtool.FilterOptions{
				Source:    source,
				Output:    output,
				Column:    column,
				Value:     value,
				ChunkSize: chunkSize,
			})
			if err != nil {
				return err
			}

			if result.Written {
				fmt.Fprintf(w, "\nFiltering complete! %d of %d rows written to '%s'.\n", result.Matched, result.Scanned, output)
			} else {
				fmt.Fprintf(w, "\nFiltering complete! No rows matched, '%s' was not created.\n", output)
			}
			fmt.Fprintf(w, "Total time taken: %.2f seconds.\n", result.Duration.Seconds())
			return nil
		},
	}

	cmd.Flags().StringVarP(&column, "column", "c", "eventdata_merchantid", "column to match")
	cmd.Flags().StringVarP(&value, "value", "v", "", "value the column must equal")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", csvtool.DefaultFilterChunkSize, "rows per progress chunk")
	cmd.MarkFlagRequired("value")

	return cmd
}

func splitCmd(opts *options) *cobra.Command {
	var (
		prefix string
		rows   int
	)

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a large CSV into smaller files with the header repeated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			source, err := resolveInput(cmd, opts, cfg.Paths.AssetsDir, "", ".csv")
			if err != nil {
				return err
			}
			if source == "" {
				return fmt.Errorf("%w: no CSV file selected", input.ErrFileNotFound)
			}

			dir := cfg.Paths.OutputDir
			if opts.output != "" {
				dir = opts.output
			}

			files, err := csvtool.Split(csvtool.SplitOptions{
				Source:    source,
				OutputDir: dir,
				Prefix:    prefix,
				ChunkSize: rows,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, f := range files {
				fmt.Fprintf(w, "Saved %s\n", f)
			}
			fmt.Fprintln(w, "Splitting complete!")
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "output file prefix (default: input file name)")
	cmd.Flags().IntVar(&rows, "rows", csvtool.DefaultSplitChunkSize, "data rows per output file")

	return cmd
}
