// Package csvtool filters and splits large CSV exports without loading them
// into memory.
package csvtool

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Sternrassler/reconcheck/pkg/input"
	"github.com/Sternrassler/reconcheck/pkg/logging"
	"github.com/Sternrassler/reconcheck/pkg/report"
)

// Default chunk sizes, in data rows.
const (
	DefaultFilterChunkSize = 100_000
	DefaultSplitChunkSize  = 500_000
)

// ErrUnknownColumn is returned by Filter when the filter column is not in
// the header.
var ErrUnknownColumn = errors.New("column not found")

// FilterOptions configures Filter.
type FilterOptions struct {
	Source string
	Output string
	Column string
	Value  string

	// ChunkSize is the number of rows between progress log lines
	ChunkSize int
}

// FilterResult summarizes a Filter run.
type FilterResult struct {
	Scanned int
	Matched int
	// Written is false when nothing matched and no output file was created
	Written  bool
	Duration time.Duration
}

// Filter streams Source and copies the header plus every row whose Column
// equals Value (both sides trimmed) into Output. Output is only created once
// the first row matches.
func Filter(opts FilterOptions) (FilterResult, error) {
	logger := logging.NewLogger(logging.ComponentCSVTool)
	start := time.Now()
	var result FilterResult

	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultFilterChunkSize
	}

	src, err := os.Open(opts.Source)
	if err != nil {
		return result, openError(opts.Source, err)
	}
	defer src.Close()

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("read header of %s: %w", opts.Source, err)
	}
	header = input.NormalizeHeader(header)

	idx := slices.Index(header, strings.TrimSpace(opts.Column))
	if idx < 0 {
		return result, fmt.Errorf("%w: %q (available: %s)", ErrUnknownColumn, opts.Column, strings.Join(header, ", "))
	}
	want := strings.TrimSpace(opts.Value)

	var out *lazyWriter
	defer func() {
		if out != nil {
			out.close()
		}
	}()

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("read %s: %w", opts.Source, err)
		}

		if result.Scanned%opts.ChunkSize == 0 {
			logger.Info().Int("chunk", result.Scanned/opts.ChunkSize+1).Msg("Processing chunk")
		}
		result.Scanned++

		if idx >= len(record) || strings.TrimSpace(record[idx]) != want {
			continue
		}

		if out == nil {
			out = &lazyWriter{path: opts.Output, header: header}
		}
		if err := out.write(record); err != nil {
			return result, err
		}
		result.Matched++
	}

	if out != nil {
		if err := out.close(); err != nil {
			return result, err
		}
		out = nil
		result.Written = true
	}

	result.Duration = time.Since(start)
	logger.Info().
		Int("scanned", result.Scanned).
		Int("matched", result.Matched).
		Dur("duration", result.Duration).
		Msg("Filtering complete")

	return result, nil
}

// SplitOptions configures Split.
type SplitOptions struct {
	Source    string
	OutputDir string
	Prefix    string
	ChunkSize int
}

// Split writes the rows of Source into <OutputDir>/<Prefix>_<n>.csv files of
// at most ChunkSize data rows each, repeating the header in every file. It
// returns the paths written.
func Split(opts SplitOptions) ([]string, error) {
	logger := logging.NewLogger(logging.ComponentCSVTool)

	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultSplitChunkSize
	}
	if opts.Prefix == "" {
		opts.Prefix = strings.TrimSuffix(filepath.Base(opts.Source), filepath.Ext(opts.Source))
	}

	src, err := os.Open(opts.Source)
	if err != nil {
		return nil, openError(opts.Source, err)
	}
	defer src.Close()

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", opts.Source, err)
	}

	var (
		files []string
		out   *lazyWriter
		rows  int
	)
	defer func() {
		if out != nil {
			out.close()
		}
	}()

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return files, fmt.Errorf("read %s: %w", opts.Source, err)
		}

		if out == nil {
			path := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_%d.csv", opts.Prefix, len(files)+1))
			logger.Info().Str("path", path).Msg("Saving chunk")
			out = &lazyWriter{path: path, header: header}
			files = append(files, path)
		}
		if err := out.write(record); err != nil {
			return files, err
		}

		rows++
		if rows == opts.ChunkSize {
			if err := out.close(); err != nil {
				return files, err
			}
			out, rows = nil, 0
		}
	}

	if out != nil {
		if err := out.close(); err != nil {
			return files, err
		}
		out = nil
	}

	logger.Info().Int("files", len(files)).Msg("Splitting complete")
	return files, nil
}

// OutputPath places name under dir, appending ".csv" when missing. Names
// that already contain a directory are kept as given.
func OutputPath(dir, name string) string {
	if !strings.HasSuffix(name, ".csv") {
		name += ".csv"
	}
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	return filepath.Join(dir, name)
}

// lazyWriter creates its file and writes the header on the first row.
type lazyWriter struct {
	path   string
	header []string
	file   *os.File
	csv    *csv.Writer
}

func (w *lazyWriter) write(record []string) error {
	if w.file == nil {
		if err := report.EnsureDir(filepath.Dir(w.path)); err != nil {
			return err
		}
		f, err := os.Create(w.path)
		if err != nil {
			return fmt.Errorf("create %s: %w", w.path, err)
		}
		w.file = f
		w.csv = csv.NewWriter(f)
		if err := w.csv.Write(w.header); err != nil {
			return fmt.Errorf("write %s: %w", w.path, err)
		}
	}
	if err := w.csv.Write(record); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	return nil
}

func (w *lazyWriter) close() error {
	if w.file == nil {
		return nil
	}
	w.csv.Flush()
	err := w.csv.Error()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.file = nil
	if err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	return nil
}

func openError(path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", input.ErrFileNotFound, path)
	}
	return fmt.Errorf("open %s: %w", path, err)
}
