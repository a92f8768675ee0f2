// Package report writes batch results as CSV files.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Sternrassler/reconcheck/pkg/logging"
)

// DefaultOutputDir is where reports go unless configured otherwise.
const DefaultOutputDir = "output"

// Row is anything that renders as one CSV row.
type Row interface {
	Columns() []string
}

// EnsureDir creates dir (and parents) when it does not exist yet.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}

	_, err := os.Stat(dir)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", dir, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}
	logger := logging.NewLogger(logging.ComponentReport)
	logger.Info().Str("dir", dir).Msg("Created output directory")
	return nil
}

// WriteCSV writes header followed by one line per row to path, creating the
// parent directory when needed.
func WriteCSV[R Row](path string, header []string, rows []R) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := Encode(f, header, rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	logger := logging.NewLogger(logging.ComponentReport)
	logger.Debug().Str("path", path).Int("rows", len(rows)).Msg("Report written")
	return nil
}

// Encode writes header and rows as CSV to w.
func Encode[R Row](w io.Writer, header []string, rows []R) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.Columns()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
