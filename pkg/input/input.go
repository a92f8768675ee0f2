// Package input reads the identifiers a batch runs over.
package input

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"
)

// Default input locations, relative to the working directory.
const (
	DefaultAssetsDir        = "assets"
	DefaultKeysFile         = "assets/input_transactions.txt"
	DefaultTransactionsFile = "assets/input_data.csv"
)

var (
	// ErrFileNotFound is returned when the input file does not exist.
	ErrFileNotFound = errors.New("input file not found")

	// ErrMissingColumn is returned when a CSV lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
)

// ReadKeys reads one identifier per line. Lines are trimmed and blank lines
// are skipped.
func ReadKeys(path string) ([]string, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var keys []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		keys = append(keys, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return keys, nil
}

// ReadCSVRows reads a CSV with a header row and returns each data row keyed
// by (trimmed) column name. Every name in required must be present in the
// header.
func ReadCSVRows(path string, required ...string) ([]map[string]string, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	header = NormalizeHeader(header)

	for _, col := range required {
		if !slices.Contains(header, col) {
			return nil, fmt.Errorf("%w %q in %s (available: %s)",
				ErrMissingColumn, col, path, strings.Join(header, ", "))
		}
	}

	var rows []map[string]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// NormalizeHeader trims column names and drops a leading byte order mark.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		out[i] = strings.TrimSpace(col)
	}
	return out
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
