package csvtool

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sternrassler/reconcheck/pkg/input"
)

const merchantsCSV = "id,eventdata_merchantid ,amount\n" +
	"1,VIRALOONLINE,10\n" +
	"2,OTHER,20\n" +
	"3,VIRALOONLINE ,30\n" +
	"4,OTHER,40\n" +
	"5,VIRALOONLINE,50\n"

func writeSource(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "source.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestFilter(t *testing.T) {
	source := writeSource(t, merchantsCSV)
	output := filepath.Join(t.TempDir(), "out", "filtered.csv")

	result, err := Filter(FilterOptions{
		Source:    source,
		Output:    output,
		Column:    "eventdata_merchantid",
		Value:     "VIRALOONLINE",
		ChunkSize: 2,
	})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}

	if result.Scanned != 5 || result.Matched != 3 || !result.Written {
		t.Errorf("Filter() = %+v, want 5 scanned, 3 matched, written", result)
	}

	expected := "id,eventdata_merchantid,amount\n" +
		"1,VIRALOONLINE,10\n" +
		"3,VIRALOONLINE ,30\n" +
		"5,VIRALOONLINE,50\n"
	if got := readFile(t, output); got != expected {
		t.Errorf("output =\n%s\nwant\n%s", got, expected)
	}
}

func TestFilter_NoMatchCreatesNoFile(t *testing.T) {
	source := writeSource(t, merchantsCSV)
	output := filepath.Join(t.TempDir(), "filtered.csv")

	result, err := Filter(FilterOptions{Source: source, Output: output, Column: "eventdata_merchantid", Value: "NOBODY"})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if result.Written || result.Matched != 0 {
		t.Errorf("Filter() = %+v, want nothing written", result)
	}
	if _, err := os.Stat(output); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("output file should not exist, stat error = %v", err)
	}
}

func TestFilter_UnknownColumn(t *testing.T) {
	source := writeSource(t, merchantsCSV)

	_, err := Filter(FilterOptions{Source: source, Output: filepath.Join(t.TempDir(), "x.csv"), Column: "merchant", Value: "X"})
	if !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("Filter() error = %v, want ErrUnknownColumn", err)
	}
	if !strings.Contains(err.Error(), "eventdata_merchantid") {
		t.Errorf("error %q should list available columns", err)
	}
}

func TestFilter_MissingSource(t *testing.T) {
	_, err := Filter(FilterOptions{Source: filepath.Join(t.TempDir(), "nope.csv"), Column: "a"})
	if !errors.Is(err, input.ErrFileNotFound) {
		t.Errorf("Filter() error = %v, want ErrFileNotFound", err)
	}
}

func TestSplit(t *testing.T) {
	source := writeSource(t, merchantsCSV)
	outDir := filepath.Join(t.TempDir(), "parts")

	files, err := Split(SplitOptions{Source: source, OutputDir: outDir, Prefix: "KUKU", ChunkSize: 2})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	expectedFiles := []string{
		filepath.Join(outDir, "KUKU_1.csv"),
		filepath.Join(outDir, "KUKU_2.csv"),
		filepath.Join(outDir, "KUKU_3.csv"),
	}
	if strings.Join(files, ",") != strings.Join(expectedFiles, ",") {
		t.Fatalf("Split() = %v, want %v", files, expectedFiles)
	}

	header := "id,eventdata_merchantid ,amount\n"
	expected := []string{
		header + "1,VIRALOONLINE,10\n2,OTHER,20\n",
		header + "3,VIRALOONLINE ,30\n4,OTHER,40\n",
		header + "5,VIRALOONLINE,50\n",
	}
	for i, path := range files {
		if got := readFile(t, path); got != expected[i] {
			t.Errorf("%s =\n%s\nwant\n%s", path, got, expected[i])
		}
	}
}

func TestSplit_DefaultPrefixAndExactChunks(t *testing.T) {
	source := writeSource(t, "a\n1\n2\n")
	outDir := t.TempDir()

	files, err := Split(SplitOptions{Source: source, OutputDir: outDir, ChunkSize: 2})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "source_1.csv" {
		t.Errorf("Split() = %v, want [source_1.csv]", files)
	}
}

func TestSplit_HeaderOnly(t *testing.T) {
	source := writeSource(t, "a,b\n")

	files, err := Split(SplitOptions{Source: source, OutputDir: t.TempDir(), ChunkSize: 2})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("Split() = %v, want no files", files)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"filtered", filepath.Join("output", "filtered.csv")},
		{"filtered.csv", filepath.Join("output", "filtered.csv")},
		{"elsewhere/filtered", "elsewhere/filtered.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutputPath("output", tt.name); got != tt.expected {
				t.Errorf("OutputPath(%q) = %q, want %q", tt.name, got, tt.expected)
			}
		})
	}
}
