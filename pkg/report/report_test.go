package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

type row []string

func (r row) Columns() []string { return r }

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	rows := []row{
		{"T1", "200", "RECONCILED"},
		{"T2", "500", "HTTP 500: boom, again"},
		{"T3", "200", `{"a":"b"}`},
	}

	if err := Encode(&buf, []string{"transactionId", "statusCode", "reconciliationState"}, rows); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	expected := "transactionId,statusCode,reconciliationState\n" +
		"T1,200,RECONCILED\n" +
		"T2,500,\"HTTP 500: boom, again\"\n" +
		"T3,200,\"{\"\"a\"\":\"\"b\"\"}\"\n"
	if buf.String() != expected {
		t.Errorf("Encode() =\n%s\nwant\n%s", buf.String(), expected)
	}
}

func TestWriteCSV_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "output", "report.csv")

	if err := WriteCSV(path, []string{"id"}, []row{{"a"}, {"b"}}); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if string(data) != "id\na\nb\n" {
		t.Errorf("report = %q", data)
	}
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")

	if err := WriteCSV[row](path, []string{"id", "status"}, nil); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if string(data) != "id,status\n" {
		t.Errorf("report = %q", data)
	}
}

func TestEnsureDir_Existing(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureDir(dir); err != nil {
		t.Errorf("EnsureDir(existing) error = %v", err)
	}
	if err := EnsureDir(""); err != nil {
		t.Errorf("EnsureDir(\"\") error = %v", err)
	}
}
