package endpoint

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Sentinel values written in place of a value that could not be obtained.
const (
	SentinelNoResponse        = "NO RESPONSE"
	SentinelJSONDecodeError   = "Error decoding JSON"
	SentinelReconStateMissing = "RECON_STATE_NOT_FOUND"
	SentinelExecStateMissing  = "EXEC_STATE_NOT_FOUND"
	SentinelMessageMissing    = "MESSAGE_NOT_FOUND"
	SentinelNotAvailable      = "N/A"
	SentinelSkipped           = "SKIPPED"
	SentinelTimeout           = "Request timeout"
	SentinelConnectionError   = "Connection error"
	SentinelRequestFailed     = "Request failed"
)

// Extractor turns a 200 response body into the value written to the report.
// It never fails: problems are reported as sentinel values.
type Extractor interface {
	Extract(body []byte) string
}

// FieldExtractor extracts a string field at a fixed path in a JSON object.
type FieldExtractor struct {
	Path     []string
	NotFound string
}

// Field builds a FieldExtractor from a dotted path such as "data.executionState".
func Field(path, notFound string) FieldExtractor {
	return FieldExtractor{Path: strings.Split(path, "."), NotFound: notFound}
}

// Extract implements Extractor.
//
// A missing key, a null value or a non-object intermediate all yield NotFound.
// String values are returned as-is; any other JSON value is returned compacted.
func (f FieldExtractor) Extract(body []byte) string {
	var node json.RawMessage
	if err := json.Unmarshal(body, &node); err != nil {
		return SentinelJSONDecodeError
	}

	for _, key := range f.Path {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(node, &obj); err != nil || obj == nil {
			return f.NotFound
		}
		next, ok := obj[key]
		if !ok {
			return f.NotFound
		}
		node = next
	}

	return renderValue(node, f.NotFound)
}

// RawJSONExtractor returns the whole body re-encoded as compact JSON.
type RawJSONExtractor struct{}

// Extract implements Extractor.
func (RawJSONExtractor) Extract(body []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return SentinelJSONDecodeError
	}
	return buf.String()
}

func renderValue(raw json.RawMessage, notFound string) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return notFound
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}
