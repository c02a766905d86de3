package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotDocument is returned when text is not a JSON document.
var ErrNotDocument = errors.New("not a JSON document")

// FormatDocument re-serializes a JSON document with two-space indentation.
//
// Key order and number spelling are kept exactly as written; the text is
// never routed through a map. HTML-sensitive characters are not escaped.
func FormatDocument(raw string) (string, error) {
	src := []byte(strings.TrimSpace(raw))
	if len(src) == 0 || !json.Valid(src) {
		return "", ErrNotDocument
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, src); err != nil {
		return "", fmt.Errorf("compact document: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return "", fmt.Errorf("indent document: %w", err)
	}
	return out.String(), nil
}

// EncodeString returns s as a JSON string literal.
func EncodeString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// strings always encode
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

// isDocumentShaped reports whether raw is a JSON object or array.
func isDocumentShaped(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return false
	}
	return json.Valid([]byte(trimmed))
}
