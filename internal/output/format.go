// Package output renders tool results and errors for callers.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"taskbridge/internal/apierror"
)

// FormatResult renders a successful tool result as indented JSON.
func FormatResult(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// FormatError renders an actionable error payload.
// It cannot fail: every field is a string or string slice.
func FormatError(ae *apierror.ActionableError) []byte {
	out, err := FormatResult(ae)
	if err != nil {
		return []byte(`{"error":"failed to encode error","code":"UNKNOWN","suggestion":""}`)
	}
	return out
}

// CatalogEntry is one line of the tool listing.
type CatalogEntry struct {
	Name        string
	Description string
	Required    []string
}

// FormatCatalog writes one line per tool:
// "{NAME:<width}  {DESCRIPTION}" followed by an indented required-parameter line.
func FormatCatalog(w io.Writer, entries []CatalogEntry) {
	width := 0
	for _, e := range entries {
		width = max(width, len(e.Name))
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%-*s  %s\n", width, e.Name, normalizeText(e.Description))
		if len(e.Required) > 0 {
			fmt.Fprintf(w, "%-*s  required: %s\n", width, "", strings.Join(e.Required, ", "))
		}
	}
}

// normalizeText flattens text to a single line.
// Empty or whitespace-only text becomes "(no description)".
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	if strings.TrimSpace(s) == "" {
		return "(no description)"
	}
	return s
}
