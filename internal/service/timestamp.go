package service

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the fixed-width UTC layout used for every due timestamp.
// Lexical order of strings in this layout equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05Z"

// NormalizeTimestamp converts an RFC 3339 timestamp with any offset to
// TimestampLayout. Date-only input ("2025-01-31") is taken as midnight UTC.
// Empty input returns empty output.
func NormalizeTimestamp(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(TimestampLayout), nil
}

// ParseTimestamp parses an RFC 3339 timestamp or a bare date.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp: %q", s)
}

// Due returns the task's due instant. ok is false when the task has no
// due timestamp or it cannot be parsed.
func (t Task) Due() (due time.Time, ok bool) {
	if t.DueAt == "" {
		return time.Time{}, false
	}
	parsed, err := ParseTimestamp(t.DueAt)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
