package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// jsDateLayout matches Date.prototype.toString() once the "(Zone Name)" suffix is removed.
const jsDateLayout = "Mon Jan 02 2006 15:04:05 GMT-0700"

var errBadTimestamp = errors.New("timestamp must be RFC 3339, epoch milliseconds or a JavaScript date string")

// ParseTimestamp converts a client supplied timestamp string into a UTC time.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errBadTimestamp
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}

	if isDigits(s) {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, errBadTimestamp
		}
		return time.UnixMilli(ms).UTC(), nil
	}

	if idx := strings.Index(s, " ("); idx > 0 {
		s = s[:idx]
	}
	if t, err := time.Parse(jsDateLayout, s); err == nil {
		return t.UTC(), nil
	}

	return time.Time{}, errBadTimestamp
}

// FormatTimestamp renders timestamps the way the API returns them.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func isDigits(s string) bool {
	start := 0
	if strings.HasPrefix(s, "-") {
		start = 1
	}
	if start == len(s) {
		return false
	}
	for _, r := range s[start:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
