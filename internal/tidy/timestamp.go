package tidy

import (
	"strings"
	"time"
)

// TimestampLayout is the persisted timestamp format, always in UTC.
const TimestampLayout = "2006-01-02_15-04-05"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a value written by FormatTimestamp, also accepting RFC 3339.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// DateBucket returns the date portion of a timestamp, the text before the first '_'.
func DateBucket(ts string) string {
	bucket, _, _ := strings.Cut(ts, "_")
	return bucket
}
