// Package cycle holds the rolling-window arithmetic shared by review
// freshness and the award rate limit.
//
// Both checks measure the age of a stored timestamp against now:
//
//	IsWithinCycle  0 <= age <  window   (review still counts)
//	HasElapsed     age > window          (a new award may be issued)
//
// A timestamp after now never satisfies either check.
package cycle

import (
	"strings"
	"time"
)

// DefaultWindowDays is the length of one award cycle.
const DefaultWindowDays = 30

// Window converts a day count into a duration, falling back to the default.
func Window(days int) time.Duration {
	if days <= 0 {
		days = DefaultWindowDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// Age returns now - ts. ok is false when ts lies in the future.
func Age(ts, now time.Time) (time.Duration, bool) {
	if ts.After(now) {
		return 0, false
	}
	return now.Sub(ts), true
}

// IsWithinCycle reports whether ts is strictly younger than window.
func IsWithinCycle(ts, now time.Time, window time.Duration) bool {
	age, ok := Age(ts, now)
	return ok && age < window
}

// HasElapsed reports whether strictly more than window has passed since ts.
func HasElapsed(ts, now time.Time, window time.Duration) bool {
	age, ok := Age(ts, now)
	return ok && age > window
}

// ParseTimestamp parses a stored RFC 3339 timestamp. Empty or malformed
// values return ok=false so callers can fail closed.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// FormatTimestamp renders t the way timestamps are stored.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
