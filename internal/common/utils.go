package common

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ContainsAnyFold reports whether s contains any of subs, ignoring case.
func ContainsAnyFold(s string, subs ...string) bool {
	s = strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// ParseTime accepts RFC3339, a bare YYYY-MM-DD day (midnight UTC), a
// "YYYY-MM-DD HH:MM:SS" datetime, or unix seconds.
func ParseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, nil
		}
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339, YYYY-MM-DD or unix seconds")
}

// EndOfDay widens a bare day bound to its last second so that "to=2025-01-04"
// includes every reading of that day.
func EndOfDay(s string, t time.Time) time.Time {
	if len(s) == len("2006-01-02") {
		return t.Add(24*time.Hour - time.Second)
	}
	return t
}
