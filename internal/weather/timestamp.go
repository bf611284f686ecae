package weather

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are the datetime shapes the data API and the instrument
// files use. All are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Timestamp is a time.Time that accepts the loose formats of the data API.
type Timestamp struct {
	time.Time
}

const timestampOut = "2006-01-02T15:04:05"

// ParseTimestamp parses s with the first matching layout.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.UTC().Format(timestampOut))), nil
}

// UnmarshalJSON leaves the zero Timestamp for null and for values no layout
// matches, so one bad row is dropped downstream instead of failing the decode.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}
	unq, err := strconv.Unquote(string(b))
	if err != nil {
		return nil
	}
	if parsed, err := ParseTimestamp(unq); err == nil {
		t.Time = parsed
	}
	return nil
}

func (t Timestamp) String() string {
	return t.UTC().Format(timestampOut)
}
