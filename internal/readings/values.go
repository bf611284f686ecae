package readings

import (
	"math"
	"strconv"
	"strings"
)

// textSentinels are placeholders instruments and exporters write in place of
// a missing value.
var textSentinels = []string{"", "*", "-", "n/a", "na", "nan", "null", "none"}

// Valid reports whether v is usable for aggregation. NaN, infinities and any
// of the given numeric sentinels are rejected.
func Valid(v float64, sentinels ...float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	for _, s := range sentinels {
		if v == s {
			return false
		}
	}
	return true
}

// ParseValue parses a raw textual value. ok is false for sentinel markers and
// anything non-numeric.
func ParseValue(s string) (v float64, ok bool) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, sentinel := range textSentinels {
		if lower == sentinel {
			return 0, false
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !Valid(v) {
		return 0, false
	}
	return v, true
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
