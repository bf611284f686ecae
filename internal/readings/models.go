package readings

import "time"

// Reading is one timestamped observation. Key is the grouping key the
// pipeline buckets on (a day, a month, a height, a time of day).
type Reading struct {
	Timestamp time.Time
	Value     float64
	Key       string
}

// SummaryEntry is the per-group aggregate derived from Readings.
// Min <= Avg <= Max always holds for entries produced by Summarize.
type SummaryEntry struct {
	Date  string  `json:"date"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	Count int     `json:"count"`
}

// KeyedValue is a single averaged value for a group, used where a view
// only plots the mean (speed per height, direction per time).
type KeyedValue struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// KeyFunc selects the grouping key of a reading.
type KeyFunc func(Reading) string

// DayLayout is the layout of day keys.
const DayLayout = "2006-01-02"

// ByDay groups readings by calendar day of their timestamp.
func ByDay(r Reading) string { return r.Timestamp.Format(DayLayout) }

// ByHour groups readings by the hour of day, e.g. "13:00".
func ByHour(r Reading) string { return r.Timestamp.Format("15") + ":00" }

// ByField uses the Key carried by the reading itself.
func ByField(r Reading) string { return r.Key }
