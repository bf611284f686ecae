package weather

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/i474232898/meteo-dashboard/internal/readings"
)

// Display precision per quantity.
const (
	PressurePrecision  = 2
	SpeedPrecision     = 2
	DirectionPrecision = 1

	// The day graph reports its average with more digits than the tables.
	dayAveragePrecision = 4
)

// Value is a numeric reading that may be missing. The data API emits null or
// a sentinel string ("*") when an instrument had no valid observation.
type Value struct {
	V     float64
	Valid bool
}

// Some wraps a present value.
func Some(v float64) Value { return Value{V: v, Valid: readings.Valid(v)} }

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	*v = Value{}
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	if f, ok := readings.ParseValue(s); ok {
		*v = Value{V: f, Valid: true}
	}
	return nil
}

// PressureReading is one micro-barometer sample.
type PressureReading struct {
	Datetime Timestamp `json:"datetime"`
	Pressure Value     `json:"pressure"`
}

// PressureSummary is a day of barometer readings reduced to min/max/avg hPa.
type PressureSummary struct {
	Date        string  `json:"date"`
	MinPressure float64 `json:"min_pressure"`
	MaxPressure float64 `json:"max_pressure"`
	AvgPressure float64 `json:"avg_pressure"`
}

// SodarReading is one SODAR wind observation at a given height.
type SodarReading struct {
	Time      Timestamp `json:"time"`
	Height    float64   `json:"height"`
	Speed     Value     `json:"speed"`
	Direction Value     `json:"direction"`
}

// WindSummary is a day of SODAR readings reduced to speed stats and mean direction.
type WindSummary struct {
	Date         string  `json:"date"`
	MaxSpeed     float64 `json:"max_speed"`
	MinSpeed     float64 `json:"min_speed"`
	AvgSpeed     float64 `json:"avg_speed"`
	AvgDirection float64 `json:"avg_direction"`
}

// TimeSeriesPoint is one point of a per-time chart. Label is set for
// direction series (e.g. "187.3° S").
type TimeSeriesPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
	Label string  `json:"label,omitempty"`
}

// HeightProfile is the average wind speed at one height.
type HeightProfile struct {
	Height   float64 `json:"height"`
	AvgSpeed float64 `json:"avgSpeed"`
}

// WindVector is the mean wind at one height on one date, as drawn by the
// vector plot.
type WindVector struct {
	Height float64 `json:"height"`
	Date   string  `json:"date"`
	Speed  float64 `json:"speed"`
}

// HeatmapCell is one calendar day of the pressure heatmap.
type HeatmapCell struct {
	Date  string  `json:"date"`
	Value float64 `json:"count"`
}

// PressureDay is everything the barometer day view shows.
type PressureDay struct {
	Date     string                 `json:"date"`
	Readings []PressureReading      `json:"readings"`
	Summary  PressureSummary        `json:"summary"`
	Hourly   []readings.SummaryEntry `json:"hourly"`
}

// WindDay is everything the SODAR day view shows.
type WindDay struct {
	Date      string            `json:"date"`
	Speed     []TimeSeriesPoint `json:"speed"`
	Direction []TimeSeriesPoint `json:"direction"`
	Profile   []HeightProfile   `json:"profile"`
	Vectors   []WindVector      `json:"vectors"`
}

// Plot is an image produced by the data API.
type Plot struct {
	ContentType string
	Data        []byte
}

// SummaryQuery selects a page of a summary table. Month is 1-12, 0 means
// all months. From/To are inclusive YYYY-MM-DD bounds, either may be empty.
type SummaryQuery struct {
	Month    int
	From     string
	To       string
	Page     int
	PageSize int
}

// Range converts the query bounds into a readings.Range.
func (q SummaryQuery) Range() readings.Range {
	return readings.Range{Start: q.From, End: q.To}
}
