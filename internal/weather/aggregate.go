package weather

import (
	"fmt"
	"strconv"
	"time"

	"github.com/i474232898/meteo-dashboard/internal/readings"
)

// PressureAsReadings converts barometer samples into pipeline readings,
// dropping samples without a valid pressure or timestamp.
func PressureAsReadings(in []PressureReading) []readings.Reading {
	out := make([]readings.Reading, 0, len(in))
	for _, r := range in {
		if !r.Pressure.Valid || r.Datetime.IsZero() {
			continue
		}
		out = append(out, readings.Reading{Timestamp: r.Datetime.Time, Value: r.Pressure.V})
	}
	return out
}

// SummarizePressure reduces barometer samples to one PressureSummary per day.
func SummarizePressure(in []PressureReading) []PressureSummary {
	entries := readings.Summarize(PressureAsReadings(in), readings.ByDay, PressurePrecision)
	out := make([]PressureSummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, PressureSummary{
			Date:        e.Date,
			MinPressure: e.Min,
			MaxPressure: e.Max,
			AvgPressure: e.Avg,
		})
	}
	return out
}

// heightKey is the grouping key of a SODAR height.
func heightKey(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func sodarReadings(in []SodarReading, pick func(SodarReading) Value, key func(SodarReading) string) []readings.Reading {
	out := make([]readings.Reading, 0, len(in))
	for _, r := range in {
		v := pick(r)
		if !v.Valid || r.Time.IsZero() {
			continue
		}
		out = append(out, readings.Reading{Timestamp: r.Time.Time, Value: v.V, Key: key(r)})
	}
	return out
}

func speedOf(r SodarReading) Value     { return r.Speed }
func directionOf(r SodarReading) Value { return r.Direction }
func timeKey(r SodarReading) string    { return r.Time.Format("15:04:05") }
func dayKey(r SodarReading) string     { return r.Time.Format(readings.DayLayout) }
func heightOf(r SodarReading) string   { return heightKey(r.Height) }

// SpeedByTime averages wind speed across heights for each observation time.
func SpeedByTime(in []SodarReading) []TimeSeriesPoint {
	means := readings.GroupMean(sodarReadings(in, speedOf, timeKey), readings.ByField, SpeedPrecision)
	out := make([]TimeSeriesPoint, 0, len(means))
	for _, m := range means {
		out = append(out, TimeSeriesPoint{Time: m.Key, Value: m.Value})
	}
	return out
}

// DirectionByTime averages wind direction across heights for each
// observation time and labels it with a compass point.
func DirectionByTime(in []SodarReading) []TimeSeriesPoint {
	means := readings.GroupMean(sodarReadings(in, directionOf, timeKey), readings.ByField, DirectionPrecision)
	out := make([]TimeSeriesPoint, 0, len(means))
	for _, m := range means {
		out = append(out, TimeSeriesPoint{Time: m.Key, Value: m.Value, Label: CompassLabel(m.Value)})
	}
	return out
}

// SpeedByHeight averages wind speed per measurement height, lowest first.
// Heights with no valid speed are left out.
func SpeedByHeight(in []SodarReading) []HeightProfile {
	means := readings.GroupMean(sodarReadings(in, speedOf, heightOf), readings.ByField, SpeedPrecision)
	out := make([]HeightProfile, 0, len(means))
	for _, m := range means {
		h, err := strconv.ParseFloat(m.Key, 64)
		if err != nil {
			continue
		}
		out = append(out, HeightProfile{Height: h, AvgSpeed: m.Value})
	}
	return out
}

// Vectors turns a height profile into the vectors of the wind vector plot.
func Vectors(date string, profile []HeightProfile) []WindVector {
	out := make([]WindVector, 0, len(profile))
	for _, p := range profile {
		out = append(out, WindVector{Height: p.Height, Date: date, Speed: p.AvgSpeed})
	}
	return out
}

// SummarizeWind reduces SODAR readings to one WindSummary per day.
func SummarizeWind(in []SodarReading) []WindSummary {
	speeds := readings.Summarize(sodarReadings(in, speedOf, dayKey), readings.ByField, SpeedPrecision)
	dirs := readings.GroupMean(sodarReadings(in, directionOf, dayKey), readings.ByField, DirectionPrecision)

	avgDir := make(map[string]float64, len(dirs))
	for _, d := range dirs {
		avgDir[d.Key] = d.Value
	}

	out := make([]WindSummary, 0, len(speeds))
	for _, s := range speeds {
		out = append(out, WindSummary{
			Date:         s.Date,
			MaxSpeed:     s.Max,
			MinSpeed:     s.Min,
			AvgSpeed:     s.Avg,
			AvgDirection: avgDir[s.Date],
		})
	}
	return out
}

// CompassLabel formats a direction in degrees with its 8-point compass name.
func CompassLabel(deg float64) string {
	var point string
	switch {
	case deg >= 337.5 || deg < 22.5:
		point = "N"
	case deg < 67.5:
		point = "NE"
	case deg < 112.5:
		point = "E"
	case deg < 157.5:
		point = "SE"
	case deg < 202.5:
		point = "S"
	case deg < 247.5:
		point = "SW"
	case deg < 292.5:
		point = "W"
	default:
		point = "NW"
	}
	return fmt.Sprintf("%.1f° %s", deg, point)
}

// Heatmap produces one cell per calendar day in [from, to]. Days without a
// summary get a zero value.
func Heatmap(summaries []PressureSummary, from, to time.Time) []HeatmapCell {
	byDate := make(map[string]float64, len(summaries))
	for _, s := range summaries {
		byDate[s.Date] = s.AvgPressure
	}

	var out []HeatmapCell
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(readings.DayLayout)
		out = append(out, HeatmapCell{Date: key, Value: byDate[key]})
	}
	return out
}

func inMonth(date string, month int) bool {
	if month == 0 {
		return true
	}
	t, err := time.Parse(readings.DayLayout, date)
	if err != nil {
		return false
	}
	return int(t.Month()) == month
}
