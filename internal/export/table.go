// Package export renders dashboard tables and series as CSV, PDF and PNG.
package export

import (
	"strconv"

	"github.com/i474232898/meteo-dashboard/internal/weather"
)

// Table is a titled grid of preformatted cells. CSV and PDF outputs of the
// same table carry the same columns.
type Table struct {
	Title    string
	Filename string
	Headers  []string
	Rows     [][]string
}

func fixed(v float64, places int) string {
	return strconv.FormatFloat(v, 'f', places, 64)
}

// PressureSummaryTable is the barometer summary table.
func PressureSummaryTable(items []weather.PressureSummary) Table {
	t := Table{
		Title:    "Barometer summary",
		Filename: "barometer_summary",
		Headers:  []string{"Date", "Min Pressure (hPa)", "Max Pressure (hPa)", "Avg Pressure (hPa)"},
		Rows:     make([][]string, 0, len(items)),
	}
	for _, it := range items {
		t.Rows = append(t.Rows, []string{
			it.Date,
			fixed(it.MinPressure, weather.PressurePrecision),
			fixed(it.MaxPressure, weather.PressurePrecision),
			fixed(it.AvgPressure, weather.PressurePrecision),
		})
	}
	return t
}

// RawPressureTable lists barometer samples. Missing pressures print as N/A.
func RawPressureTable(items []weather.PressureReading) Table {
	t := Table{
		Title:    "Barometer raw data",
		Filename: "barometer_raw_data",
		Headers:  []string{"Datetime", "Pressure (hPa)"},
		Rows:     make([][]string, 0, len(items)),
	}
	for _, it := range items {
		dt, p := "N/A", "N/A"
		if !it.Datetime.IsZero() {
			dt = it.Datetime.String()
		}
		if it.Pressure.Valid {
			p = fixed(it.Pressure.V, weather.PressurePrecision)
		}
		t.Rows = append(t.Rows, []string{dt, p})
	}
	return t
}

// WindSummaryTable is the SODAR summary table.
func WindSummaryTable(items []weather.WindSummary) Table {
	t := Table{
		Title:    "Wind summary",
		Filename: "sodar_summary",
		Headers:  []string{"Date", "Max Speed (m/s)", "Min Speed (m/s)", "Avg Speed (m/s)", "Avg Direction (°)"},
		Rows:     make([][]string, 0, len(items)),
	}
	for _, it := range items {
		t.Rows = append(t.Rows, []string{
			it.Date,
			fixed(it.MaxSpeed, weather.SpeedPrecision),
			fixed(it.MinSpeed, weather.SpeedPrecision),
			fixed(it.AvgSpeed, weather.SpeedPrecision),
			fixed(it.AvgDirection, weather.DirectionPrecision),
		})
	}
	return t
}
