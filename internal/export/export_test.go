package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/meteo-dashboard/internal/weather"
)

func TestWriteCSVPressureSummary(t *testing.T) {
	table := PressureSummaryTable([]weather.PressureSummary{
		{Date: "2025-01-04", MinPressure: 1010, MaxPressure: 1015, AvgPressure: 1012.333},
	})

	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Date,Min Pressure (hPa),Max Pressure (hPa),Avg Pressure (hPa)\n" +
		"2025-01-04,1010.00,1015.00,1012.33\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}

func TestRawPressureTableMissingValues(t *testing.T) {
	table := RawPressureTable([]weather.PressureReading{
		{Datetime: weather.Timestamp{Time: time.Date(2025, 1, 4, 0, 1, 0, 0, time.UTC)}},
	})
	if got := table.Rows[0]; got[0] != "2025-01-04T00:01:00" || got[1] != "N/A" {
		t.Fatalf("unexpected row %v", got)
	}
}

func TestWindSummaryTablePrecision(t *testing.T) {
	table := WindSummaryTable([]weather.WindSummary{
		{Date: "2025-04-17", MaxSpeed: 7.458, MinSpeed: 0.5, AvgSpeed: 3, AvgDirection: 187.26},
	})
	want := []string{"2025-04-17", "7.46", "0.50", "3.00", "187.3"}
	for i, cell := range table.Rows[0] {
		if cell != want[i] {
			t.Fatalf("column %d: expected %q, got %q", i, want[i], cell)
		}
	}
}

func TestWritePDF(t *testing.T) {
	rows := make([]weather.WindSummary, 120)
	for i := range rows {
		rows[i] = weather.WindSummary{Date: "2025-04-17", MaxSpeed: 5, MinSpeed: 1, AvgSpeed: 3, AvgDirection: 180}
	}

	var buf bytes.Buffer
	if err := WritePDF(&buf, WindSummaryTable(rows)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "%PDF-") {
		t.Fatalf("output is not a pdf: %q", buf.String()[:16])
	}
}

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestPressureChart(t *testing.T) {
	base := time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC)
	var samples []weather.PressureReading
	for i := 0; i < 60; i++ {
		samples = append(samples, weather.PressureReading{
			Datetime: weather.Timestamp{Time: base.Add(time.Duration(i) * time.Minute)},
			Pressure: weather.Some(1010 + float64(i%7)),
		})
	}

	var buf bytes.Buffer
	if err := PressureChart(&buf, "2025-01-04", samples); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Fatal("output is not a png")
	}

	if err := PressureChart(&buf, "2025-01-04", samples[:1]); !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("expected ErrTooFewPoints, got %v", err)
	}
}

func TestSpeedHeightChart(t *testing.T) {
	profile := []weather.HeightProfile{{Height: 30, AvgSpeed: 2.1}, {Height: 60, AvgSpeed: 3.4}, {Height: 90, AvgSpeed: 5.2}}

	var buf bytes.Buffer
	if err := SpeedHeightChart(&buf, "2025-04-17", profile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Fatal("output is not a png")
	}
}

func TestSpeedHeightChartCalmDay(t *testing.T) {
	for _, profile := range [][]weather.HeightProfile{
		{{Height: 30, AvgSpeed: 0}, {Height: 60, AvgSpeed: 0}},
		{{Height: 30, AvgSpeed: 1.4}},
	} {
		var buf bytes.Buffer
		if err := SpeedHeightChart(&buf, "2025-01-04", profile); err != nil {
			t.Fatalf("unexpected error for %+v: %v", profile, err)
		}
		if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
			t.Fatal("output is not a png")
		}
	}

	if err := SpeedHeightChart(&bytes.Buffer{}, "2025-01-04", nil); !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("expected ErrTooFewPoints, got %v", err)
	}
}
