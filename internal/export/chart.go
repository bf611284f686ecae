package export

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/i474232898/meteo-dashboard/internal/weather"
)

// ErrTooFewPoints is returned when a series cannot span a chart axis.
var ErrTooFewPoints = errors.New("not enough points to draw a chart")

// PressureChart draws barometer samples of one day as a PNG line chart.
func PressureChart(w io.Writer, date string, samples []weather.PressureReading) error {
	var (
		xs []time.Time
		ys []float64
	)
	for _, s := range samples {
		if !s.Pressure.Valid || s.Datetime.IsZero() {
			continue
		}
		xs = append(xs, s.Datetime.Time)
		ys = append(ys, s.Pressure.V)
	}
	if len(xs) < 2 {
		return ErrTooFewPoints
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Pressure on %s", date),
		Width:  1024,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:           "Time (UTC)",
			ValueFormatter: chart.TimeMinuteValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "hPa",
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Pressure (hPa)",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: drawing.ColorRed,
					StrokeWidth: 1.5,
				},
			},
		},
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render pressure chart: %w", err)
	}
	return nil
}

// SpeedHeightChart draws the average wind speed per height as a PNG bar chart.
func SpeedHeightChart(w io.Writer, date string, profile []weather.HeightProfile) error {
	if len(profile) == 0 {
		return ErrTooFewPoints
	}

	top := 0.0
	bars := make([]chart.Value, 0, len(profile))
	for _, p := range profile {
		top = max(top, p.AvgSpeed)
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%gm", p.Height),
			Value: p.AvgSpeed,
			Style: chart.Style{
				FillColor:   drawing.ColorRed.WithAlpha(153),
				StrokeColor: drawing.ColorRed,
				StrokeWidth: 1,
			},
		})
	}

	graph := chart.BarChart{
		Title:  fmt.Sprintf("Average wind speed by height on %s", date),
		Width:  max(1024, 40*len(bars)+120),
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		// A calm day has every bar at zero; the axis still needs a span.
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: max(top, 1)},
		},
		BarWidth: 24,
		Bars:     bars,
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render speed chart: %w", err)
	}
	return nil
}
