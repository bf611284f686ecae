// Package barometer reads micro-barometer text files and stores their samples.
package barometer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/meteo-dashboard/internal/readings"
	"github.com/i474232898/meteo-dashboard/internal/weather"
)

// Sample is one line of a barometer file.
type Sample struct {
	Datetime time.Time
	Pressure float64
}

// Parse reads lines of "year month day hour minute second pressure",
// separated by whitespace or commas. Lines with an invalid datetime or
// pressure are skipped and counted.
func Parse(r io.Reader) (samples []Sample, skipped int, err error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == ';'
		})
		if len(fields) < 7 {
			skipped++
			continue
		}

		s, ok := parseFields(fields)
		if !ok {
			skipped++
			continue
		}
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, fmt.Errorf("scan barometer file: %w", err)
	}
	return samples, skipped, nil
}

func parseFields(fields []string) (Sample, bool) {
	var parts [6]int
	for i := range parts {
		// Some loggers write the time columns as floats ("12.0").
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil || f != float64(int(f)) {
			return Sample{}, false
		}
		parts[i] = int(f)
	}

	ts := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, time.UTC)
	// time.Date normalises out-of-range values; reject them instead.
	if ts.Year() != parts[0] || int(ts.Month()) != parts[1] || ts.Day() != parts[2] ||
		ts.Hour() != parts[3] || ts.Minute() != parts[4] || ts.Second() != parts[5] {
		return Sample{}, false
	}

	p, ok := readings.ParseValue(fields[6])
	if !ok {
		return Sample{}, false
	}
	return Sample{Datetime: ts, Pressure: p}, true
}

// ParseFile parses a single barometer file.
func ParseFile(path string) ([]Sample, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return Parse(f)
}

// TextFiles lists the .txt files of dir in name order.
func TextFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// ToReadings converts samples into the data API reading shape.
func ToReadings(samples []Sample) []weather.PressureReading {
	out := make([]weather.PressureReading, 0, len(samples))
	for _, s := range samples {
		out = append(out, weather.PressureReading{
			Datetime: weather.Timestamp{Time: s.Datetime},
			Pressure: weather.Some(s.Pressure),
		})
	}
	return out
}
