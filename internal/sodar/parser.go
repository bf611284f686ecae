// Package sodar downloads and parses SODAR wind profile files and keeps the
// observations in InfluxDB.
package sodar

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/meteo-dashboard/internal/readings"
)

// HeaderLine is the 0-based line holding the column names. Everything
// before it is instrument preamble.
const HeaderLine = 12

const timeLayout = "2006-01-02 15:04:05"

// Observation is one valid row of a SODAR file.
type Observation struct {
	Time      time.Time
	Height    float64
	Speed     float64
	Direction float64
}

// Result is a parsed SODAR file.
type Result struct {
	Observations []Observation
	Skipped      int
}

// Parse reads a SODAR file. Rows where speed or direction holds a sentinel
// ("*") or the time cannot be parsed are skipped. day is used when the time
// column only holds a time of day.
func Parse(r io.Reader, day time.Time) (Result, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		res    Result
		cols   map[string]int
		lineNo int
	)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case lineNo < HeaderLine:
		case lineNo == HeaderLine:
			cols = columnIndex(splitRow(line))
			for _, name := range []string{"time", "z", "speed", "dir"} {
				if _, ok := cols[name]; !ok {
					return Result{}, fmt.Errorf("sodar header is missing column %q", name)
				}
			}
		default:
			if strings.TrimSpace(line) == "" {
				break
			}
			obs, ok := parseRow(splitRow(line), cols, day)
			if !ok {
				res.Skipped++
				break
			}
			res.Observations = append(res.Observations, obs)
		}
		lineNo++
	}
	if err := sc.Err(); err != nil {
		return Result{}, fmt.Errorf("scan sodar file: %w", err)
	}
	if cols == nil {
		return Result{}, fmt.Errorf("sodar file has no header on line %d", HeaderLine+1)
	}
	return res, nil
}

// splitRow splits on tabs when present and on any whitespace otherwise. A
// full "date time" value in a tab-separated file stays one field.
func splitRow(line string) []string {
	if strings.Contains(line, "\t") {
		fields := strings.Split(line, "\t")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		return fields
	}
	return strings.Fields(line)
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func parseRow(row []string, cols map[string]int, day time.Time) (Observation, bool) {
	ts, ok := parseTime(field(row, cols, "time"), field(row, cols, "date"), day)
	if !ok {
		return Observation{}, false
	}
	z, err := strconv.ParseFloat(field(row, cols, "z"), 64)
	if err != nil {
		return Observation{}, false
	}
	speed, ok := readings.ParseValue(field(row, cols, "speed"))
	if !ok {
		return Observation{}, false
	}
	dir, ok := readings.ParseValue(field(row, cols, "dir"))
	if !ok {
		return Observation{}, false
	}
	return Observation{Time: ts, Height: z, Speed: speed, Direction: dir}, true
}

func parseTime(value, date string, day time.Time) (time.Time, bool) {
	if ts, err := time.ParseInLocation(timeLayout, value, time.UTC); err == nil {
		return ts, true
	}
	clock, err := time.ParseInLocation("15:04:05", value, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	base := day
	if date != "" {
		if d, err := time.ParseInLocation(readings.DayLayout, date, time.UTC); err == nil {
			base = d
		}
	}
	if base.IsZero() {
		return time.Time{}, false
	}
	return time.Date(base.Year(), base.Month(), base.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC), true
}

// FileName is the yymmdd name the SODAR host publishes a day under.
func FileName(day time.Time) string {
	return day.Format("060102")
}
