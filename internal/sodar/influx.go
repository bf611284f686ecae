package sodar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	influx "github.com/influxdata/influxdb/client/v2"

	"github.com/i474232898/meteo-dashboard/internal/config"
	"github.com/i474232898/meteo-dashboard/internal/weather"
)

// InfluxStore writes SODAR observations to InfluxDB and reads them back.
type InfluxStore struct {
	client      influx.Client
	database    string
	measurement string
}

// NewInfluxStore connects to the InfluxDB HTTP API described by cfg.
func NewInfluxStore(cfg config.InfluxConfig) (*InfluxStore, error) {
	if !cfg.Enabled() {
		return nil, errors.New("influx address is not configured")
	}
	c, err := influx.NewHTTPClient(influx.HTTPConfig{
		Addr:     cfg.Addr,
		Username: cfg.User,
		Password: cfg.Password,
		Timeout:  30 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return &InfluxStore{client: c, database: cfg.Database, measurement: cfg.Measurement}, nil
}

// Close releases the client.
func (s *InfluxStore) Close() error {
	return s.client.Close()
}

// Ping checks the server is reachable.
func (s *InfluxStore) Ping(timeout time.Duration) error {
	_, _, err := s.client.Ping(timeout)
	return err
}

// Points converts observations into a batch for the store's database.
func Points(database, measurement string, obs []Observation) (influx.BatchPoints, error) {
	bp, err := influx.NewBatchPoints(influx.BatchPointsConfig{
		Database:  database,
		Precision: "s",
	})
	if err != nil {
		return nil, err
	}
	for _, o := range obs {
		p, err := influx.NewPoint(measurement,
			map[string]string{
				"source":   "sodar",
				"height_m": strconv.Itoa(int(o.Height)),
			},
			map[string]interface{}{
				"speed":     o.Speed,
				"direction": o.Direction,
			},
			o.Time,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to build point for %s: %w", o.Time, err)
		}
		bp.AddPoint(p)
	}
	return bp, nil
}

// Write stores observations.
func (s *InfluxStore) Write(obs []Observation) error {
	bp, err := Points(s.database, s.measurement, obs)
	if err != nil {
		return err
	}
	return s.client.Write(bp)
}

// Day returns the readings of one UTC calendar day ordered by time.
func (s *InfluxStore) Day(ctx context.Context, day time.Time) ([]weather.SodarReading, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	return s.query(ctx, fmt.Sprintf(
		`SELECT "speed", "direction", "height_m" FROM %q WHERE time >= '%s' AND time < '%s'`,
		s.measurement, start.Format(time.RFC3339), end.Format(time.RFC3339)))
}

// All returns every stored reading.
func (s *InfluxStore) All(ctx context.Context) ([]weather.SodarReading, error) {
	return s.query(ctx, fmt.Sprintf(`SELECT "speed", "direction", "height_m" FROM %q`, s.measurement))
}

func (s *InfluxStore) query(ctx context.Context, command string) ([]weather.SodarReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := s.client.Query(influx.NewQuery(command, s.database, ""))
	if err != nil {
		return nil, fmt.Errorf("influx query: %w", err)
	}
	if err := resp.Error(); err != nil {
		return nil, fmt.Errorf("influx query: %w", err)
	}

	var out []weather.SodarReading
	for _, result := range resp.Results {
		for _, row := range result.Series {
			idx := make(map[string]int, len(row.Columns))
			for i, c := range row.Columns {
				idx[c] = i
			}
			for _, values := range row.Values {
				r, ok := decodeRow(idx, values)
				if ok {
					out = append(out, r)
				}
			}
		}
	}
	return out, nil
}

func decodeRow(idx map[string]int, values []interface{}) (weather.SodarReading, bool) {
	get := func(name string) interface{} {
		i, ok := idx[name]
		if !ok || i >= len(values) {
			return nil
		}
		return values[i]
	}

	ts, ok := get("time").(string)
	if !ok {
		return weather.SodarReading{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return weather.SodarReading{}, false
	}
	height, ok := toFloat(get("height_m"))
	if !ok {
		return weather.SodarReading{}, false
	}

	r := weather.SodarReading{Time: weather.Timestamp{Time: t.UTC()}, Height: height}
	if v, ok := toFloat(get("speed")); ok {
		r.Speed = weather.Some(v)
	}
	if v, ok := toFloat(get("direction")); ok {
		r.Direction = weather.Some(v)
	}
	return r, true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
