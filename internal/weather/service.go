package weather

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/i474232898/meteo-dashboard/internal/readings"
)

// Service runs every dashboard view as one fetch followed by the shared
// readings pipeline. Summary fetches are kept as immutable snapshots.
type Service struct {
	store    Store
	source   Source
	logger   *slog.Logger
	pageSize int

	// snapshotTTL is how long a stored summary snapshot may answer a
	// request before the data API is asked again. Zero always refetches.
	snapshotTTL time.Duration

	seq atomic.Uint64
	now func() time.Time
}

// Options tune a Service.
type Options struct {
	PageSize    int
	SnapshotTTL time.Duration
	Logger      *slog.Logger
}

// NewService creates a new Service.
func NewService(store Store, source Source, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = readings.DefaultPageSize
	}
	return &Service{
		store:       store,
		source:      source,
		logger:      logger,
		pageSize:    pageSize,
		snapshotTTL: opts.SnapshotTTL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

const maxHeatmapSpan = 731 * 24 * time.Hour

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func parseDay(date string) (time.Time, error) {
	t, err := time.Parse(readings.DayLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidQuery, date)
	}
	return t, nil
}

// PressureDay returns the barometer samples of one day with the day summary
// and hourly averages.
func (s *Service) PressureDay(ctx context.Context, date string) (PressureDay, error) {
	if _, err := parseDay(date); err != nil {
		return PressureDay{}, err
	}

	raw, err := s.source.PressureReadings(ctx, date)
	if err != nil {
		s.logger.Warn("pressure readings fetch failed", "date", date, "error", err)
		return PressureDay{}, unavailable(err)
	}

	// Older data API versions ignore the date parameter.
	var day []PressureReading
	for _, r := range raw {
		if r.Pressure.Valid && r.Datetime.Format(readings.DayLayout) == date {
			day = append(day, r)
		}
	}
	if len(day) == 0 {
		return PressureDay{}, ErrNoData
	}

	rs := PressureAsReadings(day)
	summary := readings.Pipeline{Key: readings.ByDay, Precision: dayAveragePrecision}.Run(rs, 1).Entries[0]
	hourly := readings.Pipeline{Key: readings.ByHour, Precision: PressurePrecision}.Run(rs, 1).Entries

	return PressureDay{
		Date:     date,
		Readings: day,
		Summary: PressureSummary{
			Date:        date,
			MinPressure: summary.Min,
			MaxPressure: summary.Max,
			AvgPressure: summary.Avg,
		},
		Hourly: hourly,
	}, nil
}

// PressureRaw returns every barometer sample with from <= datetime <= to.
// A zero bound is open.
func (s *Service) PressureRaw(ctx context.Context, from, to time.Time) ([]PressureReading, error) {
	raw, err := s.source.PressureReadings(ctx, "")
	if err != nil {
		s.logger.Warn("raw pressure fetch failed", "error", err)
		return nil, unavailable(err)
	}

	out := make([]PressureReading, 0, len(raw))
	for _, r := range raw {
		if r.Datetime.IsZero() {
			continue
		}
		if !from.IsZero() && r.Datetime.Before(from) {
			continue
		}
		if !to.IsZero() && r.Datetime.After(to) {
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	return readings.SortByKey(out, func(r PressureReading) string { return r.Datetime.String() }), nil
}

// RefreshPressureSummaries fetches the per-day pressure summaries and stores
// them as a new snapshot.
func (s *Service) RefreshPressureSummaries(ctx context.Context) (Snapshot, error) {
	seq := s.seq.Add(1)
	data, err := s.source.PressureSummaries(ctx)
	if err != nil {
		s.logger.Warn("pressure summary fetch failed", "error", err)
		return Snapshot{}, unavailable(err)
	}

	clean := make([]PressureSummary, 0, len(data))
	for _, d := range data {
		if !readings.Valid(d.MinPressure) || !readings.Valid(d.MaxPressure) || !readings.Valid(d.AvgPressure) {
			continue
		}
		d.MinPressure = readings.Round(d.MinPressure, PressurePrecision)
		d.MaxPressure = readings.Round(d.MaxPressure, PressurePrecision)
		d.AvgPressure = readings.Round(d.AvgPressure, PressurePrecision)
		if !ordered(d.MinPressure, d.AvgPressure, d.MaxPressure) {
			continue
		}
		clean = append(clean, d)
	}

	snap := Snapshot{Key: PressureSummaryKey, Seq: seq, FetchedAt: s.now(), Pressure: clean}
	if !s.store.Save(snap) {
		s.logger.Debug("stale pressure summary discarded", "seq", seq)
	}
	return snap, nil
}

// RefreshWindSummaries fetches the per-day SODAR summaries and stores them
// as a new snapshot.
func (s *Service) RefreshWindSummaries(ctx context.Context) (Snapshot, error) {
	seq := s.seq.Add(1)
	data, err := s.source.WindSummaries(ctx)
	if err != nil {
		s.logger.Warn("wind summary fetch failed", "error", err)
		return Snapshot{}, unavailable(err)
	}

	clean := make([]WindSummary, 0, len(data))
	for _, d := range data {
		if !readings.Valid(d.MinSpeed) || !readings.Valid(d.MaxSpeed) || !readings.Valid(d.AvgSpeed) {
			continue
		}
		d.MinSpeed = readings.Round(d.MinSpeed, SpeedPrecision)
		d.MaxSpeed = readings.Round(d.MaxSpeed, SpeedPrecision)
		d.AvgSpeed = readings.Round(d.AvgSpeed, SpeedPrecision)
		if !ordered(d.MinSpeed, d.AvgSpeed, d.MaxSpeed) {
			continue
		}
		if readings.Valid(d.AvgDirection) {
			d.AvgDirection = readings.Round(d.AvgDirection, DirectionPrecision)
		} else {
			d.AvgDirection = 0
		}
		clean = append(clean, d)
	}

	snap := Snapshot{Key: WindSummaryKey, Seq: seq, FetchedAt: s.now(), Wind: clean}
	if !s.store.Save(snap) {
		s.logger.Debug("stale wind summary discarded", "seq", seq)
	}
	return snap, nil
}

// summarySnapshot serves a fresh enough stored snapshot or refreshes it.
func (s *Service) summarySnapshot(ctx context.Context, key string, refresh func(context.Context) (Snapshot, error)) (Snapshot, error) {
	if s.snapshotTTL > 0 {
		if snap, err := s.store.Latest(key); err == nil && s.now().Sub(snap.FetchedAt) < s.snapshotTTL {
			return snap, nil
		}
	}
	return refresh(ctx)
}

// ordered reports whether min <= avg <= max. Upstream rows breaking it are
// dropped.
func ordered(lo, avg, hi float64) bool {
	return lo <= avg && avg <= hi
}

// summaryWindow filters, sorts and pages a summary table.
func summaryWindow[T any](items []T, date func(T) string, q SummaryQuery, pageSize int) (readings.Result[T], error) {
	if q.PageSize > 0 {
		pageSize = q.PageSize
	}
	w := readings.Window[T]{Key: date, Range: q.Range(), PageSize: pageSize}
	if q.Month != 0 {
		w.Keep = func(it T) bool { return inMonth(date(it), q.Month) }
	}
	res := w.Apply(items, q.Page)
	if len(res.Entries) == 0 {
		return res, ErrNoData
	}
	return res, nil
}

func (s *Service) pressureWindow(ctx context.Context, q SummaryQuery) (readings.Result[PressureSummary], error) {
	snap, err := s.summarySnapshot(ctx, PressureSummaryKey, s.RefreshPressureSummaries)
	if err != nil {
		return readings.Result[PressureSummary]{}, err
	}
	return summaryWindow(snap.Pressure, pressureDate, q, s.pageSize)
}

// PressureSummaries returns every per-day pressure summary matching q, sorted
// by date. Pagination fields of q are ignored.
func (s *Service) PressureSummaries(ctx context.Context, q SummaryQuery) ([]PressureSummary, error) {
	res, err := s.pressureWindow(ctx, q)
	return res.Entries, err
}

// PressureSummary returns one page of the pressure summary table.
func (s *Service) PressureSummary(ctx context.Context, q SummaryQuery) (readings.Page[PressureSummary], error) {
	res, err := s.pressureWindow(ctx, q)
	return res.Page, err
}

// PressureHeatmap returns one cell per day in [from, to]. Empty bounds
// default to the first and last day with data.
func (s *Service) PressureHeatmap(ctx context.Context, from, to string) ([]HeatmapCell, error) {
	all, err := s.PressureSummaries(ctx, SummaryQuery{})
	if err != nil {
		return nil, err
	}
	if from == "" {
		from = all[0].Date
	}
	if to == "" {
		to = all[len(all)-1].Date
	}

	start, err := parseDay(from)
	if err != nil {
		return nil, err
	}
	end, err := parseDay(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: from must not be after to", ErrInvalidQuery)
	}
	if end.Sub(start) > maxHeatmapSpan {
		return nil, fmt.Errorf("%w: heatmap spans at most %d days", ErrInvalidQuery, int(maxHeatmapSpan.Hours()/24))
	}
	return Heatmap(all, start, end), nil
}

func (s *Service) windWindow(ctx context.Context, q SummaryQuery) (readings.Result[WindSummary], error) {
	snap, err := s.summarySnapshot(ctx, WindSummaryKey, s.RefreshWindSummaries)
	if err != nil {
		return readings.Result[WindSummary]{}, err
	}
	return summaryWindow(snap.Wind, windDate, q, s.pageSize)
}

// WindSummaries returns every per-day wind summary matching q, sorted by date.
func (s *Service) WindSummaries(ctx context.Context, q SummaryQuery) ([]WindSummary, error) {
	res, err := s.windWindow(ctx, q)
	return res.Entries, err
}

// WindSummary returns one page of the wind summary table.
func (s *Service) WindSummary(ctx context.Context, q SummaryQuery) (readings.Page[WindSummary], error) {
	res, err := s.windWindow(ctx, q)
	return res.Page, err
}

// WindDay returns the SODAR views of one day: speed and direction over time,
// the speed profile by height and the wind vectors.
func (s *Service) WindDay(ctx context.Context, date string) (WindDay, error) {
	if _, err := parseDay(date); err != nil {
		return WindDay{}, err
	}

	raw, err := s.source.SodarReadings(ctx, date)
	if err != nil {
		s.logger.Warn("sodar readings fetch failed", "date", date, "error", err)
		return WindDay{}, unavailable(err)
	}

	var day []SodarReading
	for _, r := range raw {
		if !r.Time.IsZero() && r.Time.Format(readings.DayLayout) == date {
			day = append(day, r)
		}
	}

	profile := SpeedByHeight(day)
	out := WindDay{
		Date:      date,
		Speed:     SpeedByTime(day),
		Direction: DirectionByTime(day),
		Profile:   profile,
		Vectors:   Vectors(date, profile),
	}
	if len(out.Speed) == 0 && len(out.Direction) == 0 {
		return WindDay{}, ErrNoData
	}
	return out, nil
}

// SodarPlot returns the data API's rendered SODAR plot for date.
func (s *Service) SodarPlot(ctx context.Context, date string) (Plot, error) {
	if _, err := parseDay(date); err != nil {
		return Plot{}, err
	}
	plot, err := s.source.SodarPlot(ctx, date)
	if err != nil {
		s.logger.Warn("sodar plot fetch failed", "date", date, "error", err)
		return Plot{}, unavailable(err)
	}
	if len(plot.Data) == 0 {
		return Plot{}, ErrNoData
	}
	return plot, nil
}

func pressureDate(p PressureSummary) string { return p.Date }
func windDate(w WindSummary) string         { return w.Date }

// SnapshotHistory returns the stored summary snapshots of key fetched within
// [from, to].
func (s *Service) SnapshotHistory(key string, from, to time.Time) ([]Snapshot, error) {
	return s.store.History(key, from, to)
}
