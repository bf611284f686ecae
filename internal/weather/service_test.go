package weather

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeSource struct {
	pressure  []PressureReading
	summaries []PressureSummary
	sodar     []SodarReading
	wind      []WindSummary
	err       error
	calls     int
}

func (f *fakeSource) PressureReadings(context.Context, string) ([]PressureReading, error) {
	f.calls++
	return f.pressure, f.err
}

func (f *fakeSource) PressureSummaries(context.Context) ([]PressureSummary, error) {
	f.calls++
	return f.summaries, f.err
}

func (f *fakeSource) SodarReadings(context.Context, string) ([]SodarReading, error) {
	f.calls++
	return f.sodar, f.err
}

func (f *fakeSource) WindSummaries(context.Context) ([]WindSummary, error) {
	f.calls++
	return f.wind, f.err
}

func (f *fakeSource) SodarPlot(context.Context, string) (Plot, error) {
	f.calls++
	return Plot{}, f.err
}

type fakeStore struct {
	latest map[string]Snapshot
}

func (s *fakeStore) Save(snap Snapshot) bool {
	if s.latest == nil {
		s.latest = map[string]Snapshot{}
	}
	if cur, ok := s.latest[snap.Key]; ok && cur.Seq > snap.Seq {
		return false
	}
	s.latest[snap.Key] = snap
	return true
}

func (s *fakeStore) Latest(key string) (Snapshot, error) {
	snap, ok := s.latest[key]
	if !ok {
		return Snapshot{}, errors.New("not found")
	}
	return snap, nil
}

func (s *fakeStore) History(key string, _, _ time.Time) ([]Snapshot, error) {
	snap, err := s.Latest(key)
	if err != nil {
		return nil, err
	}
	return []Snapshot{snap}, nil
}

func ts(s string) Timestamp {
	t, err := ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return Timestamp{t}
}

func TestPressureDay(t *testing.T) {
	src := &fakeSource{pressure: []PressureReading{
		{Datetime: ts("2025-01-04 00:10:00"), Pressure: Some(1012)},
		{Datetime: ts("2025-01-04 00:40:00"), Pressure: Some(1015)},
		{Datetime: ts("2025-01-04 01:10:00"), Pressure: Some(1010)},
		{Datetime: ts("2025-01-04 01:20:00"), Pressure: Value{}},
		{Datetime: ts("2025-01-05 00:00:00"), Pressure: Some(990)},
	}}
	svc := NewService(&fakeStore{}, src, Options{})

	day, err := svc.PressureDay(context.Background(), "2025-01-04")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(day.Readings) != 3 {
		t.Fatalf("expected 3 readings of the day, got %d", len(day.Readings))
	}
	want := PressureSummary{Date: "2025-01-04", MinPressure: 1010, MaxPressure: 1015, AvgPressure: 1012.3333}
	if day.Summary != want {
		t.Fatalf("expected %+v, got %+v", want, day.Summary)
	}
	if len(day.Hourly) != 2 || day.Hourly[0].Date != "00:00" || day.Hourly[0].Avg != 1013.5 {
		t.Fatalf("unexpected hourly %+v", day.Hourly)
	}
}

func TestPressureDayNoData(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeSource{}, Options{})
	if _, err := svc.PressureDay(context.Background(), "2025-01-04"); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestPressureDayInvalidDate(t *testing.T) {
	src := &fakeSource{}
	svc := NewService(&fakeStore{}, src, Options{})
	if _, err := svc.PressureDay(context.Background(), "04.01.2025"); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if src.calls != 0 {
		t.Fatal("invalid input must not reach the data api")
	}
}

func TestUpstreamFailureIsUnavailable(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	svc := NewService(&fakeStore{}, src, Options{})

	_, err := svc.PressureSummary(context.Background(), SummaryQuery{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("expected no retry, got %d calls", src.calls)
	}
}

func TestPressureSummaryMonthFilterAndPaging(t *testing.T) {
	src := &fakeSource{summaries: []PressureSummary{
		{Date: "2025-02-02", MinPressure: 1000, MaxPressure: 1010, AvgPressure: 1005.123},
		{Date: "2025-01-03", MinPressure: 1001, MaxPressure: 1011, AvgPressure: 1006},
		{Date: "2025-01-01", MinPressure: 1002, MaxPressure: 1012, AvgPressure: 1007},
		{Date: "2025-01-02", MinPressure: 1003, MaxPressure: 1013, AvgPressure: 1008},
	}}
	svc := NewService(&fakeStore{}, src, Options{PageSize: 2})

	page, err := svc.PressureSummary(context.Background(), SummaryQuery{Month: 1, Page: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.TotalItems != 3 || page.TotalPages != 2 {
		t.Fatalf("unexpected page header %+v", page)
	}
	if len(page.Items) != 1 || page.Items[0].Date != "2025-01-03" {
		t.Fatalf("unexpected items %+v", page.Items)
	}

	all, err := svc.PressureSummaries(context.Background(), SummaryQuery{From: "2025-01-02", To: "2025-02-28"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 || all[2].AvgPressure != 1005.12 {
		t.Fatalf("unexpected range result %+v", all)
	}
}

func TestSummarySnapshotTTL(t *testing.T) {
	src := &fakeSource{wind: []WindSummary{{Date: "2025-04-17", MaxSpeed: 5, MinSpeed: 1, AvgSpeed: 2, AvgDirection: 90}}}
	svc := NewService(&fakeStore{}, src, Options{SnapshotTTL: time.Minute})
	now := time.Date(2025, 4, 17, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if _, err := svc.WindSummary(context.Background(), SummaryQuery{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if src.calls != 1 {
		t.Fatalf("expected one fetch within ttl, got %d", src.calls)
	}

	now = now.Add(2 * time.Minute)
	if _, err := svc.WindSummary(context.Background(), SummaryQuery{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("expected refetch after ttl, got %d", src.calls)
	}
}

func TestWindDay(t *testing.T) {
	src := &fakeSource{sodar: []SodarReading{
		{Time: ts("2025-04-17 00:10:00"), Height: 30, Speed: Some(2), Direction: Some(170)},
		{Time: ts("2025-04-17 00:10:00"), Height: 100, Speed: Some(4), Direction: Some(190)},
		{Time: ts("2025-04-17 00:20:00"), Height: 30, Speed: Value{}, Direction: Some(350)},
		{Time: ts("2025-04-17 00:20:00"), Height: 250, Speed: Value{}, Direction: Value{}},
	}}
	svc := NewService(&fakeStore{}, src, Options{})

	day, err := svc.WindDay(context.Background(), "2025-04-17")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(day.Speed) != 1 || day.Speed[0].Value != 3 {
		t.Fatalf("unexpected speed series %+v", day.Speed)
	}
	if len(day.Direction) != 2 || day.Direction[0].Label != "180.0° S" || day.Direction[1].Label != "350.0° N" {
		t.Fatalf("unexpected direction series %+v", day.Direction)
	}
	if len(day.Profile) != 2 || day.Profile[0].Height != 30 || day.Profile[1].Height != 100 {
		t.Fatalf("height without valid speed must be excluded: %+v", day.Profile)
	}
	if len(day.Vectors) != 2 || day.Vectors[1].Date != "2025-04-17" {
		t.Fatalf("unexpected vectors %+v", day.Vectors)
	}
}

func TestPressureHeatmapFillsGaps(t *testing.T) {
	src := &fakeSource{summaries: []PressureSummary{
		{Date: "2025-01-01", MinPressure: 1, MaxPressure: 3, AvgPressure: 2},
		{Date: "2025-01-03", MinPressure: 1, MaxPressure: 5, AvgPressure: 4},
	}}
	svc := NewService(&fakeStore{}, src, Options{})

	cells, err := svc.PressureHeatmap(context.Background(), "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cells) != 3 || cells[1].Date != "2025-01-02" || cells[1].Value != 0 || cells[2].Value != 4 {
		t.Fatalf("unexpected cells %+v", cells)
	}

	if _, err := svc.PressureHeatmap(context.Background(), "2025-01-03", "2025-01-01"); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery for reversed range, got %v", err)
	}
}

func TestSummarizeWind(t *testing.T) {
	got := SummarizeWind([]SodarReading{
		{Time: ts("2025-04-17 00:10:00"), Height: 30, Speed: Some(2), Direction: Some(100)},
		{Time: ts("2025-04-17 00:20:00"), Height: 30, Speed: Some(5), Direction: Some(200)},
		{Time: ts("2025-04-18 00:10:00"), Height: 30, Speed: Value{}, Direction: Some(10)},
	})
	if len(got) != 1 {
		t.Fatalf("day without valid speed must be excluded: %+v", got)
	}
	want := WindSummary{Date: "2025-04-17", MaxSpeed: 5, MinSpeed: 2, AvgSpeed: 3.5, AvgDirection: 150}
	if got[0] != want {
		t.Fatalf("expected %+v, got %+v", want, got[0])
	}
}

func TestCompassLabel(t *testing.T) {
	tests := map[float64]string{
		0:     "0.0° N",
		22.5:  "22.5° NE",
		90:    "90.0° E",
		135:   "135.0° SE",
		247.5: "247.5° W",
		300:   "300.0° NW",
		359.9: "359.9° N",
	}
	for deg, want := range tests {
		if got := CompassLabel(deg); got != want {
			t.Errorf("CompassLabel(%v) = %q, want %q", deg, got, want)
		}
	}
}

func TestSummaryRangeFilterIsInclusive(t *testing.T) {
	src := &fakeSource{
		summaries: []PressureSummary{
			{Date: "2025-01-04", MinPressure: 1, MaxPressure: 3, AvgPressure: 2},
			{Date: "2025-01-01", MinPressure: 1, MaxPressure: 3, AvgPressure: 2},
			{Date: "2025-01-03", MinPressure: 1, MaxPressure: 3, AvgPressure: 2},
			{Date: "2025-01-02", MinPressure: 1, MaxPressure: 3, AvgPressure: 2},
		},
		wind: []WindSummary{
			{Date: "2025-04-18", MaxSpeed: 5, MinSpeed: 1, AvgSpeed: 2},
			{Date: "2025-04-16", MaxSpeed: 5, MinSpeed: 1, AvgSpeed: 2},
			{Date: "2025-04-17", MaxSpeed: 5, MinSpeed: 1, AvgSpeed: 2},
		},
	}
	svc := NewService(&fakeStore{}, src, Options{})

	pressure, err := svc.PressureSummaries(context.Background(), SummaryQuery{From: "2025-01-02", To: "2025-01-03"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pressure) != 2 || pressure[0].Date != "2025-01-02" || pressure[1].Date != "2025-01-03" {
		t.Fatalf("unexpected pressure range %+v", pressure)
	}

	wind, err := svc.WindSummaries(context.Background(), SummaryQuery{From: "2025-04-17"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(wind) != 2 || wind[0].Date != "2025-04-17" || wind[1].Date != "2025-04-18" {
		t.Fatalf("unexpected wind range %+v", wind)
	}

	if _, err := svc.WindSummaries(context.Background(), SummaryQuery{From: "2025-05-01", To: "2025-05-31"}); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData for empty range, got %v", err)
	}
}

func TestSummaryRowsBreakingOrderAreDropped(t *testing.T) {
	src := &fakeSource{
		summaries: []PressureSummary{
			{Date: "2025-01-01", MinPressure: 1000, MaxPressure: 1010, AvgPressure: 1005},
			{Date: "2025-01-02", MinPressure: 1010, MaxPressure: 1000, AvgPressure: 1005},
			{Date: "2025-01-03", MinPressure: 1000, MaxPressure: 1010, AvgPressure: 1020},
		},
		wind: []WindSummary{
			{Date: "2025-04-17", MaxSpeed: 5, MinSpeed: 1, AvgSpeed: 2},
			{Date: "2025-04-18", MaxSpeed: 1, MinSpeed: 5, AvgSpeed: 2},
		},
	}
	svc := NewService(&fakeStore{}, src, Options{})

	pressure, err := svc.PressureSummaries(context.Background(), SummaryQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pressure) != 1 || pressure[0].Date != "2025-01-01" {
		t.Fatalf("expected only the consistent row, got %+v", pressure)
	}

	wind, err := svc.WindSummaries(context.Background(), SummaryQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(wind) != 1 || wind[0].Date != "2025-04-17" {
		t.Fatalf("expected only the consistent row, got %+v", wind)
	}
}

// slowFirstSource answers its first summary request only after release is
// closed, with data older than every later answer.
type slowFirstSource struct {
	fakeSource
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (s *slowFirstSource) PressureSummaries(context.Context) ([]PressureSummary, error) {
	if s.calls.Add(1) == 1 {
		close(s.started)
		<-s.release
		return []PressureSummary{{Date: "2025-01-01", MinPressure: 1, MaxPressure: 3, AvgPressure: 2}}, nil
	}
	return []PressureSummary{
		{Date: "2025-01-01", MinPressure: 1, MaxPressure: 3, AvgPressure: 2},
		{Date: "2025-01-02", MinPressure: 1, MaxPressure: 3, AvgPressure: 2},
	}, nil
}

func TestLateStaleRefreshKeepsNewerSnapshot(t *testing.T) {
	src := &slowFirstSource{started: make(chan struct{}), release: make(chan struct{})}
	st := &fakeStore{}
	svc := NewService(st, src, Options{SnapshotTTL: time.Hour})

	done := make(chan Snapshot)
	go func() {
		snap, _ := svc.RefreshPressureSummaries(context.Background())
		done <- snap
	}()
	<-src.started

	newer, err := svc.RefreshPressureSummaries(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	close(src.release)
	stale := <-done

	if stale.Seq >= newer.Seq {
		t.Fatalf("expected the slow request to hold the older sequence, got %d and %d", stale.Seq, newer.Seq)
	}
	latest, err := st.Latest(PressureSummaryKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.Seq != newer.Seq || len(latest.Pressure) != 2 {
		t.Fatalf("stale response replaced the newer snapshot: %+v", latest)
	}

	all, err := svc.PressureSummaries(context.Background(), SummaryQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected the newer table, got %+v", all)
	}
}
