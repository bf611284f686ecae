package weather

import (
	"context"
	"time"
)

// Source abstracts the remote data API the dashboard reads from.
type Source interface {
	// PressureReadings returns barometer samples for date (YYYY-MM-DD), or
	// every sample when date is empty.
	PressureReadings(ctx context.Context, date string) ([]PressureReading, error)
	PressureSummaries(ctx context.Context) ([]PressureSummary, error)
	SodarReadings(ctx context.Context, date string) ([]SodarReading, error)
	WindSummaries(ctx context.Context) ([]WindSummary, error)
	SodarPlot(ctx context.Context, date string) (Plot, error)
}

// Snapshot keys.
const (
	PressureSummaryKey = "pressure-summary"
	WindSummaryKey     = "wind-summary"
)

// Snapshot is an immutable copy of one summary fetch. Seq orders snapshots
// by the time their request was issued, not by when the response arrived.
type Snapshot struct {
	Key       string
	Seq       uint64
	FetchedAt time.Time
	Pressure  []PressureSummary
	Wind      []WindSummary
}

// Store is the contract the in-memory snapshot store satisfies.
type Store interface {
	// Save stores s unless a snapshot with a higher Seq is already present
	// for the same key. It reports whether s was kept.
	Save(s Snapshot) bool
	Latest(key string) (Snapshot, error)
	History(key string, from, to time.Time) ([]Snapshot, error)
}
