package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/i474232898/meteo-dashboard/internal/weather"
)

type countingRefresher struct {
	pressure, wind atomic.Int32
	failWind       bool
}

func (c *countingRefresher) RefreshPressureSummaries(context.Context) (weather.Snapshot, error) {
	c.pressure.Add(1)
	return weather.Snapshot{Key: weather.PressureSummaryKey}, nil
}

func (c *countingRefresher) RefreshWindSummaries(context.Context) (weather.Snapshot, error) {
	c.wind.Add(1)
	if c.failWind {
		return weather.Snapshot{}, errors.New("boom")
	}
	return weather.Snapshot{Key: weather.WindSummaryKey}, nil
}

func TestRunOnceRefreshesBothSummaries(t *testing.T) {
	r := &countingRefresher{failWind: true}
	s := New(0, r, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.RunOnce()

	if r.pressure.Load() != 1 || r.wind.Load() != 1 {
		t.Fatalf("expected one refresh each, got pressure=%d wind=%d", r.pressure.Load(), r.wind.Load())
	}
}

func TestStartDisabled(t *testing.T) {
	r := &countingRefresher{}
	s := New(0, r, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Stop()
	if r.pressure.Load() != 0 {
		t.Fatal("disabled scheduler must not run")
	}
}
