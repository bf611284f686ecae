package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/i474232898/meteo-dashboard/internal/weather"
)

// Refresher is the part of weather.Service the scheduler drives.
type Refresher interface {
	RefreshPressureSummaries(ctx context.Context) (weather.Snapshot, error)
	RefreshWindSummaries(ctx context.Context) (weather.Snapshot, error)
}

// Scheduler periodically refreshes the summary snapshots.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(interval time.Duration, service Refresher, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		interval:  interval,
		timeout:   30 * time.Second,
		logger:    logger,
	}
}

// Start schedules the refresh job and starts the underlying scheduler. The
// first run happens immediately.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("scheduler: refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce refreshes both summaries concurrently. Failures are logged and
// left for the next run.
func (s *Scheduler) RunOnce() {
	s.logger.Debug("scheduler: refreshing summaries")

	jobs := map[string]func(context.Context) (weather.Snapshot, error){
		weather.PressureSummaryKey: s.service.RefreshPressureSummaries,
		weather.WindSummaryKey:     s.service.RefreshWindSummaries,
	}

	var wg sync.WaitGroup
	for key, refresh := range jobs {
		key, refresh := key, refresh
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			snap, err := refresh(ctx)
			if err != nil {
				s.logger.Warn("scheduler: refresh failed", "key", key, "error", err)
				return
			}
			s.logger.Debug("scheduler: refreshed", "key", key, "seq", snap.Seq,
				"entries", len(snap.Pressure)+len(snap.Wind))
		}()
	}
	wg.Wait()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
