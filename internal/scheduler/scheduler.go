package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/tharushi1019/GeoInsightDashboard/internal/cache"
)

// Scheduler periodically re-warms the geo cache for the configured countries,
// so dashboard lookups for tracked countries stay hot between TTL expiries.
type Scheduler struct {
	scheduler *gocron.Scheduler
	warmer    *cache.Warmer
	countries []string
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a Scheduler that warms the given countries every interval.
func New(warmer *cache.Warmer, countries []string, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		warmer:    warmer,
		countries: countries,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic warming job and starts the underlying
// scheduler. With no countries configured it is a no-op.
func (s *Scheduler) Start() error {
	if len(s.countries) == 0 {
		if s.logger != nil {
			s.logger.Info("cache warming disabled, no countries configured")
		}
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.warmer.Warm(ctx, s.countries); err != nil && s.logger != nil {
			s.logger.Warn("periodic cache warm failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
