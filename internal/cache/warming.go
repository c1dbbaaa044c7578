package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tharushi1019/GeoInsightDashboard/internal/models"
	"github.com/tharushi1019/GeoInsightDashboard/internal/observability"
)

// CountryFetcher is implemented by the service layer to fetch country metadata.
// Used by Warmer to avoid a circular dependency on the service package.
type CountryFetcher interface {
	GetCountry(ctx context.Context, country string) (models.CountryResult, error)
}

// Warmer warms the geo cache by prefetching metadata for a list of countries.
// Periodic scheduling lives in the scheduler package; Warmer only knows how to
// run one pass.
type Warmer struct {
	fetcher CountryFetcher
	logger  *zap.Logger
}

// NewWarmer creates a Warmer that uses the given fetcher and logger.
func NewWarmer(fetcher CountryFetcher, logger *zap.Logger) *Warmer {
	return &Warmer{fetcher: fetcher, logger: logger}
}

// Warm fetches metadata for each country concurrently and populates the cache
// via the fetcher. Returns an error if any country failed (aggregated).
func (w *Warmer) Warm(ctx context.Context, countries []string) error {
	start := time.Now()
	observability.CacheWarmingTotal.Inc()
	if w.logger != nil {
		w.logger.Info("warming cache", zap.Int("countries", len(countries)))
	}
	var wg sync.WaitGroup
	errCh := make(chan error, len(countries))
	for _, c := range countries {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.fetcher.GetCountry(ctx, c)
			if err != nil {
				errCh <- fmt.Errorf("warm %s: %w", c, err)
			}
		}()
	}
	wg.Wait()
	close(errCh)
	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	duration := time.Since(start).Seconds()
	observability.CacheWarmingDurationSeconds.Observe(duration)
	if w.logger != nil {
		w.logger.Info("cache warming complete", zap.Int("countries", len(countries)), zap.Int("errors", len(errs)), zap.Float64("duration_seconds", duration))
	}
	if len(errs) > 0 {
		observability.CacheWarmingErrorsTotal.Inc()
		return fmt.Errorf("cache warming: %v", errs)
	}
	return nil
}
