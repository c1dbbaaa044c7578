package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tharushi1019/GeoInsightDashboard/internal/cache"
	"github.com/tharushi1019/GeoInsightDashboard/internal/client"
	"github.com/tharushi1019/GeoInsightDashboard/internal/models"
	"github.com/tharushi1019/GeoInsightDashboard/internal/observability"
	"github.com/tharushi1019/GeoInsightDashboard/internal/validation"
)

// GeoTTLs carries the per-lookup cache lifetimes.
type GeoTTLs struct {
	Country    time.Duration
	Weather    time.Duration
	AirQuality time.Duration
}

// GeoService proxies country, weather and air-quality lookups through a
// cache-aside layer with request coalescing, so repeated dashboard fetches do
// not hammer the upstream providers.
type GeoService struct {
	countries client.CountryClient
	weather   client.WeatherClient
	air       client.AirQualityClient
	cache     cache.Cache
	ttls      GeoTTLs
	logger    *zap.Logger

	countryCoalescer *requestCoalescer[models.CountryResult]
	weatherCoalescer *requestCoalescer[models.WeatherResult]
	airCoalescer     *requestCoalescer[models.AirQualityResult]
}

// NewGeoService creates a GeoService. coalesceTimeout bounds how long a
// request waits on another caller's in-flight fetch; zero disables coalescing.
func NewGeoService(countries client.CountryClient, weather client.WeatherClient, air client.AirQualityClient,
	c cache.Cache, ttls GeoTTLs, coalesceTimeout time.Duration, logger *zap.Logger) *GeoService {
	s := &GeoService{
		countries: countries,
		weather:   weather,
		air:       air,
		cache:     c,
		ttls:      ttls,
		logger:    logger,
	}
	if coalesceTimeout > 0 {
		s.countryCoalescer = newRequestCoalescer[models.CountryResult](coalesceTimeout)
		s.weatherCoalescer = newRequestCoalescer[models.WeatherResult](coalesceTimeout)
		s.airCoalescer = newRequestCoalescer[models.AirQualityResult](coalesceTimeout)
	}
	return s
}

// GetCountry returns country metadata for the named country.
func (s *GeoService) GetCountry(ctx context.Context, name string) (models.CountryResult, error) {
	name, err := validation.ValidatePlaceName(name, 1, 100)
	if err != nil {
		return models.CountryResult{}, err
	}
	key := normalizePlace(name)
	observability.RecordGeoQuery(key)

	return cacheAside(ctx, s, "country", "country:"+key, s.ttls.Country, s.countryCoalescer, func() (models.CountryResult, error) {
		return s.countries.GetCountry(ctx, key)
	})
}

// GetWeather returns the current weather reading for the city.
func (s *GeoService) GetWeather(ctx context.Context, city string) (models.WeatherResult, error) {
	city, err := validation.ValidatePlaceName(city, 1, 100)
	if err != nil {
		return models.WeatherResult{}, err
	}
	key := normalizePlace(city)

	return cacheAside(ctx, s, "weather", "weather:"+key, s.ttls.Weather, s.weatherCoalescer, func() (models.WeatherResult, error) {
		return s.weather.GetWeather(ctx, key)
	})
}

// GetAirQuality returns the latest air-quality observations for the city.
func (s *GeoService) GetAirQuality(ctx context.Context, city string) (models.AirQualityResult, error) {
	city, err := validation.ValidatePlaceName(city, 1, 100)
	if err != nil {
		return models.AirQualityResult{}, err
	}
	key := normalizePlace(city)

	return cacheAside(ctx, s, "airquality", "airquality:"+key, s.ttls.AirQuality, s.airCoalescer, func() (models.AirQualityResult, error) {
		return s.air.GetAirQuality(ctx, key)
	})
}

// cacheAside serves key from cache when possible; on a miss it fetches via the
// coalescer (when enabled) and repopulates the cache. Cache failures degrade to
// a plain upstream fetch, never to a request failure.
func cacheAside[T any](ctx context.Context, s *GeoService, cacheType, key string, ttl time.Duration,
	coalescer *requestCoalescer[T], fetch func() (T, error)) (T, error) {
	var zero T

	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("get").Inc()
		if s.logger != nil {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
	} else if ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			observability.CacheHitsTotal.WithLabelValues(cacheType).Inc()
			if s.logger != nil {
				s.logger.Debug("cache hit", zap.String("key", key))
			}
			return cached, nil
		}
		// A corrupt payload falls through to a fresh fetch.
		observability.CacheErrorsTotal.WithLabelValues("decode").Inc()
	}

	var result T
	var fetchErr error
	if coalescer != nil {
		result, fetchErr = coalescer.GetOrDo(ctx, key, fetch)
	} else {
		result, fetchErr = fetch()
	}
	if fetchErr != nil {
		return zero, fmt.Errorf("fetch %s: %w", cacheType, fetchErr)
	}

	if raw, err := json.Marshal(result); err == nil {
		if setErr := s.cache.Set(ctx, key, raw, ttl); setErr != nil {
			observability.CacheErrorsTotal.WithLabelValues("set").Inc()
			if s.logger != nil {
				s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(setErr))
			}
		}
	}
	return result, nil
}

// normalizePlace normalizes place names by trimming whitespace and converting
// to lowercase, for consistent cache keys and provider requests.
func normalizePlace(place string) string {
	return strings.ToLower(strings.TrimSpace(place))
}
