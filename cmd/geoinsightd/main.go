package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tharushi1019/GeoInsightDashboard/internal/auth"
	"github.com/tharushi1019/GeoInsightDashboard/internal/cache"
	"github.com/tharushi1019/GeoInsightDashboard/internal/client"
	"github.com/tharushi1019/GeoInsightDashboard/internal/config"
	httphandler "github.com/tharushi1019/GeoInsightDashboard/internal/http"
	"github.com/tharushi1019/GeoInsightDashboard/internal/lifecycle"
	"github.com/tharushi1019/GeoInsightDashboard/internal/observability"
	"github.com/tharushi1019/GeoInsightDashboard/internal/scheduler"
	"github.com/tharushi1019/GeoInsightDashboard/internal/service"
	"github.com/tharushi1019/GeoInsightDashboard/internal/store"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	var st store.Store
	switch cfg.StoreBackend {
	case "sqlite":
		st, err = store.NewSQLiteStore(cfg.SQLiteDSN)
		if err != nil {
			logger.Fatal("sqlite store", zap.Error(err))
		}
		logger.Info("store backend: sqlite", zap.String("dsn", cfg.SQLiteDSN))
	case "postgres":
		st, err = store.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("postgres store", zap.Error(err))
		}
		logger.Info("store backend: postgres")
	default:
		st = store.NewMemoryStore()
		logger.Info("store backend: memory")
	}

	retry := client.RetryConfig{
		Attempts:  cfg.RetryAttempts,
		BaseDelay: cfg.RetryBaseDelay,
		MaxDelay:  cfg.RetryMaxDelay,
	}
	countriesClient := client.NewRestCountriesClient(cfg.CountriesAPIURL, cfg.CountriesAPITimeout, retry)
	weatherClient, err := client.NewOpenWeatherClient(cfg.WeatherAPIKey, cfg.WeatherAPIURL, cfg.WeatherAPITimeout, retry)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}
	var airClient client.AirQualityClient
	if cfg.AirQualityAPIURL != "" {
		airClient = client.NewOpenAQClient(cfg.AirQualityAPIURL, cfg.AirQualityTimeout, retry)
	} else {
		airClient = client.NewPlaceholderAirQualityClient()
		logger.Info("air quality provider not configured, serving placeholder data")
	}

	var cacheSvc cache.Cache
	var memcacheCloser *cache.MemcachedCache
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		memcacheCloser = mc
		cacheSvc = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		cacheSvc = cache.NewInMemoryCache()
		logger.Info("cache backend: in_memory")
	}

	ttls := service.GeoTTLs{
		Country:    cfg.CountryCacheTTL,
		Weather:    cfg.WeatherCacheTTL,
		AirQuality: cfg.AirQualityCacheTTL,
	}
	geoService := service.NewGeoService(countriesClient, weatherClient, airClient, cacheSvc, ttls, cfg.CoalesceTimeout, logger)
	recordsService := service.NewRecordsService(st, cfg.UndoWindow, logger)
	logger.Info("undo window configured", zap.Duration("window", cfg.UndoWindow))

	if len(cfg.TrackedCountries) > 0 {
		observability.SetTrackedCountries(cfg.TrackedCountries)
	}

	warmer := cache.NewWarmer(geoService, logger)
	warmScheduler := scheduler.New(warmer, cfg.WarmCountries, cfg.WarmInterval, logger)
	if len(cfg.WarmCountries) > 0 {
		warmCtx, warmCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := warmer.Warm(warmCtx, cfg.WarmCountries); err != nil {
			logger.Warn("initial cache warming failed", zap.Error(err))
		}
		warmCancel()
	}
	if err := warmScheduler.Start(); err != nil {
		logger.Fatal("warm scheduler", zap.Error(err))
	}

	jwks := auth.NewJWKSCache(cfg.JWKSURL, cfg.JWKSTTL, 5*time.Second)
	verifier := auth.NewJWTVerifier(jwks, cfg.JWTIssuer, cfg.JWTAudience)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	var cachePing func() error
	if memcacheCloser != nil {
		cachePing = memcacheCloser.Ping
	}
	handler := httphandler.NewHandler(recordsService, geoService, weatherClient, cachePing, logger)
	router := httphandler.NewRouter(handler, httphandler.RouterConfig{
		APIKey:         cfg.APIKey,
		Verifier:       verifier,
		RateLimiter:    limiter,
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigin:  cfg.AllowedOrigin,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	warmScheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, 100*time.Millisecond); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	// Accepted deletes must reach the store before the process exits.
	recordsService.Drain()

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	if err := st.Close(); err != nil {
		logger.Error("store close", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
