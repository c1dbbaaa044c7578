package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort      string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigin   string

	StoreBackend string // "memory", "sqlite" or "postgres"
	SQLiteDSN    string
	PostgresDSN  string

	APIKey      string
	JWTIssuer   string
	JWTAudience string
	JWKSURL     string
	JWKSTTL     time.Duration

	CountriesAPIURL     string
	CountriesAPITimeout time.Duration
	WeatherAPIKey       string
	WeatherAPIURL       string
	WeatherAPITimeout   time.Duration
	AirQualityAPIURL    string // empty enables the placeholder provider
	AirQualityTimeout   time.Duration

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	CacheBackend          string // "in_memory" or "memcached"
	CountryCacheTTL       time.Duration
	WeatherCacheTTL       time.Duration
	AirQualityCacheTTL    time.Duration
	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	WarmCountries []string
	WarmInterval  time.Duration

	UndoWindow time.Duration

	RateLimitRPS    int
	RateLimitBurst  int
	CoalesceTimeout time.Duration

	TrackedCountries []string
}

type fileConfig struct {
	Server struct {
		Port            string `yaml:"port"`
		RequestTimeout  string `yaml:"request_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
		AllowedOrigin   string `yaml:"allowed_origin"`
	} `yaml:"server"`

	Store struct {
		Backend     string `yaml:"backend"`
		SQLiteDSN   string `yaml:"sqlite_dsn"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"store"`

	Auth struct {
		JWTIssuer   string `yaml:"jwt_issuer"`
		JWTAudience string `yaml:"jwt_audience"`
		JWKSURL     string `yaml:"jwks_url"`
		JWKSTTL     string `yaml:"jwks_ttl"`
	} `yaml:"auth"`

	Providers struct {
		Countries struct {
			URL     string `yaml:"url"`
			Timeout string `yaml:"timeout"`
		} `yaml:"countries"`
		Weather struct {
			URL     string `yaml:"url"`
			Timeout string `yaml:"timeout"`
		} `yaml:"weather"`
		AirQuality struct {
			URL     string `yaml:"url"`
			Timeout string `yaml:"timeout"`
		} `yaml:"air_quality"`
		RetryMaxAttempts int    `yaml:"retry_max_attempts"`
		RetryBaseDelay   string `yaml:"retry_base_delay"`
		RetryMaxDelay    string `yaml:"retry_max_delay"`
	} `yaml:"providers"`

	Cache struct {
		Backend       string `yaml:"backend"`
		CountryTTL    string `yaml:"country_ttl"`
		WeatherTTL    string `yaml:"weather_ttl"`
		AirQualityTTL string `yaml:"air_quality_ttl"`
		Memcached     struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Warming struct {
		Countries []string `yaml:"countries"`
		Interval  string   `yaml:"interval"`
	} `yaml:"warming"`

	Undo struct {
		Window string `yaml:"window"`
	} `yaml:"undo"`

	Reliability struct {
		RateLimitRPS    int    `yaml:"rate_limit_rps"`
		RateLimitBurst  int    `yaml:"rate_limit_burst"`
		CoalesceTimeout string `yaml:"coalesce_timeout"`
	} `yaml:"reliability"`

	Metrics struct {
		TrackedCountries []string `yaml:"tracked_countries"`
	} `yaml:"metrics"`
}

type secretsFile struct {
	APIKey        string `yaml:"api_key"`
	WeatherAPIKey string `yaml:"weather_api_key"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) and
// config/secrets.yaml. Secrets come from env first (API_KEY, WEATHER_API_KEY,
// DATABASE_URL), then the secrets file. A .env file is loaded when present.
// Call from project root.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	var sec secretsFile
	secretsPath := filepath.Join(cwd, "config", "secrets.yaml")
	if secretsData, err := os.ReadFile(secretsPath); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read secrets file: %w", err)
		}
	} else if err := yaml.Unmarshal(secretsData, &sec); err != nil {
		return nil, fmt.Errorf("parse secrets file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	cfg.RequestTimeout = parseDuration(fc.Server.RequestTimeout, 10*time.Second)
	cfg.ShutdownTimeout = parseDuration(fc.Server.ShutdownTimeout, 30*time.Second)
	cfg.AllowedOrigin = fc.Server.AllowedOrigin

	cfg.StoreBackend = strings.TrimSpace(strings.ToLower(os.Getenv("STORE_BACKEND")))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = strings.TrimSpace(strings.ToLower(fc.Store.Backend))
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = "memory"
	}
	cfg.SQLiteDSN = fc.Store.SQLiteDSN
	if cfg.SQLiteDSN == "" {
		cfg.SQLiteDSN = "geoinsight.db"
	}
	cfg.PostgresDSN = os.Getenv("DATABASE_URL")
	if cfg.PostgresDSN == "" {
		cfg.PostgresDSN = fc.Store.PostgresDSN
	}

	cfg.APIKey = os.Getenv("API_KEY")
	if cfg.APIKey == "" {
		cfg.APIKey = sec.APIKey
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY required (set env or config/secrets.yaml api_key)")
	}

	cfg.JWTIssuer = fc.Auth.JWTIssuer
	if cfg.JWTIssuer == "" {
		return nil, fmt.Errorf("auth.jwt_issuer required")
	}
	cfg.JWTAudience = fc.Auth.JWTAudience
	cfg.JWKSURL = fc.Auth.JWKSURL
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = strings.TrimSuffix(cfg.JWTIssuer, "/") + "/.well-known/jwks.json"
	}
	cfg.JWKSTTL = parseDuration(fc.Auth.JWKSTTL, 15*time.Minute)

	cfg.CountriesAPIURL = fc.Providers.Countries.URL
	if cfg.CountriesAPIURL == "" {
		cfg.CountriesAPIURL = "https://restcountries.com/v3.1"
	}
	cfg.CountriesAPITimeout = parseDuration(fc.Providers.Countries.Timeout, 2*time.Second)

	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	if cfg.WeatherAPIKey == "" {
		cfg.WeatherAPIKey = sec.WeatherAPIKey
	}
	if cfg.WeatherAPIKey == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY required (set env or config/secrets.yaml weather_api_key)")
	}
	cfg.WeatherAPIURL = fc.Providers.Weather.URL
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	cfg.WeatherAPITimeout = parseDuration(fc.Providers.Weather.Timeout, 2*time.Second)

	cfg.AirQualityAPIURL = fc.Providers.AirQuality.URL
	cfg.AirQualityTimeout = parseDuration(fc.Providers.AirQuality.Timeout, 2*time.Second)

	cfg.RetryAttempts = fc.Providers.RetryMaxAttempts
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	cfg.RetryBaseDelay = parseDuration(fc.Providers.RetryBaseDelay, 100*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(fc.Providers.RetryMaxDelay, 2*time.Second)

	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "in_memory"
	}
	cfg.CountryCacheTTL = parseDuration(fc.Cache.CountryTTL, time.Hour)
	cfg.WeatherCacheTTL = parseDuration(fc.Cache.WeatherTTL, 10*time.Minute)
	cfg.AirQualityCacheTTL = parseDuration(fc.Cache.AirQualityTTL, 30*time.Minute)
	cfg.MemcachedAddrs = strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS"))
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = strings.TrimSpace(fc.Cache.Memcached.Addrs)
	}
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.WarmCountries = fc.Warming.Countries
	cfg.WarmInterval = parseDuration(fc.Warming.Interval, 15*time.Minute)

	cfg.UndoWindow = parseDurationOrZero(fc.Undo.Window, 5*time.Second)

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS < 0 {
		cfg.RateLimitRPS = 0
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = cfg.RateLimitRPS * 2
	}
	cfg.CoalesceTimeout = parseDurationOrZero(fc.Reliability.CoalesceTimeout, 5*time.Second)

	cfg.TrackedCountries = fc.Metrics.TrackedCountries

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string and returns defaultVal if parsing
// fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty
// string or parse error. Zero and negative durations pass through; the undo
// window and coalescing use zero to mean disabled.
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
func validate(cfg *Config) error {
	switch cfg.StoreBackend {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("store.backend must be memory, sqlite or postgres, got %q", cfg.StoreBackend)
	}
	if cfg.StoreBackend == "postgres" && cfg.PostgresDSN == "" {
		return fmt.Errorf("store.postgres_dsn (or DATABASE_URL) required for the postgres backend")
	}
	switch cfg.CacheBackend {
	case "in_memory", "memcached":
	default:
		return fmt.Errorf("cache.backend must be in_memory or memcached, got %q", cfg.CacheBackend)
	}
	if cfg.RequestTimeout <= cfg.WeatherAPITimeout {
		cfg.RequestTimeout = cfg.WeatherAPITimeout + time.Second
	}
	if cfg.UndoWindow < 0 {
		cfg.UndoWindow = 0
	}
	return nil
}
