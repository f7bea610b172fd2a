package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Georef  GeorefConfig  `yaml:"georef" mapstructure:"georef"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Migrate MigrateConfig `yaml:"migrate" mapstructure:"migrate"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// GeorefConfig configures the georeference lookup client.
type GeorefConfig struct {
	BaseURL      string          `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs  int             `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	FallbackPath string          `yaml:"fallback_path" mapstructure:"fallback_path"`
	RateLimit    RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Retry        RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Cache        CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Max          MaxConfig       `yaml:"max" mapstructure:"max"`
	PreloadMax   int             `yaml:"preload_max" mapstructure:"preload_max"`
}

// RateLimitConfig configures the sliding-window limiter.
type RateLimitConfig struct {
	WindowSecs           int `yaml:"window_secs" mapstructure:"window_secs"`
	MaxRequestsPerMinute int `yaml:"max_requests_per_minute" mapstructure:"max_requests_per_minute"`
	MinIntervalMs        int `yaml:"min_interval_ms" mapstructure:"min_interval_ms"`
}

// RetryConfig configures retries with exponential backoff.
type RetryConfig struct {
	MaxRetries  int `yaml:"max_retries" mapstructure:"max_retries"`
	BaseDelayMs int `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	MaxDelayMs  int `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
	MaxJitterMs int `yaml:"max_jitter_ms" mapstructure:"max_jitter_ms"`
}

// CacheConfig holds the TTL table and optional capacity bound.
type CacheConfig struct {
	ProvincesTTLMins     int `yaml:"provinces_ttl_mins" mapstructure:"provinces_ttl_mins"`
	LocalitiesTTLMins    int `yaml:"localities_ttl_mins" mapstructure:"localities_ttl_mins"`
	AllLocalitiesTTLMins int `yaml:"all_localities_ttl_mins" mapstructure:"all_localities_ttl_mins"`
	DefaultTTLMins       int `yaml:"default_ttl_mins" mapstructure:"default_ttl_mins"`
	MaxEntries           int `yaml:"max_entries" mapstructure:"max_entries"`
}

// MaxConfig holds default result caps per operation.
type MaxConfig struct {
	Provinces     int `yaml:"provinces" mapstructure:"provinces"`
	Localities    int `yaml:"localities" mapstructure:"localities"`
	AllLocalities int `yaml:"all_localities" mapstructure:"all_localities"`
	Search        int `yaml:"search" mapstructure:"search"`
	Addresses     int `yaml:"addresses" mapstructure:"addresses"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	MetricsPath string   `yaml:"metrics_path" mapstructure:"metrics_path"`
	Preload     bool     `yaml:"preload" mapstructure:"preload"`
}

// MigrateConfig configures the legacy address migration.
type MigrateConfig struct {
	Concurrency       int     `yaml:"concurrency" mapstructure:"concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	ProvinceColumn    string  `yaml:"province_column" mapstructure:"province_column"`
	LocalityColumn    string  `yaml:"locality_column" mapstructure:"locality_column"`
	SheetName         string  `yaml:"sheet_name" mapstructure:"sheet_name"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	// A local .env file is optional; real environment variables win.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TALLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.metrics_path", "/metrics")
	v.SetDefault("server.preload", true)
	v.SetDefault("georef.base_url", "https://apis.datos.gob.ar/georef/api")
	v.SetDefault("georef.timeout_secs", 15)
	v.SetDefault("georef.fallback_path", "")
	v.SetDefault("georef.preload_max", 24)
	v.SetDefault("georef.rate_limit.window_secs", 60)
	v.SetDefault("georef.rate_limit.max_requests_per_minute", 60)
	v.SetDefault("georef.rate_limit.min_interval_ms", 100)
	v.SetDefault("georef.retry.max_retries", 3)
	v.SetDefault("georef.retry.base_delay_ms", 1000)
	v.SetDefault("georef.retry.max_delay_ms", 10000)
	v.SetDefault("georef.retry.max_jitter_ms", 1000)
	v.SetDefault("georef.cache.provinces_ttl_mins", 30)
	v.SetDefault("georef.cache.localities_ttl_mins", 10)
	v.SetDefault("georef.cache.all_localities_ttl_mins", 60)
	v.SetDefault("georef.cache.default_ttl_mins", 5)
	v.SetDefault("georef.cache.max_entries", 0)
	v.SetDefault("georef.max.provinces", 24)
	v.SetDefault("georef.max.localities", 100)
	v.SetDefault("georef.max.all_localities", 1000)
	v.SetDefault("georef.max.search", 10)
	v.SetDefault("georef.max.addresses", 10)
	v.SetDefault("migrate.concurrency", 4)
	v.SetDefault("migrate.requests_per_second", 2.0)
	v.SetDefault("migrate.province_column", "provincia")
	v.SetDefault("migrate.locality_column", "localidad")
	v.SetDefault("migrate.sheet_name", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
