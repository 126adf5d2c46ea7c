// Package config handles application configuration loading and validation using Viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Progression ProgressionConfig `mapstructure:"progression"`
}

// ServerConfig contains process level settings.
type ServerConfig struct {
	Environment string `mapstructure:"environment"`
}

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig contains database connection settings for the store and Redis.
type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains PostgreSQL database connection and pool settings.
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// SQLiteConfig contains the SQLite database location.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig contains Redis cache connection and pool settings.
// An empty host disables the cache and the per-user lock.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Enabled reports whether a Redis server is configured.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// Addr returns the host:port address of the Redis server.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MetricsConfig contains metrics exposition settings.
type MetricsConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig contains Prometheus metrics exporter settings.
type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig contains application logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// CatalogConfig points at the YAML file used to seed the challenge catalog.
type CatalogConfig struct {
	SeedFile string `mapstructure:"seed_file"`
}

// ProgressionConfig groups the tunables of the progression engine.
type ProgressionConfig struct {
	Completion            CompletionConfig `mapstructure:"completion"`
	Blend                 BlendConfig      `mapstructure:"blend"`
	Rating                RatingConfig     `mapstructure:"rating"`
	LockTTLSeconds        int              `mapstructure:"lock_ttl_seconds"`
	VectorCacheTTLSeconds int              `mapstructure:"vector_cache_ttl_seconds"`
}

// DefaultProgressionConfig returns the engine tunables used when no configuration is given.
func DefaultProgressionConfig() ProgressionConfig {
	return ProgressionConfig{
		Completion:            DefaultCompletionConfig(),
		Blend:                 DefaultBlendConfig(),
		Rating:                DefaultRatingConfig(),
		LockTTLSeconds:        10,
		VectorCacheTTLSeconds: 300,
	}
}

// LockTTL returns the per-user lock expiry.
func (c ProgressionConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// VectorCacheTTL returns the skill vector cache expiry.
func (c ProgressionConfig) VectorCacheTTL() time.Duration {
	return time.Duration(c.VectorCacheTTLSeconds) * time.Second
}

// Load reads configuration from file and environment variables.
// An empty configPath searches the default locations and falls back to defaults when no file exists.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/academy-progression/")
	}

	setDefaults(v)

	// Server configuration
	_ = v.BindEnv("server.environment", "SERVER_ENVIRONMENT")

	// Database configuration
	_ = v.BindEnv("database.driver", "DATABASE_DRIVER")
	_ = v.BindEnv("database.sqlite.path", "SQLITE_PATH")
	_ = v.BindEnv("database.postgres.host", "POSTGRES_HOST")
	_ = v.BindEnv("database.postgres.port", "POSTGRES_PORT")
	_ = v.BindEnv("database.postgres.database", "POSTGRES_DB")
	_ = v.BindEnv("database.postgres.user", "POSTGRES_USER")
	_ = v.BindEnv("database.postgres.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("database.postgres.ssl_mode", "POSTGRES_SSL_MODE")
	_ = v.BindEnv("database.postgres.max_open_conns", "POSTGRES_MAX_OPEN_CONNS")
	_ = v.BindEnv("database.postgres.max_idle_conns", "POSTGRES_MAX_IDLE_CONNS")
	_ = v.BindEnv("database.postgres.conn_max_lifetime", "POSTGRES_CONN_MAX_LIFETIME")

	// Redis configuration
	_ = v.BindEnv("database.redis.host", "REDIS_HOST")
	_ = v.BindEnv("database.redis.port", "REDIS_PORT")
	_ = v.BindEnv("database.redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("database.redis.db", "REDIS_DB")
	_ = v.BindEnv("database.redis.pool_size", "REDIS_POOL_SIZE")

	// Logging configuration
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("logging.output", "LOG_OUTPUT")

	// Metrics configuration
	_ = v.BindEnv("metrics.prometheus.enabled", "PROMETHEUS_ENABLED")
	_ = v.BindEnv("metrics.prometheus.port", "PROMETHEUS_PORT")

	// Catalog and progression configuration
	_ = v.BindEnv("catalog.seed_file", "CATALOG_SEED_FILE")
	_ = v.BindEnv("progression.completion.unlock_creates_missing_status", "PROGRESSION_UNLOCK_CREATES_MISSING_STATUS")
	_ = v.BindEnv("progression.lock_ttl_seconds", "PROGRESSION_LOCK_TTL_SECONDS")
	_ = v.BindEnv("progression.vector_cache_ttl_seconds", "PROGRESSION_VECTOR_CACHE_TTL_SECONDS")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.environment", "development")

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.sqlite.path", "progression.db")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_open_conns", 25)
	v.SetDefault("database.postgres.max_idle_conns", 5)
	v.SetDefault("database.postgres.conn_max_lifetime", 300)
	v.SetDefault("database.redis.port", 6379)
	v.SetDefault("database.redis.pool_size", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("metrics.prometheus.enabled", true)
	v.SetDefault("metrics.prometheus.port", 9090)
	v.SetDefault("metrics.prometheus.path", "/metrics")

	completion := DefaultCompletionConfig()
	v.SetDefault("progression.completion.specific_multiplier", completion.SpecificMultiplier)
	v.SetDefault("progression.completion.base_multiplier", completion.BaseMultiplier)
	v.SetDefault("progression.completion.unlock_creates_missing_status", completion.UnlockCreatesMissingStatus)

	blend := DefaultBlendConfig()
	v.SetDefault("progression.blend.test_weight", blend.TestWeight)
	v.SetDefault("progression.blend.activity_weight_per_level", blend.ActivityWeightPerLevel)
	v.SetDefault("progression.blend.max_activity_weight", blend.MaxActivityWeight)
	v.SetDefault("progression.blend.activity_saturation", blend.ActivitySaturation)

	rating := DefaultRatingConfig()
	v.SetDefault("progression.rating.default_position", rating.DefaultPosition)
	for test, byPosition := range rating.Thresholds {
		for position, max := range byPosition {
			v.SetDefault(fmt.Sprintf("progression.rating.thresholds.%s.%s", test, position), max)
		}
	}

	progression := DefaultProgressionConfig()
	v.SetDefault("progression.lock_ttl_seconds", progression.LockTTLSeconds)
	v.SetDefault("progression.vector_cache_ttl_seconds", progression.VectorCacheTTLSeconds)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if c.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if c.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	case DriverSQLite:
		if c.Database.SQLite.Path == "" {
			return fmt.Errorf("database.sqlite.path is required")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}

	if err := c.Progression.Completion.Validate(); err != nil {
		return err
	}
	if err := c.Progression.Blend.Validate(); err != nil {
		return err
	}
	if err := c.Progression.Rating.Validate(); err != nil {
		return err
	}
	if c.Progression.LockTTLSeconds <= 0 {
		return fmt.Errorf("progression.lock_ttl_seconds must be positive")
	}
	if c.Progression.VectorCacheTTLSeconds < 0 {
		return fmt.Errorf("progression.vector_cache_ttl_seconds must not be negative")
	}

	return nil
}
