package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	defaultDSN  = "host=localhost user=postgres password=postgres dbname=telecom_erp port=5432 sslmode=disable"
	defaultCORS = "http://localhost:5173"
)

type Config struct {
	AppEnv      string
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	LogLevel  string
	LogFormat string

	RedisAddr     string // empty disables the store index cache
	RedisPassword string
	RedisDB       int
	StoreIndexTTL time.Duration

	DefaultTaxRate decimal.Decimal

	StatsPageSize       int
	StatsMaxPageSize    int
	StatsWorkers        int
	StatsShardThreshold int

	// Warnings lists insecure defaults still in use. Load does not log
	// them since the logger is built from this config.
	Warnings []string
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads config.toml (optional) and the environment, environment
// taking precedence.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	v.AutomaticEnv()
	setDefaults(v)
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DATABASE_DSN", defaultDSN)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", defaultCORS)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("STORE_INDEX_TTL", "5m")
	v.SetDefault("DEFAULT_TAX_RATE", "0.133")
	v.SetDefault("STATS_PAGE_SIZE", 50)
	v.SetDefault("STATS_MAX_PAGE_SIZE", 500)
	v.SetDefault("STATS_WORKERS", 4)
	v.SetDefault("STATS_SHARD_THRESHOLD", 5000)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppEnv:              v.GetString("APP_ENV"),
		HTTPPort:            v.GetString("HTTP_PORT"),
		DatabaseDSN:         v.GetString("DATABASE_DSN"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		CORSOrigins:         v.GetString("CORS_ALLOWED_ORIGINS"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           v.GetString("LOG_FORMAT"),
		RedisAddr:           v.GetString("REDIS_ADDR"),
		RedisPassword:       v.GetString("REDIS_PASSWORD"),
		RedisDB:             v.GetInt("REDIS_DB"),
		StoreIndexTTL:       v.GetDuration("STORE_INDEX_TTL"),
		StatsPageSize:       v.GetInt("STATS_PAGE_SIZE"),
		StatsMaxPageSize:    v.GetInt("STATS_MAX_PAGE_SIZE"),
		StatsWorkers:        v.GetInt("STATS_WORKERS"),
		StatsShardThreshold: v.GetInt("STATS_SHARD_THRESHOLD"),
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
		if cfg.IsProduction() {
			cfg.LogFormat = "json"
		}
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET must be at least 32 characters")
	}

	rate, err := decimal.NewFromString(v.GetString("DEFAULT_TAX_RATE"))
	if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("DEFAULT_TAX_RATE must be a fraction in [0, 1], got %q", v.GetString("DEFAULT_TAX_RATE"))
	}
	cfg.DefaultTaxRate = rate

	if cfg.StatsPageSize <= 0 || cfg.StatsMaxPageSize < cfg.StatsPageSize {
		return nil, fmt.Errorf("STATS_PAGE_SIZE (%d) must be positive and not above STATS_MAX_PAGE_SIZE (%d)", cfg.StatsPageSize, cfg.StatsMaxPageSize)
	}
	if cfg.StatsWorkers < 1 {
		cfg.StatsWorkers = 1
	}

	if cfg.DatabaseDSN == defaultDSN {
		cfg.Warnings = append(cfg.Warnings, "DATABASE_DSN is using the default value; set your own Postgres connection for production")
	}
	if cfg.CORSOrigins == defaultCORS {
		cfg.Warnings = append(cfg.Warnings, "CORS_ALLOWED_ORIGINS is using the default value; set your own domain for production")
	}
	return cfg, nil
}
