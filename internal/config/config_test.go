package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", testSecret)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "development", cfg.AppEnv)
		assert.Equal(t, "8080", cfg.HTTPPort)
		assert.Equal(t, "console", cfg.LogFormat)
		assert.Equal(t, 5*time.Minute, cfg.StoreIndexTTL)
		assert.Equal(t, "0.133", cfg.DefaultTaxRate.String())
		assert.Equal(t, 50, cfg.StatsPageSize)
		assert.Equal(t, 4, cfg.StatsWorkers)
		assert.Empty(t, cfg.RedisAddr)
		assert.Len(t, cfg.Warnings, 2)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("JWT_SECRET", testSecret)
		t.Setenv("APP_ENV", "production")
		t.Setenv("HTTP_PORT", "9000")
		t.Setenv("DATABASE_DSN", "host=db user=erp dbname=erp")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://erp.example.com")
		t.Setenv("REDIS_ADDR", "redis:6379")
		t.Setenv("REDIS_DB", "2")
		t.Setenv("STORE_INDEX_TTL", "30s")
		t.Setenv("DEFAULT_TAX_RATE", "0.1")
		t.Setenv("STATS_WORKERS", "0")

		cfg, err := Load()
		require.NoError(t, err)

		assert.True(t, cfg.IsProduction())
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, "9000", cfg.HTTPPort)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, 2, cfg.RedisDB)
		assert.Equal(t, 30*time.Second, cfg.StoreIndexTTL)
		assert.Equal(t, "0.1", cfg.DefaultTaxRate.String())
		assert.Equal(t, 1, cfg.StatsWorkers)
		assert.Empty(t, cfg.Warnings)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		cases := map[string]map[string]string{
			"missing secret":   {"JWT_SECRET": ""},
			"short secret":     {"JWT_SECRET": "too-short"},
			"tax rate above 1": {"JWT_SECRET": testSecret, "DEFAULT_TAX_RATE": "1.2"},
			"tax rate text":    {"JWT_SECRET": testSecret, "DEFAULT_TAX_RATE": "13.3%"},
			"page size":        {"JWT_SECRET": testSecret, "STATS_PAGE_SIZE": "900"},
		}
		for name, env := range cases {
			t.Run(name, func(t *testing.T) {
				for k, v := range env {
					t.Setenv(k, v)
				}
				_, err := Load()
				assert.Error(t, err)
			})
		}
	})
}
