package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telecom-erp-backend/internal/cache"
	"telecom-erp-backend/internal/config"
	"telecom-erp-backend/internal/database"
	"telecom-erp-backend/internal/logger"
	"telecom-erp-backend/internal/repository"
	"telecom-erp-backend/internal/server"
	"telecom-erp-backend/internal/settlement"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck
	for _, w := range cfg.Warnings {
		zl.Warn(w)
	}

	if err := database.Init(cfg, zl); err != nil {
		zl.Fatal("database init failed", zap.Error(err))
	}

	indexCache := storeIndexCache(cfg, zl)
	app := server.New(server.Deps{
		Config:     cfg,
		Log:        zl,
		Stores:     cache.NewDirectory(repository.NewStoreRepository(database.DB), indexCache, cfg.StoreIndexTTL, zl),
		Calculator: settlement.New(settlement.WithDefaultTaxRate(cfg.DefaultTaxRate)),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("port", cfg.HTTPPort), zap.String("env", cfg.AppEnv))
		errCh <- app.Listen(":" + cfg.HTTPPort)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			zl.Fatal("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		zl.Info("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			zl.Error("shutdown failed", zap.Error(err))
		}
	}

	if closer, ok := indexCache.(*cache.RedisStoreIndexCache); ok {
		if err := closer.Close(); err != nil && !errors.Is(err, context.Canceled) {
			zl.Warn("redis close failed", zap.Error(err))
		}
	}
}

// storeIndexCache connects to Redis when configured. An unreachable Redis
// degrades to reading the index from the database on every request.
func storeIndexCache(cfg *config.Config, zl *zap.Logger) cache.StoreIndexCache {
	if cfg.RedisAddr == "" {
		return cache.NoopStoreIndexCache{}
	}
	rc := cache.NewRedisStoreIndexCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		zl.Warn("redis unreachable, store index cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = rc.Close()
		return cache.NoopStoreIndexCache{}
	}
	return rc
}
