package cache

import (
	"context"
	"time"

	"telecom-erp-backend/internal/models"
	"telecom-erp-backend/internal/scope"

	"go.uber.org/zap"
)

// StoreSource loads every store row.
type StoreSource interface {
	All(ctx context.Context) ([]models.Store, error)
}

// Directory serves the store index, reading through the cache. A broken
// cache only costs a database read.
type Directory struct {
	source StoreSource
	cache  StoreIndexCache
	ttl    time.Duration
	log    *zap.Logger
}

func NewDirectory(source StoreSource, c StoreIndexCache, ttl time.Duration, log *zap.Logger) *Directory {
	if c == nil {
		c = NoopStoreIndexCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Directory{source: source, cache: c, ttl: ttl, log: log.Named("store-directory")}
}

func (d *Directory) Index(ctx context.Context) (scope.StoreIndex, error) {
	cached, ok, err := d.cache.Get(ctx)
	if err != nil {
		d.log.Warn("store index cache read failed, loading from database", zap.Error(err))
	} else if ok {
		return *cached, nil
	}

	stores, err := d.source.All(ctx)
	if err != nil {
		return scope.StoreIndex{}, err
	}
	index := scope.NewStoreIndex(stores)
	if err := d.cache.Set(ctx, &index, d.ttl); err != nil {
		d.log.Warn("store index cache write failed", zap.Error(err))
	}
	return index, nil
}

// Invalidate drops the cached index after a store was created or changed.
func (d *Directory) Invalidate(ctx context.Context) {
	if err := d.cache.Invalidate(ctx); err != nil {
		d.log.Warn("store index cache invalidation failed", zap.Error(err))
	}
}
