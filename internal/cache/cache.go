package cache

import (
	"context"
	"time"

	"telecom-erp-backend/internal/scope"
)

// StoreIndexCache holds the store to branch index. The index is the same
// for every user, so it is safe to share; resolved scopes never are.
type StoreIndexCache interface {
	Get(ctx context.Context) (*scope.StoreIndex, bool, error)
	Set(ctx context.Context, index *scope.StoreIndex, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type NoopStoreIndexCache struct{}

func (NoopStoreIndexCache) Get(_ context.Context) (*scope.StoreIndex, bool, error) {
	return nil, false, nil
}

func (NoopStoreIndexCache) Set(_ context.Context, _ *scope.StoreIndex, _ time.Duration) error {
	return nil
}

func (NoopStoreIndexCache) Invalidate(_ context.Context) error {
	return nil
}
