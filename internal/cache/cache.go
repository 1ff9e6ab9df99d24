package cache

import (
	"context"
	"time"

	"tillchat/internal/domain"
)

// CatalogCache holds a per-owner snapshot of the product catalog so the
// matcher does not hit the store on every message. Entries are invalidated
// after any stock write.
type CatalogCache interface {
	Get(ctx context.Context, ownerID string) ([]domain.CatalogProduct, bool, error)
	Set(ctx context.Context, ownerID string, products []domain.CatalogProduct, ttl time.Duration) error
	Invalidate(ctx context.Context, ownerID string) error
}

type NoopCatalogCache struct{}

func (NoopCatalogCache) Get(_ context.Context, _ string) ([]domain.CatalogProduct, bool, error) {
	return nil, false, nil
}

func (NoopCatalogCache) Set(_ context.Context, _ string, _ []domain.CatalogProduct, _ time.Duration) error {
	return nil
}

func (NoopCatalogCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
