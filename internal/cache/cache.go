package cache

import (
	"context"
	"time"

	"dokanpos/internal/domain"
)

// InvoiceCache caches invoice projections. Sales are immutable after
// creation, so a cached projection never goes stale within its TTL.
type InvoiceCache interface {
	Get(ctx context.Context, key string) (*domain.Invoice, bool, error)
	Set(ctx context.Context, key string, value *domain.Invoice, ttl time.Duration) error
}

type NoopInvoiceCache struct{}

func (NoopInvoiceCache) Get(_ context.Context, _ string) (*domain.Invoice, bool, error) {
	return nil, false, nil
}

func (NoopInvoiceCache) Set(_ context.Context, _ string, _ *domain.Invoice, _ time.Duration) error {
	return nil
}
