package cache

import (
	"context"
	"time"

	"wiggies/backend/internal/domain"
)

// InsightsCache holds computed report aggregates for a short TTL so the
// dashboard can poll without recomputing on every request.
type InsightsCache interface {
	Get(ctx context.Context, key string) (*domain.Insights, bool, error)
	Set(ctx context.Context, key string, value *domain.Insights, ttl time.Duration) error
}

type NoopInsightsCache struct{}

func (NoopInsightsCache) Get(_ context.Context, _ string) (*domain.Insights, bool, error) {
	return nil, false, nil
}

func (NoopInsightsCache) Set(_ context.Context, _ string, _ *domain.Insights, _ time.Duration) error {
	return nil
}
