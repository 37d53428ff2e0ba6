package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vinylvault/pos/internal/core/domain"
)

const (
	catalogVersionKey = "catalog:version"
	catalogTTL        = 30 * time.Second
)

// RedisAdapter caches catalog snapshots. Entries are keyed by catalog
// version, so a bumped version simply leaves old snapshots to expire.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) CatalogVersion(ctx context.Context) (int64, error) {
	version, err := r.client.Get(ctx, catalogVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

func (r *RedisAdapter) BumpCatalogVersion(ctx context.Context) error {
	return r.client.Incr(ctx, catalogVersionKey).Err()
}

func (r *RedisAdapter) GetSummaries(ctx context.Context, key string) ([]domain.ProductSummary, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	summaries := []domain.ProductSummary{}
	if err := json.Unmarshal(raw, &summaries); err != nil {
		return nil, fmt.Errorf("decode cached catalog: %w", err)
	}
	return summaries, nil
}

func (r *RedisAdapter) SetSummaries(ctx context.Context, key string, summaries []domain.ProductSummary) error {
	raw, err := json.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return r.client.Set(ctx, key, raw, catalogTTL).Err()
}
