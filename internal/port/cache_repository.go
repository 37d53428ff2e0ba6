package port

import (
	"context"

	"github.com/vinylvault/pos/internal/core/domain"
)

// CacheRepository is a best-effort snapshot cache for catalog reads.
// Mutations bump the catalog version; readers key their entries by
// version, so stale snapshots age out instead of being deleted.
type CacheRepository interface {
	// CatalogVersion returns 0 when no version has been recorded yet.
	CatalogVersion(ctx context.Context) (int64, error)

	BumpCatalogVersion(ctx context.Context) error

	// GetSummaries returns nil (without error) on a cache miss.
	GetSummaries(ctx context.Context, key string) ([]domain.ProductSummary, error)

	SetSummaries(ctx context.Context, key string, summaries []domain.ProductSummary) error
}
