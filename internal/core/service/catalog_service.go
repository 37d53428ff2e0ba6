package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/vinylvault/pos/internal/core/domain"
	"github.com/vinylvault/pos/internal/port"
)

// FormatSelection is one format a product is registered in, with its
// initial quantity (zero allowed).
type FormatSelection struct {
	Format   domain.Format
	Quantity int
}

type CatalogService struct {
	repo  port.DatabaseRepository
	cache port.CacheRepository
}

// NewCatalogService creates the catalog service. cache may be nil, in
// which case every listing is computed from the ledger.
func NewCatalogService(repo port.DatabaseRepository, cache port.CacheRepository) *CatalogService {
	return &CatalogService{repo: repo, cache: cache}
}

// Register creates a product together with one inventory record per
// selected format, as a single unit. Nothing is persisted when
// validation fails.
func (s *CatalogService) Register(ctx context.Context, product domain.Product, selections []FormatSelection) (int64, error) {
	if err := validateProduct(product); err != nil {
		return 0, err
	}
	if len(selections) == 0 {
		return 0, &domain.ValidationError{Field: "formats", Reason: "at least one format must be selected"}
	}

	seen := make(map[domain.Format]bool, len(selections))
	records := make([]domain.InventoryRecord, 0, len(selections))
	for _, sel := range selections {
		if !sel.Format.Valid() {
			return 0, &domain.ValidationError{Field: "formats", Reason: fmt.Sprintf("unknown format id %d", sel.Format)}
		}
		if sel.Quantity < 0 {
			return 0, &domain.ValidationError{Field: "formats", Reason: "initial quantity must not be negative"}
		}
		if seen[sel.Format] {
			return 0, &domain.ValidationError{Field: "formats", Reason: fmt.Sprintf("format %s selected twice", sel.Format.Name())}
		}
		seen[sel.Format] = true
		records = append(records, domain.InventoryRecord{
			Format:   sel.Format,
			Quantity: sel.Quantity,
			SKU:      newSKU(sel.Format),
		})
	}

	productID, err := s.repo.RegisterProduct(ctx, &product, records)
	if err != nil {
		return 0, fmt.Errorf("register product: %w", err)
	}
	s.bumpCatalog(ctx)
	return productID, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, &domain.NotFoundError{Resource: "product", Key: strconv.FormatInt(productID, 10)}
	}
	return product, nil
}

// ListRows returns the raw per-format inventory rows, the shape the
// original listing endpoint exposed.
func (s *CatalogService) ListRows(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryRow, error) {
	rows, err := s.repo.ListInventory(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return rows, nil
}

// List aggregates raw inventory rows into one summary per product.
// The format filter restricts the product set but every summary still
// carries the product's full per-format breakdown and total stock.
func (s *CatalogService) List(ctx context.Context, filter domain.ListFilter) ([]domain.ProductSummary, error) {
	var cacheKey string
	if s.cache != nil {
		if version, err := s.cache.CatalogVersion(ctx); err == nil {
			cacheKey = listCacheKey(version, filter)
			if cached, err := s.cache.GetSummaries(ctx, cacheKey); err == nil && cached != nil {
				return cached, nil
			}
		}
	}

	rows, err := s.repo.ListInventory(ctx, domain.InventoryFilter{ProductID: filter.ProductID})
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}

	summaries := aggregate(rows)

	if filter.Format != 0 {
		summaries = keep(summaries, func(p domain.ProductSummary) bool {
			for _, f := range p.Formats {
				if f.Format == filter.Format {
					return true
				}
			}
			return false
		})
	}
	if filter.LowStockOnly {
		summaries = keep(summaries, func(p domain.ProductSummary) bool {
			return p.TotalStock < domain.LowStockThreshold
		})
	}
	if term := strings.ToLower(strings.TrimSpace(filter.SearchTerm)); term != "" {
		summaries = keep(summaries, func(p domain.ProductSummary) bool {
			return strings.Contains(strings.ToLower(p.Title), term) ||
				strings.Contains(strings.ToLower(p.Artist), term) ||
				strings.Contains(strings.ToLower(p.Genre), term)
		})
	}

	if cacheKey != "" {
		// Best effort; a failed cache write never fails the read.
		_ = s.cache.SetSummaries(ctx, cacheKey, summaries)
	}
	return summaries, nil
}

func (s *CatalogService) bumpCatalog(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.BumpCatalogVersion(ctx)
	}
}

// aggregate groups rows by product and fixes the per-format display
// order. Output is ordered by ascending product ID.
func aggregate(rows []domain.InventoryRow) []domain.ProductSummary {
	byProduct := make(map[int64]*domain.ProductSummary)
	ids := make([]int64, 0)

	for _, row := range rows {
		summary, ok := byProduct[row.ProductID]
		if !ok {
			summary = &domain.ProductSummary{
				ProductID: row.ProductID,
				Title:     row.Title,
				Artist:    row.Artist,
				Genre:     row.Genre,
				Price:     row.Price,
			}
			byProduct[row.ProductID] = summary
			ids = append(ids, row.ProductID)
		}
		summary.Formats = append(summary.Formats, domain.FormatStock{
			Format:   row.Format,
			Name:     row.Format.Name(),
			Quantity: row.Quantity,
			SKU:      row.SKU,
		})
		summary.TotalStock += row.Quantity
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	summaries := make([]domain.ProductSummary, 0, len(ids))
	for _, id := range ids {
		summary := byProduct[id]
		sortFormats(summary.Formats)
		summaries = append(summaries, *summary)
	}
	return summaries
}

func sortFormats(formats []domain.FormatStock) {
	rank := make(map[domain.Format]int, len(domain.FormatDisplayOrder))
	for i, f := range domain.FormatDisplayOrder {
		rank[f] = i
	}
	sort.Slice(formats, func(i, j int) bool {
		return rank[formats[i].Format] < rank[formats[j].Format]
	})
}

func keep(summaries []domain.ProductSummary, match func(domain.ProductSummary) bool) []domain.ProductSummary {
	filtered := summaries[:0]
	for _, s := range summaries {
		if match(s) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func listCacheKey(version int64, filter domain.ListFilter) string {
	return fmt.Sprintf("catalog:v%d:p%d:f%d:low%t:q%s",
		version, filter.ProductID, filter.Format, filter.LowStockOnly,
		strings.ToLower(strings.TrimSpace(filter.SearchTerm)))
}

func validateProduct(p domain.Product) error {
	required := []struct {
		field string
		value string
	}{
		{"title", p.Title},
		{"artist", p.Artist},
		{"genre", p.Genre},
		{"label", p.Label},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &domain.ValidationError{Field: r.field, Reason: "must not be blank"}
		}
	}
	if p.Price.IsNegative() {
		return &domain.ValidationError{Field: "price", Reason: "must not be negative"}
	}
	return nil
}

func newSKU(f domain.Format) string {
	return fmt.Sprintf("%s-%.8s", f.Code(), uuid.New().String())
}
