package service

import (
	"context"
	"fmt"

	"github.com/vinylvault/pos/internal/core/domain"
	"github.com/vinylvault/pos/internal/port"
)

type InventoryService struct {
	repo  port.DatabaseRepository
	cache port.CacheRepository
}

func NewInventoryService(repo port.DatabaseRepository, cache port.CacheRepository) *InventoryService {
	return &InventoryService{repo: repo, cache: cache}
}

func (s *InventoryService) GetRecord(ctx context.Context, productID int64, format domain.Format) (*domain.InventoryRecord, error) {
	if !format.Valid() {
		return nil, &domain.ValidationError{Field: "formatId", Reason: fmt.Sprintf("unknown format id %d", format)}
	}
	record, err := s.repo.GetInventoryRecord(ctx, productID, format)
	if err != nil {
		return nil, fmt.Errorf("get inventory record: %w", err)
	}
	if record == nil {
		return nil, &domain.NotFoundError{Resource: "inventory record", Key: recordKey(productID, format)}
	}
	return record, nil
}

func (s *InventoryService) ListByProduct(ctx context.Context, productID int64) ([]domain.InventoryRecord, error) {
	records, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list inventory records: %w", err)
	}
	return records, nil
}

// Restock overwrites the quantity with the supplied absolute value.
// Operators read the current count first and type the new one; relative
// adjustment is deliberately not offered.
func (s *InventoryService) Restock(ctx context.Context, productID int64, format domain.Format, quantity int) error {
	if !format.Valid() {
		return &domain.ValidationError{Field: "formatId", Reason: fmt.Sprintf("unknown format id %d", format)}
	}
	if quantity < 0 {
		return &domain.ValidationError{Field: "quantity", Reason: "must not be negative"}
	}

	found, err := s.repo.Restock(ctx, productID, format, quantity)
	if err != nil {
		return fmt.Errorf("restock: %w", err)
	}
	if !found {
		return &domain.NotFoundError{Resource: "inventory record", Key: recordKey(productID, format)}
	}

	if s.cache != nil {
		_ = s.cache.BumpCatalogVersion(ctx)
	}
	return nil
}

func recordKey(productID int64, format domain.Format) string {
	return fmt.Sprintf("%d/%s", productID, format.Name())
}
