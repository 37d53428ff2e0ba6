package port

import (
	"context"

	"github.com/vinylvault/pos/internal/core/domain"
)

type DatabaseRepository interface {
	// RegisterProduct persists a product and its inventory records as a
	// single unit and returns the allocated product ID. A product
	// without inventory records must never become observable.
	RegisterProduct(ctx context.Context, product *domain.Product, records []domain.InventoryRecord) (int64, error)

	// GetProduct returns nil when the product does not exist.
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)

	// ListInventory returns raw product/inventory rows matching the
	// filter, ordered by product ID then format ID.
	ListInventory(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryRow, error)

	// GetInventoryRecord returns nil when the (product, format) pair has
	// never been registered.
	GetInventoryRecord(ctx context.Context, productID int64, format domain.Format) (*domain.InventoryRecord, error)

	// ListByProduct returns the product's records in canonical format
	// order. Empty when the product is unknown; callers that need to
	// tell "no formats" from "unknown product" check the product first.
	ListByProduct(ctx context.Context, productID int64) ([]domain.InventoryRecord, error)

	// Restock overwrites the quantity outright. Returns false when the
	// record does not exist.
	Restock(ctx context.Context, productID int64, format domain.Format, quantity int) (bool, error)

	// CreateOrder reserves every requirement and persists the order with
	// its lines as one atomic step. When any requirement cannot be
	// satisfied nothing is decremented and no order is stored; the
	// failure is reported as *domain.InsufficientStockError, or
	// *domain.NotFoundError when the pair was never registered.
	CreateOrder(ctx context.Context, order *domain.Order, requirements []domain.StockRequirement) (int64, error)
}
