package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vinylvault/pos/internal/core/domain"
	"github.com/vinylvault/pos/internal/port"
)

// OrderLineRequest carries the operator-confirmed unit price. The price
// is taken as submitted and never re-read from the catalog, so the sale
// records what the customer was actually charged.
type OrderLineRequest struct {
	ProductID int64
	Format    domain.Format
	Quantity  int
	UnitPrice decimal.Decimal
}

type OrderReceipt struct {
	OrderID int64
	Total   decimal.Decimal
}

type OrderService struct {
	repo      port.DatabaseRepository
	customers port.CustomerDirectory
	cache     port.CacheRepository
}

func NewOrderService(repo port.DatabaseRepository, customers port.CustomerDirectory, cache port.CacheRepository) *OrderService {
	return &OrderService{repo: repo, customers: customers, cache: cache}
}

// CreateOrder validates and commits a multi-line sale. The order, its
// lines and the stock decrements either all land or none do; a rejected
// order leaves the ledger untouched and persists nothing.
func (s *OrderService) CreateOrder(ctx context.Context, customerID int64, lines []OrderLineRequest) (*OrderReceipt, error) {
	customer, err := s.customers.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("resolve customer: %w", err)
	}
	if customer == nil {
		return nil, &domain.NotFoundError{Resource: "customer", Key: strconv.FormatInt(customerID, 10)}
	}
	if len(lines) == 0 {
		return nil, &domain.ValidationError{Field: "items", Reason: "order must contain at least one item"}
	}

	type pairKey struct {
		productID int64
		format    domain.Format
	}

	total := decimal.Zero
	needed := make(map[pairKey]int, len(lines))
	orderLines := make([]domain.OrderLine, 0, len(lines))
	for i, req := range lines {
		if !req.Format.Valid() {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("items[%d].formatId", i), Reason: fmt.Sprintf("unknown format id %d", req.Format)}
		}
		if req.Quantity < 1 {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: "must be at least 1"}
		}
		if req.UnitPrice.IsNegative() {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("items[%d].unitPrice", i), Reason: "must not be negative"}
		}

		needed[pairKey{req.ProductID, req.Format}] += req.Quantity
		line := domain.OrderLine{
			ProductID: req.ProductID,
			Format:    req.Format,
			Quantity:  req.Quantity,
			UnitPrice: req.UnitPrice,
		}
		orderLines = append(orderLines, line)
		total = total.Add(line.Subtotal())
	}

	// Lines naming the same (product, format) twice must be checked as
	// one combined requirement: 3 + 4 against 6 in stock is a shortfall
	// of 7, not two independent passes.
	requirements := make([]domain.StockRequirement, 0, len(needed))
	for key, quantity := range needed {
		requirements = append(requirements, domain.StockRequirement{
			ProductID: key.productID,
			Format:    key.format,
			Quantity:  quantity,
		})
	}
	sort.Slice(requirements, func(i, j int) bool {
		if requirements[i].ProductID != requirements[j].ProductID {
			return requirements[i].ProductID < requirements[j].ProductID
		}
		return requirements[i].Format < requirements[j].Format
	})

	order := &domain.Order{
		CustomerID: customerID,
		Total:      total,
		Lines:      orderLines,
		OrderedAt:  time.Now(),
	}

	orderID, err := s.repo.CreateOrder(ctx, order, requirements)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.BumpCatalogVersion(ctx)
	}
	return &OrderReceipt{OrderID: orderID, Total: total}, nil
}
