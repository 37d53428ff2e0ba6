package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vinylvault/pos/internal/core/domain"
)

// MemoryAdapter is an in-process implementation of the storage ports
// with the same reserve semantics as the MySQL adapter: per-record
// locks taken in canonical key order, all-or-nothing decrements.
// It backs unit tests and database-free development runs.
type MemoryAdapter struct {
	mu           sync.RWMutex
	products     map[int64]domain.Product
	inventory    map[recordKey]*memRecord
	orders       map[int64]domain.Order
	customers    map[int64]domain.Customer
	nextProduct  int64
	nextOrder    int64
	nextCustomer int64
}

type recordKey struct {
	productID int64
	format    domain.Format
}

// memRecord carries its own lock so reserves and restocks on disjoint
// (product, format) pairs never block each other.
type memRecord struct {
	mu     sync.Mutex
	record domain.InventoryRecord
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		products:  make(map[int64]domain.Product),
		inventory: make(map[recordKey]*memRecord),
		orders:    make(map[int64]domain.Order),
		customers: make(map[int64]domain.Customer),
	}
}

func (m *MemoryAdapter) RegisterProduct(ctx context.Context, product *domain.Product, records []domain.InventoryRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextProduct++
	product.ID = m.nextProduct
	product.CreatedAt = time.Now()
	m.products[product.ID] = *product

	for _, record := range records {
		record.ProductID = product.ID
		record.UpdatedAt = time.Now()
		m.inventory[recordKey{product.ID, record.Format}] = &memRecord{record: record}
	}
	return product.ID, nil
}

func (m *MemoryAdapter) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	product, ok := m.products[productID]
	if !ok {
		return nil, nil
	}
	return &product, nil
}

func (m *MemoryAdapter) ListInventory(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryRow, error) {
	type pair struct {
		product domain.Product
		rec     *memRecord
		format  domain.Format
	}

	m.mu.RLock()
	pairs := make([]pair, 0, len(m.inventory))
	for key, rec := range m.inventory {
		if filter.ProductID != 0 && key.productID != filter.ProductID {
			continue
		}
		pairs = append(pairs, pair{product: m.products[key.productID], rec: rec, format: key.format})
	}
	m.mu.RUnlock()

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].product.ID != pairs[j].product.ID {
			return pairs[i].product.ID < pairs[j].product.ID
		}
		return pairs[i].format < pairs[j].format
	})

	rows := make([]domain.InventoryRow, 0, len(pairs))
	totals := make(map[int64]int)
	for _, p := range pairs {
		p.rec.mu.Lock()
		record := p.rec.record
		p.rec.mu.Unlock()

		totals[record.ProductID] += record.Quantity
		rows = append(rows, domain.InventoryRow{
			ProductID: record.ProductID,
			Title:     p.product.Title,
			Artist:    p.product.Artist,
			Genre:     p.product.Genre,
			Price:     p.product.Price,
			Format:    record.Format,
			Quantity:  record.Quantity,
			SKU:       record.SKU,
		})
	}

	// Format and low-stock restrictions apply after totals are known;
	// low stock is defined on the product's stock across all formats.
	filtered := rows[:0]
	for _, row := range rows {
		if filter.Format != 0 && row.Format != filter.Format {
			continue
		}
		if filter.LowStockOnly && totals[row.ProductID] >= domain.LowStockThreshold {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered, nil
}

func (m *MemoryAdapter) GetInventoryRecord(ctx context.Context, productID int64, format domain.Format) (*domain.InventoryRecord, error) {
	m.mu.RLock()
	rec, ok := m.inventory[recordKey{productID, format}]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	rec.mu.Lock()
	record := rec.record
	rec.mu.Unlock()
	return &record, nil
}

func (m *MemoryAdapter) ListByProduct(ctx context.Context, productID int64) ([]domain.InventoryRecord, error) {
	m.mu.RLock()
	recs := make([]*memRecord, 0, len(domain.FormatDisplayOrder))
	for _, format := range domain.FormatDisplayOrder {
		if rec, ok := m.inventory[recordKey{productID, format}]; ok {
			recs = append(recs, rec)
		}
	}
	m.mu.RUnlock()

	records := make([]domain.InventoryRecord, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		records = append(records, rec.record)
		rec.mu.Unlock()
	}
	return records, nil
}

func (m *MemoryAdapter) Restock(ctx context.Context, productID int64, format domain.Format, quantity int) (bool, error) {
	m.mu.RLock()
	rec, ok := m.inventory[recordKey{productID, format}]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}

	rec.mu.Lock()
	rec.record.Quantity = quantity
	rec.record.UpdatedAt = time.Now()
	rec.mu.Unlock()
	return true, nil
}

func (m *MemoryAdapter) CreateOrder(ctx context.Context, order *domain.Order, requirements []domain.StockRequirement) (int64, error) {
	sorted := make([]domain.StockRequirement, len(requirements))
	copy(sorted, requirements)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ProductID != sorted[j].ProductID {
			return sorted[i].ProductID < sorted[j].ProductID
		}
		return sorted[i].Format < sorted[j].Format
	})

	m.mu.RLock()
	recs := make([]*memRecord, len(sorted))
	for i, req := range sorted {
		rec, ok := m.inventory[recordKey{req.ProductID, req.Format}]
		if !ok {
			m.mu.RUnlock()
			return 0, &domain.NotFoundError{
				Resource: "inventory record",
				Key:      fmt.Sprintf("%d/%s", req.ProductID, req.Format.Name()),
			}
		}
		recs[i] = rec
	}
	m.mu.RUnlock()

	// Hold every record lock, in canonical key order, for the whole
	// check-then-decrement so the reserve is all-or-nothing.
	for _, rec := range recs {
		rec.mu.Lock()
	}
	defer func() {
		for _, rec := range recs {
			rec.mu.Unlock()
		}
	}()

	for i, req := range sorted {
		if recs[i].record.Quantity < req.Quantity {
			return 0, &domain.InsufficientStockError{
				ProductID: req.ProductID,
				Format:    req.Format,
				Requested: req.Quantity,
				Available: recs[i].record.Quantity,
			}
		}
	}
	for i, req := range sorted {
		recs[i].record.Quantity -= req.Quantity
		recs[i].record.UpdatedAt = time.Now()
	}

	m.mu.Lock()
	m.nextOrder++
	order.ID = m.nextOrder
	stored := *order
	stored.Lines = append([]domain.OrderLine(nil), order.Lines...)
	m.orders[order.ID] = stored
	m.mu.Unlock()

	return order.ID, nil
}

func (m *MemoryAdapter) GetCustomer(ctx context.Context, customerID int64) (*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	customer, ok := m.customers[customerID]
	if !ok {
		return nil, nil
	}
	return &customer, nil
}

func (m *MemoryAdapter) CreateCustomer(ctx context.Context, customer *domain.Customer) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextCustomer++
	customer.ID = m.nextCustomer
	customer.CreatedAt = time.Now()
	m.customers[customer.ID] = *customer
	return customer.ID, nil
}
