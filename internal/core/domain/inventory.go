package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryRecord is the authoritative stock count for one
// (product, format) pair. Absence of a record means the product is not
// offered in that format; zero quantity is a valid, persistent state.
type InventoryRecord struct {
	ProductID int64
	Format    Format
	Quantity  int
	SKU       string
	UpdatedAt time.Time
}

// InventoryRow is one raw listing row: a product joined with one of its
// inventory records by format identifier.
type InventoryRow struct {
	ProductID int64           `json:"productId"`
	Title     string          `json:"title"`
	Artist    string          `json:"artist"`
	Genre     string          `json:"genre"`
	Price     decimal.Decimal `json:"price"`
	Format    Format          `json:"formatId"`
	Quantity  int             `json:"quantity"`
	SKU       string          `json:"sku"`
}

// InventoryFilter narrows the raw inventory listing. Zero values mean
// "no restriction". LowStockOnly keeps rows of products whose total
// stock across all formats is below LowStockThreshold.
type InventoryFilter struct {
	ProductID    int64
	Format       Format
	LowStockOnly bool
}

// StockRequirement is the coalesced per-(product, format) quantity an
// order needs. Requirements are processed in canonical
// (productID, formatID) order so concurrent multi-line orders cannot
// deadlock on each other.
type StockRequirement struct {
	ProductID int64
	Format    Format
	Quantity  int
}
