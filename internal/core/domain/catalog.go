package domain

import "github.com/shopspring/decimal"

// LowStockThreshold marks a product as low on stock when its total
// quantity across all formats is strictly below this value.
const LowStockThreshold = 10

// ListFilter narrows the aggregated catalog listing. Options compose by
// logical AND; SearchTerm is a case-insensitive substring match over
// title, artist and genre, applied after the other filters.
type ListFilter struct {
	ProductID    int64
	Format       Format
	LowStockOnly bool
	SearchTerm   string
}

type FormatStock struct {
	Format   Format `json:"formatId"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	SKU      string `json:"sku"`
}

// ProductSummary is one catalog entry: a product with its per-format
// stock breakdown in fixed display order. TotalStock sums every format,
// including zero-stock ones.
type ProductSummary struct {
	ProductID  int64           `json:"productId"`
	Title      string          `json:"title"`
	Artist     string          `json:"artist"`
	Genre      string          `json:"genre"`
	Price      decimal.Decimal `json:"price"`
	Formats    []FormatStock   `json:"formats"`
	TotalStock int             `json:"totalStock"`
}
