package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is created atomically with its lines and the matching stock
// decrements, and is immutable afterwards. A rejected order never
// becomes an entity, so persisted orders are always committed.
type Order struct {
	ID         int64
	CustomerID int64
	Total      decimal.Decimal
	Lines      []OrderLine
	OrderedAt  time.Time
}

// OrderLine captures the unit price confirmed by the operator at sale
// time. Later catalog price edits must not affect historical orders.
type OrderLine struct {
	ProductID int64
	Format    Format
	Quantity  int
	UnitPrice decimal.Decimal
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
