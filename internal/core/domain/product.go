package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is immutable once registered; price edits are not part of the
// sales flow and historical orders carry their own unit prices.
type Product struct {
	ID          int64
	Title       string
	Artist      string
	Genre       string
	Label       string
	ReleaseDate time.Time
	Price       decimal.Decimal
	CreatedAt   time.Time
}
