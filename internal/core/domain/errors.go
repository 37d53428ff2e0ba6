package domain

import "fmt"

// ValidationError reports malformed or out-of-range caller input. It is
// surfaced verbatim to the operator and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a reference to a product, inventory pair,
// customer or order that does not exist.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.Key)
}

// InsufficientStockError identifies the first order line that cannot be
// satisfied. Requested and Available give the operator enough detail to
// correct the order.
type InsufficientStockError struct {
	ProductID int64
	Format    Format
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s): requested %d, available %d",
		e.ProductID, e.Format.Name(), e.Requested, e.Available)
}
