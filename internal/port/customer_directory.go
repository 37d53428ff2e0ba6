package port

import (
	"context"

	"github.com/vinylvault/pos/internal/core/domain"
)

// CustomerDirectory supplies customer records. The sales core consumes
// these to resolve order customers; it does not own them.
type CustomerDirectory interface {
	// GetCustomer returns nil when the customer does not exist.
	GetCustomer(ctx context.Context, customerID int64) (*domain.Customer, error)

	CreateCustomer(ctx context.Context, customer *domain.Customer) (int64, error)
}
