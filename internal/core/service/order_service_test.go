package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vinylvault/pos/internal/adapter/storage"
	"github.com/vinylvault/pos/internal/core/domain"
)

func newTestOrders(t *testing.T) (*OrderService, *CatalogService, *storage.MemoryAdapter, int64) {
	t.Helper()
	mem := storage.NewMemoryAdapter()
	customerID, err := mem.CreateCustomer(context.Background(), &domain.Customer{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
	})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return NewOrderService(mem, mem, nil), NewCatalogService(mem, nil), mem, customerID
}

func stockOf(t *testing.T, mem *storage.MemoryAdapter, productID int64, format domain.Format) int {
	t.Helper()
	record, err := mem.GetInventoryRecord(context.Background(), productID, format)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record == nil {
		t.Fatalf("record %d/%s missing", productID, format.Name())
	}
	return record.Quantity
}

func TestCreateOrder_CommitsAndDecrements(t *testing.T) {
	orders, catalog, mem, customerID := newTestOrders(t)
	ctx := context.Background()

	id := mustRegister(t, catalog, "Moonlight Sonata",
		FormatSelection{Format: domain.FormatVinyl, Quantity: 5},
		FormatSelection{Format: domain.FormatCD, Quantity: 0},
	)

	receipt, err := orders.CreateOrder(ctx, customerID, []OrderLineRequest{{
		ProductID: id,
		Format:    domain.FormatVinyl,
		Quantity:  3,
		UnitPrice: decimal.RequireFromString("19.99"),
	}})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if receipt.OrderID == 0 {
		t.Error("expected non-zero order id")
	}
	if got := receipt.Total.StringFixed(2); got != "59.97" {
		t.Errorf("expected total 59.97, got %s", got)
	}
	if got := stockOf(t, mem, id, domain.FormatVinyl); got != 2 {
		t.Errorf("expected vinyl stock 2, got %d", got)
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	orders, catalog, mem, customerID := newTestOrders(t)
	ctx := context.Background()

	id := mustRegister(t, catalog, "Moonlight Sonata",
		FormatSelection{Format: domain.FormatVinyl, Quantity: 2},
	)

	_, err := orders.CreateOrder(ctx, customerID, []OrderLineRequest{{
		ProductID: id,
		Format:    domain.FormatVinyl,
		Quantity:  10,
		UnitPrice: decimal.RequireFromString("19.99"),
	}})

	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got: %v", err)
	}
	if stockErr.Requested != 10 || stockErr.Available != 2 {
		t.Errorf("expected requested 10 available 2, got %d/%d", stockErr.Requested, stockErr.Available)
	}
	if got := stockOf(t, mem, id, domain.FormatVinyl); got != 2 {
		t.Errorf("rejected order must not touch stock, got %d", got)
	}
}

func TestCreateOrder_EmptyLines(t *testing.T) {
	orders, _, _, customerID := newTestOrders(t)

	_, err := orders.CreateOrder(context.Background(), customerID, nil)

	var validationErr *domain.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got: %v", err)
	}
}

func TestCreateOrder_UnknownCustomer(t *testing.T) {
	orders, catalog, _, _ := newTestOrders(t)
	ctx := context.Background()

	id := mustRegister(t, catalog, "Orphaned", FormatSelection{Format: domain.FormatCD, Quantity: 5})

	_, err := orders.CreateOrder(ctx, 999, []OrderLineRequest{{
		ProductID: id,
		Format:    domain.FormatCD,
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("9.99"),
	}})

	var notFoundErr *domain.NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected NotFoundError, got: %v", err)
	}
	if notFoundErr.Resource != "customer" {
		t.Errorf("expected customer resource, got %s", notFoundErr.Resource)
	}
}

func TestCreateOrder_UnknownRecordLeavesLedgerUntouched(t *testing.T) {
	orders, catalog, mem, customerID := newTestOrders(t)
	ctx := context.Background()

	id := mustRegister(t, catalog, "Vinyl Only", FormatSelection{Format: domain.FormatVinyl, Quantity: 5})

	price := decimal.RequireFromString("19.99")
	_, err := orders.CreateOrder(ctx, customerID, []OrderLineRequest{
		{ProductID: id, Format: domain.FormatVinyl, Quantity: 2, UnitPrice: price},
		{ProductID: id, Format: domain.FormatCassette, Quantity: 1, UnitPrice: price},
	})

	var notFoundErr *domain.NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected NotFoundError, got: %v", err)
	}
	if got := stockOf(t, mem, id, domain.FormatVinyl); got != 5 {
		t.Errorf("expected vinyl stock unchanged at 5, got %d", got)
	}
}

func TestCreateOrder_CoalescesDuplicateLines(t *testing.T) {
	orders, catalog, mem, customerID := newTestOrders(t)
	ctx := context.Background()

	id := mustRegister(t, catalog, "Split Lines", FormatSelection{Format: domain.FormatCD, Quantity: 6})

	// Two lines for the same record: 3 + 4 must be judged as 7 against 6
	// in stock, not as two passes that each fit.
	price := decimal.RequireFromString("9.99")
	_, err := orders.CreateOrder(ctx, customerID, []OrderLineRequest{
		{ProductID: id, Format: domain.FormatCD, Quantity: 3, UnitPrice: price},
		{ProductID: id, Format: domain.FormatCD, Quantity: 4, UnitPrice: price},
	})

	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got: %v", err)
	}
	if stockErr.Requested != 7 || stockErr.Available != 6 {
		t.Errorf("expected requested 7 available 6, got %d/%d", stockErr.Requested, stockErr.Available)
	}
	if got := stockOf(t, mem, id, domain.FormatCD); got != 6 {
		t.Errorf("expected stock unchanged at 6, got %d", got)
	}
}

func TestCreateOrder_MultiLineAllOrNothing(t *testing.T) {
	orders, catalog, mem, customerID := newTestOrders(t)
	ctx := context.Background()

	plenty := mustRegister(t, catalog, "Plenty", FormatSelection{Format: domain.FormatVinyl, Quantity: 10})
	scarce := mustRegister(t, catalog, "Scarce", FormatSelection{Format: domain.FormatCD, Quantity: 1})

	price := decimal.RequireFromString("9.99")
	_, err := orders.CreateOrder(ctx, customerID, []OrderLineRequest{
		{ProductID: plenty, Format: domain.FormatVinyl, Quantity: 2, UnitPrice: price},
		{ProductID: scarce, Format: domain.FormatCD, Quantity: 5, UnitPrice: price},
	})

	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got: %v", err)
	}
	if got := stockOf(t, mem, plenty, domain.FormatVinyl); got != 10 {
		t.Errorf("satisfiable line must not be decremented, got %d", got)
	}
	if got := stockOf(t, mem, scarce, domain.FormatCD); got != 1 {
		t.Errorf("short line must not be decremented, got %d", got)
	}
}

func TestCreateOrder_InvalidLines(t *testing.T) {
	orders, catalog, _, customerID := newTestOrders(t)
	ctx := context.Background()

	id := mustRegister(t, catalog, "Validated", FormatSelection{Format: domain.FormatCD, Quantity: 5})
	price := decimal.RequireFromString("9.99")

	cases := []struct {
		name  string
		lines []OrderLineRequest
		field string
	}{
		{
			name:  "zero quantity",
			lines: []OrderLineRequest{{ProductID: id, Format: domain.FormatCD, Quantity: 0, UnitPrice: price}},
			field: "items[0].quantity",
		},
		{
			name:  "unknown format",
			lines: []OrderLineRequest{{ProductID: id, Format: domain.Format(7), Quantity: 1, UnitPrice: price}},
			field: "items[0].formatId",
		},
		{
			name: "negative price on second line",
			lines: []OrderLineRequest{
				{ProductID: id, Format: domain.FormatCD, Quantity: 1, UnitPrice: price},
				{ProductID: id, Format: domain.FormatCD, Quantity: 1, UnitPrice: decimal.RequireFromString("-1")},
			},
			field: "items[1].unitPrice",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := orders.CreateOrder(ctx, customerID, tc.lines)
			var validationErr *domain.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got: %v", err)
			}
			if validationErr.Field != tc.field {
				t.Errorf("expected field %s, got %s", tc.field, validationErr.Field)
			}
		})
	}
}

func TestCreateOrder_UsesSubmittedPrice(t *testing.T) {
	orders, catalog, _, customerID := newTestOrders(t)
	ctx := context.Background()

	// Catalog price is 19.99; the operator rings it up discounted. The
	// sale records what was charged, not the list price.
	id := mustRegister(t, catalog, "Discounted", FormatSelection{Format: domain.FormatVinyl, Quantity: 5})

	receipt, err := orders.CreateOrder(ctx, customerID, []OrderLineRequest{{
		ProductID: id,
		Format:    domain.FormatVinyl,
		Quantity:  1,
		UnitPrice: decimal.RequireFromString("14.99"),
	}})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if got := receipt.Total.StringFixed(2); got != "14.99" {
		t.Errorf("expected total 14.99, got %s", got)
	}
}

func TestCreateOrder_ExactPennyArithmetic(t *testing.T) {
	orders, catalog, _, customerID := newTestOrders(t)
	ctx := context.Background()

	id := mustRegister(t, catalog, "Penny Jar", FormatSelection{Format: domain.FormatCD, Quantity: 200})

	// 100 one-cent lines must sum to exactly one dollar; binary floats
	// would drift here.
	lines := make([]OrderLineRequest, 100)
	for i := range lines {
		lines[i] = OrderLineRequest{
			ProductID: id,
			Format:    domain.FormatCD,
			Quantity:  1,
			UnitPrice: decimal.RequireFromString("0.01"),
		}
	}

	receipt, err := orders.CreateOrder(ctx, customerID, lines)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if got := receipt.Total.StringFixed(2); got != "1.00" {
		t.Errorf("expected total 1.00, got %s", got)
	}
}

func TestCreateOrder_ConcurrentNeverOversells(t *testing.T) {
	orders, catalog, mem, customerID := newTestOrders(t)
	ctx := context.Background()

	const initialStock = 20
	const totalRequests = 50

	id := mustRegister(t, catalog, "Hot Pressing", FormatSelection{Format: domain.FormatVinyl, Quantity: initialStock})
	price := decimal.RequireFromString("24.99")

	var committed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orders.CreateOrder(ctx, customerID, []OrderLineRequest{{
				ProductID: id,
				Format:    domain.FormatVinyl,
				Quantity:  1,
				UnitPrice: price,
			}})
			if err == nil {
				committed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := committed.Load(); got != initialStock {
		t.Errorf("expected exactly %d committed orders, got %d", initialStock, got)
	}
	if got := stockOf(t, mem, id, domain.FormatVinyl); got != 0 {
		t.Errorf("expected final stock 0, got %d", got)
	}
}

func TestCreateOrder_ConcurrentPartialOverlap(t *testing.T) {
	orders, catalog, mem, customerID := newTestOrders(t)
	ctx := context.Background()

	// Stock 6, two simultaneous orders of 4: only one can fit.
	id := mustRegister(t, catalog, "Contested", FormatSelection{Format: domain.FormatCD, Quantity: 6})
	price := decimal.RequireFromString("9.99")

	var committed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orders.CreateOrder(ctx, customerID, []OrderLineRequest{{
				ProductID: id,
				Format:    domain.FormatCD,
				Quantity:  4,
				UnitPrice: price,
			}})
			if err == nil {
				committed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := committed.Load(); got != 1 {
		t.Errorf("expected exactly 1 committed order, got %d", got)
	}
	if got := stockOf(t, mem, id, domain.FormatCD); got != 2 {
		t.Errorf("expected final stock 2, got %d", got)
	}
}

func TestCreateOrder_WrappedErrorMessage(t *testing.T) {
	orders, catalog, _, customerID := newTestOrders(t)
	ctx := context.Background()

	id := mustRegister(t, catalog, "Messaged", FormatSelection{Format: domain.FormatVinyl, Quantity: 1})

	_, err := orders.CreateOrder(ctx, customerID, []OrderLineRequest{{
		ProductID: id,
		Format:    domain.FormatVinyl,
		Quantity:  3,
		UnitPrice: decimal.RequireFromString("19.99"),
	}})
	if err == nil {
		t.Fatal("expected error")
	}
	want := fmt.Sprintf("insufficient stock for product %d (Vinyl): requested 3, available 1", id)
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got: %v", err)
	}
	if stockErr.Error() != want {
		t.Errorf("unexpected message: %s", stockErr.Error())
	}
}
