package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/vinylvault/pos/internal/core/domain"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/recordstore?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	return db
}

func cleanupProduct(db *sql.DB, productID int64) {
	ctx := context.Background()
	db.ExecContext(ctx, `DELETE oi FROM order_items oi WHERE oi.product_id = ?`, productID)
	db.ExecContext(ctx, `DELETE FROM orders WHERE id NOT IN (SELECT DISTINCT order_id FROM order_items)`)
	db.ExecContext(ctx, `DELETE FROM inventory WHERE product_id = ?`, productID)
	db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, productID)
}

func registerTestProduct(t *testing.T, adapter *MySQLAdapter, quantity int) int64 {
	t.Helper()
	sku := "TST-" + time.Now().Format("150405.000000")
	id, err := adapter.RegisterProduct(context.Background(), &domain.Product{
		Title:  "Adapter Test Pressing",
		Artist: "Test Artist",
		Genre:  "Rock",
		Label:  "Test Label",
		Price:  decimal.RequireFromString("19.99"),
	}, []domain.InventoryRecord{
		{Format: domain.FormatVinyl, Quantity: quantity, SKU: sku},
	})
	if err != nil {
		t.Fatalf("register product: %v", err)
	}
	return id
}

func TestMySQLRegisterAndGetProduct(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	adapter := NewMySQLAdapter(db)
	ctx := context.Background()

	id := registerTestProduct(t, adapter, 5)
	defer cleanupProduct(db, id)

	product, err := adapter.GetProduct(ctx, id)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product == nil {
		t.Fatal("expected product")
	}
	if product.Title != "Adapter Test Pressing" {
		t.Errorf("unexpected title: %s", product.Title)
	}
	if !product.Price.Equal(decimal.RequireFromString("19.99")) {
		t.Errorf("unexpected price: %s", product.Price)
	}

	record, err := adapter.GetInventoryRecord(ctx, id, domain.FormatVinyl)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record == nil || record.Quantity != 5 {
		t.Errorf("unexpected record: %+v", record)
	}
}

func TestMySQLGetProduct_Missing(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	product, err := NewMySQLAdapter(db).GetProduct(context.Background(), -1)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product != nil {
		t.Errorf("expected nil, got %+v", product)
	}
}

func TestMySQLCreateOrder_DecrementsStock(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	adapter := NewMySQLAdapter(db)
	ctx := context.Background()

	id := registerTestProduct(t, adapter, 10)
	defer cleanupProduct(db, id)

	customerID, err := adapter.CreateCustomer(ctx, &domain.Customer{
		FirstName: "Test",
		LastName:  "Buyer",
		Email:     "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	defer db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, customerID)

	price := decimal.RequireFromString("19.99")
	order := &domain.Order{
		CustomerID: customerID,
		Total:      price.Mul(decimal.NewFromInt(3)),
		OrderedAt:  time.Now(),
		Lines: []domain.OrderLine{
			{ProductID: id, Format: domain.FormatVinyl, Quantity: 3, UnitPrice: price},
		},
	}
	orderID, err := adapter.CreateOrder(ctx, order,
		[]domain.StockRequirement{{ProductID: id, Format: domain.FormatVinyl, Quantity: 3}})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if orderID == 0 {
		t.Error("expected non-zero order id")
	}

	record, err := adapter.GetInventoryRecord(ctx, id, domain.FormatVinyl)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.Quantity != 7 {
		t.Errorf("expected stock 7, got %d", record.Quantity)
	}

	var lines int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_items WHERE order_id = ?`, orderID).Scan(&lines)
	if lines != 1 {
		t.Errorf("expected 1 order line, got %d", lines)
	}
}

func TestMySQLCreateOrder_InsufficientRollsBack(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	adapter := NewMySQLAdapter(db)
	ctx := context.Background()

	id := registerTestProduct(t, adapter, 2)
	defer cleanupProduct(db, id)

	customerID, err := adapter.CreateCustomer(ctx, &domain.Customer{
		FirstName: "Test",
		LastName:  "Buyer",
		Email:     "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	defer db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, customerID)

	price := decimal.RequireFromString("19.99")
	_, err = adapter.CreateOrder(ctx, &domain.Order{
		CustomerID: customerID,
		Total:      price.Mul(decimal.NewFromInt(5)),
		OrderedAt:  time.Now(),
		Lines: []domain.OrderLine{
			{ProductID: id, Format: domain.FormatVinyl, Quantity: 5, UnitPrice: price},
		},
	}, []domain.StockRequirement{{ProductID: id, Format: domain.FormatVinyl, Quantity: 5}})

	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got: %v", err)
	}
	if stockErr.Requested != 5 || stockErr.Available != 2 {
		t.Errorf("expected requested 5 available 2, got %d/%d", stockErr.Requested, stockErr.Available)
	}

	record, err := adapter.GetInventoryRecord(ctx, id, domain.FormatVinyl)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.Quantity != 2 {
		t.Errorf("expected stock unchanged at 2, got %d", record.Quantity)
	}

	var orders int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE customer_id = ?`, customerID).Scan(&orders)
	if orders != 0 {
		t.Errorf("rejected order must persist nothing, found %d rows", orders)
	}
}

func TestMySQLRestock(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	adapter := NewMySQLAdapter(db)
	ctx := context.Background()

	id := registerTestProduct(t, adapter, 4)
	defer cleanupProduct(db, id)

	found, err := adapter.Restock(ctx, id, domain.FormatVinyl, 9)
	if err != nil || !found {
		t.Fatalf("restock: found=%v err=%v", found, err)
	}

	// Setting the same value again: MySQL reports zero affected rows but
	// the record exists, so this must still count as found.
	found, err = adapter.Restock(ctx, id, domain.FormatVinyl, 9)
	if err != nil || !found {
		t.Fatalf("idempotent restock: found=%v err=%v", found, err)
	}

	found, err = adapter.Restock(ctx, id, domain.FormatCassette, 9)
	if err != nil {
		t.Fatalf("restock missing record: %v", err)
	}
	if found {
		t.Error("expected missing record to report not found")
	}
}
