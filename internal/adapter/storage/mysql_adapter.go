package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vinylvault/pos/internal/core/domain"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) RegisterProduct(ctx context.Context, product *domain.Product, records []domain.InventoryRecord) (int64, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO products (title, artist, genre, label, release_date, price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, NOW())`,
		product.Title, product.Artist, product.Genre, product.Label,
		nullableDate(product), product.Price,
	)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}

	productID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("product id: %w", err)
	}

	for _, record := range records {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO inventory (product_id, format_id, quantity, sku)
			VALUES (?, ?, ?, ?)`,
			productID, record.Format, record.Quantity, record.SKU,
		); err != nil {
			return 0, fmt.Errorf("insert inventory record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	product.ID = productID
	return productID, nil
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	var (
		p           domain.Product
		releaseDate sql.NullTime
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, title, artist, genre, label, release_date, price, created_at
		FROM products WHERE id = ?`, productID,
	).Scan(&p.ID, &p.Title, &p.Artist, &p.Genre, &p.Label, &releaseDate, &p.Price, &p.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	if releaseDate.Valid {
		p.ReleaseDate = releaseDate.Time
	}
	return &p, nil
}

func (m *MySQLAdapter) ListInventory(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryRow, error) {
	query := `
		SELECT p.id, p.title, p.artist, p.genre, p.price, i.format_id, i.quantity, i.sku
		FROM inventory i
		JOIN products p ON i.product_id = p.id`

	var (
		conds []string
		args  []interface{}
	)
	if filter.ProductID != 0 {
		conds = append(conds, "p.id = ?")
		args = append(args, filter.ProductID)
	}
	if filter.Format != 0 {
		conds = append(conds, "i.format_id = ?")
		args = append(args, filter.Format)
	}
	if filter.LowStockOnly {
		conds = append(conds, `p.id IN (
			SELECT product_id FROM inventory GROUP BY product_id HAVING SUM(quantity) < ?)`)
		args = append(args, domain.LowStockThreshold)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY p.id, i.format_id"

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	var out []domain.InventoryRow
	for rows.Next() {
		var row domain.InventoryRow
		if err := rows.Scan(&row.ProductID, &row.Title, &row.Artist, &row.Genre,
			&row.Price, &row.Format, &row.Quantity, &row.SKU); err != nil {
			return nil, fmt.Errorf("scan inventory row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (m *MySQLAdapter) GetInventoryRecord(ctx context.Context, productID int64, format domain.Format) (*domain.InventoryRecord, error) {
	var record domain.InventoryRecord
	err := m.db.QueryRowContext(ctx, `
		SELECT product_id, format_id, quantity, sku, updated_at
		FROM inventory WHERE product_id = ? AND format_id = ?`,
		productID, format,
	).Scan(&record.ProductID, &record.Format, &record.Quantity, &record.SKU, &record.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query inventory record: %w", err)
	}
	return &record, nil
}

func (m *MySQLAdapter) ListByProduct(ctx context.Context, productID int64) ([]domain.InventoryRecord, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT product_id, format_id, quantity, sku, updated_at
		FROM inventory WHERE product_id = ? ORDER BY format_id`, productID)
	if err != nil {
		return nil, fmt.Errorf("query inventory records: %w", err)
	}
	defer rows.Close()

	var records []domain.InventoryRecord
	for rows.Next() {
		var record domain.InventoryRecord
		if err := rows.Scan(&record.ProductID, &record.Format, &record.Quantity,
			&record.SKU, &record.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (m *MySQLAdapter) Restock(ctx context.Context, productID int64, format domain.Format, quantity int) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE inventory SET quantity = ?
		WHERE product_id = ? AND format_id = ?`,
		quantity, productID, format,
	)
	if err != nil {
		return false, fmt.Errorf("update inventory: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		return true, nil
	}

	// MySQL reports zero affected rows when the stored value already
	// equals the new one; tell that apart from a missing record.
	var exists bool
	err = m.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM inventory WHERE product_id = ? AND format_id = ?)`,
		productID, format,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check inventory record: %w", err)
	}
	return exists, nil
}

func (m *MySQLAdapter) CreateOrder(ctx context.Context, order *domain.Order, requirements []domain.StockRequirement) (int64, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Conditional decrements in canonical key order. Any requirement
	// that cannot be satisfied rolls the whole order back.
	for _, req := range requirements {
		result, err := tx.ExecContext(ctx, `
			UPDATE inventory
			SET quantity = quantity - ?
			WHERE product_id = ? AND format_id = ? AND quantity >= ?`,
			req.Quantity, req.ProductID, req.Format, req.Quantity,
		)
		if err != nil {
			return 0, fmt.Errorf("reserve stock: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return 0, reserveFailure(ctx, tx, req)
		}
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO orders (customer_id, total_amount, ordered_at)
		VALUES (?, ?, ?)`,
		order.CustomerID, order.Total, order.OrderedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("order id: %w", err)
	}

	for _, line := range order.Lines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, format_id, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?)`,
			orderID, line.ProductID, line.Format, line.Quantity, line.UnitPrice,
		); err != nil {
			return 0, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	order.ID = orderID
	return orderID, nil
}

// reserveFailure reads the current quantity inside the open transaction
// to tell a missing record apart from insufficient stock.
func reserveFailure(ctx context.Context, tx *sql.Tx, req domain.StockRequirement) error {
	var available int
	err := tx.QueryRowContext(ctx, `
		SELECT quantity FROM inventory WHERE product_id = ? AND format_id = ?`,
		req.ProductID, req.Format,
	).Scan(&available)

	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{
			Resource: "inventory record",
			Key:      fmt.Sprintf("%d/%s", req.ProductID, req.Format.Name()),
		}
	}
	if err != nil {
		return fmt.Errorf("read available stock: %w", err)
	}
	return &domain.InsufficientStockError{
		ProductID: req.ProductID,
		Format:    req.Format,
		Requested: req.Quantity,
		Available: available,
	}
}

func (m *MySQLAdapter) GetCustomer(ctx context.Context, customerID int64) (*domain.Customer, error) {
	var c domain.Customer
	err := m.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, phone, address, created_at
		FROM customers WHERE id = ?`, customerID,
	).Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address, &c.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}
	return &c, nil
}

func (m *MySQLAdapter) CreateCustomer(ctx context.Context, customer *domain.Customer) (int64, error) {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO customers (first_name, last_name, email, phone, address, created_at)
		VALUES (?, ?, ?, ?, ?, NOW())`,
		customer.FirstName, customer.LastName, customer.Email, customer.Phone, customer.Address,
	)
	if err != nil {
		return 0, fmt.Errorf("insert customer: %w", err)
	}
	customerID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("customer id: %w", err)
	}
	customer.ID = customerID
	return customerID, nil
}

func nullableDate(product *domain.Product) interface{} {
	if product.ReleaseDate.IsZero() {
		return nil
	}
	return product.ReleaseDate
}
