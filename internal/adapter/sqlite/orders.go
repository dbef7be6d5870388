package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/retailledger/internal/domain"
)

// Compile-time check: OrderRepository implements domain.OrderRepository.
var _ domain.OrderRepository = (*OrderRepository)(nil)

// OrderRepository implements domain.OrderRepository using SQLite.
// Line items live in order_items and are always loaded with their order.
type OrderRepository struct {
	store *Store
}

const orderColumns = `id, tenant_id, order_number, customer_id, total_amount, status, payment_method, created_at, updated_at`

func (r *OrderRepository) Create(ctx context.Context, o domain.Order) error {
	return r.store.RunInTx(ctx, func(ctx context.Context) error {
		q := r.store.conn(ctx)

		_, err := q.ExecContext(ctx,
			`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, o.TenantID, o.OrderNumber, o.CustomerID, o.TotalAmount.String(),
			string(o.Status), string(o.PaymentMethod),
			formatTime(o.CreatedAt), formatTime(o.UpdatedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return &domain.DuplicateIdentifierError{Identifier: o.OrderNumber}
			}
			return fmt.Errorf("inserting order: %w", err)
		}

		for i, item := range o.Items {
			_, err := q.ExecContext(ctx,
				`INSERT INTO order_items (order_id, line_no, product_id, quantity, price_at_purchase)
				 VALUES (?, ?, ?, ?, ?)`,
				o.ID, i, item.ProductID, item.Quantity, item.PriceAtPurchase.String(),
			)
			if err != nil {
				return fmt.Errorf("inserting order item %d: %w", i, err)
			}
		}
		return nil
	})
}

func (r *OrderRepository) GetByNumber(ctx context.Context, tenantID, orderNumber string) (domain.Order, error) {
	o, err := scanOrder(r.store.conn(ctx).QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE tenant_id = ? AND order_number = ?`,
		tenantID, orderNumber,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, err
	}

	o.Items, err = r.items(ctx, o.ID)
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *OrderRepository) List(ctx context.Context, tenantID string, filter domain.OrderFilter) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE tenant_id = ?`
	args := []any{tenantID}

	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}
	if filter.CustomerID != "" {
		query += ` AND customer_id = ?`
		args = append(args, filter.CustomerID)
	}

	query += ` ORDER BY created_at DESC`
	query, args = pagination(query, args, filter.Limit, filter.Offset)

	orders, err := r.queryOrders(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	// Items are loaded after the order rows are closed; the store has one connection.
	for i := range orders {
		orders[i].Items, err = r.items(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, tenantID, orderNumber string, from, to domain.Status) error {
	q := r.store.conn(ctx)

	result, err := q.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ?
		 WHERE tenant_id = ? AND order_number = ? AND status = ?`,
		string(to), formatTime(time.Now()), tenantID, orderNumber, string(from),
	)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var exists int
	err = q.QueryRowContext(ctx,
		`SELECT 1 FROM orders WHERE tenant_id = ? AND order_number = ?`, tenantID, orderNumber,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("checking order: %w", err)
	}
	return domain.ErrStatusConflict
}

func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.store.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.store.conn(ctx).QueryContext(ctx,
		`SELECT product_id, quantity, price_at_purchase FROM order_items
		 WHERE order_id = ? ORDER BY line_no`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		var price string
		if err := rows.Scan(&item.ProductID, &item.Quantity, &price); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		if item.PriceAtPurchase, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parsing item price: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var o domain.Order
	var total, status, payment, createdAt, updatedAt string

	err := row.Scan(&o.ID, &o.TenantID, &o.OrderNumber, &o.CustomerID, &total,
		&status, &payment, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("scanning order: %w", err)
	}

	o.TotalAmount, err = decimal.NewFromString(total)
	if err != nil {
		return domain.Order{}, fmt.Errorf("parsing total of order %s: %w", o.OrderNumber, err)
	}
	o.Status = domain.Status(status)
	o.PaymentMethod = domain.PaymentMethod(payment)
	o.CreatedAt = parseTime(createdAt)
	o.UpdatedAt = parseTime(updatedAt)

	return o, nil
}
