package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/retailledger/internal/domain"
)

// Compile-time check: InventoryRepository implements domain.InventoryLedger.
var _ domain.InventoryLedger = (*InventoryRepository)(nil)

// InventoryRepository adjusts product quantities with conditional single-statement updates.
type InventoryRepository struct {
	store *Store
}

// TryDecrement removes amount units only if at least amount are in stock.
func (r *InventoryRepository) TryDecrement(ctx context.Context, tenantID, productID string, amount int64) (int64, error) {
	if err := checkAmount(amount); err != nil {
		return 0, err
	}

	var remaining int64
	err := r.store.conn(ctx).QueryRowContext(ctx,
		`UPDATE products SET quantity = quantity - ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ? AND quantity >= ?
		 RETURNING quantity`,
		amount, formatTime(time.Now()), tenantID, productID, amount,
	).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("decrementing stock: %w", err)
	}

	// The guard rejected the update; find out why.
	available, err := r.quantity(ctx, tenantID, productID)
	if err != nil {
		return 0, err
	}
	return 0, &domain.InsufficientStockError{
		ProductID: productID,
		Requested: amount,
		Available: available,
	}
}

// Increment adds amount units to the product's stock.
func (r *InventoryRepository) Increment(ctx context.Context, tenantID, productID string, amount int64) (int64, error) {
	if err := checkAmount(amount); err != nil {
		return 0, err
	}

	var quantity int64
	err := r.store.conn(ctx).QueryRowContext(ctx,
		`UPDATE products SET quantity = quantity + ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ?
		 RETURNING quantity`,
		amount, formatTime(time.Now()), tenantID, productID,
	).Scan(&quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, &domain.ProductNotFoundError{ProductID: productID}
		}
		return 0, fmt.Errorf("incrementing stock: %w", err)
	}
	return quantity, nil
}

// BatchTryDecrement applies every line or none of them.
func (r *InventoryRepository) BatchTryDecrement(ctx context.Context, tenantID string, lines []domain.StockLine) error {
	return r.store.RunInTx(ctx, func(ctx context.Context) error {
		for _, line := range lines {
			if _, err := r.TryDecrement(ctx, tenantID, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *InventoryRepository) quantity(ctx context.Context, tenantID, productID string) (int64, error) {
	var quantity int64
	err := r.store.conn(ctx).QueryRowContext(ctx,
		`SELECT quantity FROM products WHERE tenant_id = ? AND id = ?`,
		tenantID, productID,
	).Scan(&quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, &domain.ProductNotFoundError{ProductID: productID}
		}
		return 0, fmt.Errorf("reading stock: %w", err)
	}
	return quantity, nil
}

func checkAmount(amount int64) error {
	if amount < 1 {
		return &domain.ValidationError{Field: "amount", Reason: fmt.Sprintf("must be at least 1, got %d", amount)}
	}
	return nil
}
