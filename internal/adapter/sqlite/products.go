package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/retailledger/internal/domain"
)

// Compile-time check: ProductRepository implements domain.ProductRepository.
var _ domain.ProductRepository = (*ProductRepository)(nil)

// ProductRepository implements domain.ProductRepository using SQLite.
type ProductRepository struct {
	store *Store
}

const productColumns = `id, tenant_id, sku, name, price, quantity, created_at, updated_at`

func (r *ProductRepository) Create(ctx context.Context, p domain.Product) error {
	_, err := r.store.conn(ctx).ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.TenantID, p.SKU, p.Name, p.Price.String(), p.Quantity,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateIdentifierError{Identifier: p.SKU}
		}
		return fmt.Errorf("inserting product: %w", err)
	}
	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, tenantID, id string) (domain.Product, error) {
	p, err := scanProduct(r.store.conn(ctx).QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE tenant_id = ? AND id = ?`,
		tenantID, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, &domain.ProductNotFoundError{ProductID: id}
	}
	return p, err
}

func (r *ProductRepository) List(ctx context.Context, tenantID string, filter domain.ProductFilter) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = ?`
	args := []any{tenantID}

	if filter.MaxQuantity != nil {
		query += ` AND quantity <= ?`
		args = append(args, *filter.MaxQuantity)
		query += ` ORDER BY quantity ASC, name ASC`
	} else {
		query += ` ORDER BY created_at DESC`
	}

	query, args = pagination(query, args, filter.Limit, filter.Offset)

	rows, err := r.store.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.store.conn(ctx).ExecContext(ctx,
		`DELETE FROM products WHERE tenant_id = ? AND id = ?`, tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return &domain.ProductNotFoundError{ProductID: id}
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	var price, createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.TenantID, &p.SKU, &p.Name, &price, &p.Quantity, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, err
		}
		return domain.Product{}, fmt.Errorf("scanning product: %w", err)
	}

	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parsing price of product %s: %w", p.ID, err)
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)

	return p, nil
}
