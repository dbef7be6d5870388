package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/retailledger/internal/domain"
)

// Compile-time check: CustomerRepository implements domain.CustomerRepository.
var _ domain.CustomerRepository = (*CustomerRepository)(nil)

// CustomerRepository implements domain.CustomerRepository using SQLite.
type CustomerRepository struct {
	store *Store
}

const customerColumns = `id, tenant_id, code, name, phone, email, address, created_at, updated_at`

func (r *CustomerRepository) Create(ctx context.Context, c domain.Customer) error {
	_, err := r.store.conn(ctx).ExecContext(ctx,
		`INSERT INTO customers (`+customerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.TenantID, c.Code, c.Name, c.Phone, c.Email, c.Address,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateIdentifierError{Identifier: c.Code}
		}
		return fmt.Errorf("inserting customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, tenantID, id string) (domain.Customer, error) {
	c, err := scanCustomer(r.store.conn(ctx).QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE tenant_id = ? AND id = ?`,
		tenantID, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return c, err
}

func (r *CustomerRepository) List(ctx context.Context, tenantID string, filter domain.CustomerFilter) ([]domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE tenant_id = ?`
	args := []any{tenantID}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query += ` AND (name LIKE ? OR phone LIKE ? OR code LIKE ?)`
		args = append(args, pattern, pattern, pattern)
	}

	query += ` ORDER BY created_at DESC`
	query, args = pagination(query, args, filter.Limit, filter.Offset)

	rows, err := r.store.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func scanCustomer(row rowScanner) (domain.Customer, error) {
	var c domain.Customer
	var createdAt, updatedAt string

	err := row.Scan(&c.ID, &c.TenantID, &c.Code, &c.Name, &c.Phone, &c.Email, &c.Address, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, err
		}
		return domain.Customer{}, fmt.Errorf("scanning customer: %w", err)
	}

	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return c, nil
}
