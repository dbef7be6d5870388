package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/neomorfeo/retailledger/internal/domain"
)

// Compile-time checks.
var (
	_ domain.SequenceAllocator = (*SequenceRepository)(nil)
	_ domain.SequenceSeeder    = (*SequenceRepository)(nil)
)

// codeColumns names the table and column holding the formatted codes of a series.
var codeColumns = map[domain.Series]struct{ table, column string }{
	domain.SeriesOrder:    {"orders", "order_number"},
	domain.SeriesCustomer: {"customers", "code"},
}

// SequenceRepository allocates per-tenant counters from the sequences table.
type SequenceRepository struct {
	store *Store
}

// Next creates the counter row at 1 or bumps it, in one statement. When called
// inside RunInTx, a rollback also returns the number to the pool.
func (r *SequenceRepository) Next(ctx context.Context, tenantID string, series domain.Series) (int64, error) {
	var value int64
	err := r.store.conn(ctx).QueryRowContext(ctx,
		`INSERT INTO sequences (tenant_id, series, value, updated_at)
		 VALUES (?, ?, 1, ?)
		 ON CONFLICT (tenant_id, series)
		 DO UPDATE SET value = sequences.value + 1, updated_at = excluded.updated_at
		 RETURNING value`,
		tenantID, string(series), formatTime(time.Now()),
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("allocating %s sequence: %w", series, err)
	}
	return value, nil
}

// Current returns the last issued value, or 0 when the series has never been used.
func (r *SequenceRepository) Current(ctx context.Context, tenantID string, series domain.Series) (int64, error) {
	var value int64
	err := r.store.conn(ctx).QueryRowContext(ctx,
		`SELECT COALESCE(MAX(value), 0) FROM sequences WHERE tenant_id = ? AND series = ?`,
		tenantID, string(series),
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("reading %s sequence: %w", series, err)
	}
	return value, nil
}

// Highest returns the larger of the counter row and the highest number found in
// the codes stored for the series. Codes issued by another allocator never touch
// the counter row, so both sources are consulted.
func (r *SequenceRepository) Highest(ctx context.Context, tenantID string, series domain.Series) (int64, error) {
	highest, err := r.Current(ctx, tenantID, series)
	if err != nil {
		return 0, err
	}

	cols, ok := codeColumns[series]
	if !ok {
		return highest, nil
	}

	// Codes look like PREFIX-NNNN-suffix; the number sits between the first two dashes.
	start := len(series.Prefix()) + 2
	query := fmt.Sprintf(
		`SELECT COALESCE(MAX(CAST(substr(%[1]s, ?, instr(substr(%[1]s, ?), '-') - 1) AS INTEGER)), 0)
		 FROM %[2]s WHERE tenant_id = ? AND %[1]s LIKE ?`,
		cols.column, cols.table)

	var stored int64
	err = r.store.conn(ctx).QueryRowContext(ctx, query,
		start, start, tenantID, series.Prefix()+"-%",
	).Scan(&stored)
	if err != nil {
		return 0, fmt.Errorf("scanning stored %s codes: %w", series, err)
	}
	return max(highest, stored), nil
}
