package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/retailledger/internal/domain"
)

// TracingLedger wraps a domain.InventoryLedger with spans and counts rejected decrements.
type TracingLedger struct {
	next     domain.InventoryLedger
	tracer   trace.Tracer
	rejected metric.Int64Counter
}

// Compile-time check: TracingLedger implements domain.InventoryLedger.
var _ domain.InventoryLedger = (*TracingLedger)(nil)

// NewTracingLedger creates a tracing decorator around the given ledger.
func NewTracingLedger(next domain.InventoryLedger) (*TracingLedger, error) {
	rejected, err := otel.Meter(instrumentationName).Int64Counter("ledger.decrement.rejected",
		metric.WithDescription("Stock decrements refused because of insufficient stock."),
		metric.WithUnit("{decrement}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rejected decrement counter: %w", err)
	}

	return &TracingLedger{
		next:     next,
		tracer:   otel.Tracer(instrumentationName),
		rejected: rejected,
	}, nil
}

func (l *TracingLedger) TryDecrement(ctx context.Context, tenantID, productID string, amount int64) (int64, error) {
	ctx, span := l.tracer.Start(ctx, "InventoryLedger.TryDecrement",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("product.id", productID),
			attribute.Int64("stock.amount", amount),
		),
	)
	defer span.End()

	remaining, err := l.next.TryDecrement(ctx, tenantID, productID, amount)
	l.countRejection(ctx, err)
	finish(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int64("stock.remaining", remaining))
	}
	return remaining, err
}

func (l *TracingLedger) Increment(ctx context.Context, tenantID, productID string, amount int64) (int64, error) {
	ctx, span := l.tracer.Start(ctx, "InventoryLedger.Increment",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("product.id", productID),
			attribute.Int64("stock.amount", amount),
		),
	)
	defer span.End()

	quantity, err := l.next.Increment(ctx, tenantID, productID, amount)
	finish(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int64("stock.remaining", quantity))
	}
	return quantity, err
}

func (l *TracingLedger) BatchTryDecrement(ctx context.Context, tenantID string, lines []domain.StockLine) error {
	ctx, span := l.tracer.Start(ctx, "InventoryLedger.BatchTryDecrement",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.Int("stock.lines", len(lines)),
		),
	)
	defer span.End()

	err := l.next.BatchTryDecrement(ctx, tenantID, lines)
	l.countRejection(ctx, err)
	finish(span, err)
	return err
}

func (l *TracingLedger) countRejection(ctx context.Context, err error) {
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		l.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("product.id", stockErr.ProductID)))
	}
}
