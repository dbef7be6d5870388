package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/retailledger/internal/domain"
)

// TracingOrders wraps a domain.OrderRepository with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingOrders struct {
	next   domain.OrderRepository
	tracer trace.Tracer
}

// Compile-time check: TracingOrders implements domain.OrderRepository.
var _ domain.OrderRepository = (*TracingOrders)(nil)

// NewTracingOrders creates a tracing decorator around the given repository.
func NewTracingOrders(next domain.OrderRepository) *TracingOrders {
	return &TracingOrders{
		next:   next,
		tracer: otel.Tracer(instrumentationName),
	}
}

func (r *TracingOrders) Create(ctx context.Context, order domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.Create",
		trace.WithAttributes(
			attribute.String("tenant.id", order.TenantID),
			attribute.String("order.number", order.OrderNumber),
			attribute.String("order.status", string(order.Status)),
			attribute.Int("order.items", len(order.Items)),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, order)
	finish(span, err)
	return err
}

func (r *TracingOrders) GetByNumber(ctx context.Context, tenantID, orderNumber string) (domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetByNumber",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("order.number", orderNumber),
		),
	)
	defer span.End()

	order, err := r.next.GetByNumber(ctx, tenantID, orderNumber)
	finish(span, err)
	return order, err
}

func (r *TracingOrders) List(ctx context.Context, tenantID string, filter domain.OrderFilter) ([]domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.List",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}
	if filter.CustomerID != "" {
		span.SetAttributes(attribute.String("filter.customer_id", filter.CustomerID))
	}

	orders, err := r.next.List(ctx, tenantID, filter)
	finish(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(orders)))
	}
	return orders, err
}

func (r *TracingOrders) UpdateStatus(ctx context.Context, tenantID, orderNumber string, from, to domain.Status) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.UpdateStatus",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("order.number", orderNumber),
			attribute.String("order.status.from", string(from)),
			attribute.String("order.status.to", string(to)),
		),
	)
	defer span.End()

	err := r.next.UpdateStatus(ctx, tenantID, orderNumber, from, to)
	finish(span, err)
	return err
}
