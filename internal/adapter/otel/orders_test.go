package otel_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"

	adapter "github.com/neomorfeo/retailledger/internal/adapter/otel"
	"github.com/neomorfeo/retailledger/internal/domain"
)

// --- Mocks ---

type mockOrders struct {
	orders map[string]domain.Order
}

func newMockOrders() *mockOrders {
	return &mockOrders{orders: make(map[string]domain.Order)}
}

func (m *mockOrders) Create(_ context.Context, o domain.Order) error {
	if _, ok := m.orders[o.OrderNumber]; ok {
		return &domain.DuplicateIdentifierError{Identifier: o.OrderNumber}
	}
	m.orders[o.OrderNumber] = o
	return nil
}

func (m *mockOrders) GetByNumber(_ context.Context, _, number string) (domain.Order, error) {
	o, ok := m.orders[number]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func (m *mockOrders) List(_ context.Context, _ string, _ domain.OrderFilter) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *mockOrders) UpdateStatus(_ context.Context, _, number string, from, to domain.Status) error {
	o, ok := m.orders[number]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.Status != from {
		return domain.ErrStatusConflict
	}
	o.Status = to
	m.orders[number] = o
	return nil
}

type mockSequences struct{ value int64 }

func (m *mockSequences) Next(context.Context, string, domain.Series) (int64, error) {
	m.value++
	return m.value, nil
}

// --- Tests ---

func TestTracingOrders_Create(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingOrders(newMockOrders())

	order := domain.NewOrder("o-1", "t-1", "INV-0001-t-1", "c-1", nil, domain.PaymentCash, domain.StatusPending)
	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "OrderRepository.Create" {
		t.Errorf("span name = %q", spans[0].Name)
	}
	assertAttribute(t, spans[0], "order.number", "INV-0001-t-1")
	assertAttribute(t, spans[0], "order.status", "Pending")
}

func TestTracingOrders_GetByNumber_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	repo := adapter.NewTracingOrders(newMockOrders())

	_, err := repo.GetByNumber(context.Background(), "t-1", "INV-9999-t-1")
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want Error", spans[0].Status.Code)
	}
}

func TestTracingOrders_ListAndUpdateStatus(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := newMockOrders()
	repo := adapter.NewTracingOrders(inner)
	ctx := context.Background()

	_ = inner.Create(ctx, domain.NewOrder("o-1", "t-1", "INV-0001-t-1", "c-1", nil, domain.PaymentCash, domain.StatusCompleted))

	status := domain.StatusCompleted
	orders, err := repo.List(ctx, "t-1", domain.OrderFilter{Status: &status, Limit: 10})
	if err != nil || len(orders) != 1 {
		t.Fatalf("List = %d orders, %v", len(orders), err)
	}
	if err := repo.UpdateStatus(ctx, "t-1", "INV-0001-t-1", domain.StatusCompleted, domain.StatusCancelled); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	assertAttribute(t, spans[0], "filter.status", "Completed")
	assertAttribute(t, spans[0], "result.count", "1")
	assertAttribute(t, spans[1], "order.status.from", "Completed")
	assertAttribute(t, spans[1], "order.status.to", "Cancelled")
}

func TestTracingSequences_Next(t *testing.T) {
	exporter := setupTestTracer(t)
	seq := adapter.NewTracingSequences(&mockSequences{value: 6})

	got, err := seq.Next(context.Background(), "t-1", domain.SeriesOrder)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 7 {
		t.Errorf("Next = %d, want 7", got)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "SequenceAllocator.Next" {
		t.Fatalf("spans = %+v", spans)
	}
	assertAttribute(t, spans[0], "sequence.series", "order")
	assertAttribute(t, spans[0], "sequence.value", "7")
}
